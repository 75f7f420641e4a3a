package handler

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/go-playground/validator.v9"
)

const DefaultConfigFile = "fsglob.json"

// Configuration file format, pointers mark the values that have defaults
type fileConfiguration = struct {
	Public    string    `json:"public"`
	Recursive bool      `json:"recursive"`
	Unlisted  *[]string `json:"unlisted"`
	Backend   struct {
		Type string     `json:"type"`
		Root string     `json:"root"`
		S3   S3Config   `json:"s3"`
		SFTP SFTPConfig `json:"sftp"`
	} `json:"backend"`
}

var validate = validator.New()

// LoadConfiguration reads the JSON file at filepath. A missing file yields
// the defaults.
func LoadConfiguration(filepath string) (Configuration, error) {
	config := Configuration{}
	data := fileConfiguration{}

	file, err := os.ReadFile(filepath)
	if err == nil {
		if err = json.Unmarshal(file, &data); err != nil {
			return config, errors.Wrapf(err, "parse %s", filepath)
		}
	} else if !os.IsNotExist(err) {
		return config, errors.Wrapf(err, "read %s", filepath)
	}

	config.Public = data.Public
	config.Recursive = data.Recursive

	if data.Unlisted != nil {
		config.Unlisted = *data.Unlisted
	} else {
		// Provide sensible defaults
		config.Unlisted = []string{"**/.git/**", "**/.DS_Store"}
	}

	config.Backend.Type = data.Backend.Type
	if config.Backend.Type == "" {
		config.Backend.Type = "local"
	}
	config.Backend.Root = data.Backend.Root
	config.Backend.S3 = data.Backend.S3
	config.Backend.SFTP = data.Backend.SFTP

	if err := ValidateConfiguration(config); err != nil {
		return config, errors.Wrapf(err, "invalid configuration %s", filepath)
	}

	return config, nil
}

// ValidateConfiguration applies the struct rules and the checks that depend on
// the backend type.
func ValidateConfiguration(config Configuration) error {
	if err := validate.Struct(config); err != nil {
		return err
	}

	s3 := config.Backend.S3
	if (s3.AccessKey == "") != (s3.SecretKey == "") {
		return errors.New("if accessKey or secretKey are specified then the other must also be specified")
	}

	if config.Backend.Type == "sftp" {
		sftp := config.Backend.SFTP
		if sftp.Address == "" || sftp.User == "" {
			return errors.New("sftp backend requires address and user")
		}
		if sftp.Password == "" && sftp.KeyFile == "" {
			return errors.New("sftp backend requires a password or a keyFile")
		}
	}

	return nil
}
