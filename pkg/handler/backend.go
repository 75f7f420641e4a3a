package handler

import (
	"context"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/koblas/fsglob/pkg/backend"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const sshDialTimeout = 10 * time.Second

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenBackend builds the configured backend. The closer releases any
// connection the backend holds.
func OpenBackend(config BackendConfig) (backend.FileSystem, io.Closer, error) {
	switch config.Type {
	case "", "local":
		return backend.NewLocal(config.Root), nopCloser{}, nil
	case "s3":
		client, err := newS3Client(config.S3)
		if err != nil {
			return nil, nil, err
		}
		timeout := time.Duration(config.S3.RequestTimeoutSeconds) * time.Second
		return backend.NewS3(client, timeout), nopCloser{}, nil
	case "sftp":
		sshConfig, err := newSSHConfig(config.SFTP)
		if err != nil {
			return nil, nil, err
		}
		session, err := backend.DialSFTP(config.SFTP.Address, sshConfig)
		if err != nil {
			return nil, nil, err
		}
		return session, session, nil
	}

	return nil, nil, errors.Errorf("unknown backend type %q", config.Type)
}

func newS3Client(o S3Config) (*s3.Client, error) {
	configOptions := make([]func(*aws_config.LoadOptions) error, 0)

	if o.Region != "" {
		configOptions = append(configOptions, aws_config.WithRegion(o.Region))
	}

	// Static credentials override the default chain.
	if o.AccessKey != "" {
		if o.SecretKey == "" {
			return nil, errors.New("if accessKey or secretKey are specified then the other must also be specified")
		}
		provider := credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")
		configOptions = append(configOptions, aws_config.WithCredentialsProvider(provider))
	}

	cfg, err := aws_config.LoadDefaultConfig(context.TODO(), configOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	return s3.NewFromConfig(cfg, func(opts *s3.Options) {
		if o.Endpoint != "" {
			opts.BaseEndpoint = aws.String(o.Endpoint)
		}
		opts.UsePathStyle = o.UsePathStyle
	}), nil
}

func newSSHConfig(o SFTPConfig) (*ssh.ClientConfig, error) {
	var hostKeyCallback ssh.HostKeyCallback
	if o.InsecureIgnoreHostKey {
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	} else {
		knownHostsPath := o.KnownHostsFile
		if knownHostsPath == "" {
			usr, err := user.Current()
			if err != nil {
				return nil, errors.Wrap(err, "unable to determine current user")
			}
			knownHostsPath = filepath.Join(usr.HomeDir, ".ssh", "known_hosts")
		}

		var err error
		hostKeyCallback, err = knownhosts.New(knownHostsPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize known_hosts verification")
		}
	}

	config := &ssh.ClientConfig{
		User:            o.User,
		Auth:            []ssh.AuthMethod{},
		HostKeyCallback: hostKeyCallback,
		Timeout:         sshDialTimeout,
	}

	if o.Password != "" {
		config.Auth = append(config.Auth, ssh.Password(o.Password))
	}

	if o.KeyFile != "" {
		fi, err := os.Stat(o.KeyFile)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to stat private key file %s", o.KeyFile)
		}
		if perm := fi.Mode().Perm(); perm&0o077 != 0 {
			return nil, errors.Errorf("insecure private key file permissions %o for %s: must be owner-only", perm, o.KeyFile)
		}
		keyBytes, err := os.ReadFile(o.KeyFile)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read private key file %s", o.KeyFile)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, errors.Wrap(err, "unable to parse private key")
		}
		config.Auth = append(config.Auth, ssh.PublicKeys(signer))
	}

	if len(config.Auth) == 0 {
		return nil, errors.New("no valid authentication method provided (password or private key)")
	}

	return config, nil
}
