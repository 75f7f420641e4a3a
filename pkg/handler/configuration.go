package handler

type S3Config = struct {
	Region                string `json:"region"`
	Endpoint              string `json:"endpoint" validate:"omitempty,url"`
	AccessKey             string `json:"accessKey"`
	SecretKey             string `json:"secretKey"`
	UsePathStyle          bool   `json:"usePathStyle"`
	RequestTimeoutSeconds int    `json:"requestTimeoutSeconds" validate:"min=0,max=3600"`
}

type SFTPConfig = struct {
	Address               string `json:"address"`
	User                  string `json:"user"`
	Password              string `json:"password"`
	KeyFile               string `json:"keyFile"`
	KnownHostsFile        string `json:"knownHostsFile"`
	InsecureIgnoreHostKey bool   `json:"insecureIgnoreHostKey"`
}

type BackendConfig = struct {
	Type string     `json:"type" validate:"oneof=local s3 sftp"`
	Root string     `json:"root"`
	S3   S3Config   `json:"s3"`
	SFTP SFTPConfig `json:"sftp"`
}

type Configuration = struct {
	Public    string        `json:"public"`
	Recursive bool          `json:"recursive"`
	Unlisted  []string      `json:"unlisted" validate:"dive,min=1"`
	Backend   BackendConfig `json:"backend"`

	// Not in the config file
	Debug         bool
	Listen        []string
	NoCompression bool
}
