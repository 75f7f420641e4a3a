package backend

import (
	"os"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

type sftpClient interface {
	Stat(path string) (os.FileInfo, error)
	ReadDir(path string) ([]os.FileInfo, error)
}

// SFTP implements FileSystem over an established sftp session.
type SFTP struct {
	client sftpClient
}

func NewSFTP(client *sftp.Client) *SFTP {
	return &SFTP{client: client}
}

// SFTPSession owns the ssh connection and sftp client opened by DialSFTP.
type SFTPSession struct {
	*SFTP
	conn   *ssh.Client
	client *sftp.Client
}

// DialSFTP connects to addr and opens an sftp subsystem on the connection.
func DialSFTP(addr string, config *ssh.ClientConfig) (*SFTPSession, error) {
	conn, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "open sftp session on %s", addr)
	}

	return &SFTPSession{SFTP: NewSFTP(client), conn: conn, client: client}, nil
}

func (s *SFTPSession) Close() error {
	err := s.client.Close()
	if cerr := s.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

// classify treats any status answered by the server, and the errors the sftp
// client maps from those statuses, as ordinary failures.
func (s *SFTP) classify(op, path string, err error) error {
	var status *sftp.StatusError
	if errors.As(err, &status) || os.IsNotExist(err) || os.IsPermission(err) {
		return errors.Wrapf(err, "%s %s", op, path)
	}
	return unavailable(op, path, err)
}

func (s *SFTP) stat(op, path string) (os.FileInfo, error) {
	info, err := s.client.Stat(path)
	if err != nil {
		if err = s.classify(op, path, err); IsUnavailable(err) {
			return nil, err
		}
		return nil, nil
	}
	return info, nil
}

func (s *SFTP) Exists(path string) (bool, error) {
	info, err := s.stat("exists", path)
	return info != nil, err
}

func (s *SFTP) IsDir(path string) (bool, error) {
	info, err := s.stat("isdir", path)
	if info == nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (s *SFTP) ListDir(path string) ([]string, error) {
	infos, err := s.client.ReadDir(path)
	if err != nil {
		return nil, s.classify("listdir", path, err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}
