package sshutils

import (
	"io"
	"os"

	"github.com/pkg/sftp"
)

// SFTPClientWrapper adapts *sftp.Client to the SFTPClienter interface.
type SFTPClientWrapper struct {
	Client *sftp.Client
}

func (w *SFTPClientWrapper) Create(path string) (io.WriteCloser, error) {
	return w.Client.Create(path)
}

func (w *SFTPClientWrapper) Open(path string) (io.ReadCloser, error) {
	return w.Client.Open(path)
}

func (w *SFTPClientWrapper) MkdirAll(path string) error {
	return w.Client.MkdirAll(path)
}

func (w *SFTPClientWrapper) Chmod(path string, mode os.FileMode) error {
	return w.Client.Chmod(path, mode)
}

func (w *SFTPClientWrapper) Remove(path string) error {
	return w.Client.Remove(path)
}

func (w *SFTPClientWrapper) Close() error {
	return w.Client.Close()
}
