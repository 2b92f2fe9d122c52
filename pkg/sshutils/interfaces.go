package sshutils

import (
	"context"
	"io"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHConfiger is the transport capability consumed by the provisioning
// core: run commands and scripts, move files, poll ports. A Session holds
// one of these rather than inheriting from a concrete client type.
type SSHConfiger interface {
	Connect(ctx context.Context) error
	Close() error
	IsConnected() bool

	Host() string
	User() string
	SetAuthMethods(methods []ssh.AuthMethod)

	Run(ctx context.Context, cmd string) (CommandResult, error)
	RunSudo(ctx context.Context, cmd string) (CommandResult, error)
	RunChecked(ctx context.Context, cmd string) (CommandResult, error)
	RunWithRetry(ctx context.Context, cmd string) (CommandResult, error)
	RunScript(ctx context.Context, script string, sudo bool) (CommandResult, error)

	PushBytes(ctx context.Context, remotePath string, content []byte, mode os.FileMode) error
	PullFile(ctx context.Context, remotePath string) ([]byte, error)

	WaitForPort(ctx context.Context, port int, timeout time.Duration) (bool, error)
}

// SSHClienter abstracts the underlying SSH client so transports can be
// mocked in tests.
type SSHClienter interface {
	NewSession() (SSHSessioner, error)
	SFTP() (SFTPClienter, error)
	Close() error
}

// SSHSessioner abstracts a single command execution channel.
type SSHSessioner interface {
	Run(cmd string) error
	Start(cmd string) error
	Wait() error
	Close() error
	StdinPipe() (io.WriteCloser, error)
	SetStdout(w io.Writer)
	SetStderr(w io.Writer)
}

// SFTPClienter is the subset of the sftp client used for file transfer.
type SFTPClienter interface {
	Create(path string) (io.WriteCloser, error)
	Open(path string) (io.ReadCloser, error)
	MkdirAll(path string) error
	Chmod(path string, mode os.FileMode) error
	Remove(path string) error
	Close() error
}

// SSHDialer establishes the raw transport connection. The default dials
// TCP; tests substitute a mock.
type SSHDialer interface {
	Dial(ctx context.Context, network, addr string, config *ssh.ClientConfig) (SSHClienter, error)
}
