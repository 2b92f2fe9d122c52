package sshutils

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/ssh"
)

// MockSSHConfiger is a testify mock for the transport interface consumed by
// the provisioning core.
type MockSSHConfiger struct {
	mock.Mock
}

func (m *MockSSHConfiger) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSSHConfiger) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSSHConfiger) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockSSHConfiger) Host() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSSHConfiger) User() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSSHConfiger) SetAuthMethods(methods []ssh.AuthMethod) {
	m.Called(methods)
}

func (m *MockSSHConfiger) Run(ctx context.Context, cmd string) (CommandResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(CommandResult), args.Error(1)
}

func (m *MockSSHConfiger) RunSudo(ctx context.Context, cmd string) (CommandResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(CommandResult), args.Error(1)
}

func (m *MockSSHConfiger) RunChecked(ctx context.Context, cmd string) (CommandResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(CommandResult), args.Error(1)
}

func (m *MockSSHConfiger) RunWithRetry(ctx context.Context, cmd string) (CommandResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(CommandResult), args.Error(1)
}

func (m *MockSSHConfiger) RunScript(
	ctx context.Context,
	script string,
	sudo bool,
) (CommandResult, error) {
	args := m.Called(ctx, script, sudo)
	return args.Get(0).(CommandResult), args.Error(1)
}

func (m *MockSSHConfiger) PushBytes(
	ctx context.Context,
	remotePath string,
	content []byte,
	mode os.FileMode,
) error {
	args := m.Called(ctx, remotePath, content, mode)
	return args.Error(0)
}

func (m *MockSSHConfiger) PullFile(ctx context.Context, remotePath string) ([]byte, error) {
	args := m.Called(ctx, remotePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSSHConfiger) WaitForPort(
	ctx context.Context,
	port int,
	timeout time.Duration,
) (bool, error) {
	args := m.Called(ctx, port, timeout)
	return args.Bool(0), args.Error(1)
}

var _ SSHConfiger = (*MockSSHConfiger)(nil)

// MockSSHDialer mocks transport establishment.
type MockSSHDialer struct {
	mock.Mock
}

func (m *MockSSHDialer) Dial(
	ctx context.Context,
	network, addr string,
	config *ssh.ClientConfig,
) (SSHClienter, error) {
	args := m.Called(ctx, network, addr, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(SSHClienter), args.Error(1)
}

var _ SSHDialer = (*MockSSHDialer)(nil)

// MockSSHClienter mocks an established SSH client.
type MockSSHClienter struct {
	mock.Mock
}

func (m *MockSSHClienter) NewSession() (SSHSessioner, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(SSHSessioner), args.Error(1)
}

func (m *MockSSHClienter) SFTP() (SFTPClienter, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(SFTPClienter), args.Error(1)
}

func (m *MockSSHClienter) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ SSHClienter = (*MockSSHClienter)(nil)

// MockSSHSessioner mocks a single command channel.
type MockSSHSessioner struct {
	mock.Mock

	stdout io.Writer
	stderr io.Writer

	// Output written to the captured stdout/stderr when Run is called.
	RunStdout string
	RunStderr string
}

func (m *MockSSHSessioner) Run(cmd string) error {
	if m.stdout != nil && m.RunStdout != "" {
		_, _ = io.WriteString(m.stdout, m.RunStdout)
	}
	if m.stderr != nil && m.RunStderr != "" {
		_, _ = io.WriteString(m.stderr, m.RunStderr)
	}
	args := m.Called(cmd)
	return args.Error(0)
}

func (m *MockSSHSessioner) Start(cmd string) error {
	args := m.Called(cmd)
	return args.Error(0)
}

func (m *MockSSHSessioner) Wait() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSSHSessioner) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSSHSessioner) StdinPipe() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSSHSessioner) SetStdout(w io.Writer) {
	m.stdout = w
}

func (m *MockSSHSessioner) SetStderr(w io.Writer) {
	m.stderr = w
}

var _ SSHSessioner = (*MockSSHSessioner)(nil)

// MockSFTPClienter mocks file transfer.
type MockSFTPClienter struct {
	mock.Mock
}

func (m *MockSFTPClienter) Create(path string) (io.WriteCloser, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSFTPClienter) Open(path string) (io.ReadCloser, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockSFTPClienter) MkdirAll(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockSFTPClienter) Chmod(path string, mode os.FileMode) error {
	args := m.Called(path, mode)
	return args.Error(0)
}

func (m *MockSFTPClienter) Remove(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockSFTPClienter) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ SFTPClienter = (*MockSFTPClienter)(nil)

// MockWriteCloser mocks a remote file handle.
type MockWriteCloser struct {
	mock.Mock
}

func (m *MockWriteCloser) Write(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockWriteCloser) Close() error {
	args := m.Called()
	return args.Error(0)
}
