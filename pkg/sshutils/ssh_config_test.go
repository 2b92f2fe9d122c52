package sshutils

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/pidev-project/pidev/pkg/models"
)

func testAuthMethods() []ssh.AuthMethod {
	return []ssh.AuthMethod{ssh.Password("raspberry")}
}

func TestConnectRequiresAuthMethods(t *testing.T) {
	config := NewSSHConfig("pi.local", 22, "pi")

	err := config.Connect(context.Background())
	assert.ErrorIs(t, err, models.ErrAuthConfig)
}

func TestConnectSuccess(t *testing.T) {
	dialer := new(MockSSHDialer)
	client := new(MockSSHClienter)
	dialer.On("Dial", mock.Anything, "tcp", "pi.local:22", mock.Anything).
		Return(client, nil).Once()

	config := NewSSHConfig("pi.local", 22, "pi")
	config.SetDialer(dialer)
	config.SetAuthMethods(testAuthMethods())

	require.NoError(t, config.Connect(context.Background()))
	assert.True(t, config.IsConnected())
	dialer.AssertExpectations(t)
}

func TestConnectClassifiesAuthenticationFailure(t *testing.T) {
	dialer := new(MockSSHDialer)
	dialer.On("Dial", mock.Anything, "tcp", "pi.local:22", mock.Anything).
		Return(nil, errors.New(
			"ssh: unable to authenticate, attempted methods [none publickey]")).
		Once()

	config := NewSSHConfig("pi.local", 22, "pi")
	config.SetDialer(dialer)
	config.SetAuthMethods(testAuthMethods())

	err := config.Connect(context.Background())
	assert.ErrorIs(t, err, models.ErrAuthentication)
	// Authentication rejection is final, no retry.
	dialer.AssertNumberOfCalls(t, "Dial", 1)
}

func TestConnectClassifiesDNSFailure(t *testing.T) {
	dialer := new(MockSSHDialer)
	dialer.On("Dial", mock.Anything, "tcp", "nosuchhost.local:22", mock.Anything).
		Return(nil, &net.DNSError{Err: "no such host", Name: "nosuchhost.local"}).
		Once()

	config := NewSSHConfig("nosuchhost.local", 22, "pi")
	config.SetDialer(dialer)
	config.SetAuthMethods(testAuthMethods())

	err := config.Connect(context.Background())
	assert.ErrorIs(t, err, models.ErrDNSResolution)
	dialer.AssertNumberOfCalls(t, "Dial", 1)
}

func TestConnectRetriesTransientFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("retry delays")
	}

	dialer := new(MockSSHDialer)
	client := new(MockSSHClienter)
	dialer.On("Dial", mock.Anything, "tcp", "pi.local:22", mock.Anything).
		Return(nil, errors.New("connection refused")).Once()
	dialer.On("Dial", mock.Anything, "tcp", "pi.local:22", mock.Anything).
		Return(client, nil).Once()

	config := NewSSHConfig("pi.local", 22, "pi")
	config.SetDialer(dialer)
	config.SetAuthMethods(testAuthMethods())

	require.NoError(t, config.Connect(context.Background()))
	dialer.AssertNumberOfCalls(t, "Dial", 2)
}

func TestRunNotConnected(t *testing.T) {
	config := NewSSHConfig("pi.local", 22, "pi")

	_, err := config.Run(context.Background(), "uname -m")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestRunCapturesOutput(t *testing.T) {
	session := new(MockSSHSessioner)
	session.RunStdout = "aarch64\n"
	session.On("Run", "uname -m").Return(nil)
	session.On("Close").Return(nil)

	client := new(MockSSHClienter)
	client.On("NewSession").Return(session, nil)

	config := NewSSHConfig("pi.local", 22, "pi")
	config.SetClient(client)

	result, err := config.Run(context.Background(), "uname -m")
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "aarch64\n", result.Stdout)
	assert.Equal(t, "uname -m", result.Command)
	session.AssertExpectations(t)
}

func TestRunSudoPrefixesCommand(t *testing.T) {
	session := new(MockSSHSessioner)
	session.On("Run", "sudo whoami").Return(nil)
	session.On("Close").Return(nil)

	client := new(MockSSHClienter)
	client.On("NewSession").Return(session, nil)

	config := NewSSHConfig("pi.local", 22, "pi")
	config.SetClient(client)

	_, err := config.RunSudo(context.Background(), "whoami")
	require.NoError(t, err)
	session.AssertExpectations(t)
}

func TestRunCheckedPassesThroughSuccess(t *testing.T) {
	session := new(MockSSHSessioner)
	session.On("Run", "true").Return(nil)
	session.On("Close").Return(nil)

	client := new(MockSSHClienter)
	client.On("NewSession").Return(session, nil)

	config := NewSSHConfig("pi.local", 22, "pi")
	config.SetClient(client)

	result, err := config.RunChecked(context.Background(), "true")
	require.NoError(t, err)
	assert.True(t, result.Success())
}

func TestRunTransportFailure(t *testing.T) {
	session := new(MockSSHSessioner)
	session.On("Run", "uname -m").Return(errors.New("connection lost"))
	session.On("Close").Return(nil)

	client := new(MockSSHClienter)
	client.On("NewSession").Return(session, nil)

	config := NewSSHConfig("pi.local", 22, "pi")
	config.SetClient(client)

	_, err := config.Run(context.Background(), "uname -m")
	assert.ErrorContains(t, err, "command failed on pi.local")
}

func TestPushBytes(t *testing.T) {
	content := []byte("#!/bin/sh\necho hello\n")

	remoteFile := new(MockWriteCloser)
	remoteFile.On("Write", content).Return(len(content), nil)
	remoteFile.On("Close").Return(nil)

	sftpClient := new(MockSFTPClienter)
	sftpClient.On("Create", "/tmp/setup.sh").Return(remoteFile, nil)
	sftpClient.On("Chmod", "/tmp/setup.sh", os.FileMode(0700)).Return(nil)
	sftpClient.On("Close").Return(nil)

	client := new(MockSSHClienter)
	client.On("SFTP").Return(sftpClient, nil)

	config := NewSSHConfig("pi.local", 22, "pi")
	config.SetClient(client)

	err := config.PushBytes(context.Background(), "/tmp/setup.sh", content, 0700)
	require.NoError(t, err)
	remoteFile.AssertExpectations(t)
	sftpClient.AssertExpectations(t)
}

func TestPullFile(t *testing.T) {
	sftpClient := new(MockSFTPClienter)
	sftpClient.On("Open", ".pidev-key").
		Return(io.NopCloser(strings.NewReader("key material")), nil)
	sftpClient.On("Close").Return(nil)

	client := new(MockSSHClienter)
	client.On("SFTP").Return(sftpClient, nil)

	config := NewSSHConfig("pi.local", 22, "pi")
	config.SetClient(client)

	data, err := config.PullFile(context.Background(), ".pidev-key")
	require.NoError(t, err)
	assert.Equal(t, "key material", string(data))
}

func TestRunScriptUploadsExecutesAndCleansUp(t *testing.T) {
	script := "uname -m\necho done\n"

	remoteFile := new(MockWriteCloser)
	remoteFile.On("Write", []byte(script)).Return(len(script), nil)
	remoteFile.On("Close").Return(nil)

	sftpClient := new(MockSFTPClienter)
	sftpClient.On("Create", mock.MatchedBy(func(path string) bool {
		return strings.HasPrefix(path, "/tmp/pidev-") && strings.HasSuffix(path, ".sh")
	})).Return(remoteFile, nil)
	sftpClient.On("Chmod", mock.Anything, os.FileMode(0700)).Return(nil)
	sftpClient.On("Close").Return(nil)

	session := new(MockSSHSessioner)
	session.On("Run", mock.MatchedBy(func(cmd string) bool {
		return strings.HasPrefix(cmd, "sudo sh /tmp/pidev-")
	})).Return(nil).Once()
	session.On("Run", mock.MatchedBy(func(cmd string) bool {
		return strings.HasPrefix(cmd, "rm -f /tmp/pidev-")
	})).Return(nil).Once()
	session.On("Close").Return(nil)

	client := new(MockSSHClienter)
	client.On("SFTP").Return(sftpClient, nil)
	client.On("NewSession").Return(session, nil)

	config := NewSSHConfig("pi.local", 22, "pi")
	config.SetClient(client)

	result, err := config.RunScript(context.Background(), script, true)
	require.NoError(t, err)
	assert.True(t, result.Success())
	session.AssertExpectations(t)
	sftpClient.AssertExpectations(t)
}

func TestCloseIsIdempotent(t *testing.T) {
	client := new(MockSSHClienter)
	client.On("Close").Return(nil).Once()

	config := NewSSHConfig("pi.local", 22, "pi")
	config.SetClient(client)

	require.NoError(t, config.Close())
	require.NoError(t, config.Close())
	assert.False(t, config.IsConnected())
	client.AssertExpectations(t)
}

func TestStdoutLines(t *testing.T) {
	result := CommandResult{Stdout: "aarch64\r\n/usr/bin:/bin\n\npresent\n"}
	assert.Equal(t,
		[]string{"aarch64", "/usr/bin:/bin", "present"},
		result.StdoutLines(),
	)

	assert.Empty(t, CommandResult{Stdout: "\n  \n"}.StdoutLines())
}
