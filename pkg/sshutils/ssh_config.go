package sshutils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/crypto/ssh"

	"github.com/pidev-project/pidev/pkg/logger"
	"github.com/pidev-project/pidev/pkg/models"
)

var ErrNotConnected = errors.New("SSH transport not connected")

// SSHConfig holds the configuration for one SSH transport connection and
// implements SSHConfiger.
type SSHConfig struct {
	host        string
	port        int
	user        string
	authMethods []ssh.AuthMethod

	dialer SSHDialer
	client SSHClienter
	log    *logger.Logger
}

// NewSSHConfig creates a transport configuration for user@host:port. Auth
// methods are set separately so the caller controls the password/key
// fallback order.
func NewSSHConfig(host string, port int, user string) *SSHConfig {
	return &SSHConfig{
		host:   host,
		port:   port,
		user:   user,
		dialer: NewDefaultDialer(),
		log:    logger.Get(),
	}
}

// SetDialer replaces the dialer. Intended for tests.
func (c *SSHConfig) SetDialer(dialer SSHDialer) {
	c.dialer = dialer
}

// SetClient injects an established client. Intended for tests.
func (c *SSHConfig) SetClient(client SSHClienter) {
	c.client = client
}

func (c *SSHConfig) Host() string { return c.host }
func (c *SSHConfig) User() string { return c.user }

func (c *SSHConfig) SetAuthMethods(methods []ssh.AuthMethod) {
	c.authMethods = methods
}

func (c *SSHConfig) IsConnected() bool {
	return c.client != nil
}

// Connect establishes the transport. Transient network failures are retried
// a fixed number of times; DNS and authentication failures are classified
// and surfaced immediately as typed errors.
func (c *SSHConfig) Connect(ctx context.Context) error {
	if len(c.authMethods) == 0 {
		return fmt.Errorf("connect %s: %w", c.host, models.ErrAuthConfig)
	}

	clientConfig := &ssh.ClientConfig{
		User:            c.user,
		Auth:            c.authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
		Timeout:         SSHDialTimeout,
	}

	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	var err error
	for attempt := 1; attempt <= SSHRetryAttempts; attempt++ {
		c.log.Debugf("dialing %s (attempt %d/%d)", addr, attempt, SSHRetryAttempts)

		var client SSHClienter
		client, err = c.dialer.Dial(ctx, "tcp", addr, clientConfig)
		if err == nil {
			c.client = client
			return nil
		}

		if IsDNSError(err) {
			return fmt.Errorf("host %s: %w", c.host, models.ErrDNSResolution)
		}
		if IsAuthenticationError(err) {
			return fmt.Errorf("host %s: %w", c.host, models.ErrAuthentication)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt < SSHRetryAttempts {
			c.log.Debugf("dial failed, retrying in %v: %v", SSHRetryDelay, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(SSHRetryDelay):
			}
		}
	}

	return fmt.Errorf("failed to connect to %s after %d attempts: %w",
		addr, SSHRetryAttempts, err)
}

// Close releases the transport.
func (c *SSHConfig) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// Run executes one command and captures its exit code, stdout and stderr.
// A nonzero exit is not an error; transport failures are.
func (c *SSHConfig) Run(ctx context.Context, cmd string) (CommandResult, error) {
	if c.client == nil {
		return CommandResult{}, ErrNotConnected
	}

	session, err := c.client.NewSession()
	if err != nil {
		return CommandResult{}, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.SetStdout(&stdout)
	session.SetStderr(&stderr)

	c.log.Debugf("running on %s: %s", c.host, cmd)

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	// No mid-command cancellation: once dispatched, a command runs until it
	// completes or the transport fails. Cancellation closes the session so
	// the caller is not left waiting.
	select {
	case <-ctx.Done():
		session.Close()
		return CommandResult{}, ctx.Err()
	case err = <-done:
	}

	result := CommandResult{
		Command: cmd,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}
		return result, fmt.Errorf("command failed on %s: %w", c.host, err)
	}
	return result, nil
}

// RunSudo runs a command elevated.
func (c *SSHConfig) RunSudo(ctx context.Context, cmd string) (CommandResult, error) {
	return c.Run(ctx, "sudo "+cmd)
}

// RunChecked runs a command and turns a nonzero exit into a
// RemoteCommandError carrying the hostname and captured stderr.
func (c *SSHConfig) RunChecked(ctx context.Context, cmd string) (CommandResult, error) {
	result, err := c.Run(ctx, cmd)
	if err != nil {
		return result, err
	}
	if !result.Success() {
		return result, &models.RemoteCommandError{
			Host:     c.host,
			Command:  cmd,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return result, nil
}

// RunWithRetry retries a command on nonzero exit with a fixed short
// backoff. It exists for checks that race with asynchronous remote state;
// transport errors are not retried.
func (c *SSHConfig) RunWithRetry(ctx context.Context, cmd string) (CommandResult, error) {
	var result CommandResult

	operation := func() error {
		r, err := c.Run(ctx, cmd)
		if err != nil {
			return backoff.Permanent(err)
		}
		result = r
		if !r.Success() {
			return fmt.Errorf("exit code %d", r.ExitCode)
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(CommandRetryDelay),
			uint64(CommandRetryAttempts-1),
		),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return result, perm.Unwrap()
		}
		if ctx.Err() != nil && result.Command == "" {
			return result, ctx.Err()
		}
		// All attempts exhausted with nonzero exit: the last result tells
		// the caller what the remote saw.
	}
	return result, nil
}

// RunScript uploads a multi-line script to a temp file, executes it and
// removes it. Larger remote logic than a single shell line goes through
// here.
func (c *SSHConfig) RunScript(ctx context.Context, script string, sudo bool) (CommandResult, error) {
	remotePath := fmt.Sprintf("/tmp/pidev-%d.sh", time.Now().UnixNano())

	if err := c.PushBytes(ctx, remotePath, []byte(script), 0700); err != nil {
		return CommandResult{}, fmt.Errorf("failed to upload script: %w", err)
	}
	defer func() {
		if _, err := c.Run(ctx, "rm -f "+remotePath); err != nil {
			c.log.Debugf("failed to remove remote script %s: %v", remotePath, err)
		}
	}()

	cmd := "sh " + remotePath
	if sudo {
		cmd = "sudo " + cmd
	}
	return c.Run(ctx, cmd)
}

// PushBytes writes content to a remote path over SFTP.
func (c *SSHConfig) PushBytes(
	ctx context.Context,
	remotePath string,
	content []byte,
	mode os.FileMode,
) error {
	if c.client == nil {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sftpClient, err := c.client.SFTP()
	if err != nil {
		return fmt.Errorf("failed to create SFTP client: %w", err)
	}
	defer sftpClient.Close()

	remoteFile, err := sftpClient.Create(remotePath)
	if err != nil {
		return fmt.Errorf("failed to create remote file %s: %w", remotePath, err)
	}

	if _, err := remoteFile.Write(content); err != nil {
		remoteFile.Close()
		return fmt.Errorf("failed to write %s: %w", remotePath, err)
	}
	if err := remoteFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", remotePath, err)
	}

	return sftpClient.Chmod(remotePath, mode)
}

// PullFile reads a remote file over SFTP.
func (c *SSHConfig) PullFile(ctx context.Context, remotePath string) ([]byte, error) {
	if c.client == nil {
		return nil, ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sftpClient, err := c.client.SFTP()
	if err != nil {
		return nil, fmt.Errorf("failed to create SFTP client: %w", err)
	}
	defer sftpClient.Close()

	remoteFile, err := sftpClient.Open(remotePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote file %s: %w", remotePath, err)
	}
	defer remoteFile.Close()

	return io.ReadAll(remoteFile)
}

// WaitForPort polls until a TCP port is listening on the device or the
// timeout elapses. A timeout is not an error: callers degrade gracefully
// when no ready signal appears.
func (c *SSHConfig) WaitForPort(
	ctx context.Context,
	port int,
	timeout time.Duration,
) (bool, error) {
	cmd := fmt.Sprintf(
		"ss -tln 2>/dev/null | grep -q ':%d ' || netstat -tln 2>/dev/null | grep -q ':%d '",
		port, port,
	)

	deadline := time.Now().Add(timeout)
	for {
		result, err := c.Run(ctx, cmd)
		if err != nil {
			return false, err
		}
		if result.Success() {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(PortPollInterval):
		}
	}
}

var _ SSHConfiger = (*SSHConfig)(nil)
