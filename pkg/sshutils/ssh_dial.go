package sshutils

import (
	"context"
	"errors"
	"net"
	"strings"

	"golang.org/x/crypto/ssh"
)

type defaultSSHDialer struct{}

// NewDefaultDialer returns the production dialer.
func NewDefaultDialer() SSHDialer {
	return &defaultSSHDialer{}
}

func (d *defaultSSHDialer) Dial(
	ctx context.Context,
	network, addr string,
	config *ssh.ClientConfig,
) (SSHClienter, error) {
	type dialResult struct {
		client SSHClienter
		err    error
	}

	result := make(chan dialResult, 1)
	go func() {
		client, err := ssh.Dial(network, addr, config)
		if err != nil {
			result <- dialResult{nil, err}
			return
		}
		result <- dialResult{&SSHClientWrapper{Client: client}, nil}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-result:
		return res.client, res.err
	}
}

// IsAuthenticationError reports whether an SSH dial failure was an
// authentication rejection, as opposed to a network or protocol failure.
// x/crypto does not expose a typed error for this, so the handshake message
// is matched.
func IsAuthenticationError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain") ||
		strings.Contains(msg, "permission denied")
}

// IsDNSError reports whether a dial failure was a host resolution failure.
func IsDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
