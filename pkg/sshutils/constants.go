package sshutils

import "time"

var (
	SSHDialTimeout   = 10 * time.Second
	SSHRetryAttempts = 3
	SSHRetryDelay    = 2 * time.Second

	// Retry policy for commands that race with asynchronous remote state.
	CommandRetryAttempts = 3
	CommandRetryDelay    = 200 * time.Millisecond

	PortPollInterval = 500 * time.Millisecond
)
