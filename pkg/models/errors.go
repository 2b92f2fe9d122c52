package models

import (
	"errors"
	"fmt"
)

// Error taxonomy of the provisioning core. Transport and auth failures are
// surfaced as typed errors carrying the hostname; toolchain and upload
// failures are reported as boolean results plus captured diagnostics because
// the caller decides whether they are fatal.
var (
	// ErrAuthConfig indicates a descriptor with neither password nor
	// private key configured.
	ErrAuthConfig = errors.New("no password or private key configured")

	// ErrKeyRead indicates the configured private key file is missing or
	// unreadable.
	ErrKeyRead = errors.New("cannot read private key")

	// ErrDNSResolution indicates the host name could not be resolved.
	ErrDNSResolution = errors.New("cannot resolve host")

	// ErrAuthentication indicates the remote host rejected the supplied
	// credentials.
	ErrAuthentication = errors.New("authentication rejected")

	// ErrSdkNotFound indicates no catalog entry matches the requested
	// version and device architecture.
	ErrSdkNotFound = errors.New("no matching SDK in catalog")

	// ErrCatalogUnavailable indicates the SDK catalog could not be loaded.
	ErrCatalogUnavailable = errors.New("SDK catalog unavailable")

	// ErrChecksumMismatch indicates a downloaded archive failed SHA-512
	// verification.
	ErrChecksumMismatch = errors.New("archive checksum mismatch")

	// ErrInvalidName indicates a program or assembly name containing
	// characters unsafe for shell interpolation.
	ErrInvalidName = errors.New("name contains characters unsafe for remote scripts")
)

// RemoteCommandError reports a required remote step exiting nonzero.
type RemoteCommandError struct {
	Host     string
	Command  string
	ExitCode int
	Stderr   string
}

func (e *RemoteCommandError) Error() string {
	return fmt.Sprintf("remote command on %s exited %d: %s", e.Host, e.ExitCode, e.Stderr)
}

// ConnectionError wraps any failure to establish a usable session with the
// host name for user-facing messaging.
type ConnectionError struct {
	Host  string
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to %s: %v", e.Host, e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}
