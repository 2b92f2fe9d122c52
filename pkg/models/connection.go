package models

import (
	"fmt"
	"os"
	"strings"
)

const DefaultSSHPort = 22

// ConnectionDescriptor identifies a remote device and how to authenticate
// against it. Instances are created and persisted by the caller (the CLI or
// an IDE integration); the provisioning core may update the key paths as a
// side effect of key provisioning, and callers are expected to persist the
// updated descriptor.
type ConnectionDescriptor struct {
	Name           string `json:"name"`
	Host           string `json:"host"`
	Port           int    `json:"port"`
	User           string `json:"user"`
	Password       string `json:"password,omitempty"`
	PrivateKeyPath string `json:"privateKeyPath,omitempty"`
	PublicKeyPath  string `json:"publicKeyPath,omitempty"`
	IsDefault      bool   `json:"isDefault"`
}

// Validate checks the structural invariants of a descriptor: host and user
// present, and at least one authentication mechanism configured.
func (c *ConnectionDescriptor) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("connection %q: host cannot be empty", c.Name)
	}
	if c.User == "" {
		return fmt.Errorf("connection %q: user cannot be empty", c.Name)
	}
	if c.Password == "" && c.PrivateKeyPath == "" {
		return fmt.Errorf("connection %q: %w", c.Name, ErrAuthConfig)
	}
	return nil
}

// EffectivePort returns the configured port, defaulting to 22.
func (c *ConnectionDescriptor) EffectivePort() int {
	if c.Port <= 0 {
		return DefaultSSHPort
	}
	return c.Port
}

// HasUsableKey reports whether a private key path is set and the file exists.
func (c *ConnectionDescriptor) HasUsableKey() bool {
	if c.PrivateKeyPath == "" {
		return false
	}
	_, err := os.Stat(c.PrivateKeyPath)
	return err == nil
}

// Identity returns a filesystem-safe identifier for this connection, used to
// name keystore entries.
func (c *ConnectionDescriptor) Identity() string {
	id := fmt.Sprintf("%s@%s-%d", c.User, c.Host, c.EffectivePort())
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '.' || r == '_' || r == '@':
			return r
		default:
			return '_'
		}
	}, id)
}

// DisplayName returns the configured name, falling back to user@host.
func (c *ConnectionDescriptor) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("%s@%s", c.User, c.Host)
}
