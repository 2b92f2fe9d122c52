package connections

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

const (
	privateKeyMode = 0600
	publicKeyMode  = 0644
)

// Keystore is the local per-connection key directory. Key provisioning
// downloads generated key pairs here, named by connection identity.
type Keystore struct {
	dir string
}

// DefaultKeystorePath returns the per-user keystore directory.
func DefaultKeystorePath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "pidev", "keys"), nil
}

// NewKeystore creates a keystore rooted at dir.
func NewKeystore(dir string) *Keystore {
	return &Keystore{dir: dir}
}

// PrivateKeyPath returns the private key path for a connection identity.
func (k *Keystore) PrivateKeyPath(identity string) string {
	return filepath.Join(k.dir, identity)
}

// PublicKeyPath returns the public key path for a connection identity.
func (k *Keystore) PublicKeyPath(identity string) string {
	return k.PrivateKeyPath(identity) + ".pub"
}

// WriteKeyPair stores both key halves with restrictive permissions and
// returns their paths.
func (k *Keystore) WriteKeyPair(identity string, private, public []byte) (string, string, error) {
	if err := os.MkdirAll(k.dir, storeDirMode); err != nil {
		return "", "", fmt.Errorf("cannot create keystore directory: %w", err)
	}

	privPath := k.PrivateKeyPath(identity)
	if err := os.WriteFile(privPath, private, privateKeyMode); err != nil {
		return "", "", fmt.Errorf("cannot write private key: %w", err)
	}

	pubPath := k.PublicKeyPath(identity)
	if err := os.WriteFile(pubPath, public, publicKeyMode); err != nil {
		return "", "", fmt.Errorf("cannot write public key: %w", err)
	}

	return privPath, pubPath, nil
}
