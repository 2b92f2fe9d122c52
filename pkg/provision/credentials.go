package provision

import (
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"

	"github.com/pidev-project/pidev/pkg/models"
)

// Credentials is the resolved authentication material for one connection
// attempt.
type Credentials struct {
	Methods []ssh.AuthMethod
	// UsedKey records whether key-based auth was selected; the connect
	// logic needs this to decide on the re-provisioning fallback.
	UsedKey bool
}

// ResolveCredentials decides how to authenticate: password when forced or
// when no private key path is configured, key-based otherwise. It has no
// side effects.
func ResolveCredentials(
	desc *models.ConnectionDescriptor,
	forcePassword bool,
) (Credentials, error) {
	if forcePassword || desc.PrivateKeyPath == "" {
		if desc.Password == "" {
			return Credentials{}, fmt.Errorf("connection %q: %w", desc.DisplayName(), models.ErrAuthConfig)
		}
		return Credentials{
			Methods: []ssh.AuthMethod{ssh.Password(desc.Password)},
		}, nil
	}

	keyBytes, err := os.ReadFile(desc.PrivateKeyPath)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", models.ErrKeyRead, err)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", models.ErrKeyRead, err)
	}

	return Credentials{
		Methods: []ssh.AuthMethod{ssh.PublicKeys(signer)},
		UsedKey: true,
	}, nil
}
