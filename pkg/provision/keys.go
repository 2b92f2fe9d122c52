package provision

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/pidev-project/pidev/pkg/connections"
	"github.com/pidev-project/pidev/pkg/logger"
	"github.com/pidev-project/pidev/pkg/models"
	"github.com/pidev-project/pidev/pkg/sshutils"
)

// generateKeyScript creates a 2048-bit RSA key pair in a temp path under
// the user's home directory and registers the public half in
// authorized_keys. The grep guard keeps repeated runs from duplicating
// entries. Paths are relative so they resolve against the SSH session's
// working directory (the user's home), which is also where the follow-up
// SFTP download looks.
var generateKeyScript = NewScriptTemplate(`
set -e
rm -f @{keyFile} @{pubFile}
ssh-keygen -t rsa -b 2048 -m PEM -q -N '' -C @{comment} -f @{keyFile}
mkdir -p .ssh
chmod 700 .ssh
touch .ssh/authorized_keys
chmod 600 .ssh/authorized_keys
if ! grep -qF -f @{pubFile} .ssh/authorized_keys; then
    cat @{pubFile} >> .ssh/authorized_keys
fi
exit 0
`)

// appendKeyScript re-registers an existing public key. Used after a device
// is re-imaged and loses its trusted keys while keeping the same
// user/password.
var appendKeyScript = NewScriptTemplate(`
set -e
mkdir -p .ssh
chmod 700 .ssh
touch .ssh/authorized_keys
chmod 600 .ssh/authorized_keys
if ! grep -qF @{publicKey} .ssh/authorized_keys; then
    echo @{publicKey} >> .ssh/authorized_keys
fi
exit 0
`)

const keyCleanupTimeout = 10 * time.Second

// KeyProvisioner generates and registers SSH key pairs so later sessions
// can authenticate without a password.
type KeyProvisioner struct {
	transport sshutils.SSHConfiger
	keystore  *connections.Keystore
	log       *logger.Logger
}

// NewKeyProvisioner creates a provisioner over an established transport.
func NewKeyProvisioner(transport sshutils.SSHConfiger, keystore *connections.Keystore) *KeyProvisioner {
	return &KeyProvisioner{
		transport: transport,
		keystore:  keystore,
		log:       logger.Get(),
	}
}

// EnsureKeys generates a key pair on the device, registers the public half
// for passwordless auth, downloads both halves into the local keystore and
// updates the descriptor's key paths. The remote temp files are removed
// even when the download fails.
func (kp *KeyProvisioner) EnsureKeys(
	ctx context.Context,
	desc *models.ConnectionDescriptor,
) error {
	keyFile := fmt.Sprintf(".pidev-key-%d", time.Now().UnixNano())
	pubFile := keyFile + ".pub"

	script, err := generateKeyScript.Render(map[string]string{
		"keyFile": keyFile,
		"pubFile": pubFile,
		"comment": keyComment(),
	})
	if err != nil {
		return err
	}

	kp.log.Infof("provisioning SSH key pair on %s", kp.transport.Host())
	result, err := kp.transport.RunScript(ctx, script, false)
	if err != nil {
		return fmt.Errorf("key generation failed: %w", err)
	}
	if !result.Success() {
		return &models.RemoteCommandError{
			Host:     kp.transport.Host(),
			Command:  "key generation",
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}

	// The temp key files must not outlive this call, whatever happens to
	// the download. A fresh context so removal still runs when the caller's
	// context was cancelled mid-download.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), keyCleanupTimeout)
		defer cancel()
		if _, err := kp.transport.Run(cleanupCtx, fmt.Sprintf("rm -f %s %s", keyFile, pubFile)); err != nil {
			kp.log.Warnf("failed to remove temp key files on %s: %v", kp.transport.Host(), err)
		}
	}()

	private, err := kp.transport.PullFile(ctx, keyFile)
	if err != nil {
		return fmt.Errorf("failed to download private key: %w", err)
	}
	public, err := kp.transport.PullFile(ctx, pubFile)
	if err != nil {
		return fmt.Errorf("failed to download public key: %w", err)
	}

	privPath, pubPath, err := kp.keystore.WriteKeyPair(desc.Identity(), private, public)
	if err != nil {
		return err
	}

	desc.PrivateKeyPath = privPath
	desc.PublicKeyPath = pubPath
	kp.log.Infof("key pair for %s stored at %s", desc.DisplayName(), privPath)
	return nil
}

// ReappendPublicKey registers the existing local public key on the device
// again. It never regenerates: the local key pair is still good, only the
// device forgot it.
func (kp *KeyProvisioner) ReappendPublicKey(
	ctx context.Context,
	desc *models.ConnectionDescriptor,
) error {
	if desc.PublicKeyPath == "" {
		return fmt.Errorf("connection %q has no public key to re-register", desc.DisplayName())
	}
	publicKey, err := os.ReadFile(desc.PublicKeyPath)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrKeyRead, err)
	}

	script, err := appendKeyScript.Render(map[string]string{
		"publicKey": string(trimNewline(publicKey)),
	})
	if err != nil {
		return err
	}

	kp.log.Infof("re-registering public key on %s", kp.transport.Host())
	result, err := kp.transport.RunScript(ctx, script, false)
	if err != nil {
		return fmt.Errorf("public key re-registration failed: %w", err)
	}
	if !result.Success() {
		return &models.RemoteCommandError{
			Host:     kp.transport.Host(),
			Command:  "public key re-registration",
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return nil
}

func keyComment() string {
	localUser := "pidev"
	if u, err := user.Current(); err == nil && u.Username != "" {
		localUser = u.Username
	}
	localHost, err := os.Hostname()
	if err != nil || localHost == "" {
		localHost = "localhost"
	}
	return fmt.Sprintf("%s@%s", localUser, localHost)
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
