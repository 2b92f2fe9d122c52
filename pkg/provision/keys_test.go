package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pidev-project/pidev/internal/testdata"
	"github.com/pidev-project/pidev/internal/testutil"
	"github.com/pidev-project/pidev/pkg/connections"
	"github.com/pidev-project/pidev/pkg/models"
	"github.com/pidev-project/pidev/pkg/sshutils"
)

func keyTestDesc() *models.ConnectionDescriptor {
	return &models.ConnectionDescriptor{
		Name:     "bench",
		Host:     "pi.local",
		User:     "pi",
		Password: "raspberry",
	}
}

func isKeygenScript(script string) bool {
	return strings.Contains(script, "ssh-keygen")
}

func isPrivateKeyFile(path string) bool {
	return strings.HasPrefix(path, ".pidev-key-") && !strings.HasSuffix(path, ".pub")
}

func isPublicKeyFile(path string) bool {
	return strings.HasPrefix(path, ".pidev-key-") && strings.HasSuffix(path, ".pub")
}

func isKeyCleanupCmd(cmd string) bool {
	return strings.HasPrefix(cmd, "rm -f .pidev-key-")
}

func TestEnsureKeysDownloadsAndStoresPair(t *testing.T) {
	transport := newProbeTransport()
	transport.On("RunScript", mock.Anything, mock.MatchedBy(isKeygenScript), false).
		Return(sshutils.CommandResult{}, nil).Once()
	transport.On("PullFile", mock.Anything, mock.MatchedBy(isPrivateKeyFile)).
		Return([]byte(testdata.TestPrivateSSHKeyMaterial), nil).Once()
	transport.On("PullFile", mock.Anything, mock.MatchedBy(isPublicKeyFile)).
		Return([]byte(testdata.TestPublicSSHKeyMaterial), nil).Once()
	transport.On("Run", mock.Anything, mock.MatchedBy(isKeyCleanupCmd)).
		Return(sshutils.CommandResult{}, nil).Once()

	keystore := connections.NewKeystore(filepath.Join(t.TempDir(), "keys"))
	desc := keyTestDesc()

	err := NewKeyProvisioner(transport, keystore).EnsureKeys(context.Background(), desc)
	require.NoError(t, err)

	assert.Equal(t, keystore.PrivateKeyPath(desc.Identity()), desc.PrivateKeyPath)
	assert.Equal(t, keystore.PublicKeyPath(desc.Identity()), desc.PublicKeyPath)

	private, err := os.ReadFile(desc.PrivateKeyPath)
	require.NoError(t, err)
	assert.Equal(t, testdata.TestPrivateSSHKeyMaterial, string(private))

	transport.AssertExpectations(t)
}

func TestEnsureKeysScriptFailure(t *testing.T) {
	transport := newProbeTransport()
	transport.On("RunScript", mock.Anything, mock.MatchedBy(isKeygenScript), false).
		Return(sshutils.CommandResult{ExitCode: 1, Stderr: "ssh-keygen: not found"}, nil).
		Once()

	keystore := connections.NewKeystore(filepath.Join(t.TempDir(), "keys"))
	desc := keyTestDesc()

	err := NewKeyProvisioner(transport, keystore).EnsureKeys(context.Background(), desc)

	var remoteErr *models.RemoteCommandError
	require.ErrorAs(t, err, &remoteErr)
	assert.Empty(t, desc.PrivateKeyPath)
	transport.AssertNotCalled(t, "PullFile", mock.Anything, mock.Anything)
}

func TestEnsureKeysCleansUpAfterFailedDownload(t *testing.T) {
	transport := newProbeTransport()
	transport.On("RunScript", mock.Anything, mock.MatchedBy(isKeygenScript), false).
		Return(sshutils.CommandResult{}, nil).Once()
	transport.On("PullFile", mock.Anything, mock.MatchedBy(isPrivateKeyFile)).
		Return(nil, errors.New("sftp: connection lost")).Once()
	transport.On("Run", mock.Anything, mock.MatchedBy(isKeyCleanupCmd)).
		Return(sshutils.CommandResult{}, nil).Once()

	keystore := connections.NewKeystore(filepath.Join(t.TempDir(), "keys"))
	desc := keyTestDesc()

	err := NewKeyProvisioner(transport, keystore).EnsureKeys(context.Background(), desc)
	assert.ErrorContains(t, err, "failed to download private key")

	// Remote temp files are removed even on the failure path.
	transport.AssertCalled(t, "Run", mock.Anything, mock.MatchedBy(isKeyCleanupCmd))
}

func TestEnsureKeysCleanupUsesFreshContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	transport := newProbeTransport()
	transport.On("RunScript", mock.Anything, mock.MatchedBy(isKeygenScript), false).
		Return(sshutils.CommandResult{}, nil).Once()
	transport.On("PullFile", mock.Anything, mock.MatchedBy(isPrivateKeyFile)).
		Run(func(args mock.Arguments) { cancel() }).
		Return(nil, context.Canceled).Once()
	transport.On("Run", mock.MatchedBy(func(c context.Context) bool {
		return c.Err() == nil
	}), mock.MatchedBy(isKeyCleanupCmd)).
		Return(sshutils.CommandResult{}, nil).Once()

	keystore := connections.NewKeystore(filepath.Join(t.TempDir(), "keys"))
	desc := keyTestDesc()

	err := NewKeyProvisioner(transport, keystore).EnsureKeys(ctx, desc)
	assert.ErrorContains(t, err, "failed to download private key")
	transport.AssertExpectations(t)
}

func TestReappendPublicKeyNeverRegenerates(t *testing.T) {
	pubPath, cleanup, err := testutil.WriteStringToTempFile(testdata.TestPublicSSHKeyMaterial)
	require.NoError(t, err)
	defer cleanup()

	keyBody := strings.TrimRight(testdata.TestPublicSSHKeyMaterial, "\r\n")

	transport := newProbeTransport()
	transport.On("RunScript", mock.Anything, mock.MatchedBy(func(script string) bool {
		return strings.Contains(script, "authorized_keys") &&
			strings.Contains(script, keyBody) &&
			!strings.Contains(script, "ssh-keygen")
	}), false).Return(sshutils.CommandResult{}, nil).Once()

	keystore := connections.NewKeystore(t.TempDir())
	desc := keyTestDesc()
	desc.PublicKeyPath = pubPath

	err = NewKeyProvisioner(transport, keystore).ReappendPublicKey(context.Background(), desc)
	require.NoError(t, err)
	transport.AssertExpectations(t)
}

func TestReappendPublicKeyRequiresLocalKey(t *testing.T) {
	transport := newProbeTransport()
	keystore := connections.NewKeystore(t.TempDir())

	desc := keyTestDesc()
	err := NewKeyProvisioner(transport, keystore).ReappendPublicKey(context.Background(), desc)
	assert.ErrorContains(t, err, "no public key to re-register")

	desc.PublicKeyPath = "/nonexistent/id_rsa.pub"
	err = NewKeyProvisioner(transport, keystore).ReappendPublicKey(context.Background(), desc)
	assert.ErrorIs(t, err, models.ErrKeyRead)
}
