package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pidev-project/pidev/pkg/catalog"
	"github.com/pidev-project/pidev/pkg/connections"
	"github.com/pidev-project/pidev/pkg/logger"
	"github.com/pidev-project/pidev/pkg/models"
	"github.com/pidev-project/pidev/pkg/sshutils"
)

// Options configures a connect attempt. Catalog and keystore are
// caller-owned: construct them once and inject them.
type Options struct {
	Catalog  *catalog.Catalog
	Keystore *connections.Keystore

	// ForcePassword skips key-based auth even when a key is configured.
	ForcePassword bool

	// NewTransport overrides transport construction. Tests inject mocks
	// here; production leaves it nil.
	NewTransport func(host string, port int, user string) sshutils.SSHConfiger
}

func (o *Options) transportFor(desc *models.ConnectionDescriptor) sshutils.SSHConfiger {
	if o.NewTransport != nil {
		return o.NewTransport(desc.Host, desc.EffectivePort(), desc.User)
	}
	return sshutils.NewSSHConfig(desc.Host, desc.EffectivePort(), desc.User)
}

// Session is one live authenticated connection to a device plus its cached
// status. It is not safe for concurrent use; callers scope a session to a
// single deploy/debug lifecycle and must Close it.
type Session struct {
	transport sshutils.SSHConfiger
	desc      models.ConnectionDescriptor
	status    *models.DeviceStatus

	installer *Installer
	uploader  *Uploader

	// descDirty is set when key provisioning rewrote the descriptor's key
	// paths; the caller should persist the updated descriptor.
	descDirty bool

	log *logger.Logger
}

// Connect is the single entry point to the provisioning core: resolve
// credentials, open the transport, probe device state and make sure
// key-based auth is available for next time.
func Connect(
	ctx context.Context,
	desc models.ConnectionDescriptor,
	opts Options,
) (*Session, error) {
	log := logger.Get().With(zap.String("host", desc.Host))

	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if opts.Catalog == nil {
		return nil, models.ErrCatalogUnavailable
	}

	// A configured key whose file vanished is treated as absent: connect
	// with the password and provision a fresh pair below.
	forcePassword := opts.ForcePassword || !desc.HasUsableKey()
	creds, err := ResolveCredentials(&desc, forcePassword)
	if err != nil {
		return nil, err
	}

	transport := opts.transportFor(&desc)
	transport.SetAuthMethods(creds.Methods)

	reprovision := false
	if err := transport.Connect(ctx); err != nil {
		if !creds.UsedKey || desc.Password == "" || !errors.Is(err, models.ErrAuthentication) {
			return nil, &models.ConnectionError{Host: desc.Host, Cause: err}
		}

		// The device rejected a key it used to trust, typically after
		// being re-imaged with the same user and password. Recover once:
		// connect with the password and re-register the existing key.
		log.Warnf("key authentication rejected by %s, retrying with password", desc.Host)
		pwCreds, err := ResolveCredentials(&desc, true)
		if err != nil {
			return nil, err
		}
		transport.SetAuthMethods(pwCreds.Methods)
		if err := transport.Connect(ctx); err != nil {
			return nil, &models.ConnectionError{Host: desc.Host, Cause: err}
		}
		reprovision = true
	}

	sess := &Session{
		transport: transport,
		desc:      desc,
		installer: NewInstaller(transport, opts.Catalog),
		uploader:  NewUploader(transport),
		log:       log,
	}

	status, err := NewProber(transport, opts.Catalog).Probe(ctx)
	if err != nil {
		transport.Close()
		return nil, &models.ConnectionError{Host: desc.Host, Cause: err}
	}
	sess.status = status
	log.Infof("connected to %s (%s, rev %s, %s)",
		desc.DisplayName(), status.BoardModel, status.BoardRevision, status.Architecture)

	keys := NewKeyProvisioner(transport, opts.Keystore)
	switch {
	case reprovision:
		// Re-registration reuses the on-disk public key and needs no
		// keystore.
		if err := keys.ReappendPublicKey(ctx, &sess.desc); err != nil {
			transport.Close()
			return nil, &models.ConnectionError{Host: desc.Host, Cause: err}
		}
	case opts.Keystore != nil && !sess.desc.HasUsableKey():
		if err := keys.EnsureKeys(ctx, &sess.desc); err != nil {
			transport.Close()
			return nil, &models.ConnectionError{Host: desc.Host, Cause: err}
		}
		sess.descDirty = true
	}

	return sess, nil
}

// Close releases the transport. The session is unusable afterwards.
func (s *Session) Close() error {
	return s.transport.Close()
}

// Descriptor returns the possibly-updated connection descriptor.
func (s *Session) Descriptor() models.ConnectionDescriptor {
	return s.desc
}

// DescriptorUpdated reports whether key provisioning changed the
// descriptor; callers persist it when true.
func (s *Session) DescriptorUpdated() bool {
	return s.descDirty
}

// Status returns the cached device status.
func (s *Session) Status() *models.DeviceStatus {
	return s.status
}

// InstallSdk ensures the given SDK version (or the best catalog match when
// empty) is installed. Idempotent against the cached status.
func (s *Session) InstallSdk(ctx context.Context, version string) (bool, error) {
	return s.installer.InstallSdk(ctx, s.status, version)
}

// InstallDebugger ensures vsdbg is installed. Idempotent against the
// cached status.
func (s *Session) InstallDebugger(ctx context.Context) (bool, error) {
	return s.installer.InstallDebugger(ctx, s.status)
}

// UploadProgram replaces the remote program directory with the published
// binaries.
func (s *Session) UploadProgram(
	ctx context.Context,
	programName, assemblyName, publishFolder, targetGroup string,
) (bool, error) {
	return s.uploader.Upload(ctx, programName, assemblyName, publishFolder, targetGroup)
}

// WaitForPort polls until the program's port is listening or the timeout
// elapses. A false result is routine (the caller just skips whatever
// depended on the ready signal), not an error.
func (s *Session) WaitForPort(ctx context.Context, port int, timeout time.Duration) (bool, error) {
	return s.transport.WaitForPort(ctx, port, timeout)
}

// Run executes an arbitrary command on the device. Exposed for callers
// with needs beyond the canned operations.
func (s *Session) Run(ctx context.Context, cmd string) (sshutils.CommandResult, error) {
	return s.transport.Run(ctx, cmd)
}

// RunSudo executes an arbitrary command elevated.
func (s *Session) RunSudo(ctx context.Context, cmd string) (sshutils.CommandResult, error) {
	return s.transport.RunSudo(ctx, cmd)
}

// RunChecked executes a command and fails on nonzero exit.
func (s *Session) RunChecked(ctx context.Context, cmd string) (sshutils.CommandResult, error) {
	return s.transport.RunChecked(ctx, cmd)
}

// String identifies the session for diagnostics.
func (s *Session) String() string {
	return fmt.Sprintf("session(%s)", s.desc.DisplayName())
}
