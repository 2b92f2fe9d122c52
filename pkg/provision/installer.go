package provision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pidev-project/pidev/pkg/catalog"
	"github.com/pidev-project/pidev/pkg/logger"
	"github.com/pidev-project/pidev/pkg/models"
	"github.com/pidev-project/pidev/pkg/sshutils"
)

// installSdkScript downloads, verifies and unpacks one SDK archive. The
// temp archive is removed before the download (stale partials) and after
// both the checksum failure path and the success path, so nothing is left
// partially installed together with a cached archive.
var installSdkScript = NewScriptTemplate(`
set -e
export DEBIAN_FRONTEND=noninteractive
apt-get update
apt-get install -y libc6 libgcc1 libgssapi-krb5-2 libicu-dev libssl-dev libstdc++6 zlib1g
rm -f @{tempPath}
wget -q -O @{tempPath} @{link}
if ! echo @{checksumLine} | sha512sum -c - >/dev/null 2>&1; then
    rm -f @{tempPath}
    echo 'SDK archive checksum mismatch' >&2
    exit 1
fi
mkdir -p @{dotnetRoot}
tar -xzf @{tempPath} -C @{dotnetRoot} --same-owner
rm -f @{tempPath}
exit 0
`)

// installDebuggerScript fetches and runs the vsdbg installer with a fixed
// target directory. The installer itself is idempotent.
var installDebuggerScript = NewScriptTemplate(`
set -e
curl -sSL https://aka.ms/getvsdbgsh | sh /dev/stdin -v latest -l @{vsdbgRoot}
exit 0
`)

// Installer puts toolchain components on the device. Both operations are
// idempotent against the session's cached DeviceStatus and run as a single
// attempt: toolchain failures are reported back with diagnostics, and the
// caller decides whether to abort. Only the shell-level port poll uses a
// retry policy.
type Installer struct {
	transport sshutils.SSHConfiger
	catalog   *catalog.Catalog
	log       *logger.Logger
}

// NewInstaller creates an installer over an established transport.
func NewInstaller(transport sshutils.SSHConfiger, cat *catalog.Catalog) *Installer {
	return &Installer{
		transport: transport,
		catalog:   cat,
		log:       logger.Get(),
	}
}

// InstallSdk ensures an SDK is present on the device. With an empty
// version the best good catalog entry for the device architecture is
// selected; otherwise the named version must exist in the good catalog.
// Returns true when the SDK is installed (including the already-installed
// short circuit); false with a nil error means the remote script failed
// and its diagnostics were logged.
func (i *Installer) InstallSdk(
	ctx context.Context,
	status *models.DeviceStatus,
	version string,
) (bool, error) {
	var sdk *catalog.Sdk
	if version == "" {
		best, ok := i.catalog.Best(status.Architecture)
		if !ok {
			return false, fmt.Errorf("%w: architecture %s", models.ErrSdkNotFound, status.Architecture)
		}
		sdk = best
	} else {
		found, ok := i.catalog.Find(version, status.Architecture)
		if !ok {
			return false, fmt.Errorf("%w: %s (%s)", models.ErrSdkNotFound, version, status.Architecture)
		}
		sdk = found
	}

	if status.HasSdk(sdk.Name) {
		i.log.Debugf("SDK %s already installed on %s", sdk.Name, i.transport.Host())
		return true, nil
	}

	tempPath := fmt.Sprintf("/tmp/pidev-sdk-%d.tar.gz", time.Now().UnixNano())
	script, err := installSdkScript.Render(map[string]string{
		"tempPath":     tempPath,
		"link":         sdk.Link,
		"checksumLine": fmt.Sprintf("%s  %s", sdk.SHA512, tempPath),
		"dotnetRoot":   RemoteDotnetRoot,
	})
	if err != nil {
		return false, err
	}

	i.log.Infof("installing .NET SDK %s (%s) on %s", sdk.Name, sdk.Architecture, i.transport.Host())
	result, err := i.transport.RunScript(ctx, script, true)
	if err != nil {
		return false, err
	}
	if !result.Success() {
		if strings.Contains(result.Stderr, "checksum mismatch") {
			i.log.Errorf("SDK %s on %s: %v", sdk.Name, i.transport.Host(),
				models.ErrChecksumMismatch)
		} else {
			i.log.Errorf("SDK %s install failed on %s (exit %d): %s",
				sdk.Name, i.transport.Host(), result.ExitCode, result.Stderr)
		}
		return false, nil
	}

	// The unpack can race the directory listing on slow SD cards; the
	// verification retries briefly before giving up.
	verify := fmt.Sprintf("test -d %s/sdk/%s", RemoteDotnetRoot, sdk.Name)
	check, err := i.transport.RunWithRetry(ctx, verify)
	if err != nil {
		return false, err
	}
	if !check.Success() {
		i.log.Errorf("SDK %s missing after install on %s", sdk.Name, i.transport.Host())
		return false, nil
	}

	status.AddSdk(sdk.Name)
	return true, nil
}

// InstallDebugger ensures vsdbg is present, short-circuiting on the cached
// status flag.
func (i *Installer) InstallDebugger(
	ctx context.Context,
	status *models.DeviceStatus,
) (bool, error) {
	if status.HasDebugger {
		i.log.Debugf("debugger already installed on %s", i.transport.Host())
		return true, nil
	}

	script, err := installDebuggerScript.Render(map[string]string{
		"vsdbgRoot": RemoteDebuggerRoot,
	})
	if err != nil {
		return false, err
	}

	i.log.Infof("installing vsdbg on %s", i.transport.Host())
	result, err := i.transport.RunScript(ctx, script, true)
	if err != nil {
		return false, err
	}
	if !result.Success() {
		i.log.Errorf("debugger install failed on %s (exit %d): %s",
			i.transport.Host(), result.ExitCode, result.Stderr)
		return false, nil
	}

	status.HasDebugger = true
	return true, nil
}
