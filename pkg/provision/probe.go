package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/pidev-project/pidev/pkg/catalog"
	"github.com/pidev-project/pidev/pkg/logger"
	"github.com/pidev-project/pidev/pkg/models"
	"github.com/pidev-project/pidev/pkg/sshutils"
)

const (
	sentinelPresent = "present"
	sentinelMissing = "missing"
	sentinelNone    = "-"
)

// statusScript gathers everything the session needs to know about the
// device in one round trip, to keep connect latency down on high-RTT
// links. It emits exactly seven ordered lines: uname -m, PATH, unzip
// sentinel, debugger sentinel, comma-joined SDK directory names, board
// model, board revision. The same script idempotently prepares the SDK
// root and the profile exports; the grep guard keeps reruns from
// duplicating profile entries.
var statusScript = NewScriptTemplate(`
set -e

uname -m
echo "$PATH"

if command -v unzip >/dev/null 2>&1; then echo '` + sentinelPresent + `'; else echo '` + sentinelMissing + `'; fi
if [ -f @{vsdbgBinary} ]; then echo '` + sentinelPresent + `'; else echo '` + sentinelMissing + `'; fi

if [ -d @{sdkDir} ]; then
    sdks=$(ls -1 @{sdkDir} 2>/dev/null | tr '\n' ',' | sed 's/,$//')
fi
echo "${sdks:-` + sentinelNone + `}"

model=$(tr -d '\0' < /proc/device-tree/model 2>/dev/null)
echo "${model:-unknown}"
rev=$(awk '/^Revision/ { print $3; exit }' /proc/cpuinfo)
echo "${rev:-unknown}"

mkdir -p @{dotnetRoot}
chown root:root @{dotnetRoot}
chmod 755 @{dotnetRoot}

if ! grep -q 'DOTNET_ROOT' /etc/profile; then
    echo '' >> /etc/profile
    echo 'export DOTNET_ROOT=` + RemoteDotnetRoot + `' >> /etc/profile
    echo 'export PATH=$PATH:` + RemoteDotnetRoot + `' >> /etc/profile
fi

exit 0
`)

var installUnzipScript = `
set -e
export DEBIAN_FRONTEND=noninteractive
apt-get update
apt-get install -y unzip
exit 0
`

const statusLineCount = 7

// Prober discovers device state at connect time. Probe runs exactly once
// per session; the resulting DeviceStatus is owned by the Session and only
// updated incrementally after successful installs.
type Prober struct {
	transport sshutils.SSHConfiger
	catalog   *catalog.Catalog
	log       *logger.Logger
}

// NewProber creates a prober over an established transport.
func NewProber(transport sshutils.SSHConfiger, cat *catalog.Catalog) *Prober {
	return &Prober{
		transport: transport,
		catalog:   cat,
		log:       logger.Get(),
	}
}

// Probe runs the composite status script and parses its output. When the
// device lacks unzip it is installed first; later install steps depend on
// it being present.
func (p *Prober) Probe(ctx context.Context) (*models.DeviceStatus, error) {
	script, err := statusScript.Render(map[string]string{
		"vsdbgBinary": RemoteDebuggerRoot + "/vsdbg",
		"sdkDir":      RemoteDotnetRoot + "/sdk",
		"dotnetRoot":  RemoteDotnetRoot,
	})
	if err != nil {
		return nil, err
	}

	result, err := p.transport.RunScript(ctx, script, true)
	if err != nil {
		return nil, fmt.Errorf("status probe failed on %s: %w", p.transport.Host(), err)
	}
	if !result.Success() {
		return nil, &models.RemoteCommandError{
			Host:     p.transport.Host(),
			Command:  "status probe",
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}

	status, err := p.parseStatus(result)
	if err != nil {
		return nil, err
	}

	if !status.HasUnzip {
		p.log.Infof("unzip not present on %s, installing", p.transport.Host())
		result, err := p.transport.RunScript(ctx, installUnzipScript, true)
		if err != nil {
			return nil, fmt.Errorf("unzip install failed on %s: %w", p.transport.Host(), err)
		}
		if !result.Success() {
			return nil, &models.RemoteCommandError{
				Host:     p.transport.Host(),
				Command:  "unzip install",
				ExitCode: result.ExitCode,
				Stderr:   result.Stderr,
			}
		}
		status.HasUnzip = true
	}

	return status, nil
}

func (p *Prober) parseStatus(result sshutils.CommandResult) (*models.DeviceStatus, error) {
	lines := result.StdoutLines()
	if len(lines) < statusLineCount {
		return nil, fmt.Errorf("status probe on %s returned %d lines, expected %d",
			p.transport.Host(), len(lines), statusLineCount)
	}

	arch := models.ArchitectureFromUname(strings.TrimSpace(lines[0]))
	if arch == models.ArchitectureUnknown {
		return nil, fmt.Errorf("unsupported device architecture %q on %s",
			strings.TrimSpace(lines[0]), p.transport.Host())
	}

	status := &models.DeviceStatus{
		Architecture:  arch,
		Path:          strings.TrimSpace(lines[1]),
		HasUnzip:      strings.TrimSpace(lines[2]) == sentinelPresent,
		HasDebugger:   strings.TrimSpace(lines[3]) == sentinelPresent,
		BoardModel:    strings.TrimSpace(lines[5]),
		BoardRevision: strings.TrimSpace(lines[6]),
	}

	sdkList := strings.TrimSpace(lines[4])
	if sdkList != sentinelNone {
		for _, name := range strings.Split(sdkList, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if !p.catalog.Contains(name, arch) {
				// SDKs installed outside the catalog are harmless but
				// cannot be managed, so they are dropped rather than
				// tracked.
				p.log.Warnf("device %s has unrecognized SDK %q, ignoring",
					p.transport.Host(), name)
				continue
			}
			status.InstalledSdks = append(status.InstalledSdks, models.InstalledSdk{
				Name:         name,
				Architecture: arch,
			})
		}
	}

	return status, nil
}
