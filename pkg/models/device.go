package models

// Architecture is the processor bitness of the remote device.
type Architecture string

const (
	ArchitectureUnknown Architecture = ""
	ArchitectureArm32   Architecture = "arm32"
	ArchitectureArm64   Architecture = "arm64"
)

// ArchitectureFromUname maps the output of `uname -m` to a known
// architecture.
func ArchitectureFromUname(machine string) Architecture {
	switch machine {
	case "aarch64", "arm64":
		return ArchitectureArm64
	case "armv6l", "armv7l", "armhf":
		return ArchitectureArm32
	default:
		return ArchitectureUnknown
	}
}

// InstalledSdk is one .NET SDK discovered on (or installed onto) the device.
type InstalledSdk struct {
	Name         string
	Architecture Architecture
}

// DeviceStatus is the snapshot of remote state gathered by the one-time
// probe at connect time. It is owned by the Session and only updated
// incrementally after successful install operations.
type DeviceStatus struct {
	Architecture  Architecture
	BoardModel    string
	BoardRevision string
	Path          string
	HasUnzip      bool
	HasDebugger   bool
	InstalledSdks []InstalledSdk
}

// HasSdk reports whether an SDK with the given name is already present for
// the device architecture.
func (s *DeviceStatus) HasSdk(name string) bool {
	for _, sdk := range s.InstalledSdks {
		if sdk.Name == name {
			return true
		}
	}
	return false
}

// AddSdk records a newly installed SDK. Duplicate names are ignored.
func (s *DeviceStatus) AddSdk(name string) {
	if s.HasSdk(name) {
		return
	}
	s.InstalledSdks = append(s.InstalledSdks, InstalledSdk{
		Name:         name,
		Architecture: s.Architecture,
	})
}
