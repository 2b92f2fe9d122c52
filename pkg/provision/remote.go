package provision

// Remote filesystem layout. These paths are effectively a wire contract
// with the device: the profile exports, the debugger launch configuration
// and the upload scripts all assume them.
const (
	// RemoteDotnetRoot is the SDK install root and the value of
	// DOTNET_ROOT in the device profile.
	RemoteDotnetRoot = "/lib/dotnet"

	// RemoteDebuggerRoot is where vsdbg is installed.
	RemoteDebuggerRoot = "/lib/dotnet/vsdbg"

	// RemoteProgramRoot is the per-program upload root, relative to the
	// connecting user's home directory.
	RemoteProgramRoot = "vsdbg"
)
