package models

// ProjectDescriptor carries the build outputs the caller wants deployed.
// The provisioning core consumes it as-is; extracting these values from a
// project file is the caller's concern.
type ProjectDescriptor struct {
	// ProgramName is the remote directory name under the per-program upload
	// root (~/vsdbg/<ProgramName>).
	ProgramName string
	// AssemblyName is the entry assembly, without the .dll suffix.
	AssemblyName string
	// SdkVersion is the .NET SDK version the project targets, e.g. "8.0.100".
	SdkVersion string
	// PublishFolder is the local directory holding published binaries.
	PublishFolder string
}
