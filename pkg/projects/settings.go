package projects

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

const (
	settingsFileName = "projects.json"
	settingsFileMode = 0600
	settingsDirMode  = 0700
)

// Settings are the per-project deployment options, keyed by project
// identity in the settings file.
type Settings struct {
	// Enabled gates remote deployment for the project.
	Enabled bool `json:"enabled"`
	// Connection is the target connection name, or "default".
	Connection string `json:"connection"`
	// TargetGroup optionally chgrps the uploaded assembly, e.g. "gpio".
	TargetGroup string `json:"targetGroup,omitempty"`
	// ProxyMode selects how the debugger transport is proxied.
	ProxyMode string `json:"proxyMode,omitempty"`
}

// DefaultSettings is what a project gets before it is configured.
func DefaultSettings() Settings {
	return Settings{
		Enabled:    false,
		Connection: "default",
	}
}

// File is the on-disk map of project identity to settings. Like the
// connection store it is read, mutated and rewritten whole.
type File struct {
	path string
}

// DefaultFilePath returns the per-user settings path.
func DefaultFilePath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "pidev", settingsFileName), nil
}

// NewFile creates a settings file handle at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load reads all project settings. A missing file is an empty map.
func (f *File) Load() (map[string]Settings, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string]Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read project settings: %w", err)
	}

	var all map[string]Settings
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("project settings %s is corrupt: %w", f.path, err)
	}
	return all, nil
}

// Get returns the settings for a project, defaulted when absent.
func (f *File) Get(projectID string) (Settings, error) {
	all, err := f.Load()
	if err != nil {
		return Settings{}, err
	}
	if s, ok := all[projectID]; ok {
		return s, nil
	}
	return DefaultSettings(), nil
}

// Set stores the settings for a project and rewrites the file.
func (f *File) Set(projectID string, s Settings) error {
	all, err := f.Load()
	if err != nil {
		return err
	}
	all[projectID] = s

	if err := os.MkdirAll(filepath.Dir(f.path), settingsDirMode); err != nil {
		return fmt.Errorf("cannot create settings directory: %w", err)
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, settingsFileMode)
}
