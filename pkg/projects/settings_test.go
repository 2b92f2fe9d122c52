package projects

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileGetMissingProjectReturnsDefaults(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "projects.json"))

	s, err := f.Get("com.example.blinky")
	require.NoError(t, err)
	assert.False(t, s.Enabled)
	assert.Equal(t, "default", s.Connection)
	assert.Empty(t, s.TargetGroup)
}

func TestFileSetAndGet(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "projects.json"))

	want := Settings{
		Enabled:     true,
		Connection:  "bench",
		TargetGroup: "gpio",
		ProxyMode:   "local",
	}
	require.NoError(t, f.Set("com.example.blinky", want))

	got, err := f.Get("com.example.blinky")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileSetPreservesOtherProjects(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "projects.json"))

	require.NoError(t, f.Set("first", Settings{Enabled: true, Connection: "attic"}))
	require.NoError(t, f.Set("second", Settings{Enabled: true, Connection: "bench"}))

	all, err := f.Load()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "attic", all["first"].Connection)
	assert.Equal(t, "bench", all["second"].Connection)
}

func TestFileCorruptSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := NewFile(path).Load()
	assert.Error(t, err)
}
