package connections

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"
	"github.com/mitchellh/go-homedir"

	"github.com/pidev-project/pidev/pkg/models"
)

const (
	storeFileName  = "connections.json"
	storeFileMode  = 0600
	storeDirMode   = 0700
	lockFileSuffix = ".lock"
)

// Store persists the connection list as a JSON array, rewritten wholesale
// on every mutation. Mutations take a file lock; concurrent writers are
// last-writer-wins, which is acceptable for a single interactive user.
type Store struct {
	path string
	lock *flock.Flock
}

// DefaultStorePath returns the per-user settings path for the connection
// list.
func DefaultStorePath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "pidev", storeFileName), nil
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + lockFileSuffix),
	}
}

// Load reads the whole connection list. A missing file is an empty list.
// The default-flag invariant is enforced on the returned slice.
func (s *Store) Load() ([]models.ConnectionDescriptor, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read connection store: %w", err)
	}

	var list []models.ConnectionDescriptor
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("connection store %s is corrupt: %w", s.path, err)
	}

	normalizeDefault(list)
	return list, nil
}

// Save rewrites the whole list under the file lock, enforcing the
// default-flag invariant first.
func (s *Store) Save(list []models.ConnectionDescriptor) error {
	normalizeDefault(list)

	if err := os.MkdirAll(filepath.Dir(s.path), storeDirMode); err != nil {
		return fmt.Errorf("cannot create settings directory: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("cannot lock connection store: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, storeFileMode)
}

// Add inserts or replaces a connection by name and persists the list.
func (s *Store) Add(conn models.ConnectionDescriptor) error {
	if err := conn.Validate(); err != nil {
		return err
	}

	list, err := s.Load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range list {
		if list[i].Name == conn.Name {
			// Preserve default status across edits.
			conn.IsDefault = conn.IsDefault || list[i].IsDefault
			list[i] = conn
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, conn)
	}
	return s.Save(list)
}

// Update persists descriptor changes made by the core (key provisioning
// rewrites the key paths).
func (s *Store) Update(conn models.ConnectionDescriptor) error {
	list, err := s.Load()
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].Name == conn.Name {
			conn.IsDefault = list[i].IsDefault
			list[i] = conn
			return s.Save(list)
		}
	}
	return fmt.Errorf("connection %q not found", conn.Name)
}

// Remove deletes a connection by name.
func (s *Store) Remove(name string) error {
	list, err := s.Load()
	if err != nil {
		return err
	}

	kept := list[:0]
	for _, conn := range list {
		if conn.Name != name {
			kept = append(kept, conn)
		}
	}
	if len(kept) == len(list) {
		return fmt.Errorf("connection %q not found", name)
	}
	return s.Save(kept)
}

// SetDefault flags the named connection as default and persists.
func (s *Store) SetDefault(name string) error {
	list, err := s.Load()
	if err != nil {
		return err
	}

	found := false
	for i := range list {
		list[i].IsDefault = list[i].Name == name
		found = found || list[i].IsDefault
	}
	if !found {
		return fmt.Errorf("connection %q not found", name)
	}
	return s.Save(list)
}

// Default returns the default connection.
func (s *Store) Default() (*models.ConnectionDescriptor, error) {
	list, err := s.Load()
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].IsDefault {
			return &list[i], nil
		}
	}
	return nil, fmt.Errorf("no connections configured")
}

// Get returns a connection by name, or the default for an empty name or
// the literal "default".
func (s *Store) Get(name string) (*models.ConnectionDescriptor, error) {
	if name == "" || strings.EqualFold(name, "default") {
		return s.Default()
	}
	list, err := s.Load()
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Name == name {
			return &list[i], nil
		}
	}
	return nil, fmt.Errorf("connection %q not found", name)
}

// normalizeDefault enforces that a non-empty list has exactly one default:
// extra flags are cleared keeping the first in name order, and when none is
// flagged the alphabetically-first entry becomes the default.
func normalizeDefault(list []models.ConnectionDescriptor) {
	if len(list) == 0 {
		return
	}

	order := make([]int, len(list))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return strings.ToLower(list[order[a]].Name) < strings.ToLower(list[order[b]].Name)
	})

	seen := false
	for _, i := range order {
		if list[i].IsDefault {
			if seen {
				list[i].IsDefault = false
			}
			seen = true
		}
	}
	if !seen {
		list[order[0]].IsDefault = true
	}
}
