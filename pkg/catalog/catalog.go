package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/pidev-project/pidev/pkg/logger"
	"github.com/pidev-project/pidev/pkg/models"
)

//go:embed sdk_catalog.json
var bundledCatalog []byte

// Sdk is one installable .NET SDK artifact with its download and
// verification metadata.
type Sdk struct {
	Name         string              `json:"name"`
	Version      string              `json:"version"`
	Architecture models.Architecture `json:"architecture"`
	Link         string              `json:"link"`
	SHA512       string              `json:"sha512"`
	Standalone   bool                `json:"standalone"`
	// Unusable marks catalog entries known to be broken; the good view
	// never offers them as install candidates.
	Unusable bool `json:"unusable"`
}

// SemVer parses the SDK version. Catalog versions are three-part numeric
// strings like "8.0.404".
func (s *Sdk) SemVer() (*semver.Version, error) {
	return semver.NewVersion(s.Version)
}

// Catalog is an ordered collection of SDK descriptors. It is an explicitly
// constructed, caller-owned object; inject it where needed rather than
// reaching for a package global.
type Catalog struct {
	Sdks []Sdk `json:"sdks"`
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCatalogUnavailable, err)
	}
	if len(c.Sdks) == 0 {
		return nil, fmt.Errorf("%w: empty catalog", models.ErrCatalogUnavailable)
	}
	return &c, nil
}

// LoadBundled returns the catalog shipped with the binary.
func LoadBundled() (*Catalog, error) {
	return Parse(bundledCatalog)
}

// Good returns the entries that are actual install candidates.
func (c *Catalog) Good() []Sdk {
	var good []Sdk
	for _, sdk := range c.Sdks {
		if !sdk.Unusable {
			good = append(good, sdk)
		}
	}
	return good
}

// Find returns the good entry matching name and architecture.
func (c *Catalog) Find(name string, arch models.Architecture) (*Sdk, bool) {
	for _, sdk := range c.Good() {
		if sdk.Name == name && sdk.Architecture == arch {
			return &sdk, true
		}
	}
	return nil, false
}

// Contains reports whether any entry (usable or not) matches name and
// architecture. The probe uses this to recognize SDK directories on the
// device.
func (c *Catalog) Contains(name string, arch models.Architecture) bool {
	for _, sdk := range c.Sdks {
		if sdk.Name == name && sdk.Architecture == arch {
			return true
		}
	}
	return false
}

// Best returns the highest-versioned good entry for an architecture.
func (c *Catalog) Best(arch models.Architecture) (*Sdk, bool) {
	log := logger.Get()

	candidates := make([]Sdk, 0, len(c.Sdks))
	for _, sdk := range c.Good() {
		if sdk.Architecture != arch {
			continue
		}
		if _, err := sdk.SemVer(); err != nil {
			log.Warnf("catalog entry %q has unparsable version: %v", sdk.Name, err)
			continue
		}
		candidates = append(candidates, sdk)
	}
	if len(candidates) == 0 {
		return nil, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		vi, _ := candidates[i].SemVer()
		vj, _ := candidates[j].SemVer()
		return vi.GreaterThan(vj)
	})
	return &candidates[0], true
}
