package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pidev-project/pidev/pkg/logger"
)

const (
	// DefaultFeedURL is the remote catalog feed. Overridable via
	// configuration for air-gapped setups.
	DefaultFeedURL = "https://raw.githubusercontent.com/pidev-project/pidev/main/pkg/catalog/sdk_catalog.json"

	refreshTimeout  = 5 * time.Second
	maxCatalogBytes = 1 << 20
)

// Load fetches the catalog from feedURL with a short timeout, falling back
// to the bundled copy on any failure: network error, timeout, bad document,
// empty result. An empty feedURL skips the fetch entirely.
func Load(ctx context.Context, feedURL string) (*Catalog, error) {
	log := logger.Get()

	if feedURL != "" {
		c, err := fetch(ctx, feedURL)
		if err == nil {
			log.Debugf("using remote SDK catalog from %s (%d entries)", feedURL, len(c.Sdks))
			return c, nil
		}
		log.Warnf("remote SDK catalog unavailable, using bundled copy: %v", err)
	}

	return LoadBundled()
}

func fetch(ctx context.Context, feedURL string) (*Catalog, error) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog feed returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
