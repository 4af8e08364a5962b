package shortener

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"milnews/internal/logger"
)

// SelectorCache remembers the last share-control selector that worked for
// each press, backed by a JSON file so the knowledge survives restarts.
type SelectorCache struct {
	path      string
	mu        sync.RWMutex
	selectors map[string]string
}

func NewSelectorCache(path string) *SelectorCache {
	return &SelectorCache{
		path:      path,
		selectors: make(map[string]string),
	}
}

// Load reads the cache file. A missing file is fine; the cache starts empty.
func (c *SelectorCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read selector cache: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &c.selectors); err != nil {
		return fmt.Errorf("unmarshal selector cache: %w", err)
	}
	return nil
}

func (c *SelectorCache) Get(press string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sel, ok := c.selectors[press]
	return sel, ok
}

// Put stores the selector and persists the cache. Persistence failures are
// logged, not propagated; the in-memory entry still counts.
func (c *SelectorCache) Put(press, selector string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selectors[press] == selector {
		return
	}
	c.selectors[press] = selector

	data, err := json.MarshalIndent(c.selectors, "", "  ")
	if err != nil {
		logger.Warn("marshal selector cache", "error", err)
		return
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		logger.Warn("write selector cache", "error", err)
	}
}
