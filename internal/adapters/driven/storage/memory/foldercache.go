package memory

import (
	"sync"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
)

// Ensure FolderCache implements the interface.
var _ driven.FolderCache = (*FolderCache)(nil)

// FolderCache is the run-scoped folder mapping cache.
type FolderCache struct {
	mu      sync.RWMutex
	folders map[string]string
}

// NewFolderCache creates an empty folder cache.
func NewFolderCache() *FolderCache {
	return &FolderCache{
		folders: make(map[string]string),
	}
}

// Get returns the Target folder ID for a Source folder reference.
func (c *FolderCache) Get(sourceFolderRef string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.folders[sourceFolderRef]
	return id, ok
}

// Put records a mapping unless the key is already present.
func (c *FolderCache) Put(mapping domain.FolderMapping) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.folders[mapping.SourceFolderRef]; exists {
		return
	}
	c.folders[mapping.SourceFolderRef] = mapping.TargetFolderID
}

// Len returns the number of cached folders.
func (c *FolderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.folders)
}
