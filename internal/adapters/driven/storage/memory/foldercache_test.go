package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
)

func TestFolderCache_FirstWriteWins(t *testing.T) {
	cache := NewFolderCache()

	cache.Put(domain.FolderMapping{SourceFolderRef: "/projects/1", TargetFolderID: "a"})
	cache.Put(domain.FolderMapping{SourceFolderRef: "/projects/1", TargetFolderID: "b"})

	id, ok := cache.Get("/projects/1")
	assert.True(t, ok)
	assert.Equal(t, "a", id)
	assert.Equal(t, 1, cache.Len())
}

func TestFolderCache_Miss(t *testing.T) {
	cache := NewFolderCache()

	_, ok := cache.Get("/projects/2")

	assert.False(t, ok)
	assert.Zero(t, cache.Len())
}
