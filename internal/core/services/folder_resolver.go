package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
	"github.com/custodia-labs/vidmirror/internal/logger"
)

// FolderResolver maps Source folders to Target folders for the duration of
// one mirror run. Results are kept in the injected FolderCache so each Source
// folder is resolved against the Target at most once.
type FolderResolver struct {
	library       driven.TargetLibrary
	cache         driven.FolderCache
	createMissing bool
	created       atomic.Int64
}

// NewFolderResolver creates a resolver. When createMissing is false the
// resolver never writes to the Target and reports unknown folders as
// domain.ErrNotFound.
func NewFolderResolver(library driven.TargetLibrary, cache driven.FolderCache, createMissing bool) *FolderResolver {
	return &FolderResolver{
		library:       library,
		cache:         cache,
		createMissing: createMissing,
	}
}

// Resolve returns the Target folder ID for a Source folder. A Target folder
// matches when its name equals name byte for byte and its parent equals
// parentTargetID, where nil matches only a top-level folder.
func (r *FolderResolver) Resolve(
	ctx context.Context,
	sourceFolderRef, name string,
	parentTargetID *string,
) (string, error) {
	// 1. Cached from earlier in this run
	if id, ok := r.cache.Get(sourceFolderRef); ok {
		return id, nil
	}

	// 2. Look for an existing folder
	folders, err := r.library.ListFolders(ctx)
	if err != nil {
		return "", fmt.Errorf("list target folders: %w", err)
	}
	for i := range folders {
		if folders[i].Name == name && domain.SameParent(folders[i].ParentID, parentTargetID) {
			r.remember(sourceFolderRef, folders[i].ID)
			return folders[i].ID, nil
		}
	}

	// 3. Create it, unless the mirror is read-only
	if !r.createMissing {
		return "", fmt.Errorf("target folder %q: %w", name, domain.ErrNotFound)
	}

	folder, err := r.library.CreateFolder(ctx, name, parentTargetID)
	if err != nil {
		return "", fmt.Errorf("create target folder %q: %w", name, err)
	}
	r.created.Add(1)
	logger.Info("Created target folder %q (%s)", name, folder.ID)

	r.remember(sourceFolderRef, folder.ID)
	return folder.ID, nil
}

// Created returns how many folders this resolver created.
func (r *FolderResolver) Created() int {
	return int(r.created.Load())
}

func (r *FolderResolver) remember(sourceFolderRef, targetID string) {
	r.cache.Put(domain.FolderMapping{
		SourceFolderRef: sourceFolderRef,
		TargetFolderID:  targetID,
	})
}
