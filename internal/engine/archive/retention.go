package archive

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"SwiftBackuper/internal/blobstore"
)

// PruneSet returns the entries a sweep deletes. With n entries sorted by name,
// nothing goes when n <= keep; otherwise sorted[keep-1 : n-1] goes. The newest
// entry always survives, so a sweep leaves keep entries counting the newest.
// keep below 1 is treated as 1. entries is not modified.
func PruneSet(entries []blobstore.Object, keep int) []blobstore.Object {
	if keep < 1 {
		keep = 1
	}
	n := len(entries)
	if n <= keep {
		return nil
	}
	sorted := sortedByName(entries)
	return sorted[keep-1 : n-1]
}

func sortedByName(entries []blobstore.Object) []blobstore.Object {
	sorted := make([]blobstore.Object, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}

// removeAll deletes objs with at most limit requests in flight and waits for all of
// them. A failed delete does not stop the others; the first failure is returned.
func removeAll(ctx context.Context, store blobstore.Store, container, job string, objs []blobstore.Object, limit int) error {
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for _, obj := range objs {
		obj := obj
		g.Go(func() error {
			if err := store.Remove(ctx, container, obj); err != nil {
				return stageError(StageDelete, job, obj.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
