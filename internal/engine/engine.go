package engine

import (
	"context"

	"SwiftBackuper/internal/blobstore"
)

// Engine runs one backup job against its container.
type Engine interface {
	Run(ctx context.Context) (blobstore.Object, error)
	// List returns the job's archives, oldest first.
	List(ctx context.Context) ([]blobstore.Object, error)
	PruneCandidates(ctx context.Context) ([]blobstore.Object, error)
	Prune(ctx context.Context) ([]blobstore.Object, error)
	// Keep is the number of archives a sweep leaves behind.
	Keep() int
}
