// Package blobstore defines the object-storage contract the backup engine
// talks to. Adapters live in internal/swift and internal/s3.
package blobstore

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrContainerRequired = errors.New("container is required")

// Object is a listing entry and the reference returned by a confirmed upload.
type Object struct {
	Name         string
	Size         int64
	LastModified time.Time
	ETag         string
}

// ProgressFunc receives the cumulative number of bytes sent and the expected total.
type ProgressFunc func(transferred, total int64)

type Store interface {
	// Upload streams body to container/name. It returns exactly once: either the
	// stored object or the error that ended the transfer.
	Upload(ctx context.Context, container, name string, body io.Reader, size int64, progress ProgressFunc) (Object, error)
	List(ctx context.Context, container string) ([]Object, error)
	Remove(ctx context.Context, container string, obj Object) error
}

// Names returns the object names in order.
func Names(objs []Object) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.Name
	}
	return out
}
