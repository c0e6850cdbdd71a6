package archive

import (
	"context"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"SwiftBackuper/internal/blobstore"
)

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	listErr   error
	removeErr map[string]error

	uploads []string
	lists   int
	removed []string
}

func newFakeStore(names ...string) *fakeStore {
	s := &fakeStore{objects: map[string][]byte{}, removeErr: map[string]error{}}
	for _, n := range names {
		s.objects[n] = []byte("old")
	}
	return s
}

func (s *fakeStore) Upload(ctx context.Context, container, name string, body io.Reader, size int64, progress blobstore.ProgressFunc) (blobstore.Object, error) {
	s.mu.Lock()
	s.uploads = append(s.uploads, name)
	s.mu.Unlock()
	if s.uploadErr != nil {
		return blobstore.Object{}, s.uploadErr
	}
	data, err := io.ReadAll(blobstore.NewProgressReader(body, size, progress))
	if err != nil {
		return blobstore.Object{}, err
	}
	s.mu.Lock()
	s.objects[name] = data
	s.mu.Unlock()
	return blobstore.Object{Name: name, Size: int64(len(data))}, nil
}

func (s *fakeStore) List(ctx context.Context, container string) ([]blobstore.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]blobstore.Object, 0, len(s.objects))
	for n, d := range s.objects {
		out = append(out, blobstore.Object{Name: n, Size: int64(len(d))})
	}
	return out, nil
}

func (s *fakeStore) Remove(ctx context.Context, container string, obj blobstore.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, obj.Name)
	if err := s.removeErr[obj.Name]; err != nil {
		return err
	}
	delete(s.objects, obj.Name)
	return nil
}

func (s *fakeStore) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for n := range s.objects {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (s *fakeStore) removedSorted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.removed...)
	sort.Strings(out)
	return out
}

// fakeArchiver writes a fixed payload to the destination.
type fakeArchiver struct {
	err     error
	payload []byte
	calls   int
}

func (a *fakeArchiver) Compress(ctx context.Context, sourceDir, destPath string) error {
	a.calls++
	if a.err != nil {
		return a.err
	}
	payload := a.payload
	if payload == nil {
		payload = []byte("tar.gz bytes")
	}
	return os.WriteFile(destPath, payload, 0600)
}

// inFlightStore records the largest number of concurrent Remove calls.
type inFlightStore struct {
	*fakeStore
	cur, max atomic.Int32
}

func (s *inFlightStore) Remove(ctx context.Context, container string, obj blobstore.Object) error {
	n := s.cur.Add(1)
	defer s.cur.Add(-1)
	for {
		m := s.max.Load()
		if n <= m || s.max.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return s.fakeStore.Remove(ctx, container, obj)
}
