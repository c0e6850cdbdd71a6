package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SwiftBackuper/internal/blobstore"
	"SwiftBackuper/internal/config"
)

var testNow = time.Unix(1700000400, 0)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.TmpPath = t.TempDir()
	cfg.Storage.Username = "u"
	cfg.Storage.Password = "p"
	cfg.Storage.AuthURL = "https://keystone.example.com/v3"
	cfg.Storage.Container = "backups"
	return cfg
}

func newTestOrchestrator(t *testing.T, name string, keep int, a *fakeArchiver, store *fakeStore) *Orchestrator {
	t.Helper()
	cfg := testConfig(t)
	cfg.KeepRelease = keep
	job, err := NewJob(t.TempDir(), name, cfg)
	require.NoError(t, err)
	o := New(job, a, store)
	o.now = func() time.Time { return testNow }
	return o
}

func TestRunEndToEnd(t *testing.T) {
	store := newFakeStore(
		"web-1700000100.tar.gz",
		"web-1700000200.tar.gz",
		"web-1700000300.tar.gz",
		"api-1700000000.tar.gz",
	)
	o := newTestOrchestrator(t, "web", 2, &fakeArchiver{}, store)

	obj, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "web-1700000400.tar.gz", obj.Name)

	assert.Equal(t, []string{"web-1700000200.tar.gz", "web-1700000300.tar.gz"}, store.removedSorted())
	assert.Equal(t, []string{
		"api-1700000000.tar.gz",
		"web-1700000100.tar.gz",
		"web-1700000400.tar.gz",
	}, store.names())
	assert.NoFileExists(t, filepath.Join(o.job.Config.TmpPath, obj.Name))
}

func TestRunNoSweepNeeded(t *testing.T) {
	store := newFakeStore("web-1700000100.tar.gz")
	o := newTestOrchestrator(t, "web", 3, &fakeArchiver{}, store)

	_, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, store.removed)
	assert.Len(t, store.names(), 2)
}

func TestRunReportsProgress(t *testing.T) {
	store := newFakeStore()
	a := &fakeArchiver{payload: make([]byte, 4096)}
	o := newTestOrchestrator(t, "web", 3, a, store)
	var last, total int64
	WithProgress(func(tr, tot int64) { last, total = tr, tot })(o)

	_, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4096), last)
	assert.Equal(t, int64(4096), total)
}

func TestRunArchiveFailure(t *testing.T) {
	store := newFakeStore()
	boom := errors.New("tar: permission denied")
	o := newTestOrchestrator(t, "web", 3, &fakeArchiver{err: boom}, store)

	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArchive)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.uploads)
	assert.Zero(t, store.lists)
}

func TestRunUploadFailureKeepsLocalArchive(t *testing.T) {
	store := newFakeStore("web-1700000100.tar.gz", "web-1700000200.tar.gz", "web-1700000300.tar.gz")
	boom := errors.New("503 service unavailable")
	store.uploadErr = boom
	o := newTestOrchestrator(t, "web", 1, &fakeArchiver{}, store)

	obj, err := o.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpload)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, obj.Name)

	assert.FileExists(t, filepath.Join(o.job.Config.TmpPath, "web-1700000400.tar.gz"))
	assert.Zero(t, store.lists)
	assert.Empty(t, store.removed)
}

func TestRunCleanupFailureSkipsSweep(t *testing.T) {
	store := newFakeStore("web-1700000100.tar.gz", "web-1700000200.tar.gz", "web-1700000300.tar.gz")
	o := newTestOrchestrator(t, "web", 1, &fakeArchiver{}, store)
	boom := errors.New("read-only file system")
	o.remove = func(string) error { return boom }

	obj, err := o.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCleanup)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "web-1700000400.tar.gz", obj.Name)
	assert.Zero(t, store.lists)
	assert.Empty(t, store.removed)
}

func TestRunListFailure(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("401 unauthorized")
	o := newTestOrchestrator(t, "web", 3, &fakeArchiver{}, store)

	obj, err := o.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrList)
	assert.ErrorIs(t, err, store.listErr)
	assert.Equal(t, "web-1700000400.tar.gz", obj.Name)
}

func TestRunDeleteFailure(t *testing.T) {
	store := newFakeStore("web-1700000100.tar.gz", "web-1700000200.tar.gz", "web-1700000300.tar.gz")
	store.removeErr["web-1700000200.tar.gz"] = errors.New("404 not found")
	o := newTestOrchestrator(t, "web", 1, &fakeArchiver{}, store)

	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDelete)
	assert.NotErrorIs(t, err, ErrList)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageDelete, se.Stage)
	assert.Equal(t, "web", se.Job)
}

func TestPruneIdempotent(t *testing.T) {
	store := newFakeStore("job-1.tar.gz", "job-2.tar.gz", "job-3.tar.gz", "job-4.tar.gz", "job-5.tar.gz")
	o := newTestOrchestrator(t, "job", 3, &fakeArchiver{}, store)
	ctx := context.Background()

	deleted, err := o.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"job-3.tar.gz", "job-4.tar.gz"}, blobstore.Names(deleted))
	after := store.names()

	deleted, err = o.Prune(ctx)
	require.NoError(t, err)
	assert.Empty(t, deleted)
	assert.Equal(t, after, store.names())
}

func TestPruneHook(t *testing.T) {
	store := newFakeStore("job-1.tar.gz", "job-2.tar.gz", "job-3.tar.gz", "job-4.tar.gz")
	o := newTestOrchestrator(t, "job", 2, &fakeArchiver{}, store)
	var gotDeleted []string
	gotRetained := -1
	WithPruneHook(func(deleted []blobstore.Object, retained int) {
		gotDeleted = blobstore.Names(deleted)
		gotRetained = retained
	})(o)

	_, err := o.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"job-2.tar.gz", "job-3.tar.gz"}, gotDeleted)
	assert.Equal(t, 2, gotRetained)
}

func TestPruneCandidatesDeletesNothing(t *testing.T) {
	store := newFakeStore("job-1.tar.gz", "job-2.tar.gz", "job-3.tar.gz")
	o := newTestOrchestrator(t, "job", 1, &fakeArchiver{}, store)

	got, err := o.PruneCandidates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"job-1.tar.gz", "job-2.tar.gz"}, blobstore.Names(got))
	assert.Empty(t, store.removed)
}

func TestPruneConcurrencyLimit(t *testing.T) {
	for _, limit := range []int{1, 3} {
		var names []string
		for i := 0; i < 10; i++ {
			names = append(names, FileName("web", time.Unix(int64(1700000000+i), 0)))
		}
		store := &inFlightStore{fakeStore: newFakeStore(names...)}
		cfg := testConfig(t)
		cfg.KeepRelease = 1
		job, err := NewJob(t.TempDir(), "web", cfg)
		require.NoError(t, err)

		o := New(job, &fakeArchiver{}, store, WithConcurrency(limit))
		assert.Equal(t, 1, o.Keep())
		deleted, err := o.Prune(context.Background())
		require.NoError(t, err)
		assert.Len(t, deleted, 9)
		assert.LessOrEqual(t, int(store.max.Load()), limit, "limit %d", limit)
		assert.Equal(t, []string{names[9]}, store.names())
	}
}

func TestListFiltersAndSorts(t *testing.T) {
	store := newFakeStore("db-2.tar.gz", "db-prod-1.tar.gz", "db-1.tar.gz", "notes.txt")
	o := newTestOrchestrator(t, "db", 3, &fakeArchiver{}, store)

	got, err := o.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"db-1.tar.gz", "db-2.tar.gz"}, blobstore.Names(got))
}

func TestNewJobValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		job    string
		source string
		want   error
	}{
		{"missing username", func(c *config.Config) { c.Storage.Username = "" }, "web", "/srv", config.ErrMissingUsername},
		{"missing password", func(c *config.Config) { c.Storage.Password = "" }, "web", "/srv", config.ErrMissingPassword},
		{"missing auth url", func(c *config.Config) { c.Storage.AuthURL = "" }, "web", "/srv", config.ErrMissingAuthURL},
		{"missing container", func(c *config.Config) { c.Storage.Container = "" }, "web", "/srv", config.ErrMissingContainer},
		{"missing tmp path", func(c *config.Config) { c.TmpPath = "" }, "web", "/srv", config.ErrMissingTmpPath},
		{"missing name", func(*config.Config) {}, " ", "/srv", ErrMissingName},
		{"missing source", func(*config.Config) {}, "web", "", ErrMissingSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(&cfg)
			job, err := NewJob(tt.source, tt.job, cfg)
			assert.Nil(t, job)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var ce *config.ConfigurationError
			assert.ErrorAs(t, err, &ce)
		})
	}
}

func TestNewJobResolvesSource(t *testing.T) {
	cfg := testConfig(t)
	wd, err := os.Getwd()
	require.NoError(t, err)

	job, err := NewJob("data", "web", cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "data"), job.SourcePath)
	assert.Equal(t, 3, job.Keep())
}

func TestStageErrorMessage(t *testing.T) {
	err := stageError(StageUpload, "web", "web-1.tar.gz", errors.New("timeout"))
	assert.Equal(t, "web: upload web-1.tar.gz: timeout", err.Error())
	assert.ErrorIs(t, err, ErrUpload)
	assert.NotErrorIs(t, err, ErrArchive)
}
