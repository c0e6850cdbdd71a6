// Package archive runs a backup job: archive a directory, upload it, remove the
// local copy and prune older uploads of the same job.
package archive

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"SwiftBackuper/internal/archiver"
	"SwiftBackuper/internal/blobstore"
	"SwiftBackuper/internal/config"
	"SwiftBackuper/internal/engine"
)

type Orchestrator struct {
	job         *Job
	archiver    archiver.Archiver
	store       blobstore.Store
	log         zerolog.Logger
	progress    blobstore.ProgressFunc
	onPrune     func(deleted []blobstore.Object, retained int)
	concurrency int

	now    func() time.Time
	remove func(string) error
}

type Option func(*Orchestrator)

func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithProgress registers a callback for upload progress.
func WithProgress(fn blobstore.ProgressFunc) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithPruneHook is called after a sweep that deleted at least one object.
func WithPruneHook(fn func(deleted []blobstore.Object, retained int)) Option {
	return func(o *Orchestrator) { o.onPrune = fn }
}

// WithConcurrency bounds the number of deletes a sweep issues at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) { o.concurrency = n }
}

func New(job *Job, a archiver.Archiver, store blobstore.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		job:         job,
		archiver:    a,
		store:       store,
		log:         zerolog.Nop(),
		concurrency: job.Config.DeleteConcurrency,
		now:         time.Now,
		remove:      os.Remove,
	}
	if o.concurrency < 1 {
		o.concurrency = config.DefaultDeleteConcurrency
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.With().Str("job", job.Name).Logger()
	return o
}

func (o *Orchestrator) Keep() int {
	return o.job.Keep()
}

// Run archives, uploads, removes the local archive and sweeps, in that order.
// A failed step stops the run. When the upload succeeded but a later step failed,
// the uploaded object is returned together with the error.
func (o *Orchestrator) Run(ctx context.Context) (blobstore.Object, error) {
	start := o.now()
	o.log.Info().Str("source", o.job.SourcePath).Msg("starting backup")

	art, err := o.createArchive(ctx, start)
	if err != nil {
		return blobstore.Object{}, err
	}

	obj, err := o.upload(ctx, art)
	if err != nil {
		o.log.Error().Err(err).Str("path", art.LocalPath).Msg("upload failed, local archive kept")
		return blobstore.Object{}, err
	}

	if err := o.remove(art.LocalPath); err != nil {
		return obj, stageError(StageCleanup, o.job.Name, art.LocalPath, err)
	}
	o.log.Debug().Str("path", art.LocalPath).Msg("local archive removed")

	deleted, err := o.Prune(ctx)
	if err != nil {
		return obj, err
	}

	o.log.Info().
		Str("object", obj.Name).
		Str("size", humanize.IBytes(uint64(art.SizeBytes))).
		Int("pruned", len(deleted)).
		Dur("took", o.now().Sub(start)).
		Msg("backup complete")
	return obj, nil
}

func (o *Orchestrator) createArchive(ctx context.Context, at time.Time) (Artifact, error) {
	art := Artifact{FileName: FileName(o.job.Name, at)}
	art.LocalPath = filepath.Join(o.job.Config.TmpPath, art.FileName)

	o.log.Debug().Str("path", art.LocalPath).Msg("creating archive")
	if err := o.archiver.Compress(ctx, o.job.SourcePath, art.LocalPath); err != nil {
		return Artifact{}, stageError(StageArchive, o.job.Name, art.LocalPath, err)
	}
	info, err := os.Stat(art.LocalPath)
	if err != nil {
		return Artifact{}, stageError(StageArchive, o.job.Name, art.LocalPath, err)
	}
	art.SizeBytes = info.Size()
	o.log.Debug().
		Str("path", art.LocalPath).
		Str("size", humanize.IBytes(uint64(art.SizeBytes))).
		Msg("archive created")
	return art, nil
}

func (o *Orchestrator) upload(ctx context.Context, art Artifact) (blobstore.Object, error) {
	f, err := os.Open(art.LocalPath)
	if err != nil {
		return blobstore.Object{}, stageError(StageUpload, o.job.Name, art.FileName, err)
	}
	defer f.Close()

	o.log.Debug().Str("container", o.job.Container()).Str("object", art.FileName).Msg("uploading")
	obj, err := o.store.Upload(ctx, o.job.Container(), art.FileName, f, art.SizeBytes, o.progressFunc())
	if err != nil {
		return blobstore.Object{}, stageError(StageUpload, o.job.Name, art.FileName, err)
	}
	if obj.Name == "" {
		obj.Name = art.FileName
	}
	return obj, nil
}

// progressFunc logs every tenth percent at debug level and forwards to the caller's callback.
func (o *Orchestrator) progressFunc() blobstore.ProgressFunc {
	lastStep := -1
	return func(transferred, total int64) {
		pct := blobstore.Percent(transferred, total)
		if step := pct / 10; step != lastStep {
			lastStep = step
			o.log.Debug().
				Int("percent", pct).
				Str("sent", humanize.IBytes(uint64(transferred))).
				Msg("upload progress")
		}
		if o.progress != nil {
			o.progress(transferred, total)
		}
	}
}

// List returns the job's remote archives, oldest first.
func (o *Orchestrator) List(ctx context.Context) ([]blobstore.Object, error) {
	all, err := o.store.List(ctx, o.job.Container())
	if err != nil {
		return nil, stageError(StageList, o.job.Name, o.job.Container(), err)
	}
	return sortedByName(Matching(all, o.job.Name)), nil
}

// PruneCandidates returns what Prune would delete without deleting anything.
func (o *Orchestrator) PruneCandidates(ctx context.Context) ([]blobstore.Object, error) {
	entries, err := o.List(ctx)
	if err != nil {
		return nil, err
	}
	return PruneSet(entries, o.job.Keep()), nil
}

// Prune runs the retention sweep and returns the deleted objects.
func (o *Orchestrator) Prune(ctx context.Context) ([]blobstore.Object, error) {
	entries, err := o.List(ctx)
	if err != nil {
		return nil, err
	}
	candidates := PruneSet(entries, o.job.Keep())
	if len(candidates) == 0 {
		o.log.Debug().Int("keep", o.job.Keep()).Int("found", len(entries)).Msg("nothing to prune")
		return nil, nil
	}
	o.log.Info().
		Int("keep", o.job.Keep()).
		Strs("objects", blobstore.Names(candidates)).
		Msg("pruning old backups")
	if err := removeAll(ctx, o.store, o.job.Container(), o.job.Name, candidates, o.concurrency); err != nil {
		return nil, err
	}
	if o.onPrune != nil {
		o.onPrune(candidates, len(entries)-len(candidates))
	}
	return candidates, nil
}

var _ engine.Engine = (*Orchestrator)(nil)
