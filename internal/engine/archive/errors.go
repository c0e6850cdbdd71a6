package archive

import (
	"errors"
	"fmt"
)

type Stage string

const (
	StageArchive Stage = "archive"
	StageUpload  Stage = "upload"
	StageCleanup Stage = "cleanup"
	StageList    Stage = "list"
	StageDelete  Stage = "delete"
)

var (
	ErrArchive = errors.New("archive creation failed")
	ErrUpload  = errors.New("upload failed")
	ErrCleanup = errors.New("local cleanup failed")
	ErrList    = errors.New("listing backups failed")
	ErrDelete  = errors.New("deleting backup failed")
)

var stageSentinels = map[Stage]error{
	StageArchive: ErrArchive,
	StageUpload:  ErrUpload,
	StageCleanup: ErrCleanup,
	StageList:    ErrList,
	StageDelete:  ErrDelete,
}

// StageError is the failure of one step of a run. errors.Is matches the stage
// sentinel (ErrUpload, ...) and the wrapped collaborator error.
type StageError struct {
	Stage  Stage
	Job    string
	Object string
	Err    error
}

func (e *StageError) Error() string {
	if e.Object != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Job, e.Stage, e.Object, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Job, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	return stageSentinels[e.Stage] == target
}

func stageError(stage Stage, job, object string, err error) error {
	return &StageError{Stage: stage, Job: job, Object: object, Err: err}
}
