package usecase

import "fmt"

// Stage names one step of the daily pipeline.
type Stage string

const (
	StageFetchSources Stage = "fetch_sources"
	StageIngest       Stage = "ingest"
	StageCurate       Stage = "curate"
	StageWrite        Stage = "write"
	StageSegment      Stage = "segment"
	StageSynthesize   Stage = "synthesize"
	StageAssemble     Stage = "assemble"
	StagePublish      Stage = "publish"
	StageLog          Stage = "log"
	StageNotify       Stage = "notify_downstream"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
)

// StageError marks the stage at which a run failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
