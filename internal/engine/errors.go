package engine

import "fmt"

// Stage names a pipeline step that can fail a run.
type Stage string

const (
	StagePlan     Stage = "plan"
	StageRender   Stage = "render"
	StageAssemble Stage = "assemble"
)

// StageError reports which step of which mode failed and how many stills
// were expected and found at that point.
type StageError struct {
	Stage    Stage
	Mode     string
	Expected int
	Found    int
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s stage failed (frames expected %d, found %d): %v",
		e.Mode, e.Stage, e.Expected, e.Found, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
