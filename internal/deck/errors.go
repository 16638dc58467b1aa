package deck

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrWriteFailed indicates the presentation file could not be written. The
// destination path is never left holding a partial file.
var ErrWriteFailed = eris.New("presentation write failed")

// PipelineError attributes a fatal failure to the stage it occurred in.
type PipelineError struct {
	Stage State
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed during %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
