package printing

import (
	"fmt"

	"github.com/erp/orderprint/internal/domain/artifact"
)

// Stage names a step of the render pipeline
type Stage string

const (
	StageIdentity  Stage = "identity"
	StageTemplate  Stage = "template"
	StageLock      Stage = "lock"
	StageDirectory Stage = "directory"
	StageConvert   Stage = "convert"
	StageStore     Stage = "store"
)

// StageDone labels successful renders in metrics
const StageDone Stage = "done"

// RenderFailure is the only error returned by the render pipeline. Cause
// keeps the original error for errors.Is/As.
type RenderFailure struct {
	Stage    Stage
	Identity artifact.Identity
	Cause    error
}

func (f *RenderFailure) Error() string {
	if f.Identity == (artifact.Identity{}) {
		return fmt.Sprintf("print failed at %s: %v", f.Stage, f.Cause)
	}
	return fmt.Sprintf("print %s failed at %s: %v", f.Identity.Key(), f.Stage, f.Cause)
}

func (f *RenderFailure) Unwrap() error {
	return f.Cause
}

func fail(stage Stage, id artifact.Identity, cause error) *RenderFailure {
	return &RenderFailure{Stage: stage, Identity: id, Cause: cause}
}
