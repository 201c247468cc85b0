package pipeline

import "context"

// Stage is one step of the pipeline, mirroring the original's BaseStage
// abstract class collapsed into a single interface method (the timing and
// error-wrapping the original put in BaseStage.run lives in Runner.Run
// instead, since Go favors composition over template-method inheritance).
type Stage interface {
	Name() string
	Execute(ctx context.Context, data *StageData) error
}
