package domain

// ProgressStage identifies a coarse-grained milestone of an analysis run.
type ProgressStage string

const (
	StageFetching  ProgressStage = "fetching"
	StageCloning   ProgressStage = "cloning"
	StageAnalyzing ProgressStage = "analyzing"
	StageComplete  ProgressStage = "complete"
	StageError     ProgressStage = "error"
)

// ProgressEvent is a fire-and-forget update emitted at fixed milestones of
// an analysis run. Progress is a percentage in [0, 100].
type ProgressEvent struct {
	Stage      ProgressStage `json:"stage"`
	Message    string        `json:"message"`
	Progress   int           `json:"progress"`
	Repository string        `json:"repository,omitempty"`
}
