package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/holodeck-scenegen/scenegen/hconfig"
	"github.com/holodeck-scenegen/scenegen/herr"
	"github.com/holodeck-scenegen/scenegen/holog"
	"github.com/holodeck-scenegen/scenegen/store"
)

// ReviewGateFromConfig adapts cfg.RequiresReview (REVIEW_STAGES, §6.4) to
// the Runner.ReviewGate shape, so a caller wires it straight through:
// runner.ReviewGate = pipeline.ReviewGateFromConfig(cfg).
func ReviewGateFromConfig(cfg *hconfig.Config) func(string) bool {
	return cfg.RequiresReview
}

// Runner orchestrates sequential stage execution, grounded on
// runner.py's PipelineRunner — but instead of swallowing the stage error
// and merely logging it (the original's "except Exception: break"), it
// persists a FailureResponse and returns the error so a caller can decide
// whether to retry.
type Runner struct {
	Stages []Stage
	Store  *store.Store
	Logger holog.Logger

	// ReviewGate, when set, is consulted after each stage completes
	// successfully; if it reports true for that stage's name, Run stops
	// there — the same way an explicit untilStage would — instead of
	// continuing to the next stage, so an operator can inspect artifacts
	// before resuming with fromStage set to the stage after it. Typically
	// built from hconfig.Config.RequiresReview (REVIEW_STAGES, §6.4).
	ReviewGate func(stage string) bool
}

// RunResult is what a run (complete or partial) reports back. Artifacts
// maps a completed stage's name to the workspace-relative path of the
// artifact it wrote, so a command-line adapter can locate outputs without
// reaching into Store internals. PausedForReview names the stage Run
// stopped after because ReviewGate reported true for it; empty otherwise.
type RunResult struct {
	SessionID       string
	WorkspacePath   string
	Artifacts       map[string]string
	StagesCompleted []string
	TotalTimeS      float64
	PausedForReview string
}

// artifactPath reports the workspace-relative artifact path a stage wrote,
// if any — derived from data rather than hardcoded, since constraint and
// layout artifacts are version-numbered.
func artifactPath(name string, data *StageData) (string, bool) {
	switch name {
	case "scene_ref":
		return data.SceneRefRef, data.SceneRefRef != ""
	case "extract":
		return "objects.json", true
	case "cards":
		return "object_cards", len(data.Cards) > 0
	case "constraints":
		if data.ConstraintSet == nil {
			return "", false
		}
		return store.VersionedPath("constraints", data.ConstraintSet.Version, ".json"), true
	case "layout":
		if data.Solution == nil {
			return "", false
		}
		return store.VersionedPath("layout_solution", data.Solution.Version, ".json"), true
	case "assets":
		return "asset_manifest.json", true
	case "assemble":
		return "blender_object_map.json", data.AssemblyBundlePath != ""
	default:
		return "", false
	}
}

// Run executes stages in order, optionally starting at fromStage and
// stopping after untilStage (both inclusive; empty means "from the
// start" / "through the end"), enabling the resume-by-presence workflow
// described in §4.5: a caller checks Store.StageComplete/LatestVersion
// itself to decide fromStage before calling Run.
func (r *Runner) Run(ctx context.Context, data *StageData, fromStage, untilStage string) (RunResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = holog.NoOp{}
	}

	start := time.Now()
	started := fromStage == ""
	var completed []string
	artifacts := make(map[string]string)

	for _, stage := range r.Stages {
		name := stage.Name()
		if !started {
			if name == fromStage {
				started = true
			} else {
				continue
			}
		}

		logger.Info("stage starting", "stage", name, "session_id", data.SessionID)
		stageStart := time.Now()
		err := stage.Execute(ctx, data)
		elapsed := time.Since(stageStart).Seconds()
		data.Metrics[name+"_time_s"] = elapsed

		if err != nil {
			data.AddError(name, err.Error())
			logger.Error("stage failed", "stage", name, "session_id", data.SessionID, "error", err.Error())

			var he *herr.Error
			if !errors.As(err, &he) {
				he = herr.New("pipeline.Run", "pipeline", herr.KindInternalError, err)
			}
			failure := herr.NewFailureResponse(data.SessionID, name, he)
			if writeErr := r.Store.WriteLastError(data.SessionID, failure); writeErr != nil {
				logger.Warn("failed to persist last_error.json", "session_id", data.SessionID, "error", writeErr.Error())
			}

			data.Metrics["total_time_s"] = time.Since(start).Seconds()
			return RunResult{
				SessionID:       data.SessionID,
				WorkspacePath:   data.WorkspacePath,
				Artifacts:       artifacts,
				StagesCompleted: completed,
				TotalTimeS:      data.Metrics["total_time_s"],
			}, err
		}

		completed = append(completed, name)
		if path, ok := artifactPath(name, data); ok {
			artifacts[name] = path
		}
		logger.Info("stage completed", "stage", name, "session_id", data.SessionID, "elapsed_s", elapsed)

		awaitingReview := r.ReviewGate != nil && r.ReviewGate(name)
		if awaitingReview {
			logger.Info("stage awaiting review", "stage", name, "session_id", data.SessionID)
		}

		if awaitingReview || (untilStage != "" && name == untilStage) {
			data.Metrics["total_time_s"] = time.Since(start).Seconds()
			result := RunResult{
				SessionID:       data.SessionID,
				WorkspacePath:   data.WorkspacePath,
				Artifacts:       artifacts,
				StagesCompleted: completed,
				TotalTimeS:      data.Metrics["total_time_s"],
			}
			if awaitingReview {
				result.PausedForReview = name
			}
			return result, nil
		}
	}

	data.Metrics["total_time_s"] = time.Since(start).Seconds()
	return RunResult{
		SessionID:       data.SessionID,
		WorkspacePath:   data.WorkspacePath,
		Artifacts:       artifacts,
		StagesCompleted: completed,
		TotalTimeS:      data.Metrics["total_time_s"],
	}, nil
}
