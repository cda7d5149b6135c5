package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	dberrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
)

// Pipeline names.
const (
	PipelinePosts     = "posts"
	PipelineBookmarks = "bookmarks"
	PipelineCSS       = "css"
	PipelineIcons     = "icons"
	PipelineStatic    = "static"
	PipelineDeploy    = "deploy"
)

// Trigger names recorded with BuildStarted.
const (
	TriggerCLI      = "cli"
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
)

// Outcome is what a pipeline body reports back to the Runner.
type Outcome struct {
	// Status is success unless the pipeline found nothing to change.
	Status metrics.BuildOutcomeLabel

	// Events are appended to the journal after the run succeeds.
	Events []eventstore.Event

	// Details are published with the notification.
	Details map[string]any
}

// PipelineFunc is the body of one pipeline run.
type PipelineFunc func(ctx context.Context, buildID string) (Outcome, error)

// Runner wraps pipeline runs with a build ID, journal events, metrics and a
// notification. Its zero value is not usable; use NewRunner.
type Runner struct {
	journal  *eventstore.Journal
	recorder metrics.Recorder
	notifier notify.Publisher
}

// NewRunner creates a Runner. nil arguments select the no-op implementations.
func NewRunner(journal *eventstore.Journal, recorder metrics.Recorder, notifier notify.Publisher) *Runner {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Runner{journal: journal, recorder: recorder, notifier: notifier}
}

// Run executes fn as one run of pipeline and returns its outcome.
func (r *Runner) Run(ctx context.Context, pipeline, trigger string, fn PipelineFunc) (Outcome, error) {
	buildID := eventstore.NewBuildID()
	ctx = observability.WithBuildID(ctx, buildID)
	ctx = observability.WithPipeline(ctx, pipeline)
	start := time.Now()

	started, err := eventstore.NewBuildStarted(buildID, pipeline, trigger)
	r.journal.RecordOrWarn(ctx, started, err)

	outcome, runErr := fn(ctx, buildID)
	duration := time.Since(start)
	r.recorder.ObserveBuildDuration(pipeline, duration)

	if runErr != nil {
		label := metrics.BuildOutcomeFailed
		if stderrors.Is(runErr, context.Canceled) {
			label = metrics.BuildOutcomeCanceled
		}
		r.recorder.IncBuildOutcome(pipeline, label)

		failed, err := eventstore.NewBuildFailed(buildID, pipeline, failedStage(runErr), runErr.Error())
		// The run context may be the reason for the failure.
		r.journal.RecordOrWarn(context.WithoutCancel(ctx), failed, err)
		return outcome, runErr
	}

	if outcome.Status == "" {
		outcome.Status = metrics.BuildOutcomeSuccess
	}
	r.recorder.IncBuildOutcome(pipeline, outcome.Status)

	for _, e := range outcome.Events {
		r.journal.RecordOrWarn(ctx, e, nil)
	}
	completed, err := eventstore.NewBuildCompleted(buildID, pipeline, string(outcome.Status), duration)
	r.journal.RecordOrWarn(ctx, completed, err)

	event := notify.Event{
		Pipeline:  pipeline,
		BuildID:   buildID,
		Status:    string(outcome.Status),
		Duration:  duration,
		Timestamp: time.Now(),
		Details:   outcome.Details,
	}
	if err := r.notifier.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish build notification",
			logfields.BuildID(buildID),
			logfields.Error(err))
	}

	slog.DebugContext(ctx, "Pipeline finished",
		slog.String("status", string(outcome.Status)),
		logfields.DurationMS(float64(duration.Milliseconds())))
	return outcome, nil
}

// failedStage reads the stage a classified error was tagged with.
func failedStage(err error) string {
	if classified, ok := dberrors.AsClassified(err); ok {
		if stage, ok := classified.Context().GetString("stage"); ok {
			return stage
		}
	}
	return "run"
}
