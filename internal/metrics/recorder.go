package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// BuildOutcomeLabel is the final status of one pipeline run.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess   BuildOutcomeLabel = "success"
	BuildOutcomeUnchanged BuildOutcomeLabel = "unchanged"
	BuildOutcomeFailed    BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled  BuildOutcomeLabel = "canceled"
)

// IconFetchLabel describes how a remote icon was obtained.
type IconFetchLabel string

const (
	IconFetchPrimary  IconFetchLabel = "primary"
	IconFetchFallback IconFetchLabel = "fallback"
	IconFetchFailed   IconFetchLabel = "failed"
)

// Recorder defines observability hooks for pipeline and stage metrics.
// Pipelines are the CLI subcommands (posts, css, bookmarks, icons, deploy).
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(pipeline string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(pipeline string, outcome BuildOutcomeLabel)
	SetPostsBuilt(published, scheduled int)
	SetCSSVersion(version int)
	IncIconFetch(result IconFetchLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(string, BuildOutcomeLabel)  {}
func (NoopRecorder) SetPostsBuilt(int, int)                     {}
func (NoopRecorder) SetCSSVersion(int)                          {}
func (NoopRecorder) IncIconFetch(IconFetchLabel)                {}
