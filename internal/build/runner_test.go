package build

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	dberrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
)

type outcomeRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes map[string]metrics.BuildOutcomeLabel
}

func (r *outcomeRecorder) IncBuildOutcome(pipeline string, outcome metrics.BuildOutcomeLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]metrics.BuildOutcomeLabel{}
	}
	r.outcomes[pipeline] = outcome
}

type capturePublisher struct {
	events []notify.Event
}

func (p *capturePublisher) Publish(_ context.Context, e notify.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func newTestRunner(t *testing.T) (*Runner, *eventstore.Journal, *outcomeRecorder, *capturePublisher) {
	t.Helper()
	journal, err := eventstore.OpenJournal(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	rec := &outcomeRecorder{}
	pub := &capturePublisher{}
	return NewRunner(journal, rec, pub), journal, rec, pub
}

func TestRunner_Success(t *testing.T) {
	runner, journal, rec, pub := newTestRunner(t)

	var seenID string
	out, err := runner.Run(context.Background(), PipelineBookmarks, TriggerCLI, func(_ context.Context, buildID string) (Outcome, error) {
		seenID = buildID
		e, err := eventstore.NewBookmarksBuilt(buildID, 7)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Events: []eventstore.Event{e}, Details: map[string]any{"count": 7}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, metrics.BuildOutcomeSuccess, out.Status)
	assert.Equal(t, metrics.BuildOutcomeSuccess, rec.outcomes[PipelineBookmarks])

	require.Len(t, pub.events, 1)
	assert.Equal(t, seenID, pub.events[0].BuildID)
	assert.Equal(t, PipelineBookmarks, pub.events[0].Pipeline)
	assert.Equal(t, 7, pub.events[0].Details["count"])

	history, err := journal.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, seenID, history[0].BuildID)
	assert.Equal(t, eventstore.StatusSuccess, history[0].Status)
	assert.Equal(t, TriggerCLI, history[0].Trigger)
	assert.Equal(t, "7", history[0].Details["count"])
}

func TestRunner_Unchanged(t *testing.T) {
	runner, journal, rec, _ := newTestRunner(t)

	_, err := runner.Run(context.Background(), PipelineCSS, TriggerCLI, func(context.Context, string) (Outcome, error) {
		return Outcome{Status: metrics.BuildOutcomeUnchanged}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, metrics.BuildOutcomeUnchanged, rec.outcomes[PipelineCSS])

	history, err := journal.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, eventstore.StatusUnchanged, history[0].Status)
}

func TestRunner_FailureRecordsStage(t *testing.T) {
	runner, journal, rec, pub := newTestRunner(t)

	boom := dberrors.GitError("push rejected").WithContext("stage", "push").Build()
	_, err := runner.Run(context.Background(), PipelineDeploy, TriggerCLI, func(context.Context, string) (Outcome, error) {
		return Outcome{}, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, metrics.BuildOutcomeFailed, rec.outcomes[PipelineDeploy])
	assert.Empty(t, pub.events)

	history, err := journal.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, eventstore.StatusFailed, history[0].Status)
	assert.Equal(t, "push", history[0].ErrorStage)
	assert.Contains(t, history[0].ErrorMessage, "push rejected")
}

func TestRunner_Canceled(t *testing.T) {
	runner, journal, rec, _ := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := runner.Run(ctx, PipelinePosts, TriggerWatch, func(ctx context.Context, _ string) (Outcome, error) {
		cancel()
		return Outcome{}, ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, metrics.BuildOutcomeCanceled, rec.outcomes[PipelinePosts])

	// The failure is journaled even though the run context is done.
	history, err := journal.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "run", history[0].ErrorStage)
}

func TestRunner_NilDependencies(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	_, err := runner.Run(context.Background(), PipelineStatic, TriggerCLI, func(context.Context, string) (Outcome, error) {
		return Outcome{}, errors.New("copy failed")
	})
	require.EqualError(t, err, "copy failed")
}

type stubService struct {
	result *BuildResult
	err    error
}

func (s stubService) Run(context.Context, BuildRequest) (*BuildResult, error) {
	return s.result, s.err
}

func TestPostsPipeline(t *testing.T) {
	tests := []struct {
		name   string
		result *BuildResult
		status metrics.BuildOutcomeLabel
	}{
		{"pages written", &BuildResult{Published: 2, Pages: 1}, metrics.BuildOutcomeSuccess},
		{"blocks updated", &BuildResult{Published: 2, Blocks: 1}, metrics.BuildOutcomeSuccess},
		{"nothing changed", &BuildResult{Published: 2}, metrics.BuildOutcomeUnchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := PostsPipeline(stubService{result: tt.result}, BuildRequest{Now: time.Now()})
			out, err := fn(context.Background(), "b1")
			require.NoError(t, err)
			assert.Equal(t, tt.status, out.Status)
			require.Len(t, out.Events, 1)
			assert.Equal(t, eventstore.TypePostsBuilt, out.Events[0].Type())
			assert.Equal(t, 2, out.Details["published"])
		})
	}
}
