package eventstore

import (
	"time"

	"github.com/google/uuid"
)

// Event type names.
const (
	TypeBuildStarted   = "BuildStarted"
	TypeBuildCompleted = "BuildCompleted"
	TypeBuildFailed    = "BuildFailed"
	TypePostsBuilt     = "PostsBuilt"
	TypeCSSPublished   = "CSSPublished"
	TypeCSSUnchanged   = "CSSUnchanged"
	TypeBookmarksBuilt = "BookmarksBuilt"
	TypeIconsCached    = "IconsCached"
	TypeDeployed       = "Deployed"
)

// NewBuildID returns a fresh identifier for one pipeline run.
func NewBuildID() string {
	return uuid.NewString()
}

// BuildStarted is emitted when a pipeline begins.
type BuildStarted struct {
	Record   `json:"-"`
	Pipeline string `json:"pipeline"`
	Trigger  string `json:"trigger"`
}

// NewBuildStarted creates a BuildStarted event. trigger names what started
// the run (cli, watch, schedule).
func NewBuildStarted(buildID, pipeline, trigger string) (*BuildStarted, error) {
	e := &BuildStarted{Pipeline: pipeline, Trigger: trigger}
	rec, err := newRecord(buildID, TypeBuildStarted, e)
	if err != nil {
		return nil, err
	}
	e.Record = rec
	return e, nil
}

// BuildCompleted is emitted when a pipeline finishes without error.
type BuildCompleted struct {
	Record     `json:"-"`
	Pipeline   string `json:"pipeline"`
	Status     string `json:"status"`
	DurationMS int64  `json:"duration_ms"`
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID, pipeline, status string, duration time.Duration) (*BuildCompleted, error) {
	e := &BuildCompleted{Pipeline: pipeline, Status: status, DurationMS: duration.Milliseconds()}
	rec, err := newRecord(buildID, TypeBuildCompleted, e)
	if err != nil {
		return nil, err
	}
	e.Record = rec
	return e, nil
}

// BuildFailed is emitted when a pipeline aborts.
type BuildFailed struct {
	Record   `json:"-"`
	Pipeline string `json:"pipeline"`
	Stage    string `json:"stage"`
	Error    string `json:"error"`
}

// NewBuildFailed creates a BuildFailed event.
func NewBuildFailed(buildID, pipeline, stage, errorMsg string) (*BuildFailed, error) {
	e := &BuildFailed{Pipeline: pipeline, Stage: stage, Error: errorMsg}
	rec, err := newRecord(buildID, TypeBuildFailed, e)
	if err != nil {
		return nil, err
	}
	e.Record = rec
	return e, nil
}

// PostsBuilt records the outcome of a posts build.
type PostsBuilt struct {
	Record    `json:"-"`
	Published int `json:"published"`
	Scheduled int `json:"scheduled"`
	Pages     int `json:"pages"`
	Removed   int `json:"removed"`
}

// NewPostsBuilt creates a PostsBuilt event.
func NewPostsBuilt(buildID string, published, scheduled, pages, removed int) (*PostsBuilt, error) {
	e := &PostsBuilt{Published: published, Scheduled: scheduled, Pages: pages, Removed: removed}
	rec, err := newRecord(buildID, TypePostsBuilt, e)
	if err != nil {
		return nil, err
	}
	e.Record = rec
	return e, nil
}

// CSSPublished records a new stylesheet version.
type CSSPublished struct {
	Record  `json:"-"`
	Version int    `json:"version"`
	File    string `json:"file"`
}

// NewCSSPublished creates a CSSPublished event.
func NewCSSPublished(buildID string, version int, file string) (*CSSPublished, error) {
	e := &CSSPublished{Version: version, File: file}
	rec, err := newRecord(buildID, TypeCSSPublished, e)
	if err != nil {
		return nil, err
	}
	e.Record = rec
	return e, nil
}

// CSSUnchanged records a stylesheet build identical to the linked version.
type CSSUnchanged struct {
	Record  `json:"-"`
	Version int `json:"version"`
}

// NewCSSUnchanged creates a CSSUnchanged event.
func NewCSSUnchanged(buildID string, version int) (*CSSUnchanged, error) {
	e := &CSSUnchanged{Version: version}
	rec, err := newRecord(buildID, TypeCSSUnchanged, e)
	if err != nil {
		return nil, err
	}
	e.Record = rec
	return e, nil
}

// BookmarksBuilt records how many bookmarks were rendered.
type BookmarksBuilt struct {
	Record `json:"-"`
	Count  int `json:"count"`
}

// NewBookmarksBuilt creates a BookmarksBuilt event.
func NewBookmarksBuilt(buildID string, count int) (*BookmarksBuilt, error) {
	e := &BookmarksBuilt{Count: count}
	rec, err := newRecord(buildID, TypeBookmarksBuilt, e)
	if err != nil {
		return nil, err
	}
	e.Record = rec
	return e, nil
}

// IconsCached records the icon cache summary.
type IconsCached struct {
	Record `json:"-"`
	Cached int `json:"cached"`
	Total  int `json:"total"`
	Failed int `json:"failed"`
}

// NewIconsCached creates an IconsCached event.
func NewIconsCached(buildID string, cached, total, failed int) (*IconsCached, error) {
	e := &IconsCached{Cached: cached, Total: total, Failed: failed}
	rec, err := newRecord(buildID, TypeIconsCached, e)
	if err != nil {
		return nil, err
	}
	e.Record = rec
	return e, nil
}

// Deployed records a build-branch publish.
type Deployed struct {
	Record `json:"-"`
	Branch string `json:"branch"`
	Commit string `json:"commit,omitempty"`
	Pushed bool   `json:"pushed"`
}

// NewDeployed creates a Deployed event. commit is empty when the tree was
// unchanged.
func NewDeployed(buildID, branch, commit string, pushed bool) (*Deployed, error) {
	e := &Deployed{Branch: branch, Commit: commit, Pushed: pushed}
	rec, err := newRecord(buildID, TypeDeployed, e)
	if err != nil {
		return nil, err
	}
	e.Record = rec
	return e, nil
}
