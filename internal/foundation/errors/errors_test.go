package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := WrapError(cause, CategoryNetwork, "icon download failed").
		Warning().
		Retryable().
		WithContext("url", "https://example.com/favicon.ico").
		Build()

	assert.Equal(t, CategoryNetwork, err.Category())
	assert.Equal(t, SeverityWarning, err.Severity())
	assert.True(t, err.Retryable())
	assert.False(t, err.IsFatal())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[network:warning] icon download failed: connection reset", err.Error())

	url, ok := err.Context().GetString("url")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/favicon.ico", url)
}

func TestBuilder_BuildCopiesContext(t *testing.T) {
	b := BuildError("render failed").WithContext("stage", "posts")
	first := b.Build()
	b.WithContext("stage", "css")

	stage, _ := first.Context().GetString("stage")
	assert.Equal(t, "posts", stage)
}

func TestClassifiedError_WithContext(t *testing.T) {
	cause := stderrors.New("disk full")
	orig := FileSystemError("write failed").WithCause(cause).WithContext("path", "/tmp/x").Build()

	tagged := orig.WithContext("stage", "render")

	stage, ok := tagged.Context().GetString("stage")
	assert.True(t, ok)
	assert.Equal(t, "render", stage)
	path, _ := tagged.Context().GetString("path")
	assert.Equal(t, "/tmp/x", path)
	assert.Equal(t, CategoryFileSystem, tagged.Category())
	assert.ErrorIs(t, tagged, cause)

	_, ok = orig.Context().GetString("stage")
	assert.False(t, ok)
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		builder   *ErrorBuilder
		category  ErrorCategory
		fatal     bool
		retryable bool
	}{
		{ConfigError("x"), CategoryConfig, true, false},
		{ValidationError("x"), CategoryValidation, true, false},
		{NotFoundError("x"), CategoryNotFound, true, false},
		{NetworkError("x"), CategoryNetwork, false, true},
		{GitError("x"), CategoryGit, false, false},
		{BuildError("x"), CategoryBuild, true, false},
		{FileSystemError("x"), CategoryFileSystem, false, false},
		{EventStoreError("x"), CategoryEventStore, false, false},
		{DaemonError("x"), CategoryDaemon, true, false},
		{InternalError("x"), CategoryInternal, true, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := tt.builder.Build()
			assert.Equal(t, tt.category, err.Category())
			assert.Equal(t, tt.fatal, err.IsFatal())
			assert.Equal(t, tt.retryable, err.Retryable())
		})
	}
}

func TestHasCategory_Wrapped(t *testing.T) {
	err := fmt.Errorf("posts: %w", ValidationError("missing title").Build())

	assert.True(t, HasCategory(err, CategoryValidation))
	assert.False(t, HasCategory(err, CategoryConfig))
	assert.False(t, HasCategory(stderrors.New("plain"), CategoryValidation))

	c, ok := AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, "missing title", c.Message())
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	assert.Equal(t, 0, a.ExitCodeFor(nil))
	assert.Equal(t, 2, a.ExitCodeFor(ValidationError("x").Build()))
	assert.Equal(t, 3, a.ExitCodeFor(NotFoundError("x").Build()))
	assert.Equal(t, 7, a.ExitCodeFor(ConfigError("x").Build()))
	assert.Equal(t, 8, a.ExitCodeFor(GitError("x").Build()))
	assert.Equal(t, 10, a.ExitCodeFor(InternalError("x").Build()))
	assert.Equal(t, 11, a.ExitCodeFor(BuildError("x").Build()))
	assert.Equal(t, 12, a.ExitCodeFor(DaemonError("x").Build()))
	assert.Equal(t, 2, a.ExitCodeFor(fmt.Errorf("wrapped: %w", ValidationError("x").Build())))
	assert.Equal(t, 1, a.ExitCodeFor(stderrors.New("plain")))
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	report := stderrors.New("Post metadata issues:\n- a.md: missing title\n- b.md: missing description")

	assert.Empty(t, quiet.FormatError(nil))
	assert.Equal(t, "Error: bad config", quiet.FormatError(ConfigError("bad config").Build()))
	assert.Equal(t, "Error: plain", quiet.FormatError(stderrors.New("plain")))
	assert.Equal(t, "Internal error occurred (use -v for details)", quiet.FormatError(InternalError("bug").Build()))
	assert.Contains(t,
		quiet.FormatError(WrapError(report, CategoryValidation, "post metadata invalid").Build()),
		"- b.md: missing description")

	verbose := NewCLIErrorAdapter(true, nil)
	assert.Equal(t, "[internal:fatal] bug", verbose.FormatError(InternalError("bug").Build()))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	code := -1
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	a.out = &out
	a.exit = func(c int) { code = c }

	a.HandleError(nil)
	assert.Equal(t, -1, code)

	a.HandleError(ConfigError("missing sitebuilder.yaml").Build())
	assert.Equal(t, 7, code)
	assert.Equal(t, "Error: missing sitebuilder.yaml\n", out.String())
}

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	a := NewHTTPErrorAdapter(nil)

	assert.Equal(t, http.StatusOK, a.StatusCodeFor(nil))
	assert.Equal(t, http.StatusNotFound, a.StatusCodeFor(NotFoundError("x").Build()))
	assert.Equal(t, http.StatusBadRequest, a.StatusCodeFor(ValidationError("x").Build()))
	assert.Equal(t, http.StatusUnprocessableEntity, a.StatusCodeFor(BuildError("x").Build()))
	assert.Equal(t, http.StatusServiceUnavailable, a.StatusCodeFor(DaemonError("x").Build()))
	assert.Equal(t, http.StatusInternalServerError, a.StatusCodeFor(stderrors.New("boom")))
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	a := NewHTTPErrorAdapter(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/posts/missing.html", nil)

	a.WriteErrorResponse(rec, req, NotFoundError("page not found").WithContext("path", "/posts/missing.html").Build())

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "page not found", body.Error)
	assert.Equal(t, "not_found", body.Code)
	assert.Equal(t, "/posts/missing.html", body.Details["path"])
	assert.False(t, body.Retryable)
}

func TestHTTPErrorAdapter_Retryable(t *testing.T) {
	resp := NewHTTPErrorAdapter(nil).FormatErrorResponse(NetworkError("broker down").Build())
	assert.True(t, resp.Retryable)
	assert.Equal(t, "network", resp.Code)
}
