package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// BuildService runs the posts pipeline. The CLI and the watch daemon are thin
// wrappers over this interface.
type BuildService interface {
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to build the posts.
type BuildRequest struct {
	// Config is the loaded configuration for this build.
	Config *config.Config

	// OutRoot is where pages, posts.json and injected HTML are written.
	// Empty means the site root.
	OutRoot string

	// Now decides which posts are published. Zero means time.Now().
	Now time.Time
}

// BuildResult contains the outcome of a posts build.
type BuildResult struct {
	Status BuildStatus

	// Published and Scheduled split the loaded posts at Now.
	Published int
	Scheduled int

	// Pages is the number of post pages whose bytes changed on disk.
	Pages int

	// Blocks is the number of AUTO-GEN blocks whose page changed.
	Blocks int

	// Removed lists stale post pages deleted from the output.
	Removed []string

	// MissingAssets lists site-absolute links whose target does not exist.
	MissingAssets []string

	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	BuildStatusSuccess   BuildStatus = "success"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}
