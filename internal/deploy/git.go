package deploy

import (
	"errors"
	"net"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// classifyGitError translates go-git failures into classified errors.
func classifyGitError(err error, op, url string) error {
	if err == nil {
		return nil
	}
	if _, ok := foundationerrors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())
	category := foundationerrors.CategoryGit
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "not authorized") || strings.Contains(l, "invalid credentials"):
		category = foundationerrors.CategoryConfig
	case strings.Contains(l, "repository not found") || strings.Contains(l, "repository does not exist"):
		category = foundationerrors.CategoryNotFound
	case strings.Contains(l, "connection reset") || strings.Contains(l, "timeout") || strings.Contains(l, "remote hung up") || strings.Contains(l, "no route to host"):
		category = foundationerrors.CategoryNetwork
	}

	b := foundationerrors.WrapError(err, category, "git "+op+" failed").
		WithContext("op", op).
		WithContext("url", url)
	if category == foundationerrors.CategoryNetwork {
		b = b.Retryable()
	}
	if strings.Contains(l, "non-fast-forward") {
		b = b.WithContext("diverged", true)
	}
	return b.Build()
}

// isPermanentGitError reports failures a retry cannot fix.
func isPermanentGitError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, transport.ErrAuthenticationRequired) || errors.Is(err, transport.ErrAuthorizationFailed) ||
		errors.Is(err, transport.ErrRepositoryNotFound) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"auth", "permission", "denied", "not found", "no such remote", "invalid reference", "unsupported protocol", "non-fast-forward"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return !nerr.Timeout()
	}
	return false
}

// isMissingBranch reports whether a clone failed only because the branch
// (or the whole remote) does not exist yet.
func isMissingBranch(err error) bool {
	return errors.Is(err, git.NoMatchingRefSpecError{}) ||
		errors.Is(err, plumbing.ErrReferenceNotFound) ||
		errors.Is(err, transport.ErrEmptyRemoteRepository) ||
		strings.Contains(err.Error(), "couldn't find remote ref")
}

// tokenAuth returns HTTP basic auth for token based remotes, or nil.
func tokenAuth(username, token string) transport.AuthMethod {
	if token == "" {
		return nil
	}
	if username == "" {
		username = "x-access-token"
	}
	return &githttp.BasicAuth{Username: username, Password: token}
}
