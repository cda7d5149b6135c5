// Package deploy publishes the deployable part of the site checkout to a
// dedicated build branch.
//
// The build branch is cloned into an ephemeral workspace (or created as an
// orphan when the remote does not have it yet), its tree is replaced by the
// deployable files of the site repository, and a commit is pushed only when
// the tree changed.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
	"git.home.luguber.info/inful/sitebuilder/internal/staticcopy"
	"git.home.luguber.info/inful/sitebuilder/internal/workspace"
)

// Result describes one publish attempt.
type Result struct {
	Branch  string
	Remote  string
	Commit  string
	Files   int
	Removed int
	Changed bool
	Pushed  bool
	Skipped bool
	Reason  string
}

// Publisher pushes the site to the build branch.
type Publisher struct {
	cfg    *config.Config
	branch string
	remote string
	policy retry.Policy
	now    func() time.Time
	getenv func(string) string
}

// NewPublisher creates a publisher for the configured branch and remote.
func NewPublisher(cfg *config.Config) *Publisher {
	r := cfg.Deploy.Retry
	return &Publisher{
		cfg:    cfg,
		branch: cfg.Deploy.Branch,
		remote: cfg.Deploy.Remote,
		policy: retry.NewPolicy(retry.Mode(r.Mode), r.Initial, r.Max, r.MaxRetries),
		now:    time.Now,
		getenv: os.Getenv,
	}
}

// WithBranch overrides the target branch when b is set.
func (p *Publisher) WithBranch(b string) *Publisher {
	if b != "" {
		p.branch = b
	}
	return p
}

// WithRemote overrides the remote name when r is set.
func (p *Publisher) WithRemote(r string) *Publisher {
	if r != "" {
		p.remote = r
	}
	return p
}

// WithClock sets the time source used for commit metadata.
func (p *Publisher) WithClock(now func() time.Time) *Publisher {
	if now != nil {
		p.now = now
	}
	return p
}

// Publish syncs the deployable files onto the build branch and pushes it.
func (p *Publisher) Publish(ctx context.Context) (Result, error) {
	res := Result{Branch: p.branch, Remote: p.remote}
	if p.cfg.Deploy.Skip {
		slog.Info("ℹ build push disabled via SKIP_BUILD_PUSH")
		res.Skipped, res.Reason = true, "disabled"
		return res, nil
	}

	site, err := git.PlainOpenWithOptions(p.cfg.Site.Root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return res, classifyGitError(err, "open", p.cfg.Site.Root)
	}
	head, err := site.Head()
	if err != nil {
		return res, classifyGitError(err, "head", p.cfg.Site.Root)
	}
	branchRef := plumbing.NewBranchReferenceName(p.branch)
	if head.Name() == branchRef || p.getenv("GITHUB_REF") == branchRef.String() {
		slog.Info("ℹ already on build branch, skipping build push", logfields.Branch(p.branch))
		res.Skipped, res.Reason = true, "on build branch"
		return res, nil
	}

	url, err := remoteURL(site, p.remote)
	if err != nil {
		return res, err
	}
	srcRoot, files, err := deployableFiles(site)
	if err != nil {
		return res, err
	}
	res.Files = len(files)

	ws := workspace.NewManager(p.cfg.Deploy.Workspace, "sitebuilder-deploy")
	if err := ws.Create(); err != nil {
		return res, foundationerrors.FileSystemError("failed to create deploy workspace").WithCause(err).Build()
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to clean up deploy workspace", logfields.Path(ws.GetPath()), logfields.Error(err))
		}
	}()

	auth := tokenAuth(p.cfg.Deploy.Username, p.cfg.Deploy.Token)
	repo, tracked, err := p.checkout(ctx, filepath.Join(ws.GetPath(), p.branch), url, auth)
	if err != nil {
		return res, err
	}

	removed, changed, err := syncTree(repo, srcRoot, files)
	res.Removed = removed
	if err != nil {
		return res, err
	}
	if !changed {
		slog.Info("✔ build branch already up to date", logfields.Branch(p.branch), logfields.Count(res.Files))
		return res, nil
	}
	res.Changed = true

	hash, err := p.commit(repo, head.Hash())
	if err != nil {
		return res, err
	}
	res.Commit = hash.String()

	opts := &git.PushOptions{
		RemoteName: p.remote,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(branchRef + ":" + branchRef)},
		Auth:       auth,
	}
	if tracked {
		opts.ForceWithLease = &git.ForceWithLease{}
	}
	err = p.policy.Do(ctx, "push", func(ctx context.Context) error {
		err := repo.PushContext(ctx, opts)
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		return err
	}, isPermanentGitError)
	if err != nil {
		return res, classifyGitError(err, "push", url)
	}
	res.Pushed = true
	slog.Info("✔ pushed build branch",
		logfields.Branch(p.branch),
		logfields.Remote(p.remote),
		logfields.Commit(res.Commit[:8]),
		logfields.Count(res.Files))
	return res, nil
}

// checkout clones the build branch into dir. When the remote has no such
// branch an empty repository with an unborn branch is prepared instead; the
// returned flag reports whether a remote-tracking ref exists.
func (p *Publisher) checkout(ctx context.Context, dir, url string, auth transport.AuthMethod) (*git.Repository, bool, error) {
	ref := plumbing.NewBranchReferenceName(p.branch)
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           url,
		RemoteName:    p.remote,
		ReferenceName: ref,
		SingleBranch:  true,
		Auth:          auth,
	})
	if err == nil {
		slog.Debug("Cloned build branch", logfields.Branch(p.branch), logfields.Path(dir))
		return repo, true, nil
	}
	if !isMissingBranch(err) {
		return nil, false, classifyGitError(err, "clone", url)
	}

	if err := os.RemoveAll(dir); err != nil {
		return nil, false, foundationerrors.FileSystemError("failed to reset deploy checkout").WithCause(err).Build()
	}
	repo, err = git.PlainInit(dir, false)
	if err != nil {
		return nil, false, classifyGitError(err, "init", dir)
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: p.remote, URLs: []string{url}}); err != nil {
		return nil, false, classifyGitError(err, "remote", url)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, ref)); err != nil {
		return nil, false, classifyGitError(err, "init", dir)
	}
	slog.Info("Creating orphan build branch", logfields.Branch(p.branch), logfields.Remote(p.remote))
	return repo, false, nil
}

func (p *Publisher) commit(repo *git.Repository, source plumbing.Hash) (plumbing.Hash, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, classifyGitError(err, "commit", "")
	}
	now := p.now()
	msg := fmt.Sprintf("build: sync from %s (%s)", source.String()[:7], now.UTC().Format("2006-01-02 15:04:05.000"))
	sig := &object.Signature{Name: p.cfg.Deploy.AuthorName, Email: p.cfg.Deploy.AuthorEmail, When: now}
	hash, err := wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return plumbing.ZeroHash, classifyGitError(err, "commit", "")
	}
	return hash, nil
}

func remoteURL(repo *git.Repository, name string) (string, error) {
	remote, err := repo.Remote(name)
	if err != nil {
		return "", foundationerrors.ConfigError("unknown git remote").
			WithCause(err).
			WithContext("remote", name).
			Build()
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", foundationerrors.ConfigError("git remote has no URL").WithContext("remote", name).Build()
	}
	return urls[0], nil
}

// deployableFiles lists tracked and untracked, non-ignored files of the site
// repository that pass IsDeployable, relative to the worktree root.
func deployableFiles(repo *git.Repository) (string, []string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", nil, classifyGitError(err, "worktree", "")
	}
	root := wt.Filesystem.Root()

	idx, err := repo.Storer.Index()
	if err != nil {
		return "", nil, classifyGitError(err, "index", root)
	}
	candidates := make(map[string]bool, len(idx.Entries))
	for _, e := range idx.Entries {
		candidates[e.Name] = true
	}
	status, err := wt.Status()
	if err != nil {
		return "", nil, classifyGitError(err, "status", root)
	}
	for name, s := range status {
		if s.Worktree == git.Untracked {
			candidates[name] = true
		}
	}

	files := make([]string, 0, len(candidates))
	for name := range candidates {
		if !IsDeployable(name) {
			continue
		}
		info, err := os.Lstat(filepath.Join(root, filepath.FromSlash(name)))
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return root, files, nil
}

// syncTree makes the checkout contain exactly files (copied from srcRoot) and
// stages the result. It reports removed paths and whether anything changed.
func syncTree(repo *git.Repository, srcRoot string, files []string) (int, bool, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return 0, false, classifyGitError(err, "worktree", "")
	}
	dstRoot := wt.Filesystem.Root()

	want := make(map[string]bool, len(files))
	for _, f := range files {
		want[f] = true
	}

	idx, err := repo.Storer.Index()
	if err != nil {
		return 0, false, classifyGitError(err, "index", dstRoot)
	}
	var stale []string
	for _, e := range idx.Entries {
		if !want[e.Name] {
			stale = append(stale, e.Name)
		}
	}
	for _, name := range stale {
		if _, err := wt.Remove(name); err != nil {
			return 0, false, classifyGitError(err, "rm", name)
		}
	}

	for _, name := range files {
		src := filepath.Join(srcRoot, filepath.FromSlash(name))
		dst := filepath.Join(dstRoot, filepath.FromSlash(name))
		if err := copyEntry(src, dst); err != nil {
			return len(stale), false, foundationerrors.FileSystemError("failed to copy deploy file").
				WithCause(err).
				WithContext("path", name).
				Build()
		}
		if _, err := wt.Add(name); err != nil {
			return len(stale), false, classifyGitError(err, "add", name)
		}
	}

	status, err := wt.Status()
	if err != nil {
		return len(stale), false, classifyGitError(err, "status", dstRoot)
	}
	return len(stale), !status.IsClean(), nil
}

// copyEntry copies a regular file or recreates a symlink.
func copyEntry(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return staticcopy.CopyFile(src, dst)
	}
	target, err := os.Readlink(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	_ = os.Remove(dst)
	return os.Symlink(target, dst)
}
