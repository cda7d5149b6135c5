// Package staticcopy copies the assets the site serves verbatim from the site
// root into the distribution tree.
package staticcopy

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Result summarizes a copy run. Paths are relative to the site root.
type Result struct {
	Files   int
	Dirs    int
	Missing []string
}

type entry struct {
	rel   string
	label string
	dir   bool
}

// Copy mirrors the configured root files, files, directories and top-level
// scripts below outRoot. Missing sources are logged and skipped.
func Copy(ctx context.Context, cfg *config.Config, outRoot string) (Result, error) {
	if outRoot == "" {
		outRoot = cfg.OutPath("")
	}
	if err := os.MkdirAll(outRoot, 0o750); err != nil {
		return Result{}, fsError("failed to create output directory", outRoot, err)
	}

	entries := plan(cfg)
	scripts, err := scriptEntries(cfg)
	if err != nil {
		return Result{}, err
	}
	entries = append(entries, scripts...)

	var res Result
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		src := cfg.Path(e.rel)
		dst := filepath.Join(outRoot, e.rel)
		if e.dir {
			err = CopyDir(src, dst)
		} else {
			err = CopyFile(src, dst)
		}
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Warn(e.label+" missing", logfields.Path(e.rel))
			res.Missing = append(res.Missing, e.rel)
			continue
		case err != nil:
			return res, fsError("failed to copy "+e.label, e.rel, err)
		}
		if e.dir {
			res.Dirs++
		} else {
			res.Files++
		}
		slog.Info("✔ "+e.label, logfields.Path(e.rel), slog.String("dest", dst))
	}
	return res, nil
}

func plan(cfg *config.Config) []entry {
	var out []entry
	for _, f := range cfg.Static.RootFiles {
		out = append(out, entry{rel: f, label: "root file"})
	}
	for _, f := range cfg.Static.Files {
		out = append(out, entry{rel: f, label: "file"})
	}
	for _, d := range cfg.Static.Dirs {
		out = append(out, entry{rel: d, label: "directory", dir: true})
	}
	return out
}

// scriptEntries lists the top-level .js files of the script directory.
func scriptEntries(cfg *config.Config) ([]entry, error) {
	if cfg.Static.ScriptDir == "" {
		return nil, nil
	}
	dir := cfg.Path(cfg.Static.ScriptDir)
	items, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("script directory missing", logfields.Path(cfg.Static.ScriptDir))
		return nil, nil
	}
	if err != nil {
		return nil, fsError("failed to read script directory", dir, err)
	}
	var out []entry
	for _, it := range items {
		if !it.Type().IsRegular() || !strings.HasSuffix(it.Name(), ".js") {
			continue
		}
		out = append(out, entry{rel: filepath.Join(cfg.Static.ScriptDir, it.Name()), label: "script"})
	}
	return out, nil
}

// CopyDir recursively copies src to dst, overwriting existing files.
func CopyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !srcInfo.IsDir() {
		return &fs.PathError{Op: "copydir", Path: src, Err: errors.New("not a directory")}
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()|0o700); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		srcPath := filepath.Join(src, e.Name())
		dstPath := filepath.Join(dst, e.Name())
		switch {
		case e.IsDir():
			if err := CopyDir(srcPath, dstPath); err != nil {
				return err
			}
		case e.Type().IsRegular():
			if err := CopyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// CopyFile copies one file, creating parent directories and keeping the
// source permissions.
func CopyFile(src, dst string) error {
	srcFile, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	dstFile, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode().Perm())
}

func fsError(msg, path string, err error) error {
	return foundationerrors.FileSystemError(msg).
		WithCause(err).
		WithContext("path", path).
		Build()
}
