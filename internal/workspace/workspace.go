package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Manager handles workspace operations (both temporary and persistent).
type Manager struct {
	baseDir    string
	prefix     string
	dir        string
	persistent bool
}

// NewManager creates a manager for ephemeral directories named
// <prefix>-<timestamp>-<random> under baseDir (os.TempDir when empty).
func NewManager(baseDir, prefix string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if prefix == "" {
		prefix = "sitebuilder"
	}
	return &Manager{baseDir: baseDir, prefix: prefix}
}

// NewPersistentManager creates a manager that always uses dir and never
// removes it on Cleanup.
func NewPersistentManager(dir string) *Manager {
	return &Manager{dir: dir, persistent: true}
}

// Create creates the workspace directory.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return fmt.Errorf("failed to create persistent workspace directory: %w", err)
		}
		slog.Debug("Using persistent workspace", logfields.Path(m.dir))
		return nil
	}

	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base: %w", err)
	}
	pattern := fmt.Sprintf("%s-%s-", m.prefix, time.Now().Format("20060102-150405"))
	dir, err := os.MkdirTemp(m.baseDir, pattern)
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	m.dir = dir
	slog.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// GetPath returns the path to the workspace directory.
func (m *Manager) GetPath() string {
	return m.dir
}

// IsPersistent reports whether the directory survives Cleanup.
func (m *Manager) IsPersistent() bool {
	return m.persistent
}

// Cleanup removes an ephemeral workspace directory.
func (m *Manager) Cleanup() error {
	if m.dir == "" || m.persistent {
		return nil
	}

	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}

	slog.Debug("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}

// Join returns a path inside the workspace.
func (m *Manager) Join(elem ...string) string {
	return filepath.Join(append([]string{m.dir}, elem...)...)
}
