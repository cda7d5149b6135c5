package cssbuild

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

const (
	devFile  = "output-dev.css"
	tempFile = ".output-temp.css"
)

// VersionedName returns the bundle file name for version v.
func VersionedName(v int) string {
	return fmt.Sprintf("output-v%03d.css", v)
}

// ReadVersion returns the counter stored at path, or 0 when the file does
// not exist.
func ReadVersion(path string) (int, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // version file path from configuration
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid css version %q in %s", strings.TrimSpace(string(raw)), path)
	}
	return v, nil
}

// WriteVersion persists v.
func WriteVersion(path string, v int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(v)), 0o644) //nolint:gosec // plain counter file
}
