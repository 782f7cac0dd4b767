// Package security checks the SQLite location taken from SQLITE_PATH or
// DATABASE_URL before the driver opens it.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// forbiddenChars are shell metacharacters that never belong in a database path.
const forbiddenChars = ";&|$`(){}<>!\n\r"

// ErrUnsafePath is wrapped by every rejection.
var ErrUnsafePath = errors.New("invalid database path")

// ValidateDatabasePath returns the absolute, symlink-resolved form of a
// SQLite path. A "file:" prefix and driver options after "?" are kept as
// given; only the file part is checked.
func ValidateDatabasePath(path string) (string, error) {
	scheme := ""
	if strings.HasPrefix(path, "file:") {
		scheme, path = "file:", strings.TrimPrefix(path, "file:")
	}
	file, query, hasQuery := strings.Cut(path, "?")

	resolved, err := resolve(file)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsafePath, err)
	}
	if info, err := os.Stat(resolved); err == nil && info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrUnsafePath, resolved)
	}

	if hasQuery {
		resolved += "?" + query
	}
	return scheme + resolved, nil
}

func resolve(file string) (string, error) {
	if file == "" {
		return "", errors.New("path is empty")
	}
	if i := strings.IndexAny(file, forbiddenChars); i >= 0 {
		return "", fmt.Errorf("forbidden character %q in %s", file[i], file)
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		return "", err
	}
	target, err := filepath.EvalSymlinks(abs)
	if errors.Is(err, os.ErrNotExist) {
		return abs, nil
	}
	return target, err
}
