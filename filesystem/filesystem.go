package filesystem

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Error constants for better error handling
var (
	ErrFileNotFound = fmt.Errorf("filesystem: file not found")
	ErrReadFailure  = fmt.Errorf("filesystem: read failure")
	ErrInvalidPath  = fmt.Errorf("filesystem: invalid path")
)

// IndexFile is served when a resolved path names a directory.
const IndexFile = "index.html"

// Filesystem serves files below a single root directory. Every name is
// treated as relative to the root, whatever its leading slashes or dot
// segments say.
type Filesystem interface {
	// Resolve maps a request path onto an absolute path inside the root.
	Resolve(name string) (string, error)
	// Lookup resolves name and substitutes the directory index when it
	// names a directory.
	Lookup(name string) (string, error)
	// Root returns the absolute root directory.
	Root() string
}

type rootFileSystem struct {
	root string
}

func NewRootFileSystem(root string) (Filesystem, error) {
	if root == "" {
		root = "."
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}

	return &rootFileSystem{root: filepath.Clean(abs)}, nil
}

func (filesystem *rootFileSystem) Root() string {
	return filesystem.root
}

// Resolve implements Filesystem.
func (filesystem *rootFileSystem) Resolve(name string) (string, error) {
	if strings.IndexByte(name, 0) >= 0 {
		return "", ErrInvalidPath
	}

	// Cleaning a rooted path lexically collapses every ".." at the root.
	cleaned := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	full := filepath.Join(filesystem.root, filepath.FromSlash(cleaned))

	if !Contains(filesystem.root, full) {
		return "", fmt.Errorf("%w: %s escapes %s", ErrInvalidPath, name, filesystem.root)
	}

	return full, nil
}

// Lookup implements Filesystem.
func (filesystem *rootFileSystem) Lookup(name string) (string, error) {
	full, err := filesystem.Resolve(name)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(full); err == nil && info.IsDir() {
		full = filepath.Join(full, IndexFile)
	}

	return full, nil
}

// Contains reports whether target lies lexically inside root.
func Contains(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// ReadFile reads the file at path. A file that cannot be opened reports
// ErrFileNotFound, a file that opens but cannot be read fully reports
// ErrReadFailure.
func ReadFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileNotFound, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Error("closing file error", "path", path, "error", closeErr)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailure, err)
	}

	return content, nil
}
