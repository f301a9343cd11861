package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileInfo represents a discovered file
type FileInfo struct {
	Path    string // Absolute path
	RelPath string // Relative path from root, forward slashes
	Size    int64
}

// Walker walks a directory tree with ignore pattern support
type Walker struct {
	root    string
	ignores []string
}

// New creates a walker rooted at root. Ignore patterns are doublestar globs
// matched against the forward-slash relative path.
func New(root string, ignores []string) (*Walker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", absRoot)
	}

	return &Walker{
		root:    absRoot,
		ignores: ignores,
	}, nil
}

// Walk walks the file tree and returns matching files sorted by relative
// path, so downstream output is stable across runs.
func (w *Walker) Walk() ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(w.root, path)
		if err != nil {
			return fmt.Errorf("get relative path: %w", err)
		}
		relPath = filepath.ToSlash(relPath)

		if w.isIgnored(relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("get file info: %w", err)
		}

		files = append(files, FileInfo{
			Path:    path,
			RelPath: relPath,
			Size:    info.Size(),
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelPath < files[j].RelPath
	})

	return files, nil
}

// isIgnored checks if a path matches any ignore pattern
func (w *Walker) isIgnored(path string) bool {
	for _, pattern := range w.ignores {
		// Directory patterns (ending with /) ignore everything below them
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			parts := strings.Split(path, "/")
			for i := 1; i <= len(parts); i++ {
				subPath := strings.Join(parts[:i], "/")
				if matched, _ := doublestar.Match(dirPattern, subPath); matched {
					return true
				}
			}
		} else {
			if matched, _ := doublestar.Match(pattern, path); matched {
				return true
			}
		}
	}
	return false
}
