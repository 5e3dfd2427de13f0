package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions lists the source extensions analyzed when none are configured.
var DefaultExtensions = []string{".php"}

// Options controls source enumeration.
type Options struct {
	// Extensions are matched case-insensitively, with or without a leading dot.
	Extensions []string
	// IgnoreDirs are directory base names skipped entirely (e.g. "vendor").
	IgnoreDirs []string
}

// FileVisit carries per-file metadata for a matched source file.
type FileVisit struct {
	// Root-relative path using forward slashes (e.g., "src/index.php").
	Path string
	// Absolute filesystem path.
	AbsPath string
	// Lowercased extension (e.g., ".php").
	Ext string
	// File size in bytes; 0 when stat fails.
	Size int64
}

// Sources walks root recursively and returns every file whose extension
// matches opts, sorted by relative path. A missing root is an error; unreadable
// subdirectories are skipped.
func Sources(root string, opts Options) ([]FileVisit, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, errors.New("scan: root is not a directory")
	}

	allowed := normalizeExtensions(opts.Extensions)
	ignored := make(map[string]struct{}, len(opts.IgnoreDirs))
	for _, d := range opts.IgnoreDirs {
		if d = strings.TrimSpace(d); d != "" {
			ignored[d] = struct{}{}
		}
	}

	var files []FileVisit
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if _, skip := ignored[d.Name()]; skip && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := allowed[ext]; !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		size := int64(0)
		if fi, e := d.Info(); e == nil {
			size = fi.Size()
		}
		files = append(files, FileVisit{
			Path:    filepath.ToSlash(rel),
			AbsPath: path,
			Ext:     ext,
			Size:    size,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// CountSources reports how many matching source files exist under root.
func CountSources(root string, opts Options) (int, error) {
	files, err := Sources(root, opts)
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

func normalizeExtensions(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return allowed
}
