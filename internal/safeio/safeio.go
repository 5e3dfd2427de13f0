// Package safeio reads files of an extracted or generated project without
// letting a relative name or a symlink inside the tree reach outside it.
package safeio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	ErrOutsideRoot = errors.New("safeio: path escapes root")
	ErrIsDir       = errors.New("safeio: path is a directory")
)

// Root is a directory whose symlinks were resolved once at Open.
type Root struct {
	dir string
}

func Open(dir string) (*Root, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("safeio: empty root")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if abs, err = filepath.EvalSymlinks(abs); err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("safeio: %s is not a directory", dir)
	}
	return &Root{dir: abs}, nil
}

func (r *Root) Dir() string { return r.dir }

// ReadFile reads name, a slash path relative to the root. Absolute names are
// accepted when they resolve under the root.
func (r *Root) ReadFile(name string) ([]byte, error) {
	p, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrIsDir, name)
	}
	return os.ReadFile(p)
}

// ReadText is ReadFile for source text. Invalid UTF-8 becomes U+FFFD.
func (r *Root) ReadText(name string) (string, error) {
	b, err := r.ReadFile(name)
	if err != nil {
		return "", err
	}
	if utf8.Valid(b) {
		return string(b), nil
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError)), nil
}

func (r *Root) resolve(name string) (string, error) {
	if name == "" {
		return "", errors.New("safeio: empty path")
	}
	p := filepath.Clean(filepath.FromSlash(name))
	if !filepath.IsAbs(p) {
		if p == ".." || strings.HasPrefix(p, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, name)
		}
		p = filepath.Join(r.dir, p)
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", err
	}
	if !within(r.dir, resolved) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, name)
	}
	return resolved, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
