package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"legacyport/internal/safeio"
)

// FileStore keeps each project's artifacts in <root>/<projectID>/.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("artifact root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Dir is the on-disk output directory of projectID.
func (s *FileStore) Dir(projectID string) string {
	return filepath.Join(s.root, projectID)
}

// Put writes content through a temp file and rename, so readers never see a
// partially written artifact.
func (s *FileStore) Put(_ context.Context, projectID, name string, content []byte) error {
	id, name, err := normalizeKey(projectID, name)
	if err != nil {
		return err
	}
	dest := filepath.Join(s.Dir(id), filepath.FromSlash(name))
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	_ = os.Chmod(tmpPath, 0o644)
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, projectID, name string) ([]byte, error) {
	id, name, err := normalizeKey(projectID, name)
	if err != nil {
		return nil, err
	}
	dir, err := safeio.Open(s.Dir(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	b, err := dir.ReadFile(name)
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, safeio.ErrIsDir):
		return nil, ErrNotFound
	case errors.Is(err, safeio.ErrOutsideRoot):
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	case err != nil:
		return nil, err
	}
	return b, nil
}

func (s *FileStore) List(_ context.Context, projectID string) ([]string, error) {
	id, err := normalizeProject(projectID)
	if err != nil {
		return nil, err
	}
	base := s.Dir(id)
	var out []string
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == base {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || filepath.Base(p)[0] == '.' {
			return nil
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (s *FileStore) Delete(_ context.Context, projectID string) error {
	id, err := normalizeProject(projectID)
	if err != nil {
		return err
	}
	return os.RemoveAll(s.Dir(id))
}
