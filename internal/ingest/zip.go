// Package ingest materializes a project source tree from an uploaded archive
// or a remote repository.
package ingest

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrCorruptArchive wraps every archive that cannot be expanded safely.
var ErrCorruptArchive = errors.New("corrupt archive")

const (
	DefaultMaxEntries = 20000
	DefaultMaxBytes   = 512 << 20
)

// ZipExtractor expands zip archives under a destination directory.
type ZipExtractor struct {
	// MaxEntries caps the number of entries; <= 0 uses DefaultMaxEntries.
	MaxEntries int
	// MaxBytes caps the total uncompressed size; <= 0 uses DefaultMaxBytes.
	MaxBytes int64
}

// Extract expands data into dest. Entries that would land outside dest,
// symlinks and archives over the configured limits are rejected; the caller
// owns cleanup of dest on error.
func (z ZipExtractor) Extract(data []byte, dest string) error {
	maxEntries := z.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	budget := z.MaxBytes
	if budget <= 0 {
		budget = DefaultMaxBytes
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	if len(zr.File) > maxEntries {
		return fmt.Errorf("%w: %d entries exceeds limit %d", ErrCorruptArchive, len(zr.File), maxEntries)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	for _, f := range zr.File {
		target, err := entryPath(dest, f.Name)
		if err != nil {
			return err
		}
		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", f.Name, err)
			}
			continue
		case mode&os.ModeSymlink != 0:
			return fmt.Errorf("%w: symlink entry %q", ErrCorruptArchive, f.Name)
		case !mode.IsRegular():
			continue
		}
		n, err := writeEntry(f, target, budget)
		if err != nil {
			return err
		}
		budget -= n
	}
	return nil
}

// entryPath maps an archive entry name under dest, refusing absolute names
// and parent escapes.
func entryPath(dest, name string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(strings.ReplaceAll(name, `\`, "/")))
	if rel == "." || rel == "" {
		return dest, nil
	}
	if filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" ||
		rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: entry %q escapes destination", ErrCorruptArchive, name)
	}
	return filepath.Join(dest, rel), nil
}

func writeEntry(f *zip.File, target string, budget int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %v", ErrCorruptArchive, f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", f.Name, err)
	}
	n, copyErr := io.Copy(out, io.LimitReader(rc, budget+1))
	closeErr := out.Close()
	if copyErr != nil {
		return n, fmt.Errorf("%w: read %s: %v", ErrCorruptArchive, f.Name, copyErr)
	}
	if n > budget {
		return n, fmt.Errorf("%w: uncompressed size exceeds limit", ErrCorruptArchive)
	}
	if closeErr != nil {
		return n, fmt.Errorf("write %s: %w", f.Name, closeErr)
	}
	return n, nil
}
