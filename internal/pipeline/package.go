package pipeline

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	artifactrepo "legacyport/internal/gateway/repository/artifact"
	"legacyport/internal/gateway/repository/projectstore"
)

// ArchiveName is the download filename offered for a packaged project.
func ArchiveName(outputID string) string {
	return fmt.Sprintf("migrated-python-api-%s.zip", outputID)
}

// Package zips the project's generated files into <ArchiveDir>/<id>.zip and
// returns the archive path. The archive is written to a temporary file and
// renamed into place, so readers never see a partial zip.
func (o *Orchestrator) Package(ctx context.Context, outputID string) (string, error) {
	id, err := o.checkID(outputID)
	if err != nil {
		return "", notFound("Generated code not found")
	}
	unlock := o.lock(id)
	defer unlock()

	names, err := o.artifacts.List(ctx, id)
	if err != nil && !errors.Is(err, artifactrepo.ErrNotFound) {
		return "", fail(KindPackaging, http.StatusInternalServerError, "Failed to list generated files", err)
	}
	if len(names) == 0 {
		return "", notFound("Generated code not found")
	}

	target := filepath.Join(o.cfg.ArchiveDir, id+".zip")
	err = o.track(id, stagePackage, func() error {
		if err := o.writeArchive(ctx, id, names, target); err != nil {
			return fail(KindPackaging, http.StatusInternalServerError, fmt.Sprintf("Packaging failed: %v", err), err)
		}
		o.record(id, func(st *projectstore.State) {
			st.Advance(projectstore.StagePackaged)
			st.Archive = target
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return target, nil
}

func (o *Orchestrator) writeArchive(ctx context.Context, id string, names []string, target string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+id+"-*.zip")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, name := range names {
		content, gerr := o.artifacts.Get(ctx, id, name)
		if gerr != nil {
			return fmt.Errorf("read %s: %w", name, gerr)
		}
		w, cerr := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if cerr != nil {
			return cerr
		}
		if _, werr := w.Write(content); werr != nil {
			return werr
		}
	}
	if err = zw.Close(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}
