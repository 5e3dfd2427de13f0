package ingest

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name, body string
}

func archive(t *testing.T, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestZipExtractor_ExpandsTree(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "extracted")
	data := archive(t,
		entry{"app/", ""},
		entry{"app/routes.php", "<?php Route::get('/a', 'AController@a');"},
		entry{"index.php", "<?php"},
	)

	require.NoError(t, ZipExtractor{}.Extract(data, dest))

	b, err := os.ReadFile(filepath.Join(dest, "app", "routes.php"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "Route::get")
	assert.FileExists(t, filepath.Join(dest, "index.php"))
}

func TestZipExtractor_RejectsEscapingEntries(t *testing.T) {
	for _, name := range []string{"../evil.php", "a/../../evil.php", `..\evil.php`} {
		dest := t.TempDir()
		err := ZipExtractor{}.Extract(archive(t, entry{name, "x"}), dest)
		require.ErrorIs(t, err, ErrCorruptArchive, name)
		assert.NoFileExists(t, filepath.Join(filepath.Dir(dest), "evil.php"))
	}
}

func TestZipExtractor_CorruptData(t *testing.T) {
	err := ZipExtractor{}.Extract([]byte("definitely not a zip"), t.TempDir())
	require.ErrorIs(t, err, ErrCorruptArchive)
}

func TestZipExtractor_Limits(t *testing.T) {
	data := archive(t, entry{"a.php", "1"}, entry{"b.php", "2"}, entry{"c.php", "3"})
	err := ZipExtractor{MaxEntries: 2}.Extract(data, t.TempDir())
	require.ErrorIs(t, err, ErrCorruptArchive)

	big := archive(t, entry{"a.php", strings.Repeat("x", 64)}, entry{"b.php", strings.Repeat("y", 64)})
	err = ZipExtractor{MaxBytes: 100}.Extract(big, t.TempDir())
	require.ErrorIs(t, err, ErrCorruptArchive)

	require.NoError(t, ZipExtractor{MaxBytes: 128}.Extract(big, t.TempDir()))
}
