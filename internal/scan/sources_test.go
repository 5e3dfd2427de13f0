package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestSources_FiltersByExtensionRecursively(t *testing.T) {
	root := t.TempDir()
	write(t, root, "index.php", "<?php")
	write(t, root, "src/Models/User.PHP", "<?php")
	write(t, root, "src/readme.md", "# docs")
	write(t, root, "vendor/lib/a.php", "<?php")

	files, err := Sources(root, Options{})
	require.NoError(t, err)

	var got []string
	for _, f := range files {
		got = append(got, f.Path)
	}
	assert.Equal(t, []string{"index.php", "src/Models/User.PHP", "vendor/lib/a.php"}, got)
	assert.Equal(t, ".php", files[1].Ext)
}

func TestSources_IgnoreDirs(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.php", "")
	write(t, root, "vendor/b.php", "")

	files, err := Sources(root, Options{IgnoreDirs: []string{"vendor"}})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.php", files[0].Path)
}

func TestSources_CustomExtensionsWithoutDot(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.inc", "")
	write(t, root, "b.php", "")

	n, err := CountSources(root, Options{Extensions: []string{"inc"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSources_EmptyAndMissingRoot(t *testing.T) {
	n, err := CountSources(t.TempDir(), Options{})
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = Sources(filepath.Join(t.TempDir(), "missing"), Options{})
	assert.Error(t, err)
}
