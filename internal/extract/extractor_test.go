package extract

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legacyport/internal/scan"
	"legacyport/internal/types"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestAnalyzeDirectory_SingleFile(t *testing.T) {
	root := t.TempDir()
	write(t, root, "app.php", `<?php
Route::get('/users', 'UserController@index');
class User { public $name; function save(){} }
`)

	res, err := New(Options{}).AnalyzeDirectory(root)
	require.NoError(t, err)

	require.Len(t, res.Routes, 1)
	assert.Equal(t, types.Route{
		Method:     types.MethodGet,
		Path:       "/users",
		SourceFile: "app.php",
		Framework:  types.FrameworkLaravel,
		Handler:    "UserController.index",
	}, res.Routes[0])

	require.Len(t, res.Models, 1)
	assert.Equal(t, "User", res.Models[0].Name)
	assert.Equal(t, []types.Property{{Name: "name", Visibility: types.VisibilityPublic, Type: types.MixedType}}, res.Models[0].Properties)
	assert.Equal(t, []string{"save"}, res.Models[0].Methods)

	assert.Equal(t, 1, res.FileCount)
	assert.Equal(t, "Found 1 routes, 1 models, 1 files", res.Summary)
}

func TestAnalyzeDirectory_EmptyDirectory(t *testing.T) {
	res, err := New(Options{}).AnalyzeDirectory(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, res.FileCount)
	assert.NotNil(t, res.Routes)
	assert.Empty(t, res.Routes)
	assert.Empty(t, res.Models)
	assert.Empty(t, res.Dependencies)
}

func TestAnalyzeDirectory_FileCountAndOrderAreStable(t *testing.T) {
	root := t.TempDir()
	for i, name := range []string{"z.php", "a.php", "m/n.php", "m/a.php", "notes.txt"} {
		write(t, root, name, "<?php Route::get('/r"+string(rune('a'+i))+"', 'XController@y');")
	}

	first, err := New(Options{Workers: 1}).AnalyzeDirectory(root)
	require.NoError(t, err)
	second, err := New(Options{Workers: 8}).AnalyzeDirectory(root)
	require.NoError(t, err)

	assert.Equal(t, 4, first.FileCount)
	assert.Equal(t, first, second)

	var files []string
	for _, r := range first.Routes {
		files = append(files, r.SourceFile)
	}
	assert.Equal(t, []string{"a.php", "m/a.php", "m/n.php", "z.php"}, files)
}

func TestAnalyzeDirectory_FreshResultPerCall(t *testing.T) {
	one := t.TempDir()
	write(t, one, "a.php", "<?php class A {}")
	two := t.TempDir()
	write(t, two, "b.php", "<?php class B {}")

	e := New(Options{})
	_, err := e.AnalyzeDirectory(one)
	require.NoError(t, err)
	res, err := e.AnalyzeDirectory(two)
	require.NoError(t, err)
	require.Len(t, res.Models, 1)
	assert.Equal(t, "B", res.Models[0].Name)
}

func TestAnalyzeDirectory_InvalidUTF8IsDecoded(t *testing.T) {
	root := t.TempDir()
	write(t, root, "latin.php", "<?php // caf\xe9\nclass Caf\xe9Model { public $x; }\nuse App\\Thing;")

	res, err := New(Options{}).AnalyzeDirectory(root)
	require.NoError(t, err)
	require.Len(t, res.Models, 1)
	assert.Equal(t, "Caf", res.Models[0].Name)
	assert.Equal(t, []string{`App\Thing`}, res.Dependencies)
}

func TestAnalyzeDirectory_UnreadableFileIsSkippedButCounted(t *testing.T) {
	root := t.TempDir()
	write(t, root, "ok.php", "<?php class Ok {}")
	outside := t.TempDir()
	write(t, outside, "secret.php", "<?php class Secret {}")
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.php"), filepath.Join(root, "escape.php")))
	require.NoError(t, os.Symlink(filepath.Join(root, "missing.php"), filepath.Join(root, "dangling.php")))

	var (
		mu     sync.Mutex
		failed []string
	)
	e := New(Options{
		Scan: scan.Options{},
		OnFileError: func(fe *FileError) {
			mu.Lock()
			defer mu.Unlock()
			failed = append(failed, fe.Path)
		},
	})
	res, err := e.AnalyzeDirectory(root)
	require.NoError(t, err)

	assert.Equal(t, 3, res.FileCount)
	require.Len(t, res.Models, 1)
	assert.Equal(t, "Ok", res.Models[0].Name)
	assert.ElementsMatch(t, []string{"dangling.php", "escape.php"}, failed)
}

func TestAnalyzeDirectory_DependenciesDeduplicatedAcrossFiles(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.php", "<?php use App\\Models\\User; require 'db.php';")
	write(t, root, "b.php", "<?php use App\\Models\\User; include 'db.php';")

	res, err := New(Options{}).AnalyzeDirectory(root)
	require.NoError(t, err)
	assert.Equal(t, []string{`App\Models\User`, "db.php"}, res.Dependencies)
}

func TestAnalyzeDirectory_MissingRoot(t *testing.T) {
	_, err := New(Options{}).AnalyzeDirectory(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}
