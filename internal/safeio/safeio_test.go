package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestReadFileRelativeAndAbsolute(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app", "routes.php"), "<?php")
	root, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if b, err := root.ReadFile("app/routes.php"); err != nil || string(b) != "<?php" {
		t.Fatalf("ReadFile relative = %q, %v", b, err)
	}
	if _, err := root.ReadFile(filepath.Join(root.Dir(), "app", "routes.php")); err != nil {
		t.Fatalf("ReadFile absolute: %v", err)
	}
}

func TestReadFileRejectsEscapes(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "project")
	writeFile(t, filepath.Join(parent, "secret.txt"), "x")
	writeFile(t, filepath.Join(dir, "index.php"), "<?php")
	root, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for _, name := range []string{"../secret.txt", "app/../../secret.txt", filepath.Join(parent, "secret.txt")} {
		if _, err := root.ReadFile(name); !errors.Is(err, ErrOutsideRoot) {
			t.Fatalf("ReadFile(%q) error = %v, want ErrOutsideRoot", name, err)
		}
	}

	if err := os.Symlink(filepath.Join(parent, "secret.txt"), filepath.Join(dir, "link.php")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if _, err := root.ReadFile("link.php"); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("symlink escape error = %v, want ErrOutsideRoot", err)
	}
}

func TestReadTextReplacesInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "latin1.php"), "<?php echo 'caf\xe9'; ?>")
	root, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := root.ReadText("latin1.php")
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if want := "<?php echo 'caf�'; ?>"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestReadFileRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	root, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := root.ReadFile("sub"); !errors.Is(err, ErrIsDir) {
		t.Fatalf("ReadFile(dir) error = %v, want ErrIsDir", err)
	}
}

func TestOpenRequiresDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "f.txt"), "x")
	if _, err := Open(filepath.Join(dir, "f.txt")); err == nil {
		t.Fatal("Open(file) expected error")
	}
	if _, err := Open(""); err == nil {
		t.Fatal("Open(\"\") expected error")
	}
}
