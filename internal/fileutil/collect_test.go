package fileutil

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectAssetFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "walk.hkx"))
	touch(t, filepath.Join(dir, "upper.HKX"))
	touch(t, filepath.Join(dir, "tagfile.xml"))
	touch(t, filepath.Join(dir, "nested", "run.hkx"))
	touch(t, filepath.Join(dir, "readme.txt"))

	files, err := CollectAssetFiles([]string{dir})
	if err != nil {
		t.Fatalf("CollectAssetFiles: %v", err)
	}

	want := []string{
		filepath.Join(dir, "nested", "run.hkx"),
		filepath.Join(dir, "tagfile.xml"),
		filepath.Join(dir, "upper.HKX"),
		filepath.Join(dir, "walk.hkx"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("files = %v, want %v", files, want)
	}
}

func TestCollectAssetFilesMixedInputs(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "one", "single.hkx")
	touch(t, single)
	touch(t, filepath.Join(dir, "two", "other.xml"))

	// The explicit file also sits under a listed directory; it must appear
	// once.
	files, err := CollectAssetFiles([]string{single, dir})
	if err != nil {
		t.Fatalf("CollectAssetFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want 2 entries", files)
	}
	count := 0
	for _, f := range files {
		if f == single {
			count++
		}
	}
	if count != 1 {
		t.Errorf("explicit file appears %d times, want 1", count)
	}
}

func TestCollectAssetFilesSkipsNonAssetFile(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "notes.txt")
	touch(t, plain)

	files, err := CollectAssetFiles([]string{plain})
	if err != nil {
		t.Fatalf("CollectAssetFiles: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %v, want none", files)
	}
}

func TestCollectAssetFilesMissingPath(t *testing.T) {
	_, err := CollectAssetFiles([]string{filepath.Join(t.TempDir(), "absent")})
	if err == nil {
		t.Fatal("expected error for missing path")
	}
}
