package library

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("not real audio"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestScan_FindsSupportedFilesRecursively(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.mp3"))
	writeFile(t, filepath.Join(dir, "a.flac"))
	writeFile(t, filepath.Join(dir, "sub", "c.wav"))
	writeFile(t, filepath.Join(dir, "cover.jpg"))
	writeFile(t, filepath.Join(dir, "notes.txt"))

	tracks, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(tracks) != 3 {
		t.Fatalf("got %d tracks, want 3", len(tracks))
	}

	// Ordered by path
	wantSuffixes := []string{"a.flac", "b.mp3", filepath.Join("sub", "c.wav")}
	for i, suffix := range wantSuffixes {
		want := filepath.Join(dir, suffix)
		if tracks[i].Path != want {
			t.Errorf("tracks[%d].Path = %q, want %q", i, tracks[i].Path, want)
		}
		if tracks[i].ID != tracks[i].Path {
			t.Errorf("tracks[%d].ID = %q, want the path", i, tracks[i].ID)
		}
	}
}

func TestScan_UntaggedFileFallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "untitled.mp3"))

	tracks, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("got %d tracks, want 1", len(tracks))
	}
	if tracks[0].Title != "untitled.mp3" {
		t.Errorf("Title = %q, want file name fallback", tracks[0].Title)
	}
}

func TestScan_MissingFolder(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("Scan should fail for a missing folder")
	}
}

func TestScan_EmptyFolder(t *testing.T) {
	tracks, err := Scan(t.TempDir())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("got %d tracks, want 0", len(tracks))
	}
}
