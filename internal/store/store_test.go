package store

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}

func TestStore_SaveAndList(t *testing.T) {
	s, err := New(t.TempDir(), "run-1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Save out of order; listing must come back sorted.
	for _, seq := range []int{3, 1, 2} {
		if _, err := s.SavePage(seq, testImage()); err != nil {
			t.Fatalf("SavePage(%d): %v", seq, err)
		}
	}

	// Non-image files are skipped.
	if _, err := s.WriteDocument("book.md", "# test"); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}

	paths, err := s.ListImages()
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("images: got %d, want 3", len(paths))
	}
	for i, want := range []string{"page_0001.png", "page_0002.png", "page_0003.png"} {
		if got := filepath.Base(paths[i]); got != want {
			t.Errorf("image %d: got %s, want %s", i, got, want)
		}
	}
}

func TestStore_LoadImageRoundTrip(t *testing.T) {
	s, err := New(t.TempDir(), "run-1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path, err := s.SavePage(1, testImage())
	if err != nil {
		t.Fatalf("SavePage: %v", err)
	}

	img, err := s.LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Errorf("dimensions: got %dx%d, want 4x4", b.Dx(), b.Dy())
	}
}

func TestOpen_MissingDirectory(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Open on a missing directory succeeded, want error")
	}
}

func TestOpen_FileIsNotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(file); err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("Open on a file: got %v, want not-a-directory error", err)
	}
}

func TestStore_Cleanup(t *testing.T) {
	s, err := New(t.TempDir(), "run-1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.SavePage(1, testImage()); err != nil {
		t.Fatalf("SavePage: %v", err)
	}

	if err := s.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(s.Dir()); !os.IsNotExist(err) {
		t.Errorf("run directory still exists after Cleanup: %v", err)
	}
}

func TestStatus_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")

	want := Status{Page: 12, Total: 40, State: StateRunning}
	if err := WriteStatus(path, want); err != nil {
		t.Fatalf("WriteStatus: %v", err)
	}

	got, err := ReadStatus(path)
	if err != nil {
		t.Fatalf("ReadStatus: %v", err)
	}
	if got != want {
		t.Errorf("status: got %+v, want %+v", got, want)
	}

	// Overwrites replace the previous snapshot.
	final := Status{Page: 40, Total: 40, State: StateDone}
	if err := WriteStatus(path, final); err != nil {
		t.Fatalf("WriteStatus: %v", err)
	}
	got, err = ReadStatus(path)
	if err != nil {
		t.Fatalf("ReadStatus: %v", err)
	}
	if got != final {
		t.Errorf("status after overwrite: got %+v, want %+v", got, final)
	}
}
