package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDirIndex(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{
		"fsarc_20240101-000000.zip",
		"fsarc_20240102-000000.zip",
		"fsarc_20240103-000000.zip",
		"notasnapshot.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "fsarc_subdir"), 0755); err != nil {
		t.Fatal(err)
	}

	idx, err := NewDirIndex(dir)
	if err != nil {
		t.Fatalf("NewDirIndex() error = %v", err)
	}

	all := idx.All()
	want := []string{
		"fsarc_20240101-000000.zip",
		"fsarc_20240102-000000.zip",
		"fsarc_20240103-000000.zip",
	}
	if len(all) != len(want) {
		t.Fatalf("All() = %v, want %v", all, want)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("All()[%d] = %q, want %q", i, all[i], want[i])
		}
	}

	if got := idx.Latest(); got != "fsarc_20240103-000000.zip" {
		t.Errorf("Latest() = %q, want %q", got, "fsarc_20240103-000000.zip")
	}

	if idx.Empty() {
		t.Error("Empty() = true, want false")
	}

	if got := idx.Path("fsarc_20240101-000000.zip"); got != filepath.Join(dir, "fsarc_20240101-000000.zip") {
		t.Errorf("Path() = %q", got)
	}
}

func TestNewDirIndex_Empty(t *testing.T) {
	dir := t.TempDir()

	idx, err := NewDirIndex(dir)
	if err != nil {
		t.Fatalf("NewDirIndex() error = %v", err)
	}
	if !idx.Empty() {
		t.Error("Empty() = false, want true")
	}
	if got := idx.Latest(); got != "" {
		t.Errorf("Latest() = %q, want empty", got)
	}
}

func TestNewDirIndex_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notadir")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewDirIndex(file); err == nil {
		t.Fatal("NewDirIndex() on a file expected an error")
	}
}

func TestNextSnapshotName(t *testing.T) {
	now := time.Date(2024, 3, 5, 9, 8, 7, 0, time.UTC)
	got := NextSnapshotName(now)
	want := "fsarc_20240305-090807.zip"
	if got != want {
		t.Errorf("NextSnapshotName() = %q, want %q", got, want)
	}
}

func TestNextSnapshotName_LexicographicOrder(t *testing.T) {
	earlier := NextSnapshotName(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	later := NextSnapshotName(time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC))
	if !(earlier < later) {
		t.Errorf("expected %q < %q", earlier, later)
	}
}
