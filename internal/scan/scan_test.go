package scan

import (
	"os"
	"path/filepath"
	"testing"

	"fsarc-go/internal/archive"
)

func TestOSScanner_Walk_VisitsFilesAndDirsPreOrder(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a.txt"), []byte("aaa"), 0o644); err != nil {
		t.Fatal(err)
	}

	var visited []string
	var dirSeenBeforeChild bool
	s := New()
	err := s.Walk(root, archive.ScanOptions{}, func(e archive.ScanEntry) error {
		visited = append(visited, e.Path)
		if e.Path == sub {
			dirSeenBeforeChild = true
		}
		if e.Path == filepath.Join(sub, "a.txt") && !dirSeenBeforeChild {
			t.Error("file visited before its parent directory")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{root, sub, filepath.Join(sub, "a.txt")}
	if len(visited) != len(want) {
		t.Fatalf("visited = %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %q, want %q", i, visited[i], want[i])
		}
	}
}

func TestOSScanner_Walk_ExclusionPrunesSubtree(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "cache")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "x.tmp"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "keep.txt"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New()
	opts := archive.ScanOptions{Exclude: []archive.Pattern{archive.NewPattern(sub + "/*"), archive.NewPattern(sub)}}

	var visited []string
	err := s.Walk(root, opts, func(e archive.ScanEntry) error {
		visited = append(visited, e.Path)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	for _, p := range visited {
		if p == sub || p == filepath.Join(sub, "x.tmp") {
			t.Errorf("excluded path %q was visited", p)
		}
	}
}

func TestOSScanner_Walk_SizeFilterSkipsLargeFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "small.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "big.txt"), []byte("aaaaaaaaaa"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New()
	opts := archive.ScanOptions{SizeFilter: 5}

	var files []string
	err := s.Walk(root, opts, func(e archive.ScanEntry) error {
		if !e.IsDir {
			files = append(files, filepath.Base(e.Path))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	if len(files) != 1 || files[0] != "small.txt" {
		t.Errorf("files = %v, want [small.txt]", files)
	}
}

func TestOSScanner_Walk_SkipsNonRegularFiles(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "target.txt")
	if err := os.WriteFile(target, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skip("symlinks not supported in this environment")
	}

	s := New()
	var names []string
	err := s.Walk(root, archive.ScanOptions{}, func(e archive.ScanEntry) error {
		if !e.IsDir {
			names = append(names, filepath.Base(e.Path))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	for _, n := range names {
		if n == "link" {
			t.Error("symlink was visited as a regular file")
		}
	}
}

func TestOSScanner_Walk_VisitErrorAbortsWalk(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "b.txt"), []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New()
	visitErr := os.ErrPermission
	count := 0
	err := s.Walk(root, archive.ScanOptions{}, func(e archive.ScanEntry) error {
		count++
		if !e.IsDir {
			return visitErr
		}
		return nil
	})
	if err != visitErr {
		t.Errorf("Walk() error = %v, want %v", err, visitErr)
	}
	if count != 2 {
		t.Errorf("visit called %d times, want 2 (root dir, then abort on first file)", count)
	}
}
