package app

import (
	"os"
	"path/filepath"
	"testing"

	"fsarc-go/internal/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{LogDir: filepath.Join(dir, "log")}
	a, err := New(cfg, "test", NewOptions{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestApp_ArchiveThenRestore(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hello world"), 0644); err != nil {
		t.Fatal(err)
	}

	archiveDir := t.TempDir()
	a := newTestApp(t)

	res, err := a.Archive(archiveDir, []string{root}, false, 0, false, nil, nil, false, false, 0, false)
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if res.NewCount == 0 {
		t.Fatalf("Archive() NewCount = 0, want > 0")
	}

	outDir := t.TempDir()
	rres, err := a.Restore(res.SnapshotPath, outDir, true, false)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if len(rres.Written) == 0 {
		t.Fatal("Restore() wrote no files")
	}

	restored := filepath.Join(outDir, filepath.Join(root, "hello.txt"))
	data, err := os.ReadFile(restored)
	if err != nil {
		t.Fatalf("reading restored file: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("restored content = %q, want %q", data, "hello world")
	}
}

func TestApp_ListAndVerify(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("aaa"), 0644); err != nil {
		t.Fatal(err)
	}

	archiveDir := t.TempDir()
	a := newTestApp(t)

	if _, err := a.Archive(archiveDir, []string{root}, false, 0, false, nil, nil, false, false, 0, false); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	summaries, err := a.List(archiveDir)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("List() returned %d snapshots, want 1", len(summaries))
	}

	vres, err := a.Verify(archiveDir)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(vres.Failures) != 0 {
		t.Errorf("Verify() failures = %v, want none", vres.Failures)
	}
}

func TestApp_ArchiveWithEncryptionThenRestore(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "secret.txt"), []byte("top secret"), 0644); err != nil {
		t.Fatal(err)
	}
	archiveDir := t.TempDir()
	keyDir := t.TempDir()

	cfg := &config.Config{
		LogDir: filepath.Join(t.TempDir(), "log"),
		Encryption: config.EncryptionConfig{
			PublicKeyPath:  filepath.Join(keyDir, "fsarc.pub"),
			PrivateKeyPath: filepath.Join(keyDir, "fsarc.key"),
		},
	}

	setup, err := New(cfg, "encrypt-init", NewOptions{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := setup.SetupEncryption("correct horse battery staple"); err != nil {
		t.Fatalf("SetupEncryption() error = %v", err)
	}
	setup.Close()

	a, err := New(cfg, "archive", NewOptions{Encrypt: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	res, err := a.Archive(archiveDir, []string{root}, false, 0, false, nil, nil, false, false, 0, false)
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	raw, err := os.ReadFile(res.SnapshotPath)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if len(raw) < 4 || string(raw[:4]) == "PK\x03\x04" {
		t.Error("snapshot on disk looks like a plain zip, want age ciphertext")
	}

	r, err := New(cfg, "restore", NewOptions{Passphrase: "correct horse battery staple"})
	if err != nil {
		t.Fatalf("New() for restore error = %v", err)
	}
	defer r.Close()

	outDir := t.TempDir()
	rres, err := r.Restore(res.SnapshotPath, outDir, true, false)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if len(rres.Written) == 0 {
		t.Fatal("Restore() wrote no files")
	}

	restored := filepath.Join(outDir, filepath.Join(root, "secret.txt"))
	data, err := os.ReadFile(restored)
	if err != nil {
		t.Fatalf("reading restored file: %v", err)
	}
	if string(data) != "top secret" {
		t.Errorf("restored content = %q, want %q", data, "top secret")
	}
}

func TestApp_DryRunLeavesArchiveDirEmpty(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("aaa"), 0644); err != nil {
		t.Fatal(err)
	}

	archiveDir := t.TempDir()
	a := newTestApp(t)

	res, err := a.Archive(archiveDir, []string{root}, false, 0, false, nil, nil, false, false, 0, true)
	if err != nil {
		t.Fatalf("Archive() dry run error = %v", err)
	}
	if _, err := os.Stat(res.SnapshotPath); !os.IsNotExist(err) {
		t.Errorf("dry run created %s on disk", res.SnapshotPath)
	}
}
