package zipcontainer_test

import (
	stdzip "archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fsarc-go/internal/archive"
	"fsarc-go/internal/zipcontainer"
)

func errorsIs(err, target error) bool { return errors.Is(err, target) }

// writeBareZip writes a single-member zip file with no 0xE0E0 extra field,
// standing in for a container produced by something other than this
// package's own Opener.
func writeBareZip(path, name string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := stdzip.NewWriter(f)
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return zw.Close()
}

func writeSrc(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestWriteThenRead_RoundTripsEntriesAndBytes(t *testing.T) {
	dir := t.TempDir()
	src := writeSrc(t, dir, "src.txt", "hello world")
	archivePath := filepath.Join(dir, "snap.zip")

	o := zipcontainer.New()
	w, err := o.Create(archivePath, archive.Options{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	meta := archive.Record{Mode: 0o100644, Size: int64(len("hello world"))}
	if err := w.AddFileNew("src.txt", src, meta); err != nil {
		t.Fatalf("AddFileNew() error = %v", err)
	}
	if err := w.AddDirectory("dir", archive.Record{Mode: 0o040755}); err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	r, err := o.OpenRead(archivePath)
	if err != nil {
		t.Fatalf("OpenRead() error = %v", err)
	}
	defer r.Close()

	entries := r.Entries()
	if len(entries) != 2 {
		t.Fatalf("Entries() has %d members, want 2", len(entries))
	}

	data, rec, err := r.ExtractFile("src.txt")
	if err != nil {
		t.Fatalf("ExtractFile() error = %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("data = %q, want %q", data, "hello world")
	}
	if rec.Type != archive.TypeNew {
		t.Errorf("Type = %v, want TypeNew", rec.Type)
	}
	if rec.Size != int64(len("hello world")) {
		t.Errorf("Size = %d, want %d", rec.Size, len("hello world"))
	}
}

func TestWriteContainer_AddFileNew_DuplicateNameErrorsAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	src := writeSrc(t, dir, "src.txt", "abc")
	archivePath := filepath.Join(dir, "snap.zip")

	o := zipcontainer.New()
	w, err := o.Create(archivePath, archive.Options{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer w.Close()

	if err := w.AddFileNew("dup.txt", src, archive.Record{}); err != nil {
		t.Fatalf("first AddFileNew() error = %v", err)
	}
	err = w.AddFileNew("dup.txt", src, archive.Record{})
	if err == nil {
		t.Fatal("expected error on duplicate member name")
	}
	if !archiveIsAlreadyExists(err) {
		t.Errorf("error = %v, want wrapping ErrAlreadyExists", err)
	}
}

func archiveIsAlreadyExists(err error) bool {
	return errorsIs(err, archive.ErrAlreadyExists)
}

func TestOpener_OpenRead_MissingExtraFieldIsErrFormat(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "plain.zip")

	if err := writeBareZip(archivePath, "no-meta.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}

	o := zipcontainer.New()
	_, err := o.OpenRead(archivePath)
	if err == nil {
		t.Fatal("expected error opening a zip with no 0xE0E0 field")
	}
	if !errorsIs(err, archive.ErrFormat) {
		t.Errorf("error = %v, want wrapping ErrFormat", err)
	}
}

func TestOpener_Create_FailsIfPathAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "exists.zip")
	if err := os.WriteFile(archivePath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	o := zipcontainer.New()
	_, err := o.Create(archivePath, archive.Options{})
	if err == nil {
		t.Fatal("expected error creating over an existing file")
	}
}

func TestWriteContainer_CompFilterStoresMatchingMembersUncompressed(t *testing.T) {
	dir := t.TempDir()
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	src := filepath.Join(dir, "blob.bin")
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatal(err)
	}
	archivePath := filepath.Join(dir, "snap.zip")

	o := zipcontainer.New()
	opts := archive.Options{CompFilter: []archive.Pattern{archive.NewPattern("blob.bin")}}
	w, err := o.Create(archivePath, opts)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := w.AddFileNew("blob.bin", src, archive.Record{}); err != nil {
		t.Fatalf("AddFileNew() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	r, err := o.OpenRead(archivePath)
	if err != nil {
		t.Fatalf("OpenRead() error = %v", err)
	}
	defer r.Close()

	data, _, err := r.ExtractFile("blob.bin")
	if err != nil {
		t.Fatalf("ExtractFile() error = %v", err)
	}
	if len(data) != len(payload) {
		t.Fatalf("round-tripped data length = %d, want %d", len(data), len(payload))
	}
}

func TestWriteContainer_ExtractFile_ErrorsBeforeClose(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "snap.zip")

	o := zipcontainer.New()
	w, err := o.Create(archivePath, archive.Options{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer w.Close()

	_, _, err = w.ExtractFile("anything")
	if err == nil {
		t.Fatal("expected error extracting from a still-open write container")
	}
}

func TestWriteContainer_Close_ProgressCallbackReportsFractionalCompletion(t *testing.T) {
	dir := t.TempDir()
	src1 := writeSrc(t, dir, "a.txt", "a")
	src2 := writeSrc(t, dir, "b.txt", "b")
	archivePath := filepath.Join(dir, "snap.zip")

	var fractions []float64
	opts := archive.Options{Progress: func(f float64) { fractions = append(fractions, f) }}

	o := zipcontainer.New()
	w, err := o.Create(archivePath, opts)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := w.AddFileNew("a.txt", src1, archive.Record{}); err != nil {
		t.Fatal(err)
	}
	if err := w.AddFileNew("b.txt", src2, archive.Record{}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if len(fractions) != 2 {
		t.Fatalf("progress called %d times, want 2", len(fractions))
	}
	if fractions[0] != 0.5 || fractions[1] != 1.0 {
		t.Errorf("fractions = %v, want [0.5 1]", fractions)
	}
}

func TestWriteContainer_Close_UnreadableSourceFileIsDiagnosed(t *testing.T) {
	dir := t.TempDir()
	src := writeSrc(t, dir, "gone.txt", "x")
	archivePath := filepath.Join(dir, "snap.zip")

	o := zipcontainer.New()
	w, err := o.Create(archivePath, archive.Options{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := w.AddFileNew("gone.txt", src, archive.Record{}); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(src); err != nil {
		t.Fatal(err)
	}

	err = w.Close()
	if err == nil {
		t.Fatal("expected error closing with a source file removed after add")
	}
	if !errorsIs(err, archive.ErrContainer) {
		t.Errorf("error = %v, want wrapping ErrContainer", err)
	}
}
