package zipcontainer

import (
	"fmt"
	"io"
	"os"

	stdzip "archive/zip"

	"fsarc-go/internal/archive"
)

// addKind tags a deferred add.
type addKind int

const (
	kindNewFile addKind = iota
	kindBsdiff
	kindUnchanged
	kindDirectory
)

// pendingAdd is one deferred add operation. Bytes for a NEW file are read
// from srcPath at commit time; bytes for a MOD entry live in a temporary
// file on disk (tmpPath) rather than in memory, mirroring the resource
// lifetime the container library forces on the teacher's own storage
// adapters (see DESIGN.md).
type pendingAdd struct {
	kind    addKind
	name    string
	meta    archive.Record
	srcPath string
	tmpPath string
}

// writeContainer implements archive.Container for a container being
// created. All adds are deferred until Close, per §4.2.
type writeContainer struct {
	path    string
	file    *os.File
	opts    archive.Options
	pending []pendingAdd
	index   map[string]archive.Record
	closed  bool
}

var _ archive.Container = (*writeContainer)(nil)

func (w *writeContainer) AddFileNew(name string, srcPath string, meta archive.Record) error {
	if _, exists := w.index[name]; exists {
		return archive.ErrAlreadyExists
	}
	meta.Type = archive.TypeNew
	meta.Prev = ""
	w.index[name] = meta
	w.pending = append(w.pending, pendingAdd{kind: kindNewFile, name: name, meta: meta, srcPath: srcPath})
	return nil
}

func (w *writeContainer) AddFileBsdiff(name string, meta archive.Record, patch []byte, prevName string) error {
	if _, exists := w.index[name]; exists {
		return archive.ErrAlreadyExists
	}
	meta.Type = archive.TypeMod
	meta.Prev = prevName

	tmp, err := os.CreateTemp("", "fsarc-patch-*")
	if err != nil {
		return fmt.Errorf("%w: creating patch temp file: %v", archive.ErrContainer, err)
	}
	if _, err := tmp.Write(patch); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: writing patch temp file: %v", archive.ErrContainer, err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing patch temp file: %v", archive.ErrContainer, err)
	}

	w.index[name] = meta
	w.pending = append(w.pending, pendingAdd{kind: kindBsdiff, name: name, meta: meta, tmpPath: tmpPath})
	return nil
}

func (w *writeContainer) AddFileUnchanged(name string, meta archive.Record, prevName string) error {
	if _, exists := w.index[name]; exists {
		return archive.ErrAlreadyExists
	}
	meta.Type = archive.TypeUnc
	meta.Prev = prevName
	w.index[name] = meta
	w.pending = append(w.pending, pendingAdd{kind: kindUnchanged, name: name, meta: meta})
	return nil
}

func (w *writeContainer) AddDirectory(name string, meta archive.Record) error {
	if _, exists := w.index[name]; exists {
		return archive.ErrAlreadyExists
	}
	w.index[name] = meta
	w.pending = append(w.pending, pendingAdd{kind: kindDirectory, name: name, meta: meta})
	return nil
}

func (w *writeContainer) ExtractFile(name string) ([]byte, archive.Record, error) {
	return nil, archive.Record{}, fmt.Errorf("%w: container is write-only until closed", archive.ErrContainer)
}

func (w *writeContainer) Entries() map[string]archive.Record {
	out := make(map[string]archive.Record, len(w.index))
	for k, v := range w.index {
		out[k] = v
	}
	return out
}

// Close commits every deferred add to the underlying zip file, reporting
// progress after each entry, then closes the file. On failure it makes a
// best-effort pass over the still-pending NEW entries to report which
// source files are no longer readable, a heuristic aimed at diagnosing
// concurrent filesystem changes (§4.2).
func (w *writeContainer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	defer w.cleanupTempFiles()

	zw := stdzip.NewWriter(w.file)
	registerLevel(zw, w.opts.CompLevel)

	total := len(w.pending)
	for i, p := range w.pending {
		if err := w.commitOne(zw, p); err != nil {
			zw.Close()
			w.file.Close()
			return w.diagnoseFailure(err)
		}
		if w.opts.Progress != nil && total > 0 {
			w.opts.Progress(float64(i+1) / float64(total))
		}
	}

	if err := zw.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("%w: finalizing %s: %v", archive.ErrContainer, w.path, err)
	}

	return w.file.Close()
}

func (w *writeContainer) commitOne(zw *stdzip.Writer, p pendingAdd) error {
	if p.kind == kindDirectory {
		return w.writeMember(zw, p.name+"/", p.meta, nil)
	}

	method := stdzip.Deflate
	if w.opts.NoComp || archive.MatchAny(w.opts.CompFilter, p.name) {
		method = stdzip.Store
	}

	switch p.kind {
	case kindNewFile:
		data, err := os.ReadFile(p.srcPath)
		if err != nil {
			return fmt.Errorf("reading source %s: %w", p.srcPath, err)
		}
		return w.writeMemberMethod(zw, p.name, p.meta, data, method)

	case kindBsdiff:
		data, err := os.ReadFile(p.tmpPath)
		if err != nil {
			return fmt.Errorf("reading patch temp file for %s: %w", p.name, err)
		}
		return w.writeMemberMethod(zw, p.name, p.meta, data, method)

	case kindUnchanged:
		return w.writeMemberMethod(zw, p.name, p.meta, nil, method)

	default:
		return fmt.Errorf("unknown pending add kind for %s", p.name)
	}
}

func (w *writeContainer) writeMember(zw *stdzip.Writer, name string, meta archive.Record, data []byte) error {
	return w.writeMemberMethod(zw, name, meta, data, stdzip.Store)
}

func (w *writeContainer) writeMemberMethod(zw *stdzip.Writer, name string, meta archive.Record, data []byte, method uint16) error {
	fh := &stdzip.FileHeader{
		Name:   name,
		Method: method,
		Extra:  buildExtra(meta),
	}
	ww, err := zw.CreateHeader(fh)
	if err != nil {
		return fmt.Errorf("creating entry %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	_, err = ww.Write(data)
	if err != nil {
		return fmt.Errorf("writing entry %s: %w", name, err)
	}
	return nil
}

// diagnoseFailure produces a best-effort report of which NEW-entry source
// files are no longer readable, appended to the underlying error.
func (w *writeContainer) diagnoseFailure(cause error) error {
	var unreadable []string
	for _, p := range w.pending {
		if p.kind != kindNewFile {
			continue
		}
		if _, err := os.Stat(p.srcPath); err != nil {
			unreadable = append(unreadable, p.srcPath)
		}
	}
	if len(unreadable) == 0 {
		return fmt.Errorf("%w: %v", archive.ErrContainer, cause)
	}
	return fmt.Errorf("%w: %v (no longer readable: %v)", archive.ErrContainer, cause, unreadable)
}

func (w *writeContainer) cleanupTempFiles() {
	for _, p := range w.pending {
		if p.tmpPath != "" {
			os.Remove(p.tmpPath)
		}
	}
}

var _ io.Closer = (*writeContainer)(nil)
