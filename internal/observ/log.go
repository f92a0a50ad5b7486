// Package observ provides the structured logging fsarc writes to a run log
// file, grounded on the teacher's internal/app log handler: the same
// tab-delimited record shape, keyed by a run ID instead of a database
// operation ID.
package observ

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"fsarc-go/internal/archive"
)

// fsarcHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<runID>\t<message>\t<key=value ...>
type fsarcHandler struct {
	w     io.Writer
	runID string
	attrs []slog.Attr
}

func (h *fsarcHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *fsarcHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	level := r.Level.String()

	_, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s", ts, level, h.runID, r.Message)
	if err != nil {
		return err
	}

	for _, a := range h.attrs {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
	}

	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
		return true
	})

	_, err = fmt.Fprintln(h.w)
	return err
}

func (h *fsarcHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &fsarcHandler{
		w:     h.w,
		runID: h.runID,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *fsarcHandler) WithGroup(string) slog.Handler { return h }

// New creates a structured logger that writes to both logDir/fsarc.log and
// stderr. It returns the slog.Logger, the open log file (for cleanup), and
// any error.
func New(logDir string, runID string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "fsarc.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	w := io.MultiWriter(f, os.Stderr)
	handler := &fsarcHandler{w: w, runID: runID}
	return slog.New(handler), f, nil
}

// Adapter wraps *slog.Logger to satisfy archive.Logger.
type Adapter struct {
	L *slog.Logger
}

var _ archive.Logger = (*Adapter)(nil)

func (a *Adapter) Debug(msg string, args ...any) { a.L.Debug(msg, args...) }
func (a *Adapter) Info(msg string, args ...any)  { a.L.Info(msg, args...) }
func (a *Adapter) Warn(msg string, args ...any)  { a.L.Warn(msg, args...) }
func (a *Adapter) Error(msg string, args ...any) { a.L.Error(msg, args...) }
