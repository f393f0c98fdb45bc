package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Sink is an append-only destination for audit events. Implementations
// must never drop, sample, or reorder an event relative to the call that
// produced it: Write returns only after the event is durably appended.
type Sink interface {
	Write(Event) error
	Close() error
}

// Output selects where a Logger appends its event stream.
type Output string

const (
	OutputStdout Output = "stdout"
	OutputStderr Output = "stderr"
	OutputFile   Output = "file"
)

// Config controls where and how the audit stream is written. There is
// deliberately no sample rate, event-type filter, or buffer size: every
// capability check produces exactly one event, full stop.
type Config struct {
	Output Output
	Path   string // required when Output == OutputFile
}

// Logger is the default Sink. It serializes each event as a single JSON
// line and appends it under a mutex, so concurrent callers from different
// goroutines (tool execution, skill IPC, turn orchestration) never
// interleave partial lines or lose an event to a race.
type Logger struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	enc    *json.Encoder
}

// NewLogger opens the configured output and returns a ready Logger. The
// caller must Close it on shutdown to flush and release the underlying
// file handle.
func NewLogger(cfg Config) (*Logger, error) {
	var w io.Writer
	var closer io.Closer

	switch cfg.Output {
	case OutputStdout, "":
		w = os.Stdout
	case OutputStderr:
		w = os.Stderr
	case OutputFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("audit: file output requires a path")
		}
		f, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("audit: open %s: %w", cfg.Path, err)
		}
		w = f
		closer = f
	default:
		return nil, fmt.Errorf("audit: unknown output %q", cfg.Output)
	}

	return &Logger{w: w, closer: closer, enc: json.NewEncoder(w)}, nil
}

// Write appends one event. It never filters or samples: every call
// produces exactly one line in the stream, or an error the caller must
// treat as fatal to the operation it was guarding.
func (l *Logger) Write(ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(ev); err != nil {
		return fmt.Errorf("audit: write event: %w", err)
	}
	if f, ok := l.w.(*os.File); ok {
		// Append-only is a property of the medium: force the line to
		// disk so a crash immediately after Write can't make it vanish.
		_ = f.Sync()
	}
	return nil
}

// Close releases the underlying file handle, if any. Writing to stdout
// or stderr needs no teardown.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// SlogHandler returns a function that mirrors audit events into the
// process's structured log stream at Info level, for operators who tail
// logs rather than the audit file directly. It does not replace Write;
// callers use both when they want the event in both places.
func SlogHandler(logger *slog.Logger) func(Event) {
	return func(ev Event) {
		attrs := []any{
			slog.String("event", string(ev.Kind)),
		}
		if ev.Capability != "" {
			attrs = append(attrs, slog.String("capability", ev.Capability))
		}
		if ev.Resource != "" {
			attrs = append(attrs, slog.String("resource", ev.Resource))
		}
		if ev.Decision != "" {
			attrs = append(attrs, slog.String("decision", string(ev.Decision)))
		}
		if ev.Reason != "" {
			attrs = append(attrs, slog.String("reason", ev.Reason))
		}
		if ev.ToolName != "" {
			attrs = append(attrs, slog.String("tool_name", ev.ToolName))
		}
		if ev.Platform != "" {
			attrs = append(attrs, slog.String("platform", ev.Platform))
		}
		logger.Info("audit", attrs...)
	}
}
