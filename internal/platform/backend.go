// Package platform abstracts the operations the agent performs against
// its host: filesystem access, process spawning, outbound network
// dials, and the clock. A general-purpose OS backend enforces nothing
// itself and relies entirely on the capability checker; a
// capability-microkernel backend hands enforcement to the kernel and
// runs the checker as a defense-in-depth second opinion. Both fit
// the same Backend contract so the tool executor never branches on
// which one it's running against; this package implements only the OS
// backend (OSBackend).
package platform

import (
	"context"
	"io"
	"time"
)

// CommandSpec describes a process to spawn.
type CommandSpec struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Timeout time.Duration // zero disables the deadline
}

// CommandResult carries the outcome of a spawned process.
type CommandResult struct {
	ExitCode int
	TimedOut bool
}

// Backend is the seam between the agent and its host environment.
type Backend interface {
	// ReadFile returns the contents of path, or an error satisfying
	// os.IsNotExist for a missing file.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile writes data to path, creating it if necessary.
	WriteFile(ctx context.Context, path string, data []byte) error

	// ListDir returns the names of entries directly under path.
	ListDir(ctx context.Context, path string) ([]DirEntry, error)

	// Run spawns spec and blocks until it exits, the context is
	// canceled, or spec.Timeout elapses (if nonzero).
	Run(ctx context.Context, spec CommandSpec) (CommandResult, error)

	// Dial opens an outbound connection to endpoint. The capability
	// check happens before Dial is ever called; Dial itself just
	// performs the mechanics for the concrete platform.
	Dial(ctx context.Context, network, endpoint string) (io.ReadWriteCloser, error)

	// Now returns the current time. Routed through Backend so tests can
	// substitute a fake clock without reaching into time.Now directly.
	Now() time.Time
}

// DirEntry is a minimal directory listing entry, independent of the
// concrete os.DirEntry so a microkernel backend isn't forced to satisfy
// that interface's full surface.
type DirEntry struct {
	Name  string
	IsDir bool
	Size  int64
}
