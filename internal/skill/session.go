package skill

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

// Session is a warm, persistent connection to a skill subprocess. It
// serializes one request at a time over a long-lived stdin/stdout
// pipe, unlike the original sandbox's one-shot spawn-per-call model:
// spec.md's skills stay up for the life of a turn and can answer many
// tool calls without paying process-launch cost each time.
type Session struct {
	manifest *Manifest

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	mu      sync.Mutex
	nextID  uint64
	closed  atomic.Bool
}

// Launch starts the skill's subprocess with a cleared environment,
// keeping only PATH, HOME, and LANG, mirroring the original sandbox's
// env_clear/env pattern. Stdin and stdout are piped for the IPC
// protocol; stderr is inherited so skill diagnostics reach the host's
// own logs.
func Launch(ctx context.Context, manifest *Manifest, workingDir string) (*Session, error) {
	if len(manifest.Command) == 0 {
		return nil, fmt.Errorf("skill: %s has no command to launch", manifest.Name)
	}

	cmd := exec.CommandContext(ctx, manifest.Command[0], manifest.Command[1:]...)
	cmd.Dir = workingDir
	cmd.Env = []string{
		"PATH=/usr/bin:/usr/local/bin:/bin",
		"HOME=" + workingDir,
		"LANG=C.UTF-8",
	}
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("skill: %s: stdin pipe: %w", manifest.Name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("skill: %s: stdout pipe: %w", manifest.Name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("skill: %s: spawn: %w", manifest.Name, err)
	}

	return &Session{
		manifest: manifest,
		cmd:      cmd,
		stdin:    stdin,
		stdout:   bufio.NewReader(stdout),
	}, nil
}

// Call sends one request and waits for its matching reply, bounded by
// ctx. Calls are serialized: a skill subprocess answers one request at
// a time, in order, just like the original one-shot protocol did, but
// without tearing the process down between calls.
func (s *Session) Call(ctx context.Context, tool string, args json.RawMessage) (json.RawMessage, error) {
	if s.closed.Load() {
		return nil, &ProtocolError{Message: "session already closed"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := atomic.AddUint64(&s.nextID, 1)

	line, err := json.Marshal(request{ID: id, Tool: tool, Args: args})
	if err != nil {
		return nil, fmt.Errorf("skill: marshal request: %w", err)
	}

	type result struct {
		rep reply
		err error
	}
	done := make(chan result, 1)

	go func() {
		if _, err := s.stdin.Write(append(line, '\n')); err != nil {
			done <- result{err: fmt.Errorf("skill: write request: %w", err)}
			return
		}
		raw, err := s.stdout.ReadString('\n')
		if err != nil {
			done <- result{err: fmt.Errorf("skill: read reply: %w", err)}
			return
		}
		var rep reply
		if err := json.Unmarshal([]byte(raw), &rep); err != nil {
			done <- result{err: &ProtocolError{Message: "stdout line is not valid JSON: " + err.Error()}}
			return
		}
		done <- result{rep: rep}
	}()

	select {
	case <-ctx.Done():
		s.closed.Store(true)
		_ = s.teardown()
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			s.closed.Store(true)
			_ = s.teardown()
			return nil, r.err
		}
		if r.rep.ID != id {
			s.closed.Store(true)
			_ = s.teardown()
			return nil, &ProtocolError{Message: fmt.Sprintf("reply id %d does not match request id %d", r.rep.ID, id)}
		}
		if r.rep.Error != nil {
			return nil, &ToolError{Kind: r.rep.Error.Kind, Message: r.rep.Error.Message}
		}
		if r.rep.Result == nil {
			s.closed.Store(true)
			_ = s.teardown()
			return nil, &ProtocolError{Message: "reply has neither result nor error"}
		}
		return r.rep.Result, nil
	}
}

// Close tears the subprocess down unconditionally: close stdin, kill,
// and wait, regardless of which exit path got us here. This mirrors
// the original sandbox's Drop impl, which never leaves a child running.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.teardown()
}

func (s *Session) teardown() error {
	_ = s.stdin.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}

	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()
	select {
	case err := <-done:
		if _, ok := err.(*exec.ExitError); ok {
			// The process was killed above, so a nonzero or signal exit
			// status is the expected outcome of teardown, not a failure.
			return nil
		}
		return err
	case <-time.After(2 * time.Second):
		return fmt.Errorf("skill: %s: subprocess did not exit after kill", s.manifest.Name)
	}
}
