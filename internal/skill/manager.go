package skill

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/LuperIQ/sentinel/internal/audit"
	"github.com/LuperIQ/sentinel/internal/capability"
	"github.com/LuperIQ/sentinel/internal/tool"
)

const manifestFileName = "skill.yaml"

// Manager discovers skills under a directory, validates each against
// the process grant, and launches/reuses warm sessions on demand.
type Manager struct {
	dir   string
	grant capability.Grant
	sink  audit.Sink

	mu       sync.Mutex
	skills   map[string]*Manifest
	sessions map[string]*Session
}

// NewManager scans dir for skill manifests, skipping (and logging via
// sink) any that fail validation or whose required_caps exceed grant,
// rather than failing discovery outright for the whole directory.
func NewManager(dir string, grant capability.Grant, sink audit.Sink) (*Manager, error) {
	m := &Manager{
		dir:      dir,
		grant:    grant,
		sink:     sink,
		skills:   map[string]*Manifest{},
		sessions: map[string]*Session{},
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("skill: scan %s: %w", dir, err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name(), manifestFileName)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		manifest, err := LoadManifest(path)
		if err != nil {
			m.warn(fmt.Sprintf("skipping skill %s: %v", e.Name(), err))
			continue
		}
		if err := manifest.CheckGrant(grant); err != nil {
			m.warn(err.Error())
			continue
		}
		m.skills[manifest.Name] = manifest
	}

	return m, nil
}

func (m *Manager) warn(msg string) {
	if m.sink == nil {
		return
	}
	_ = m.sink.Write(audit.Event{
		Kind:   audit.KindSkillLaunch,
		Reason: msg,
	})
}

// Names lists the discovered, grant-eligible skills.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.skills))
	for name := range m.skills {
		names = append(names, name)
	}
	return names
}

// session returns a warm session for skillName, launching one lazily
// if none is running yet.
func (m *Manager) session(ctx context.Context, skillName string) (*Session, *Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	manifest, ok := m.skills[skillName]
	if !ok {
		return nil, nil, fmt.Errorf("skill: unknown skill %s", skillName)
	}

	if sess, ok := m.sessions[skillName]; ok {
		return sess, manifest, nil
	}

	workingDir := filepath.Join(m.dir, skillName)
	sess, err := Launch(ctx, manifest, workingDir)
	if err != nil {
		return nil, nil, err
	}
	m.sessions[skillName] = sess

	if m.sink != nil {
		_ = m.sink.Write(audit.Event{
			Kind:       audit.KindSkillLaunch,
			Capability: skillName,
		})
	}

	return sess, manifest, nil
}

// CloseAll tears down every warm session, e.g. at the end of a turn or
// on process shutdown. Errors from individual sessions are collected
// but do not stop the rest from being closed.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for name, sess := range m.sessions {
		if err := sess.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if m.sink != nil {
			_ = m.sink.Write(audit.Event{Kind: audit.KindSkillExit, Capability: name})
		}
		delete(m.sessions, name)
	}
	return firstErr
}

// Tools returns a tool.Tool adapter for every tool every discovered
// skill exposes, ready to register alongside the host's own built-in
// tools.
func (m *Manager) Tools() []tool.Tool {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []tool.Tool
	for skillName, manifest := range m.skills {
		for i := range manifest.Tools {
			out = append(out, &skillTool{
				manager:   m,
				skillName: skillName,
				tool:      manifest.Tools[i],
			})
		}
	}
	return out
}

// skillTool adapts one skill-declared tool to the host tool.Tool
// interface, routing Execute through the skill's warm IPC session.
type skillTool struct {
	manager   *Manager
	skillName string
	tool      ToolManifest
}

func (t *skillTool) Name() string        { return t.tool.Name }
func (t *skillTool) Description() string { return t.tool.Description }
func (t *skillTool) Schema() json.RawMessage {
	if len(t.tool.ParameterSchema) == 0 {
		return json.RawMessage(`{"type":"object"}`)
	}
	return t.tool.ParameterSchema
}

func (t *skillTool) Execute(ctx context.Context, params json.RawMessage) (*tool.Result, error) {
	if err := t.tool.ValidateArgs(params); err != nil {
		return tool.ErrorResult(tool.ErrInternal, err.Error()), nil
	}

	sess, _, err := t.manager.session(ctx, t.skillName)
	if err != nil {
		return tool.ErrorResult(tool.ErrSpawn, err.Error()), nil
	}

	result, err := sess.Call(ctx, t.tool.Name, params)
	if err != nil {
		switch e := err.(type) {
		case *ToolError:
			return tool.ErrorResult(tool.ErrorKind(e.Kind), e.Message), nil
		case *ProtocolError:
			t.manager.mu.Lock()
			delete(t.manager.sessions, t.skillName)
			t.manager.mu.Unlock()
			return tool.ErrorResult(tool.ErrInternal, e.Error()), nil
		default:
			return tool.ErrorResult(tool.ErrInternal, err.Error()), nil
		}
	}

	return &tool.Result{Content: string(result)}, nil
}
