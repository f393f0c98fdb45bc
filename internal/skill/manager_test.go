package skill

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LuperIQ/sentinel/internal/capability"
)

func TestNewManagerSkipsUnsatisfiedSkill(t *testing.T) {
	root := t.TempDir()
	skillDir := filepath.Join(root, "needs-net")
	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := "name: needs-net\ncommand: [\"echo\"]\nrequired_caps: [\"net_endpoints\"]\n"
	if err := os.WriteFile(filepath.Join(skillDir, manifestFileName), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	grant := capability.Grant{ReadPaths: []string{"/tmp"}}
	m, err := NewManager(root, grant, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if len(m.Names()) != 0 {
		t.Errorf("expected skill requiring net_endpoints to be skipped, got %v", m.Names())
	}
}

func TestNewManagerLoadsEligibleSkill(t *testing.T) {
	root := t.TempDir()
	skillDir := filepath.Join(root, "reader")
	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := `
name: reader
command: ["echo"]
required_caps: ["read_paths"]
tools:
  - name: peek
    description: peek at a file
`
	if err := os.WriteFile(filepath.Join(skillDir, manifestFileName), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	grant := capability.Grant{ReadPaths: []string{"/tmp"}}
	m, err := NewManager(root, grant, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if len(m.Names()) != 1 || m.Names()[0] != "reader" {
		t.Fatalf("got %v, want [reader]", m.Names())
	}

	tools := m.Tools()
	if len(tools) != 1 || tools[0].Name() != "peek" {
		t.Fatalf("got %v tools, want exactly one named peek", tools)
	}
}

func TestNewManagerToleratesMissingDirectory(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "does-not-exist"), capability.Grant{}, nil)
	if err != nil {
		t.Fatalf("expected missing skills directory to be tolerated, got %v", err)
	}
	if len(m.Names()) != 0 {
		t.Errorf("expected no skills, got %v", m.Names())
	}
}
