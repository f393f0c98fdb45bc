package skill

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LuperIQ/sentinel/internal/capability"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "skill.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifestRejectsMissingName(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "command: [\"echo\"]\n")
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestLoadManifestRejectsEmptyCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "name: demo\n")
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestLoadManifestRejectsInvalidSchema(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
name: demo
command: ["echo"]
tools:
  - name: greet
    parameter_schema: "not an object"
`)
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for invalid parameter_schema")
	}
}

func TestManifestCheckGrantRejectsMissingCaps(t *testing.T) {
	m := &Manifest{Name: "demo", Command: []string{"echo"}, RequiredCaps: []string{"net_endpoints"}}
	grant := capability.Grant{ReadPaths: []string{"/tmp"}}
	if err := m.CheckGrant(grant); err == nil {
		t.Fatal("expected grant rejection")
	}
}

func TestManifestCheckGrantAllowsSatisfiedCaps(t *testing.T) {
	m := &Manifest{Name: "demo", Command: []string{"echo"}, RequiredCaps: []string{"read_paths"}}
	grant := capability.Grant{ReadPaths: []string{"/tmp"}}
	if err := m.CheckGrant(grant); err != nil {
		t.Fatalf("expected grant to satisfy manifest, got %v", err)
	}
}

func TestManifestNarrowOmitsUndeclaredCaps(t *testing.T) {
	m := &Manifest{Name: "demo", Command: []string{"echo"}, RequiredCaps: []string{"read_paths"}}
	grant := capability.Grant{ReadPaths: []string{"/tmp"}, WritePaths: []string{"/tmp"}}
	narrowed := m.Narrow(grant)
	if narrowed.WritePaths != nil {
		t.Errorf("expected write_paths to be dropped, got %v", narrowed.WritePaths)
	}
	if len(narrowed.ReadPaths) != 1 {
		t.Errorf("expected read_paths to survive narrowing, got %v", narrowed.ReadPaths)
	}
}

func TestToolManifestValidateArgs(t *testing.T) {
	tm := ToolManifest{
		Name:            "greet",
		ParameterSchema: []byte(`{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`),
	}
	if err := tm.ValidateArgs([]byte(`{"name":"ada"}`)); err != nil {
		t.Errorf("expected valid args to pass, got %v", err)
	}
	if err := tm.ValidateArgs([]byte(`{}`)); err == nil {
		t.Error("expected missing required field to fail validation")
	}
}
