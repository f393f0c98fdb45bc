// Package skill discovers, validates, and runs skills: subprocesses
// that speak a line-framed JSON protocol over stdin/stdout and expose
// additional tools. A skill whose required capabilities exceed the host
// grant is refused, and Manifest.Narrow computes its narrowed grant, but
// Launch does not apply that grant to the subprocess: the child runs with
// the host user's OS permissions, a cleared environment, and its own
// working directory.
package skill

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/LuperIQ/sentinel/internal/capability"
)

// Manifest describes a skill: how to launch it, what it needs, and how
// to validate the arguments a model gives its tools.
type Manifest struct {
	Name            string          `yaml:"name"`
	Description     string          `yaml:"description"`
	Command         []string        `yaml:"command"`
	RequiredCaps    []string        `yaml:"required_caps"`
	OptionalCaps    []string        `yaml:"optional_caps"`
	Tools           []ToolManifest  `yaml:"tools"`
}

// ToolManifest describes one tool a skill exposes.
type ToolManifest struct {
	Name            string          `yaml:"name"`
	Description     string          `yaml:"description"`
	ParameterSchema json.RawMessage `yaml:"parameter_schema"`
}

// LoadManifest reads and parses a skill manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("skill: read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("skill: parse manifest %s: %w", path, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("skill: manifest %s is missing a name", path)
	}
	if len(m.Command) == 0 {
		return nil, fmt.Errorf("skill: manifest %s has an empty command", path)
	}
	for _, t := range m.Tools {
		if len(t.ParameterSchema) == 0 {
			continue
		}
		if _, err := compileSchema(t.ParameterSchema); err != nil {
			return nil, fmt.Errorf("skill: %s tool %s: invalid parameter_schema: %w", m.Name, t.Name, err)
		}
	}
	return &m, nil
}

// CheckGrant rejects a manifest whose required_caps exceed what the
// process grant allows, at discovery time rather than on first use.
func (m *Manifest) CheckGrant(grant capability.Grant) error {
	if missing := grant.Missing(m.RequiredCaps); len(missing) > 0 {
		return fmt.Errorf("skill: %s requires capabilities the process grant does not hold: %v", m.Name, missing)
	}
	return nil
}

// Narrow returns the capability grant this skill should run under: the
// intersection of its declared needs and the host process's own grant.
func (m *Manifest) Narrow(grant capability.Grant) capability.Grant {
	return grant.Narrow(m.RequiredCaps, m.OptionalCaps)
}

func compileSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	const resourceName = "parameter_schema.json"
	if err := compiler.AddResource(resourceName, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile(resourceName)
}

// ValidateArgs checks args against t's parameter schema, if one is set.
func (t *ToolManifest) ValidateArgs(args json.RawMessage) error {
	if len(t.ParameterSchema) == 0 {
		return nil
	}
	schema, err := compileSchema(t.ParameterSchema)
	if err != nil {
		return fmt.Errorf("skill: recompile schema for %s: %w", t.Name, err)
	}
	var doc any
	if err := json.Unmarshal(args, &doc); err != nil {
		return fmt.Errorf("skill: %s: invalid argument JSON: %w", t.Name, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("skill: %s: arguments do not match schema: %w", t.Name, err)
	}
	return nil
}
