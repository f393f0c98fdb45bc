// Package config loads Sentinel's declarative configuration document:
// sections [agent], [llm], [messaging.*], [security], and
// [capabilities], with secrets referenced indirectly via environment
// variable names rather than embedded inline.
package config

import "log/slog"

// Config is the fully parsed and defaulted configuration document.
type Config struct {
	Agent        AgentConfig        `yaml:"agent"`
	LLM          LLMConfig          `yaml:"llm"`
	Messaging    MessagingConfig    `yaml:"messaging"`
	Security     SecurityConfig     `yaml:"security"`
	Capabilities CapabilitiesConfig `yaml:"capabilities"`
}

var knownTopLevelSections = map[string]bool{
	"agent":        true,
	"llm":          true,
	"messaging":    true,
	"security":     true,
	"capabilities": true,
}

// Load reads path (and any $include documents it references), applies
// section defaults, and validates cross-section invariants. Unknown
// top-level sections are warned about via logger, not fatal; unknown
// keys inside a known section are a *Error.
func Load(path string, logger *slog.Logger) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, newError(path, "load", err)
	}

	warnUnknownSections(raw, logger)
	dropUnknownSections(raw)

	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, newError(path, "decode", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Security.warnIfOpen(logger)

	return cfg, nil
}

func warnUnknownSections(raw map[string]any, logger *slog.Logger) {
	if logger == nil {
		return
	}
	for key := range raw {
		if !knownTopLevelSections[key] {
			logger.Warn("unknown configuration section, ignoring", "section", key, "component", "config")
		}
	}
}

func dropUnknownSections(raw map[string]any) {
	for key := range raw {
		if !knownTopLevelSections[key] {
			delete(raw, key)
		}
	}
}

func (c *Config) applyDefaults() {
	c.Agent.applyDefaults()
	c.LLM.applyDefaults()
	c.Messaging.applyDefaults()
	c.Security.applyDefaults()
}

func (c *Config) validate() error {
	if err := c.LLM.validate(); err != nil {
		return err
	}
	if !c.Messaging.AnyEnabled() {
		return newError("messaging", "at least one connector must be enabled", nil)
	}
	return nil
}
