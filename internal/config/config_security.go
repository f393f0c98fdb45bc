package config

import "log/slog"

// SecurityConfig is the `[security]` section: who may talk to the
// agent and where its audit trail goes.
type SecurityConfig struct {
	AllowedUsers []string     `yaml:"allowed_users"`
	Audit        AuditConfig  `yaml:"audit"`
}

type AuditConfig struct {
	Output string `yaml:"output"`
	Path   string `yaml:"path"`
}

func (s *SecurityConfig) applyDefaults() {
	if s.Audit.Output == "" {
		s.Audit.Output = "stderr"
	}
}

// warnIfOpen logs the allow-all decision spec.md's Open Question chose
// for an empty allowlist, so the tradeoff is visible in operations
// even though it never blocks startup.
func (s *SecurityConfig) warnIfOpen(logger *slog.Logger) {
	if len(s.AllowedUsers) == 0 && logger != nil {
		logger.Warn("security.allowed_users is empty: allowing all users", "component", "config")
	}
}
