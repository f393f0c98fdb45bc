package config

// AgentConfig is the `[agent]` section: identity and turn-loop tuning
// that isn't specific to any one LLM provider or connector.
type AgentConfig struct {
	Name          string `yaml:"name"`
	SystemPrompt  string `yaml:"system_prompt"`
	MaxToolRounds int    `yaml:"max_tool_rounds"`
	HistoryCap    int    `yaml:"history_cap"`
	MaxReadBytes  int    `yaml:"max_read_bytes"`
}

func (a *AgentConfig) applyDefaults() {
	if a.Name == "" {
		a.Name = "sentinel"
	}
	if a.MaxToolRounds == 0 {
		a.MaxToolRounds = 10
	}
	if a.HistoryCap == 0 {
		a.HistoryCap = 40
	}
	if a.MaxReadBytes == 0 {
		a.MaxReadBytes = 1 << 20
	}
}
