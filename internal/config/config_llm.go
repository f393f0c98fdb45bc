package config

// LLMConfig is the `[llm]` section. Sentinel talks to exactly one
// provider; api_key_env names the environment variable holding the
// secret so it never appears in the config document itself.
type LLMConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	MaxTokens int    `yaml:"max_tokens"`
}

func (l *LLMConfig) applyDefaults() {
	if l.Provider == "" {
		l.Provider = "anthropic"
	}
	if l.Model == "" {
		l.Model = "claude-sonnet-4-5"
	}
	if l.MaxTokens == 0 {
		l.MaxTokens = 4096
	}
	if l.APIKeyEnv == "" {
		l.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
}

func (l *LLMConfig) validate() error {
	if l.Provider != "anthropic" {
		return newError("llm.provider", "unsupported provider "+l.Provider, nil)
	}
	return nil
}
