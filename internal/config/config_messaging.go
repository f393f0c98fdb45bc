package config

// MessagingConfig is the `[messaging.*]` family: one subsection per
// connector platform, each independently enable-able.
type MessagingConfig struct {
	Discord  DiscordConfig  `yaml:"discord"`
	Telegram TelegramConfig `yaml:"telegram"`
	Slack    SlackConfig    `yaml:"slack"`
	PollSecs int            `yaml:"poll_secs"`
}

type DiscordConfig struct {
	Enabled      bool   `yaml:"enabled"`
	BotTokenEnv  string `yaml:"bot_token_env"`
}

type TelegramConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BotTokenEnv string `yaml:"bot_token_env"`
}

type SlackConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BotTokenEnv string `yaml:"bot_token_env"`
}

func (m *MessagingConfig) applyDefaults() {
	if m.PollSecs == 0 {
		m.PollSecs = 30
	}
	if m.Discord.Enabled && m.Discord.BotTokenEnv == "" {
		m.Discord.BotTokenEnv = "DISCORD_BOT_TOKEN"
	}
	if m.Telegram.Enabled && m.Telegram.BotTokenEnv == "" {
		m.Telegram.BotTokenEnv = "TELEGRAM_BOT_TOKEN"
	}
	if m.Slack.Enabled && m.Slack.BotTokenEnv == "" {
		m.Slack.BotTokenEnv = "SLACK_BOT_TOKEN"
	}
}

// AnyEnabled reports whether at least one connector is configured.
func (m *MessagingConfig) AnyEnabled() bool {
	return m.Discord.Enabled || m.Telegram.Enabled || m.Slack.Enabled
}
