// Command sentinel wires the agent runtime together: configuration,
// audit sink, capability checker, platform backend, tool registry,
// skill manager, conversation store, LLM provider, turn orchestrator,
// and connector dispatch. Argument parsing beyond a single config path
// is out of scope; this is the runnable entry point, not a CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/LuperIQ/sentinel/internal/audit"
	"github.com/LuperIQ/sentinel/internal/capability"
	"github.com/LuperIQ/sentinel/internal/config"
	"github.com/LuperIQ/sentinel/internal/connector"
	"github.com/LuperIQ/sentinel/internal/connector/discord"
	"github.com/LuperIQ/sentinel/internal/connector/slack"
	"github.com/LuperIQ/sentinel/internal/connector/telegram"
	"github.com/LuperIQ/sentinel/internal/conversation"
	"github.com/LuperIQ/sentinel/internal/llm"
	"github.com/LuperIQ/sentinel/internal/metrics"
	"github.com/LuperIQ/sentinel/internal/orchestrator"
	"github.com/LuperIQ/sentinel/internal/platform"
	"github.com/LuperIQ/sentinel/internal/skill"
	"github.com/LuperIQ/sentinel/internal/tool"
)

// Exit codes, per the process contract: 0 normal shutdown, 1
// configuration error, 2 unrecoverable runtime error, 3 sandbox setup
// failure when sandboxing was requested.
const (
	exitOK             = 0
	exitConfigError    = 1
	exitRuntimeError   = 2
	exitSandboxFailure = 3
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("component", "sentinel")

	configPath := "sentinel.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath, logger)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(exitConfigError)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal runtime error", "error", err)
		os.Exit(exitRuntimeError)
	}
	os.Exit(exitOK)
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sink, err := audit.NewLogger(audit.Config{Output: audit.Output(cfg.Security.Audit.Output), Path: cfg.Security.Audit.Path})
	if err != nil {
		return fmt.Errorf("open audit sink: %w", err)
	}
	defer sink.Close()

	grant, err := cfg.Capabilities.Grant(cfg.Security.AllowedUsers)
	if err != nil {
		return fmt.Errorf("build capability grant: %w", err)
	}
	checker := capability.NewChecker(grant, sink)
	backend := platform.NewOSBackend()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	tools := tool.NewRegistry()
	tools.Register(tool.NewReadFileTool(checker, backend, cfg.Agent.MaxReadBytes))
	tools.Register(tool.NewWriteFileTool(checker, backend, 0))
	tools.Register(tool.NewListDirectoryTool(checker, backend))
	tools.Register(tool.NewRunCommandTool(checker, backend, 0))

	skillsDir := filepath.Join(filepath.Dir(configPathOrDefault()), "skills")
	skillMgr, err := skill.NewManager(skillsDir, grant, sink)
	if err != nil {
		return fmt.Errorf("load skills: %w", err)
	}
	for _, name := range skillMgr.Names() {
		logger.Info("skill discovered", "skill", name)
	}
	for _, t := range skillMgr.Tools() {
		tools.Register(t)
	}
	defer skillMgr.CloseAll()

	apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
	if apiKey == "" {
		return fmt.Errorf("environment variable %s is not set", cfg.LLM.APIKeyEnv)
	}
	provider, err := llm.NewAnthropicProvider(llm.AnthropicConfig{
		APIKey:    apiKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("construct llm provider: %w", err)
	}

	store := conversation.NewStore(cfg.Agent.HistoryCap)
	loop := orchestrator.NewLoop(provider, tools, store, sink, orchestrator.Config{
		MaxToolRounds: cfg.Agent.MaxToolRounds,
		System:        cfg.Agent.SystemPrompt,
	})

	connectors, err := buildConnectors(cfg)
	if err != nil {
		return fmt.Errorf("build connectors: %w", err)
	}
	byPlatform := map[string]connector.Connector{}
	for _, c := range connectors {
		byPlatform[c.PlatformName()] = c
	}

	handler := func(ctx context.Context, platform string, msg connector.IncomingMessage) {
		key := conversation.Key{Platform: platform, Chat: msg.ChatID}
		store.Append(key, conversation.Message{
			Role:      conversation.RoleUser,
			Blocks:    []conversation.Block{{Kind: conversation.BlockText, Text: msg.Text}},
			Timestamp: time.Now(),
		})
		m.RecordMessage(platform, "inbound")

		turnID := uuid.NewString()
		start := time.Now()
		outcome, err := loop.Run(ctx, key, turnID)
		if err != nil {
			logger.Error("turn failed", "platform", platform, "chat", msg.ChatID, "error", err)
			return
		}
		reason := "end_turn"
		if outcome.Fatal {
			reason = "fatal"
		}
		m.RecordTurn(platform, reason, time.Since(start))

		if c, ok := byPlatform[platform]; ok && outcome.Reply != "" {
			if err := c.SendMessage(ctx, msg.ChatID, outcome.Reply); err != nil {
				logger.Error("failed to send reply", "platform", platform, "chat", msg.ChatID, "error", err)
			} else {
				m.RecordMessage(platform, "outbound")
			}
		}
	}

	dispatcher := connector.NewDispatcher(connectors, handler, logger, cfg.Messaging.PollSecs)
	logger.Info("sentinel starting", "connectors", len(connectors), "tools", len(tools.Names()))
	dispatcher.Run(ctx)

	return nil
}

func buildConnectors(cfg *config.Config) ([]connector.Connector, error) {
	var out []connector.Connector

	if cfg.Messaging.Discord.Enabled {
		token := os.Getenv(cfg.Messaging.Discord.BotTokenEnv)
		if token == "" {
			return nil, fmt.Errorf("discord enabled but %s is not set", cfg.Messaging.Discord.BotTokenEnv)
		}
		c, err := discord.New(token)
		if err != nil {
			return nil, fmt.Errorf("discord: %w", err)
		}
		out = append(out, c)
	}

	if cfg.Messaging.Telegram.Enabled {
		token := os.Getenv(cfg.Messaging.Telegram.BotTokenEnv)
		if token == "" {
			return nil, fmt.Errorf("telegram enabled but %s is not set", cfg.Messaging.Telegram.BotTokenEnv)
		}
		c, err := telegram.New(token)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		out = append(out, c)
	}

	if cfg.Messaging.Slack.Enabled {
		token := os.Getenv(cfg.Messaging.Slack.BotTokenEnv)
		if token == "" {
			return nil, fmt.Errorf("slack enabled but %s is not set", cfg.Messaging.Slack.BotTokenEnv)
		}
		c, err := slack.New(token)
		if err != nil {
			return nil, fmt.Errorf("slack: %w", err)
		}
		out = append(out, c)
	}

	return out, nil
}

func configPathOrDefault() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return "sentinel.yaml"
}
