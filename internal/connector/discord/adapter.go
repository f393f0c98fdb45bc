// Package discord implements the connector contract over discordgo's
// gateway websocket connection.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/LuperIQ/sentinel/internal/connector"
)

// maxMessageLen is Discord's per-message character limit.
const maxMessageLen = 2000

// Adapter implements connector.Connector over a discordgo session.
type Adapter struct {
	session *discordgo.Session
	inbox   chan connector.IncomingMessage
}

// New opens a Discord gateway session authenticated with token and
// begins buffering MESSAGE_CREATE events for PollMessages to drain.
func New(token string) (*Adapter, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages

	a := &Adapter{session: session, inbox: make(chan connector.IncomingMessage, 256)}
	session.AddHandler(a.onMessageCreate)

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("discord: open gateway: %w", err)
	}
	return a, nil
}

func (a *Adapter) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || (s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	msg := connector.IncomingMessage{
		ChatID:   m.ChannelID,
		UserID:   m.Author.ID,
		Username: m.Author.Username,
		Text:     m.Content,
	}
	select {
	case a.inbox <- msg:
	default:
	}
}

// PollMessages ignores timeoutSecs past a short drain window: the
// gateway connection is already pushing events continuously, so a poll
// just collects whatever has arrived since the last call.
func (a *Adapter) PollMessages(ctx context.Context, timeoutSecs int) ([]connector.IncomingMessage, error) {
	var out []connector.IncomingMessage

	select {
	case msg := <-a.inbox:
		out = append(out, msg)
	case <-ctx.Done():
		return out, ctx.Err()
	case <-time.After(200 * time.Millisecond):
		return out, nil
	}

	for {
		select {
		case msg := <-a.inbox:
			out = append(out, msg)
		default:
			return out, nil
		}
	}
}

func (a *Adapter) SendMessage(ctx context.Context, chatID, text string) error {
	for _, chunk := range connector.SplitMessage(text, maxMessageLen) {
		if _, err := a.session.ChannelMessageSend(chatID, chunk); err != nil {
			return &connector.Error{Op: "send_message", Message: "discord", Cause: err}
		}
	}
	return nil
}

func (a *Adapter) SendMessageGetID(ctx context.Context, chatID, text string) (string, error) {
	chunks := connector.SplitMessage(text, maxMessageLen)
	var lastID string
	for _, chunk := range chunks {
		sent, err := a.session.ChannelMessageSend(chatID, chunk)
		if err != nil {
			return "", &connector.Error{Op: "send_message_get_id", Message: "discord", Cause: err}
		}
		lastID = sent.ID
	}
	return lastID, nil
}

func (a *Adapter) EditMessageText(ctx context.Context, chatID, messageID, text string) error {
	if _, err := a.session.ChannelMessageEdit(chatID, messageID, text); err != nil {
		return &connector.Error{Op: "edit_message_text", Message: "discord", Cause: err}
	}
	return nil
}

func (a *Adapter) PlatformName() string { return "discord" }

// Close shuts down the gateway connection.
func (a *Adapter) Close() error {
	return a.session.Close()
}
