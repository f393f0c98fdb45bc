// Package telegram implements the connector contract over the Bot API's
// getUpdates long-polling endpoint, which maps onto poll_messages more
// directly than any of the other platforms.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/LuperIQ/sentinel/internal/connector"
)

// maxMessageLen is Telegram's per-message character limit.
const maxMessageLen = 4096

// Adapter implements connector.Connector over the Telegram Bot API.
type Adapter struct {
	bot    *tgbot.Bot
	offset int
}

// New constructs a Telegram adapter authenticated with token. It does
// not start polling itself; PollMessages is called by the dispatcher.
func New(token string) (*Adapter, error) {
	b, err := tgbot.New(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return &Adapter{bot: b}, nil
}

// PollMessages issues one getUpdates long-poll call bounded by
// timeoutSecs and advances the offset past everything returned so the
// next call never sees the same update twice.
func (a *Adapter) PollMessages(ctx context.Context, timeoutSecs int) ([]connector.IncomingMessage, error) {
	updates, err := a.bot.GetUpdates(ctx, &tgbot.GetUpdatesParams{
		Offset:  a.offset,
		Timeout: timeoutSecs,
	})
	if err != nil {
		return nil, &connector.Error{Op: "poll_messages", Message: "telegram", Cause: err}
	}

	out := make([]connector.IncomingMessage, 0, len(updates))
	for _, u := range updates {
		if u.ID >= a.offset {
			a.offset = u.ID + 1
		}
		if u.Message == nil || u.Message.From == nil {
			continue
		}
		out = append(out, connector.IncomingMessage{
			ChatID:   strconv.FormatInt(u.Message.Chat.ID, 10),
			UserID:   strconv.FormatInt(u.Message.From.ID, 10),
			Username: u.Message.From.Username,
			Text:     u.Message.Text,
		})
	}
	return out, nil
}

func (a *Adapter) SendMessage(ctx context.Context, chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return &connector.Error{Op: "send_message", Message: "invalid chat id", Cause: err}
	}
	for _, chunk := range connector.SplitMessage(text, maxMessageLen) {
		if _, err := a.bot.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: id, Text: chunk}); err != nil {
			return &connector.Error{Op: "send_message", Message: "telegram", Cause: err}
		}
	}
	return nil
}

func (a *Adapter) SendMessageGetID(ctx context.Context, chatID, text string) (string, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return "", &connector.Error{Op: "send_message_get_id", Message: "invalid chat id", Cause: err}
	}
	chunks := connector.SplitMessage(text, maxMessageLen)
	var last *models.Message
	for _, chunk := range chunks {
		sent, err := a.bot.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: id, Text: chunk})
		if err != nil {
			return "", &connector.Error{Op: "send_message_get_id", Message: "telegram", Cause: err}
		}
		last = sent
	}
	if last == nil {
		return "", &connector.Error{Op: "send_message_get_id", Message: "no message sent"}
	}
	return strconv.Itoa(last.ID), nil
}

func (a *Adapter) EditMessageText(ctx context.Context, chatID, messageID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return &connector.Error{Op: "edit_message_text", Message: "invalid chat id", Cause: err}
	}
	msgID, err := strconv.Atoi(messageID)
	if err != nil {
		return &connector.Error{Op: "edit_message_text", Message: "invalid message id", Cause: err}
	}
	if _, err := a.bot.EditMessageText(ctx, &tgbot.EditMessageTextParams{ChatID: id, MessageID: msgID, Text: text}); err != nil {
		return &connector.Error{Op: "edit_message_text", Message: "telegram", Cause: err}
	}
	return nil
}

func (a *Adapter) PlatformName() string { return "telegram" }
