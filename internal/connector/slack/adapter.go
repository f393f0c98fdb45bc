// Package slack implements the connector contract over the Slack RTM
// API: messages arrive on RTM's event channel and are buffered so
// PollMessages can drain them on the dispatcher's schedule.
package slack

import (
	"context"
	"time"

	"github.com/slack-go/slack"

	"github.com/LuperIQ/sentinel/internal/connector"
)

// maxMessageLen is a conservative Slack message size limit.
const maxMessageLen = 4000

// Adapter implements connector.Connector over the Slack RTM API.
type Adapter struct {
	api   *slack.Client
	rtm   *slack.RTM
	inbox chan connector.IncomingMessage
	botID string
}

// New authenticates with token, starts the RTM connection, and begins
// buffering incoming messages for PollMessages to drain.
func New(token string) (*Adapter, error) {
	api := slack.New(token)
	auth, err := api.AuthTest()
	if err != nil {
		return nil, &connector.Error{Op: "new", Message: "slack auth", Cause: err}
	}

	rtm := api.NewRTM()
	go rtm.ManageConnection()

	a := &Adapter{api: api, rtm: rtm, inbox: make(chan connector.IncomingMessage, 256), botID: auth.UserID}
	go a.consume()
	return a, nil
}

func (a *Adapter) consume() {
	for evt := range a.rtm.IncomingEvents {
		msg, ok := evt.Data.(*slack.MessageEvent)
		if !ok || msg.User == "" || msg.User == a.botID {
			continue
		}
		incoming := connector.IncomingMessage{
			ChatID:   msg.Channel,
			UserID:   msg.User,
			Username: msg.Username,
			Text:     msg.Text,
		}
		select {
		case a.inbox <- incoming:
		default:
		}
	}
}

// PollMessages drains whatever the RTM connection has buffered,
// waiting briefly for at least one message before returning empty.
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
		if _, _, err := a.api.PostMessageContext(ctx, chatID, slack.MsgOptionText(chunk, false)); err != nil {
			return &connector.Error{Op: "send_message", Message: "slack", Cause: err}
		}
	}
	return nil
}

func (a *Adapter) SendMessageGetID(ctx context.Context, chatID, text string) (string, error) {
	chunks := connector.SplitMessage(text, maxMessageLen)
	var lastTS string
	for _, chunk := range chunks {
		_, ts, err := a.api.PostMessageContext(ctx, chatID, slack.MsgOptionText(chunk, false))
		if err != nil {
			return "", &connector.Error{Op: "send_message_get_id", Message: "slack", Cause: err}
		}
		lastTS = ts
	}
	return lastTS, nil
}

func (a *Adapter) EditMessageText(ctx context.Context, chatID, messageID, text string) error {
	if _, _, _, err := a.api.UpdateMessageContext(ctx, chatID, messageID, slack.MsgOptionText(text, false)); err != nil {
		return &connector.Error{Op: "edit_message_text", Message: "slack", Cause: err}
	}
	return nil
}

func (a *Adapter) PlatformName() string { return "slack" }

// Close disconnects the RTM session.
func (a *Adapter) Close() error {
	return a.rtm.Disconnect()
}
