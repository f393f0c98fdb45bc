package connector

import (
	"context"
	"log/slog"
)

// Handler processes one incoming message for a given connector.
type Handler func(ctx context.Context, platform string, msg IncomingMessage)

// Dispatcher polls its registered connectors round-robin, one poll per
// connector per cycle, so no single noisy platform starves the others.
// This is the cooperative, single-threaded scheduling the turn
// orchestrator assumes: at most one turn runs at a time.
type Dispatcher struct {
	connectors []Connector
	handler    Handler
	logger     *slog.Logger
	pollSecs   int
}

// NewDispatcher returns a Dispatcher over connectors, invoking handler
// for every message it receives.
func NewDispatcher(connectors []Connector, handler Handler, logger *slog.Logger, pollSecs int) *Dispatcher {
	if pollSecs <= 0 {
		pollSecs = 1
	}
	return &Dispatcher{connectors: connectors, handler: handler, logger: logger, pollSecs: pollSecs}
}

// Run polls every connector once per cycle until ctx is canceled. A
// connector error is logged and the connector is retried next cycle;
// it never stops the dispatcher.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		for _, c := range d.connectors {
			if ctx.Err() != nil {
				return
			}
			msgs, err := c.PollMessages(ctx, d.pollSecs)
			if err != nil {
				if d.logger != nil {
					d.logger.Error("connector poll failed", "platform", c.PlatformName(), "error", err)
				}
				continue
			}
			for _, msg := range msgs {
				d.handler(ctx, c.PlatformName(), msg)
			}
		}
	}
}
