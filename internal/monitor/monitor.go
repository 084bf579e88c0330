// Package monitor relays session lifecycle events to the TUI and records them
// in the cache.
package monitor

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/fragmede/sanctum/internal/cache"
	"github.com/fragmede/sanctum/internal/events"
	"github.com/fragmede/sanctum/internal/ui/messages"
)

// eventBuffer is how many events may queue before publishers block.
const eventBuffer = 16

// Sender delivers messages to the running program.  *tea.Program implements
// it.
type Sender interface {
	Send(msg tea.Msg)
}

// Monitor forwards bus events to the program and logs them to the cache.
type Monitor struct {
	bus    *events.Bus
	cache  *cache.DB
	logger *slog.Logger
	now    func() time.Time
}

// New creates a new event monitor.
func New(bus *events.Bus, db *cache.DB, logger *slog.Logger) *Monitor {
	return &Monitor{
		bus:    bus,
		cache:  db,
		logger: logger,
		now:    time.Now,
	}
}

// Run subscribes to the bus and relays events to program until ctx is done.
func (m *Monitor) Run(ctx context.Context, program Sender) error {
	m.Relay(m.bus.Channel(ctx, eventBuffer), program)

	return nil
}

// Relay records the events received from ch and forwards them to program,
// which may be nil, until ch is closed.
func (m *Monitor) Relay(ch <-chan events.Event, program Sender) {
	for e := range ch {
		m.record(e)
		if program != nil {
			program.Send(messages.SessionEventMsg{
				Topic: events.Topic(e),
				Event: e,
				Total: m.cache.EventCount(),
			})
		}
	}
}

func (m *Monitor) record(e events.Event) {
	var payload any
	switch e := e.(type) {
	case events.UserInitialized:
		payload = e.User
	case events.Authenticated:
		payload = e.Value
	}

	if err := m.cache.AddEvent(events.Topic(e), payload, m.now()); err != nil {
		m.logger.Warn("recording event", "topic", events.Topic(e), slogutil.KeyError, err)
	}
}
