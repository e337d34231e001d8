// Package notify broadcasts user-facing playback prompts to subscribers.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// Prompt is a user-facing nudge: an upgrade hint, a restriction notice.
type Prompt struct {
	ID     string
	Reason string
	At     time.Time
}

// Stream receives prompts for one subscriber.
type Stream interface {
	Send(Prompt) error
}

// Manager manages prompt subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]Stream
}

// NewManager creates a new prompt manager.
func NewManager() *Manager {
	return &Manager{subscriptions: make(map[string]Stream)}
}

// Subscribe adds a stream and returns its subscription ID.
func (m *Manager) Subscribe(s Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.subscriptions[id] = s
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, id)
}

// Broadcast delivers a prompt to every subscriber. Send failures are logged
// and do not stop delivery to the rest.
func (m *Manager) Broadcast(reason string) {
	p := Prompt{
		ID:     uuid.New().String(),
		Reason: reason,
		At:     time.Now(),
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, s := range m.subscriptions {
		if err := s.Send(p); err != nil {
			zlog.Warn().Msgf("notify: send to %s failed: %v", id, err)
		}
	}
}

// Prompt implements the coordinator's prompter by broadcasting.
func (m *Manager) Prompt(reason string) {
	m.Broadcast(reason)
}

// ChanStream adapts a channel into a Stream. Sends never block; a full
// channel drops the prompt.
type ChanStream chan Prompt

// Send delivers p to the channel if there is room.
func (c ChanStream) Send(p Prompt) error {
	select {
	case c <- p:
	default:
	}
	return nil
}
