package session

import "github.com/koinsera/botadmin/internal/models"

// EventType identifies a session transition
type EventType int

const (
	// EventLoggedIn follows a successful login or registration
	EventLoggedIn EventType = iota + 1
	// EventLoggedOut follows an explicit logout
	EventLoggedOut
	// EventUnauthorized follows a 401 that invalidated the session.
	// Hosts should navigate to their login screen.
	EventUnauthorized
)

func (t EventType) String() string {
	switch t {
	case EventLoggedIn:
		return "logged_in"
	case EventLoggedOut:
		return "logged_out"
	case EventUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers on every session transition
type Event struct {
	Type   EventType
	Server string
	// User is set for EventLoggedIn
	User *models.User
}

type subscriber struct {
	id int
	fn func(Event)
}

// Subscribe registers fn for session events and returns a function that
// removes it. fn runs on the goroutine that caused the transition, after
// the manager's lock is released, so it may call back into the manager.
func (m *Manager) Subscribe(fn func(Event)) (unsubscribe func()) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	m.nextSubID++
	id := m.nextSubID
	m.subs = append(m.subs, subscriber{id: id, fn: fn})

	return func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) publish(ev Event) {
	ev.Server = m.server

	m.subsMu.Lock()
	subs := make([]subscriber, len(m.subs))
	copy(subs, m.subs)
	m.subsMu.Unlock()

	m.logger.Debug().
		Str("event", ev.Type.String()).
		Int("subscribers", len(subs)).
		Msg("Publishing session event")

	for _, s := range subs {
		s.fn(ev)
	}
}
