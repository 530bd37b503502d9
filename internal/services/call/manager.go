package call

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/protocol/signaling"
)

// Establisher opens a stream to a contact. *connect.Service satisfies it.
type Establisher interface {
	Connect(ctx context.Context, contact domain.Contact, settings domain.Settings) (net.Conn, error)
}

// Config holds the collaborators of a Manager.
type Config struct {
	Identity    domain.Identity
	Settings    func() domain.Settings
	Establisher Establisher
	Media       domain.MediaProvider
	// Events receives one history entry per finished call; may be nil.
	Events   domain.EventRecorder
	Timeouts Timeouts

	// OnIncoming is called in its own goroutine for each ringing incoming call.
	OnIncoming func(*Session)
	// OnState is called after every transition of every call.
	OnState func(*Session, domain.CallState)
}

// Manager owns the current-call slot.
type Manager struct {
	cfg Config

	mu      sync.Mutex
	current *Session
}

// NewManager returns a Manager with an empty slot.
func NewManager(cfg Config) *Manager {
	if cfg.Timeouts == (Timeouts{}) {
		cfg.Timeouts = DefaultTimeouts()
	}
	if cfg.Settings == nil {
		cfg.Settings = domain.DefaultSettings
	}
	return &Manager{cfg: cfg}
}

// Current returns the active call, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Dial starts an outgoing call to contact and returns immediately. The call
// runs until it reaches a terminal state or ctx is cancelled.
func (m *Manager) Dial(ctx context.Context, contact domain.Contact) (*Session, error) {
	s := m.newSession(contact, false, domain.CallWaiting)
	if !m.claim(s) {
		return nil, ErrBusy
	}

	settings := m.cfg.Settings()
	media, err := m.cfg.Media.NewMedia(settings)
	if err != nil {
		s.fail(err)
		return s, nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.media, s.cancel = media, cancel
	s.mu.Unlock()

	s.wg.Add(2)
	go s.watchMedia()
	go s.runOutgoing(runCtx, m.cfg.Establisher, m.cfg.Identity, settings)
	return s, nil
}

// Incoming takes over an authenticated channel whose first frame was
// call{offer}. It returns ErrBusy without touching the channel when another
// call is active.
func (m *Manager) Incoming(ch *signaling.Channel, contact domain.Contact, offer string) (*Session, error) {
	s := m.newSession(contact, true, domain.CallConnecting)
	s.offer = offer
	s.ch = ch
	if !m.claim(s) {
		return nil, ErrBusy
	}

	media, err := m.cfg.Media.NewMedia(m.cfg.Settings())
	if err != nil {
		s.fail(err)
		return s, err
	}
	s.mu.Lock()
	s.media = media
	s.mu.Unlock()

	if err := ch.Send(signaling.Ringing()); err != nil {
		s.fail(err)
		return s, err
	}
	s.fire(Event{Kind: EventRinging})

	s.wg.Add(2)
	go s.watchMedia()
	go func() {
		defer s.wg.Done()
		s.listen(ch)
	}()

	if m.cfg.OnIncoming != nil {
		go m.cfg.OnIncoming(s)
	}
	return s, nil
}

// Shutdown hangs up the active call, if any.
func (m *Manager) Shutdown() {
	if s := m.Current(); s != nil {
		s.Cleanup()
	}
}

func (m *Manager) newSession(contact domain.Contact, incoming bool, initial domain.CallState) *Session {
	s := newSession(contact, incoming, initial, m.cfg.Timeouts)
	s.onState = m.cfg.OnState
	s.onTerminal = m.finish
	return s
}

// claim occupies the slot with s if it is free, in one step.
func (m *Manager) claim(s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return false
	}
	m.current = s
	return true
}

// finish frees the slot held by s and records the call.
func (m *Manager) finish(s *Session) {
	m.mu.Lock()
	if m.current == s {
		m.current = nil
	}
	m.mu.Unlock()

	if m.cfg.Events == nil {
		return
	}
	ev := domain.Event{
		PublicKey: s.contact.PublicKey,
		Address:   s.RemoteAddr(),
		Type:      eventType(s),
		Date:      time.Now(),
	}
	if err := m.cfg.Events.RecordEvent(ev); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "finish",
			"error":    err.Error(),
		}).Warn("Failed to record call event")
	}
}

func eventType(s *Session) domain.EventType {
	s.mu.Lock()
	st, connected := s.state, s.connected
	s.mu.Unlock()

	switch {
	case s.incoming && connected:
		return domain.EventIncomingAccepted
	case s.incoming && st.IsError():
		return domain.EventIncomingError
	case s.incoming:
		return domain.EventIncomingMissed
	case connected:
		return domain.EventOutgoingAccepted
	case st.IsError():
		return domain.EventOutgoingError
	default:
		return domain.EventOutgoingMissed
	}
}
