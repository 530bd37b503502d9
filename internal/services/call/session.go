package call

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tunermason/SC/internal/crypto"
	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/protocol/signaling"
)

// Timeouts bound the waits of a call.
type Timeouts struct {
	// Response is how long a caller waits for ringing after sending call.
	Response time.Duration
	// Answer is how long a caller waits for the callee to pick up.
	Answer time.Duration
	// Grace is how long Cleanup waits for background work.
	Grace time.Duration
}

// DefaultTimeouts returns the timeouts used when none are configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{Response: 10 * time.Second, Answer: 60 * time.Second, Grace: 4 * time.Second}
}

// Session is one call, incoming or outgoing.
type Session struct {
	contact  domain.Contact
	incoming bool
	timeouts Timeouts
	media    domain.MediaEngine
	log      *logrus.Entry

	onState    func(*Session, domain.CallState)
	onTerminal func(*Session)

	mu        sync.Mutex
	state     domain.CallState
	changed   chan struct{}
	ch        *signaling.Channel
	offer     string
	answer    string
	connected bool
	cancel    context.CancelFunc

	wg          sync.WaitGroup
	stop        chan struct{}
	releaseOnce sync.Once
}

func newSession(contact domain.Contact, incoming bool, initial domain.CallState, timeouts Timeouts) *Session {
	direction := "outgoing"
	if incoming {
		direction = "incoming"
	}
	return &Session{
		contact:  contact,
		incoming: incoming,
		timeouts: timeouts,
		state:    initial,
		changed:  make(chan struct{}),
		stop:     make(chan struct{}),
		cancel:   func() {},
		log: logrus.WithFields(logrus.Fields{
			"contact":   crypto.Fingerprint(contact.PublicKey),
			"direction": direction,
		}),
	}
}

// Contact returns the peer of the call.
func (s *Session) Contact() domain.Contact { return s.contact.Clone() }

// Incoming reports whether the peer placed the call.
func (s *Session) Incoming() bool { return s.incoming }

// State returns the current state.
func (s *Session) State() domain.CallState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Offer returns the offer sent or received.
func (s *Session) Offer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offer
}

// Answer returns the answer sent or received, once CONNECTED.
func (s *Session) Answer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answer
}

// RemoteAddr returns the peer's address once a stream is attached.
func (s *Session) RemoteAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch == nil {
		return ""
	}
	return s.ch.RemoteAddr().String()
}

// Await blocks until the state is one of want or terminal, or ctx ends.
func (s *Session) Await(ctx context.Context, want ...domain.CallState) (domain.CallState, error) {
	for {
		s.mu.Lock()
		st, changed := s.state, s.changed
		s.mu.Unlock()
		if st.IsTerminal() || slices.Contains(want, st) {
			return st, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// Wait blocks until the call reaches a terminal state or ctx ends.
func (s *Session) Wait(ctx context.Context) (domain.CallState, error) { return s.Await(ctx) }

// Accept answers a ringing incoming call.
func (s *Session) Accept(ctx context.Context) error {
	s.mu.Lock()
	st, ch, offer := s.state, s.ch, s.offer
	s.mu.Unlock()
	if !s.incoming || st != domain.CallRinging || ch == nil {
		return ErrInvalidState
	}

	answer, err := s.media.CreateAnswer(ctx, offer)
	if err != nil {
		s.fail(err)
		return err
	}
	if err := ch.Send(signaling.Connected(answer)); err != nil {
		s.fail(err)
		return err
	}
	s.mu.Lock()
	s.answer = answer
	s.mu.Unlock()
	if !s.fire(Event{Kind: EventAnswered}) {
		return ErrInvalidState
	}
	return nil
}

// Decline refuses a ringing incoming call.
func (s *Session) Decline() error {
	if !s.incoming || s.State() != domain.CallRinging {
		return ErrInvalidState
	}
	return s.Hangup()
}

// Hangup ends the call locally, telling the peer when a stream is open.
func (s *Session) Hangup() error {
	s.mu.Lock()
	st, ch := s.state, s.ch
	s.mu.Unlock()
	if st.IsTerminal() {
		return nil
	}
	s.cancelRun()

	var err error
	if ch != nil {
		err = ch.SendWithin(signaling.Dismissed(), s.timeouts.Grace)
	}
	s.fire(Event{Kind: EventDismissed})
	return err
}

// Cleanup ends the call if needed, releases its resources and waits up to
// the grace period for background work. It is safe to call repeatedly and
// from any goroutine.
func (s *Session) Cleanup() {
	_ = s.Hangup()
	s.release()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.timeouts.Grace):
		s.log.Warn("Call cleanup grace period elapsed")
	}
}

// fire applies ev and reports whether the state changed.
func (s *Session) fire(ev Event) bool {
	s.mu.Lock()
	from := s.state
	next, ok := Next(from, ev)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.state = next
	if next == domain.CallConnected {
		s.connected = true
	}
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"from": from.String(), "to": next.String()}).Info("Call state changed")
	if s.onState != nil {
		s.onState(s, next)
	}
	if next.IsTerminal() {
		s.release()
	}
	return true
}

func (s *Session) fail(err error) {
	st := StateForError(err)
	if s.fire(Event{Kind: EventFailed, Failure: st}) {
		s.log.WithFields(logrus.Fields{"state": st.String(), "error": err.Error()}).Warn("Call failed")
	}
}

// release closes the stream and the media engine and frees the slot, once.
func (s *Session) release() {
	s.releaseOnce.Do(func() {
		s.cancelRun()
		close(s.stop)

		s.mu.Lock()
		ch, media := s.ch, s.media
		s.mu.Unlock()
		if ch != nil {
			_ = ch.Close()
		}
		if media != nil {
			if err := media.Close(); err != nil {
				s.log.WithField("error", err.Error()).Debug("Media close failed")
			}
		}
		if s.onTerminal != nil {
			s.onTerminal(s)
		}
	})
}

func (s *Session) cancelRun() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	cancel()
}

// attach binds ch to the session unless the call already ended.
func (s *Session) attach(ch *signaling.Channel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsTerminal() {
		return false
	}
	s.ch = ch
	return true
}

// watchMedia turns a media disconnect into EventMediaDown.
func (s *Session) watchMedia() {
	defer s.wg.Done()
	select {
	case <-s.media.Disconnected():
		s.fire(Event{Kind: EventMediaDown})
	case <-s.stop:
	}
}

// runOutgoing places the call. own is the local identity.
func (s *Session) runOutgoing(ctx context.Context, est Establisher, own domain.Identity, settings domain.Settings) {
	defer s.wg.Done()

	offer, err := s.media.CreateOffer(ctx)
	if err != nil {
		s.fail(err)
		return
	}
	s.mu.Lock()
	s.offer = offer
	s.mu.Unlock()

	conn, err := est.Connect(ctx, s.contact, settings)
	if err != nil {
		s.fail(err)
		return
	}
	ch := signaling.NewChannel(conn, own, s.contact.PublicKey)
	if !s.attach(ch) {
		_ = conn.Close()
		return
	}
	s.fire(Event{Kind: EventDialed})

	if err := ch.Send(signaling.Call(offer)); err != nil {
		s.fail(err)
		return
	}

	msg, err := ch.ReceiveWithin(s.timeouts.Response)
	if err != nil {
		s.fail(err)
		return
	}
	if msg.Action != signaling.ActionRinging {
		s.fail(unexpected(msg))
		return
	}
	s.fire(Event{Kind: EventRinging})

	msg, err = ch.ReceiveWithin(s.timeouts.Answer)
	switch {
	case errors.Is(err, io.EOF):
		s.fire(Event{Kind: EventDismissed})
		return
	case errors.Is(err, os.ErrDeadlineExceeded):
		s.log.Info("Call not answered")
		_ = s.Hangup()
		return
	case err != nil:
		s.fail(err)
		return
	}

	switch msg.Action {
	case signaling.ActionConnected:
		if err := s.media.SetAnswer(msg.Answer); err != nil {
			s.fail(err)
			return
		}
		s.mu.Lock()
		s.answer = msg.Answer
		s.mu.Unlock()
		s.fire(Event{Kind: EventAnswered})
	case signaling.ActionDismissed:
		s.fire(Event{Kind: EventDismissed})
		return
	default:
		s.fail(unexpected(msg))
		return
	}

	s.listen(ch)
}

// listen handles what the peer sends once the call is set up.
func (s *Session) listen(ch *signaling.Channel) {
	for {
		msg, err := ch.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.fire(Event{Kind: EventDismissed})
			} else if !errors.Is(err, net.ErrClosed) {
				s.fail(err)
			}
			return
		}
		switch msg.Action {
		case signaling.ActionDismissed:
			s.fire(Event{Kind: EventDismissed})
			return
		case signaling.ActionDetach:
			s.log.Debug("Peer detached signaling stream")
			return
		default:
			s.fail(unexpected(msg))
			return
		}
	}
}

type unexpectedError struct{ action signaling.Action }

func (e unexpectedError) Error() string { return "unexpected action " + string(e.action) }

func unexpected(m signaling.Message) error { return unexpectedError{action: m.Action} }
