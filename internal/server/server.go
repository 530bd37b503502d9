package server

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tunermason/SC/internal/crypto"
	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/protocol/signaling"
	"github.com/tunermason/SC/internal/services/call"
)

const (
	// DefaultPort is the fixed signaling port.
	DefaultPort = 10001

	// DefaultFirstFrameTimeout bounds how long a new connection may stay silent.
	DefaultFirstFrameTimeout = 10 * time.Second
)

// CallHandler takes over connections that open with call{offer}.
// *call.Manager satisfies it.
type CallHandler interface {
	Incoming(ch *signaling.Channel, contact domain.Contact, offer string) (*call.Session, error)
}

// Establisher opens a stream to a contact. *connect.Service satisfies it.
type Establisher interface {
	Connect(ctx context.Context, contact domain.Contact, settings domain.Settings) (net.Conn, error)
}

// Config holds the collaborators of a Server.
type Config struct {
	Identity    domain.Identity
	Contacts    domain.ContactBook
	Settings    func() domain.Settings
	Calls       CallHandler
	Establisher Establisher

	// Port is recorded as the last working port of contacts that reach us.
	Port              int
	FirstFrameTimeout time.Duration
}

// Server is the signaling listener.
type Server struct {
	cfg Config

	mu      sync.Mutex
	ln      net.Listener
	closing bool
	// wg counts handlers; Add happens under mu while !closing.
	wg sync.WaitGroup
}

// New returns a Server; zero Config fields take defaults.
func New(cfg Config) *Server {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.FirstFrameTimeout == 0 {
		cfg.FirstFrameTimeout = DefaultFirstFrameTimeout
	}
	if cfg.Settings == nil {
		cfg.Settings = domain.DefaultSettings
	}
	return &Server{cfg: cfg}
}

// Listen opens the listening socket on addr with SO_REUSEADDR.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	return lc.Listen(ctx, "tcp", addr)
}

// ListenAndServe listens on addr and serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := Listen(ctx, addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx ends or ln is closed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.ln = ln
	s.mu.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()

	logrus.WithFields(logrus.Fields{
		"function": "Serve",
		"address":  ln.Addr().String(),
	}).Info("Signaling server listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			logrus.WithFields(logrus.Fields{
				"function": "Serve",
				"error":    err.Error(),
			}).Error("Accept failed")
			time.Sleep(50 * time.Millisecond)
			continue
		}
		if !s.track() {
			_ = conn.Close()
			return nil
		}
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

// track registers a handler unless Shutdown has started.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.wg.Add(1)
	return true
}

// handle serves one connection. It owns conn unless a call session takes it.
func (s *Server) handle(conn net.Conn) {
	log := logrus.WithFields(logrus.Fields{
		"function": "handle",
		"remote":   conn.RemoteAddr().String(),
	})

	ch := signaling.NewServerChannel(conn, s.cfg.Identity)
	msg, err := ch.ReceiveWithin(s.cfg.FirstFrameTimeout)
	sender, bound := ch.Peer()
	// A malformed message from an authenticated sender still goes through
	// the block policy; anything that did not decrypt is dropped silently.
	if err != nil && !(bound && errors.Is(err, signaling.ErrProtocol)) {
		log.WithField("error", err.Error()).Debug("Dropping connection")
		_ = conn.Close()
		return
	}
	log = log.WithFields(logrus.Fields{
		"contact": crypto.Fingerprint(sender),
		"action":  string(msg.Action),
	})

	contact, known := s.cfg.Contacts.Lookup(sender)
	settings := s.cfg.Settings()
	if (!known && settings.BlockUnknown) || (known && contact.Blocked) {
		log.Info("Refusing blocked sender")
		_ = ch.SendWithin(signaling.Dismissed(), s.cfg.FirstFrameTimeout)
		_ = conn.Close()
		return
	}
	if err != nil {
		log.WithField("error", err.Error()).Debug("Invalid message")
		_ = conn.Close()
		return
	}
	if known {
		if host, _, err := net.SplitHostPort(conn.RemoteAddr().String()); err == nil {
			s.cfg.Contacts.SetLastWorkingAddress(sender, net.JoinHostPort(host, strconv.Itoa(s.cfg.Port)))
		}
	} else {
		contact = domain.Contact{PublicKey: sender}
	}

	switch msg.Action {
	case signaling.ActionCall:
		_, err := s.cfg.Calls.Incoming(ch, contact, msg.Offer)
		if errors.Is(err, call.ErrBusy) {
			log.Info("Busy, declining call")
			_ = ch.SendWithin(signaling.Dismissed(), s.cfg.FirstFrameTimeout)
			_ = conn.Close()
		} else if err != nil {
			log.WithField("error", err.Error()).Warn("Incoming call failed")
		}
		return
	case signaling.ActionPing:
		s.cfg.Contacts.SetState(sender, domain.StateOnline)
		if err := ch.SendWithin(signaling.Pong(), s.cfg.FirstFrameTimeout); err != nil {
			log.WithField("error", err.Error()).Debug("Pong failed")
		}
	case signaling.ActionStatusChange:
		if msg.Status == signaling.StatusOffline {
			s.cfg.Contacts.SetState(sender, domain.StateOffline)
		}
	default:
		log.Debug("Ignoring unknown action")
	}
	_ = conn.Close()
}

// Shutdown stops accepting, waits for in-flight handlers and tells every
// contact not known to be offline that we are going offline. Each
// notification is independent and failures are ignored. ctx bounds the whole
// operation.
func (s *Server) Shutdown(ctx context.Context) {
	s.mu.Lock()
	s.closing = true
	ln := s.ln
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}

	handlersDone := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(handlersDone)
	}()
	select {
	case <-handlersDone:
	case <-ctx.Done():
	}

	if s.cfg.Establisher == nil {
		return
	}
	settings := s.cfg.Settings()
	var wg sync.WaitGroup
	for _, c := range s.cfg.Contacts.Contacts() {
		if c.State == domain.StateOffline {
			continue
		}
		wg.Add(1)
		go func(c domain.Contact) {
			defer wg.Done()
			s.sayGoodbye(ctx, c, settings)
		}(c)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logrus.WithField("function", "Shutdown").Warn("Offline notifications cut short")
	}
}

func (s *Server) sayGoodbye(ctx context.Context, c domain.Contact, settings domain.Settings) {
	log := logrus.WithFields(logrus.Fields{
		"function": "sayGoodbye",
		"contact":  crypto.Fingerprint(c.PublicKey),
	})
	conn, err := s.cfg.Establisher.Connect(ctx, c, settings)
	if err != nil {
		log.WithField("error", err.Error()).Debug("Contact unreachable")
		return
	}
	ch := signaling.NewChannel(conn, s.cfg.Identity, c.PublicKey)
	defer ch.Close()
	if err := ch.Send(signaling.StatusChange(signaling.StatusOffline)); err != nil {
		log.WithField("error", err.Error()).Debug("Offline notification failed")
	}
}
