package liveness

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tunermason/SC/internal/crypto"
	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/protocol/signaling"
	"github.com/tunermason/SC/internal/services/connect"
)

// DefaultResponseTimeout is how long a reachable contact has to answer ping.
const DefaultResponseTimeout = 5 * time.Second

// Establisher opens a stream to a contact. *connect.Service satisfies it.
type Establisher interface {
	Connect(ctx context.Context, contact domain.Contact, settings domain.Settings) (net.Conn, error)
}

// Checker runs liveness sweeps.
type Checker struct {
	identity domain.Identity
	contacts domain.ContactBook
	est      Establisher
	settings func() domain.Settings

	responseTimeout time.Duration
	notify          func([]domain.Contact)
}

// Option configures a Checker.
type Option func(*Checker)

// WithResponseTimeout bounds the wait for pong.
func WithResponseTimeout(d time.Duration) Option { return func(c *Checker) { c.responseTimeout = d } }

// WithNotify sets the function called once after every sweep.
func WithNotify(fn func([]domain.Contact)) Option { return func(c *Checker) { c.notify = fn } }

// New returns a Checker. settings is read at the start of every sweep.
func New(
	identity domain.Identity,
	contacts domain.ContactBook,
	est Establisher,
	settings func() domain.Settings,
	opts ...Option,
) *Checker {
	c := &Checker{
		identity:        identity,
		contacts:        contacts,
		est:             est,
		settings:        settings,
		responseTimeout: DefaultResponseTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Check classifies a single contact.
func (c *Checker) Check(ctx context.Context, contact domain.Contact, settings domain.Settings) domain.ContactState {
	log := logrus.WithFields(logrus.Fields{
		"function": "Check",
		"contact":  crypto.Fingerprint(contact.PublicKey),
	})

	conn, err := c.est.Connect(ctx, contact, settings)
	if err != nil {
		if connect.ClassOf(err) == connect.ClassRefused {
			return domain.StatePending
		}
		return domain.StateOffline
	}

	ch := signaling.NewChannel(conn, c.identity, contact.PublicKey)
	defer ch.Close()

	if err := ch.Send(signaling.Ping()); err != nil {
		log.WithField("error", err.Error()).Debug("Ping failed")
		return domain.StateBroken
	}
	msg, err := ch.ReceiveWithin(c.responseTimeout)
	if err != nil {
		log.WithField("error", err.Error()).Debug("No valid pong")
		return domain.StateBroken
	}
	if msg.Action != signaling.ActionPong {
		log.WithField("action", string(msg.Action)).Debug("Unexpected reply to ping")
		return domain.StateBroken
	}
	return domain.StateOnline
}

// Sweep checks every contact in cs, records the results in the contact book
// and notifies once. It returns cs with State filled in.
func (c *Checker) Sweep(ctx context.Context, cs []domain.Contact) []domain.Contact {
	settings := c.settings()
	out := make([]domain.Contact, len(cs))

	var wg sync.WaitGroup
	for i := range cs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			contact := cs[i].Clone()
			contact.State = c.Check(ctx, contact, settings)
			out[i] = contact
		}(i)
	}
	wg.Wait()

	states := make(map[domain.PublicKey]domain.ContactState, len(out))
	counts := make(map[string]int)
	for _, contact := range out {
		states[contact.PublicKey] = contact.State
		counts[contact.State.String()]++
	}
	if c.contacts != nil {
		c.contacts.SetStates(states)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Sweep",
		"contacts": len(out),
		"online":   counts["ONLINE"],
		"offline":  counts["OFFLINE"],
		"pending":  counts["PENDING"],
		"broken":   counts["BROKEN"],
	}).Info("Liveness sweep finished")

	if c.notify != nil {
		c.notify(out)
	}
	return out
}

// SweepAll sweeps every contact in the contact book.
func (c *Checker) SweepAll(ctx context.Context) []domain.Contact {
	return c.Sweep(ctx, c.contacts.Contacts())
}

// Run sweeps immediately and then every interval until ctx ends.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		c.SweepAll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
