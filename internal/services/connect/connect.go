package connect

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tunermason/SC/internal/crypto"
	"github.com/tunermason/SC/internal/domain"
)

// Dialer opens a stream to a host:port. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Service tries a contact's candidates until one connects.
type Service struct {
	resolver domain.AddressResolver
	contacts domain.ContactBook
	dialer   Dialer
}

// New returns a Service. contacts may be nil, in which case successful
// addresses are not remembered.
func New(resolver domain.AddressResolver, contacts domain.ContactBook, dialer Dialer) *Service {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	return &Service{resolver: resolver, contacts: contacts, dialer: dialer}
}

// Connect returns the first stream that opens, trying at most one attempt per
// candidate. On failure the error is a *ConnectError.
func (s *Service) Connect(
	ctx context.Context,
	contact domain.Contact,
	settings domain.Settings,
) (net.Conn, error) {
	candidates := s.resolver.Candidates(contact, settings.UseNeighborTable)
	if len(candidates) == 0 {
		return nil, &ConnectError{Class: ClassNoCandidates}
	}

	perAttempt := settings.ConnectTimeoutDuration()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(len(candidates))*perAttempt)
	defer cancel()

	log := logrus.WithFields(logrus.Fields{
		"function": "Connect",
		"contact":  crypto.Fingerprint(contact.PublicKey),
	})

	fail := &ConnectError{Class: ClassNoCandidates}
	for _, addr := range candidates {
		if ctx.Err() != nil {
			break
		}
		fail.Attempts++

		attemptCtx, cancelAttempt := context.WithTimeout(ctx, perAttempt)
		conn, err := s.dialer.DialContext(attemptCtx, "tcp", addr)
		cancelAttempt()
		if err == nil {
			log.WithField("address", addr).Debug("Connected")
			if s.contacts != nil {
				s.contacts.SetLastWorkingAddress(contact.PublicKey, addr)
			}
			return conn, nil
		}

		class := Classify(err)
		log.WithFields(logrus.Fields{
			"address": addr,
			"class":   class.String(),
			"error":   err.Error(),
		}).Debug("Connect attempt failed")

		if class >= fail.Class {
			fail.Class = class
			fail.Err = err
		}
	}
	if fail.Attempts == 0 {
		// The caller's context ended before the first attempt.
		fail.Class, fail.Err = ClassTimeout, ctx.Err()
	}
	return nil, fail
}
