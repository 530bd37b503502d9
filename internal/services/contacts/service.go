package contacts

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tunermason/SC/internal/crypto"
	"github.com/tunermason/SC/internal/domain"
)

// maxEvents bounds the call history; the oldest entries are dropped.
const maxEvents = 500

// Service is the in-memory database plus write-through persistence.
type Service struct {
	store      domain.DatabaseStore
	passphrase string

	mu sync.RWMutex
	db domain.Database
}

// Open loads the database from store.
func Open(store domain.DatabaseStore, passphrase string) (*Service, error) {
	db, err := store.LoadDatabase(passphrase)
	if err != nil {
		return nil, err
	}
	for i := range db.Contacts {
		db.Contacts[i].State = domain.StatePending
	}
	return &Service{store: store, passphrase: passphrase, db: db}, nil
}

// Settings returns a copy of the current settings.
func (s *Service) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Settings
}

// UpdateSettings applies fn to the settings and saves.
func (s *Service) UpdateSettings(fn func(*domain.Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.db.Settings
	fn(&s.db.Settings)
	if err := s.saveLocked(); err != nil {
		s.db.Settings = prev
		return err
	}
	return nil
}

// Contacts returns a copy of every contact.
func (s *Service) Contacts() []domain.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Contact, len(s.db.Contacts))
	for i, c := range s.db.Contacts {
		out[i] = c.Clone()
	}
	return out
}

// Lookup returns the contact with public key pub.
func (s *Service) Lookup(pub domain.PublicKey) (domain.Contact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(pub); i >= 0 {
		return s.db.Contacts[i].Clone(), true
	}
	return domain.Contact{}, false
}

// Find resolves a contact by exact name or by hex public key.
func (s *Service) Find(nameOrKey string) (domain.Contact, bool) {
	if pub, err := domain.ParsePublicKey(nameOrKey); err == nil {
		return s.Lookup(pub)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.db.Contacts {
		if strings.EqualFold(c.Name, nameOrKey) {
			return c.Clone(), true
		}
	}
	return domain.Contact{}, false
}

// Add validates and stores c.
func (s *Service) Add(c domain.Contact) (domain.Contact, error) {
	c, err := Validate(c)
	if err != nil {
		return c, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c.PublicKey == s.db.Settings.PublicKey {
		return c, errors.New("cannot add own public key as a contact")
	}
	for _, existing := range s.db.Contacts {
		if existing.PublicKey == c.PublicKey || strings.EqualFold(existing.Name, c.Name) {
			return c, ErrDuplicateContact
		}
	}
	s.db.Contacts = append(s.db.Contacts, c)
	if err := s.saveLocked(); err != nil {
		s.db.Contacts = s.db.Contacts[:len(s.db.Contacts)-1]
		return c, err
	}
	return c.Clone(), nil
}

// Remove deletes the contact with key pub.
func (s *Service) Remove(pub domain.PublicKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(pub)
	if i < 0 {
		return ErrUnknownContact
	}
	prev := s.db.Contacts
	s.db.Contacts = append(append([]domain.Contact(nil), prev[:i]...), prev[i+1:]...)
	if err := s.saveLocked(); err != nil {
		s.db.Contacts = prev
		return err
	}
	return nil
}

// SetBlocked changes whether calls from pub are refused.
func (s *Service) SetBlocked(pub domain.PublicKey, blocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(pub)
	if i < 0 {
		return ErrUnknownContact
	}
	prev := s.db.Contacts[i].Blocked
	s.db.Contacts[i].Blocked = blocked
	if err := s.saveLocked(); err != nil {
		s.db.Contacts[i].Blocked = prev
		return err
	}
	return nil
}

// SetState records the reachability of pub.
func (s *Service) SetState(pub domain.PublicKey, state domain.ContactState) {
	s.SetStates(map[domain.PublicKey]domain.ContactState{pub: state})
}

// SetStates records several reachability results at once.
func (s *Service) SetStates(states map[domain.PublicKey]domain.ContactState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.db.Contacts {
		if st, ok := states[s.db.Contacts[i].PublicKey]; ok {
			s.db.Contacts[i].State = st
		}
	}
}

// SetLastWorkingAddress caches the host:port that last reached pub.
func (s *Service) SetLastWorkingAddress(pub domain.PublicKey, addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(pub); i >= 0 {
		s.db.Contacts[i].LastWorkingAddress = addr
	}
}

// RecordEvent appends ev to the call history and saves.
func (s *Service) RecordEvent(ev domain.Event) error {
	if ev.Date.IsZero() {
		ev.Date = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db.Events = append(s.db.Events, ev)
	if n := len(s.db.Events); n > maxEvents {
		s.db.Events = append([]domain.Event(nil), s.db.Events[n-maxEvents:]...)
	}
	return s.saveLocked()
}

// Events returns the call history, oldest first.
func (s *Service) Events() []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Event(nil), s.db.Events...)
}

// ClearEvents drops the call history.
func (s *Service) ClearEvents() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.db.Events
	s.db.Events = nil
	if err := s.saveLocked(); err != nil {
		s.db.Events = prev
		return err
	}
	return nil
}

func (s *Service) indexLocked(pub domain.PublicKey) int {
	for i := range s.db.Contacts {
		if s.db.Contacts[i].PublicKey == pub {
			return i
		}
	}
	return -1
}

func (s *Service) saveLocked() error {
	if err := s.store.SaveDatabase(s.passphrase, s.db); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "saveLocked",
			"owner":    crypto.Fingerprint(s.db.Settings.PublicKey),
			"error":    err.Error(),
		}).Error("Failed to save database")
		return err
	}
	return nil
}

// Compile-time assertions.
var (
	_ domain.ContactBook   = (*Service)(nil)
	_ domain.EventRecorder = (*Service)(nil)
)
