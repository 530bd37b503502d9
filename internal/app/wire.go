package app

import (
	"fmt"
	"net"
	"os"

	"github.com/tunermason/SC/internal/address"
	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/media"
	"github.com/tunermason/SC/internal/server"
	"github.com/tunermason/SC/internal/services/call"
	"github.com/tunermason/SC/internal/services/connect"
	"github.com/tunermason/SC/internal/services/contacts"
	"github.com/tunermason/SC/internal/services/identity"
	"github.com/tunermason/SC/internal/services/liveness"
	"github.com/tunermason/SC/internal/store"
)

// Wire bundles what every command needs before the database is unlocked.
type Wire struct {
	Config   Config
	Store    *store.DatabaseFileStore
	Identity *identity.Service
}

// NewWire creates the home directory and the store on top of it.
func NewWire(cfg Config) (*Wire, error) {
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}
	st := store.NewDatabaseFileStore(cfg.Home)
	return &Wire{Config: cfg, Store: st, Identity: identity.New(st)}, nil
}

// Hooks are application callbacks into the running services.
type Hooks struct {
	OnIncoming func(*call.Session)
	OnState    func(*call.Session, domain.CallState)
	OnSweep    func([]domain.Contact)
}

// Runtime is the unlocked dependency graph.
type Runtime struct {
	Self     domain.Identity
	Contacts *contacts.Service
	Resolver *address.Resolver
	Connect  *connect.Service
	Media    *media.Provider
	Calls    *call.Manager
	Liveness *liveness.Checker
	Server   *server.Server
}

// Open unlocks the database with passphrase and builds the runtime.
func (w *Wire) Open(passphrase string, hooks Hooks) (*Runtime, error) {
	self, err := w.Identity.LoadIdentity(passphrase)
	if err != nil {
		return nil, err
	}
	book, err := contacts.Open(w.Store, passphrase)
	if err != nil {
		return nil, err
	}

	resolver := address.New(w.Config.Port)
	est := connect.New(resolver, book, &net.Dialer{})
	provider := &media.Provider{ICEServers: w.Config.webrtcICEServers()}

	calls := call.NewManager(call.Config{
		Identity:    self,
		Settings:    book.Settings,
		Establisher: est,
		Media:       provider,
		Events:      book,
		Timeouts:    w.Config.Timeouts(),
		OnIncoming:  hooks.OnIncoming,
		OnState:     hooks.OnState,
	})

	checkerOpts := []liveness.Option{liveness.WithResponseTimeout(w.Config.PingTimeout())}
	if hooks.OnSweep != nil {
		checkerOpts = append(checkerOpts, liveness.WithNotify(hooks.OnSweep))
	}
	checker := liveness.New(self, book, est, book.Settings, checkerOpts...)

	srv := server.New(server.Config{
		Identity:          self,
		Contacts:          book,
		Settings:          book.Settings,
		Calls:             calls,
		Establisher:       est,
		Port:              w.Config.Port,
		FirstFrameTimeout: w.Config.FirstFrameTimeout,
	})

	return &Runtime{
		Self:     self,
		Contacts: book,
		Resolver: resolver,
		Connect:  est,
		Media:    provider,
		Calls:    calls,
		Liveness: checker,
		Server:   srv,
	}, nil
}

// ResolveContact finds a contact by name or public key hex.
func (r *Runtime) ResolveContact(nameOrKey string) (domain.Contact, error) {
	c, ok := r.Contacts.Find(nameOrKey)
	if !ok {
		return domain.Contact{}, fmt.Errorf("%w: %s", contacts.ErrUnknownContact, nameOrKey)
	}
	return c, nil
}
