package server_test

import (
	"context"
	"crypto/rand"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunermason/SC/internal/crypto"
	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/protocol/packet"
	"github.com/tunermason/SC/internal/protocol/signaling"
	"github.com/tunermason/SC/internal/server"
	"github.com/tunermason/SC/internal/services/call"
	"github.com/tunermason/SC/internal/services/contacts"
	"github.com/tunermason/SC/internal/store"
)

func keyPair(t *testing.T) domain.Identity {
	t.Helper()
	id, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return id
}

type idleMedia struct{ down chan struct{} }

func (idleMedia) CreateOffer(context.Context) (string, error)          { return "offer", nil }
func (idleMedia) CreateAnswer(context.Context, string) (string, error) { return "answer", nil }
func (idleMedia) SetAnswer(string) error                               { return nil }
func (m idleMedia) Disconnected() <-chan struct{}                      { return m.down }
func (idleMedia) Close() error                                         { return nil }

type idleProvider struct{}

func (idleProvider) NewMedia(domain.Settings) (domain.MediaEngine, error) {
	return idleMedia{down: make(chan struct{})}, nil
}

type fixture struct {
	bob   domain.Identity
	book  *contacts.Service
	calls *call.Manager
	srv   *server.Server
	addr  string
}

func newFixture(t *testing.T, blockUnknown bool, est server.Establisher) *fixture {
	t.Helper()
	bob := keyPair(t)

	st := store.NewDatabaseFileStore(t.TempDir())
	db := domain.Database{Settings: domain.DefaultSettings()}
	db.Settings.PublicKey = bob.PublicKey
	db.Settings.SecretKey = bob.SecretKey
	db.Settings.BlockUnknown = blockUnknown
	require.NoError(t, st.SaveDatabase("", db))
	book, err := contacts.Open(st, "")
	require.NoError(t, err)

	calls := call.NewManager(call.Config{
		Identity: bob,
		Settings: book.Settings,
		Media:    idleProvider{},
		Events:   book,
		Timeouts: call.Timeouts{Response: time.Second, Answer: 5 * time.Second, Grace: time.Second},
	})
	srv := server.New(server.Config{
		Identity:          bob,
		Contacts:          book,
		Settings:          book.Settings,
		Calls:             calls,
		Establisher:       est,
		FirstFrameTimeout: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	ln, err := server.Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		calls.Shutdown()
		cancel()
		assert.NoError(t, <-served)
	})

	return &fixture{bob: bob, book: book, calls: calls, srv: srv, addr: ln.Addr().String()}
}

func (f *fixture) addContact(t *testing.T, name string) domain.Identity {
	t.Helper()
	id := keyPair(t)
	_, err := f.book.Add(domain.Contact{Name: name, PublicKey: id.PublicKey})
	require.NoError(t, err)
	return id
}

func (f *fixture) dial(t *testing.T, from domain.Identity) *signaling.Channel {
	t.Helper()
	conn, err := net.Dial("tcp", f.addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return signaling.NewChannel(conn, from, f.bob.PublicKey)
}

func (f *fixture) state(t *testing.T, pub domain.PublicKey) domain.ContactState {
	t.Helper()
	c, ok := f.book.Lookup(pub)
	require.True(t, ok)
	return c.State
}

func TestPing_RepliesPongAndMarksOnline(t *testing.T) {
	f := newFixture(t, false, nil)
	alice := f.addContact(t, "alice")

	ch := f.dial(t, alice)
	require.NoError(t, ch.Send(signaling.Ping()))
	reply, err := ch.ReceiveWithin(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, signaling.ActionPong, reply.Action)

	c, ok := f.book.Lookup(alice.PublicKey)
	require.True(t, ok)
	assert.Equal(t, domain.StateOnline, c.State)
	assert.Equal(t, "127.0.0.1:10001", c.LastWorkingAddress)
}

func TestStatusChangeOffline_MarksContactOffline(t *testing.T) {
	f := newFixture(t, false, nil)
	alice := f.addContact(t, "alice")
	f.book.SetState(alice.PublicKey, domain.StateOnline)

	ch := f.dial(t, alice)
	require.NoError(t, ch.Send(signaling.StatusChange(signaling.StatusOffline)))
	_, err := ch.ReceiveWithin(2 * time.Second)
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, domain.StateOffline, f.state(t, alice.PublicKey))
}

func TestCall_RingsAndDeclinesSecondCallerWhileBusy(t *testing.T) {
	f := newFixture(t, false, nil)
	alice := f.addContact(t, "alice")
	carol := f.addContact(t, "carol")

	first := f.dial(t, alice)
	require.NoError(t, first.Send(signaling.Call("alice-offer")))
	reply, err := first.ReceiveWithin(2 * time.Second)
	require.NoError(t, err)
	require.Equal(t, signaling.ActionRinging, reply.Action)

	current := f.calls.Current()
	require.NotNil(t, current)
	assert.Equal(t, domain.CallRinging, current.State())
	assert.Equal(t, "alice-offer", current.Offer())

	second := f.dial(t, carol)
	require.NoError(t, second.Send(signaling.Call("carol-offer")))
	reply, err = second.ReceiveWithin(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, signaling.ActionDismissed, reply.Action)

	assert.Same(t, current, f.calls.Current())
	assert.Equal(t, alice.PublicKey, f.calls.Current().Contact().PublicKey)
}

func TestCall_BlockedContactIsDeclined(t *testing.T) {
	f := newFixture(t, false, nil)
	alice := f.addContact(t, "alice")
	require.NoError(t, f.book.SetBlocked(alice.PublicKey, true))

	ch := f.dial(t, alice)
	require.NoError(t, ch.Send(signaling.Call("offer")))
	reply, err := ch.ReceiveWithin(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, signaling.ActionDismissed, reply.Action)
	assert.Nil(t, f.calls.Current())
}

func TestInvalidMessage_BlockPolicyStillApplies(t *testing.T) {
	tests := []struct {
		name    string
		blocked bool
		want    signaling.Action
	}{
		{name: "blocked contact is declined", blocked: true, want: signaling.ActionDismissed},
		{name: "allowed contact is dropped", blocked: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false, nil)
			mallory := f.addContact(t, "mallory")
			require.NoError(t, f.book.SetBlocked(mallory.PublicKey, tt.blocked))

			ch := f.dial(t, mallory)
			require.NoError(t, ch.Send(signaling.Message{Action: signaling.ActionCall}))
			reply, err := ch.ReceiveWithin(2 * time.Second)
			if tt.want == "" {
				assert.ErrorIs(t, err, io.EOF)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, reply.Action)
			}
			assert.Nil(t, f.calls.Current())
		})
	}
}

func TestInvalidMessage_UnknownSenderBlocked(t *testing.T) {
	f := newFixture(t, true, nil)

	ch := f.dial(t, keyPair(t))
	require.NoError(t, ch.Send(signaling.Message{Action: signaling.ActionStatusChange}))
	reply, err := ch.ReceiveWithin(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, signaling.ActionDismissed, reply.Action)
}

func TestCall_UnknownSender(t *testing.T) {
	tests := []struct {
		name         string
		blockUnknown bool
		want         signaling.Action
	}{
		{name: "allowed", blockUnknown: false, want: signaling.ActionRinging},
		{name: "blocked", blockUnknown: true, want: signaling.ActionDismissed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.blockUnknown, nil)
			stranger := keyPair(t)

			ch := f.dial(t, stranger)
			require.NoError(t, ch.Send(signaling.Call("offer")))
			reply, err := ch.ReceiveWithin(2 * time.Second)
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply.Action)

			current := f.calls.Current()
			if tt.blockUnknown {
				assert.Nil(t, current)
				return
			}
			require.NotNil(t, current)
			assert.True(t, current.Contact().IsEphemeral())
			assert.Equal(t, stranger.PublicKey, current.Contact().PublicKey)
			assert.Empty(t, f.book.Contacts())
		})
	}
}

func TestUndecryptableFrameIsDroppedSilently(t *testing.T) {
	f := newFixture(t, false, nil)

	conn, err := net.Dial("tcp", f.addr)
	require.NoError(t, err)
	defer conn.Close()

	junk := make([]byte, 200)
	_, err = rand.Read(junk)
	require.NoError(t, err)
	pc := packet.NewConn(conn)
	require.NoError(t, pc.WriteMessage(junk))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = pc.ReadMessage()
	assert.ErrorIs(t, err, io.EOF)
	assert.Nil(t, f.calls.Current())
}

// pipeEstablisher connects to in-process peers and records who was dialed.
type pipeEstablisher struct {
	mu     sync.Mutex
	dialed []domain.PublicKey
	peers  map[domain.PublicKey]domain.Identity
	got    chan signaling.Message
}

func (p *pipeEstablisher) Connect(_ context.Context, c domain.Contact, _ domain.Settings) (net.Conn, error) {
	p.mu.Lock()
	p.dialed = append(p.dialed, c.PublicKey)
	p.mu.Unlock()

	local, remote := net.Pipe()
	go func() {
		defer remote.Close()
		ch := signaling.NewServerChannel(remote, p.peers[c.PublicKey])
		if m, err := ch.Receive(); err == nil {
			p.got <- m
		}
	}()
	return local, nil
}

func TestShutdown_AnnouncesOfflineToReachableContacts(t *testing.T) {
	est := &pipeEstablisher{peers: map[domain.PublicKey]domain.Identity{}, got: make(chan signaling.Message, 8)}
	f := newFixture(t, false, est)

	alice := f.addContact(t, "alice")
	carol := f.addContact(t, "carol")
	dave := f.addContact(t, "dave")
	for _, id := range []domain.Identity{alice, carol, dave} {
		est.peers[id.PublicKey] = id
	}
	f.book.SetState(carol.PublicKey, domain.StateOffline)
	f.book.SetState(dave.PublicKey, domain.StateOnline)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.srv.Shutdown(ctx)

	for i := 0; i < 2; i++ {
		select {
		case m := <-est.got:
			assert.Equal(t, signaling.StatusChange(signaling.StatusOffline), m)
		case <-ctx.Done():
			t.Fatal("offline notification not delivered")
		}
	}

	est.mu.Lock()
	defer est.mu.Unlock()
	assert.ElementsMatch(t, []domain.PublicKey{alice.PublicKey, dave.PublicKey}, est.dialed)

	_, err := net.DialTimeout("tcp", f.addr, time.Second)
	assert.Error(t, err)
}

func TestShutdown_WhileConnectionsArrive(t *testing.T) {
	f := newFixture(t, false, nil)
	alice := f.addContact(t, "alice")

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				conn, err := net.DialTimeout("tcp", f.addr, 200*time.Millisecond)
				if err != nil {
					return
				}
				ch := signaling.NewChannel(conn, alice, f.bob.PublicKey)
				_ = ch.SendWithin(signaling.Ping(), 200*time.Millisecond)
				_, _ = ch.ReceiveWithin(200 * time.Millisecond)
				_ = conn.Close()
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.srv.Shutdown(ctx)
	close(stop)
	wg.Wait()

	require.NoError(t, ctx.Err())
	_, err := net.DialTimeout("tcp", f.addr, time.Second)
	assert.Error(t, err)
}

func TestServe_AfterShutdownReturnsImmediately(t *testing.T) {
	srv := server.New(server.Config{Identity: keyPair(t)})
	srv.Shutdown(context.Background())

	ln, err := server.Listen(context.Background(), "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, srv.Serve(context.Background(), ln))

	_, err = ln.Accept()
	assert.ErrorIs(t, err, net.ErrClosed)
}
