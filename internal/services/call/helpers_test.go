package call_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tunermason/SC/internal/crypto"
	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/services/call"
)

func keyPair(t *testing.T) domain.Identity {
	t.Helper()
	id, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return id
}

// tcpPair returns both ends of a loopback TCP connection.
func tcpPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			accepted <- nil
			return
		}
		accepted <- c
	}()
	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	server := <-accepted
	require.NotNil(t, server)
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return client, server
}

func fastTimeouts() call.Timeouts {
	return call.Timeouts{Response: 200 * time.Millisecond, Answer: 500 * time.Millisecond, Grace: time.Second}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// fixedEstablisher hands out one prepared connection, or fails with err.
type fixedEstablisher struct {
	conn net.Conn
	err  error
}

func (f fixedEstablisher) Connect(context.Context, domain.Contact, domain.Settings) (net.Conn, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.conn, nil
}

type fakeMedia struct {
	mu      sync.Mutex
	offer   string
	applied string
	closes  int
	down    chan struct{}
}

func newFakeMedia() *fakeMedia { return &fakeMedia{down: make(chan struct{})} }

func (f *fakeMedia) CreateOffer(context.Context) (string, error) { return "offer-sdp", nil }

func (f *fakeMedia) CreateAnswer(_ context.Context, offer string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offer = offer
	return "answer-sdp", nil
}

func (f *fakeMedia) SetAnswer(answer string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = answer
	return nil
}

func (f *fakeMedia) Disconnected() <-chan struct{} { return f.down }

func (f *fakeMedia) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeMedia) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func (f *fakeMedia) appliedAnswer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applied
}

func (f *fakeMedia) receivedOffer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offer
}

type mediaProvider struct{ media *fakeMedia }

func (p mediaProvider) NewMedia(domain.Settings) (domain.MediaEngine, error) { return p.media, nil }

type eventLog struct {
	mu     sync.Mutex
	events []domain.Event
}

func (l *eventLog) RecordEvent(ev domain.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *eventLog) types() []domain.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.EventType
	for _, ev := range l.events {
		out = append(out, ev.Type)
	}
	return out
}
