package signaling

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tunermason/SC/internal/crypto"
	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/protocol/packet"
)

var (
	// ErrAuthentication is returned when a frame was sealed by a key other
	// than the bound peer's.
	ErrAuthentication = errors.New("sender key mismatch")

	// ErrProtocol is returned for frames that decrypt but are not valid
	// signaling messages.
	ErrProtocol = errors.New("protocol error")
)

// Channel exchanges sealed messages with one peer over one connection.
type Channel struct {
	conn net.Conn
	pc   *packet.Conn
	own  domain.Identity

	mu    sync.Mutex
	peer  domain.PublicKey
	bound bool
}

// NewChannel returns a channel bound to peer, for the dialing side.
func NewChannel(conn net.Conn, own domain.Identity, peer domain.PublicKey) *Channel {
	return &Channel{conn: conn, pc: packet.NewConn(conn), own: own, peer: peer, bound: true}
}

// NewServerChannel returns an unbound channel; the first received frame binds
// its sender.
func NewServerChannel(conn net.Conn, own domain.Identity) *Channel {
	return &Channel{conn: conn, pc: packet.NewConn(conn), own: own}
}

// Peer returns the bound peer key and whether one is bound yet.
func (ch *Channel) Peer() (domain.PublicKey, bool) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.peer, ch.bound
}

// RemoteAddr returns the address of the other end.
func (ch *Channel) RemoteAddr() net.Addr { return ch.conn.RemoteAddr() }

// Send seals m for the bound peer and writes it as one frame.
func (ch *Channel) Send(m Message) error {
	peer, ok := ch.Peer()
	if !ok {
		return fmt.Errorf("%w: no peer bound", ErrProtocol)
	}
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if len(b)+crypto.Overhead > packet.MaxSize {
		return fmt.Errorf("%w: message too large", ErrProtocol)
	}
	sealed, err := crypto.Seal(b, peer, ch.own)
	if err != nil {
		return err
	}
	return ch.pc.WriteMessage(sealed)
}

// SendWithin is Send bounded by d. A zero d means no bound.
func (ch *Channel) SendWithin(m Message, d time.Duration) error {
	if d > 0 {
		if err := ch.conn.SetWriteDeadline(time.Now().Add(d)); err != nil {
			return err
		}
		defer func() { _ = ch.conn.SetWriteDeadline(time.Time{}) }()
	}
	return ch.Send(m)
}

// Receive reads, opens and decodes the next frame.
//
// Transport errors (io.EOF, timeouts) are returned unwrapped. Decryption
// failures wrap crypto.ErrCryptography.
func (ch *Channel) Receive() (Message, error) {
	b, err := ch.pc.ReadMessage()
	if err != nil {
		return Message{}, err
	}
	opened, err := crypto.Open(b, ch.own)
	if err != nil {
		return Message{}, err
	}

	ch.mu.Lock()
	switch {
	case !ch.bound:
		ch.peer, ch.bound = opened.Sender, true
	case ch.peer != opened.Sender:
		ch.mu.Unlock()
		return Message{}, ErrAuthentication
	}
	ch.mu.Unlock()

	return decodeMessage(opened.Plaintext)
}

// ReceiveWithin is Receive bounded by d. A zero d means no bound.
func (ch *Channel) ReceiveWithin(d time.Duration) (Message, error) {
	if d > 0 {
		if err := ch.conn.SetReadDeadline(time.Now().Add(d)); err != nil {
			return Message{}, err
		}
		defer func() { _ = ch.conn.SetReadDeadline(time.Time{}) }()
	}
	return ch.Receive()
}

// Close closes the underlying connection.
func (ch *Channel) Close() error { return ch.conn.Close() }
