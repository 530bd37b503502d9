package call_test

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/protocol/packet"
	"github.com/tunermason/SC/internal/protocol/signaling"
	"github.com/tunermason/SC/internal/services/call"
	"github.com/tunermason/SC/internal/services/connect"
)

// outgoingFixture places a call from alice to bob; the test plays bob.
type outgoingFixture struct {
	alice, bob domain.Identity
	manager    *call.Manager
	media      *fakeMedia
	events     *eventLog
	peer       *signaling.Channel
	conn       net.Conn
	session    *call.Session
}

func dialBob(t *testing.T) *outgoingFixture {
	t.Helper()
	f := &outgoingFixture{alice: keyPair(t), bob: keyPair(t), media: newFakeMedia(), events: &eventLog{}}
	client, server := tcpPair(t)

	f.manager = call.NewManager(call.Config{
		Identity:    f.alice,
		Establisher: fixedEstablisher{conn: client},
		Media:       mediaProvider{f.media},
		Events:      f.events,
		Timeouts:    fastTimeouts(),
	})
	f.conn = server
	f.peer = signaling.NewServerChannel(server, f.bob)

	s, err := f.manager.Dial(testContext(t), domain.Contact{Name: "bob", PublicKey: f.bob.PublicKey})
	require.NoError(t, err)
	f.session = s

	msg, err := f.peer.Receive()
	require.NoError(t, err)
	require.Equal(t, signaling.ActionCall, msg.Action)
	require.Equal(t, "offer-sdp", msg.Offer)
	return f
}

func (f *outgoingFixture) requireReleased(t *testing.T, event domain.EventType) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.manager.Current() == nil && f.media.closeCount() == 1 && len(f.events.types()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []domain.EventType{event}, f.events.types())
}

func TestOutgoing_RingingThenConnected(t *testing.T) {
	f := dialBob(t)
	ctx := testContext(t)

	require.NoError(t, f.peer.Send(signaling.Ringing()))
	st, err := f.session.Await(ctx, domain.CallRinging)
	require.NoError(t, err)
	assert.Equal(t, domain.CallRinging, st)

	require.NoError(t, f.peer.Send(signaling.Connected("X")))
	st, err = f.session.Await(ctx, domain.CallConnected)
	require.NoError(t, err)
	assert.Equal(t, domain.CallConnected, st)
	assert.Equal(t, "X", f.session.Answer())
	assert.Equal(t, "X", f.media.appliedAnswer())
	assert.Same(t, f.session, f.manager.Current())

	require.NoError(t, f.peer.Send(signaling.Dismissed()))
	st, err = f.session.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CallDismissed, st)
	f.requireReleased(t, domain.EventOutgoingAccepted)
}

func TestOutgoing_RingingThenDismissed(t *testing.T) {
	f := dialBob(t)

	require.NoError(t, f.peer.Send(signaling.Ringing()))
	require.NoError(t, f.peer.Send(signaling.Dismissed()))

	st, err := f.session.Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, domain.CallDismissed, st)
	f.requireReleased(t, domain.EventOutgoingMissed)
}

func TestOutgoing_NoResponseEndsInError(t *testing.T) {
	f := dialBob(t)

	start := time.Now()
	st, err := f.session.Wait(testContext(t))
	require.NoError(t, err)
	assert.True(t, st.IsError(), "got %s", st)
	assert.Equal(t, domain.CallErrorOther, st)
	assert.Less(t, time.Since(start), 2*time.Second)
	f.requireReleased(t, domain.EventOutgoingError)
}

func TestOutgoing_UnansweredIsHungUp(t *testing.T) {
	f := dialBob(t)
	require.NoError(t, f.peer.Send(signaling.Ringing()))

	msg, err := f.peer.Receive()
	require.NoError(t, err)
	assert.Equal(t, signaling.ActionDismissed, msg.Action)

	st, _ := f.session.Wait(testContext(t))
	assert.Equal(t, domain.CallDismissed, st)
}

func TestOutgoing_ClosedWhileRingingIsDismissed(t *testing.T) {
	f := dialBob(t)
	require.NoError(t, f.peer.Send(signaling.Ringing()))
	_, err := f.session.Await(testContext(t), domain.CallRinging)
	require.NoError(t, err)
	require.NoError(t, f.peer.Close())

	st, _ := f.session.Wait(testContext(t))
	assert.Equal(t, domain.CallDismissed, st)
}

func TestOutgoing_ResponderWithOtherKey(t *testing.T) {
	f := dialBob(t)
	mallory := keyPair(t)

	// Same stream, but sealed by a key that is not bob's.
	impostor := signaling.NewChannel(f.conn, mallory, f.alice.PublicKey)
	require.NoError(t, impostor.Send(signaling.Ringing()))

	st, _ := f.session.Wait(testContext(t))
	assert.Equal(t, domain.CallErrorAuthentication, st)
}

func TestOutgoing_UndecryptableResponse(t *testing.T) {
	f := dialBob(t)
	require.NoError(t, packet.NewConn(f.conn).WriteMessage(make([]byte, 128)))

	st, _ := f.session.Wait(testContext(t))
	assert.Equal(t, domain.CallErrorCryptography, st)
}

func TestOutgoing_UnexpectedAction(t *testing.T) {
	f := dialBob(t)
	require.NoError(t, f.peer.Send(signaling.Pong()))

	st, _ := f.session.Wait(testContext(t))
	assert.Equal(t, domain.CallErrorOther, st)
}

func TestOutgoing_DetachKeepsState(t *testing.T) {
	f := dialBob(t)
	ctx := testContext(t)
	require.NoError(t, f.peer.Send(signaling.Ringing()))
	require.NoError(t, f.peer.Send(signaling.Connected("X")))
	require.NoError(t, f.peer.Send(signaling.Detach()))
	_, err := f.session.Await(ctx, domain.CallConnected)
	require.NoError(t, err)

	// A dismissed after detach is no longer read.
	require.NoError(t, f.peer.Send(signaling.Dismissed()))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, domain.CallConnected, f.session.State())

	f.session.Cleanup()
	assert.Equal(t, domain.CallDismissed, f.session.State())
	f.requireReleased(t, domain.EventOutgoingAccepted)
}

func TestOutgoing_MediaDropEndsCall(t *testing.T) {
	f := dialBob(t)
	ctx := testContext(t)
	require.NoError(t, f.peer.Send(signaling.Ringing()))
	require.NoError(t, f.peer.Send(signaling.Connected("X")))
	_, err := f.session.Await(ctx, domain.CallConnected)
	require.NoError(t, err)

	close(f.media.down)
	st, _ := f.session.Wait(ctx)
	assert.Equal(t, domain.CallEnded, st)
	f.requireReleased(t, domain.EventOutgoingAccepted)
}

func TestOutgoing_CleanupIsIdempotent(t *testing.T) {
	f := dialBob(t)
	require.NoError(t, f.peer.Send(signaling.Ringing()))
	_, err := f.session.Await(testContext(t), domain.CallRinging)
	require.NoError(t, err)

	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			f.session.Cleanup()
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}
	f.session.Cleanup()
	assert.Equal(t, domain.CallDismissed, f.session.State())
	f.requireReleased(t, domain.EventOutgoingMissed)
}

func TestOutgoing_ConnectFailures(t *testing.T) {
	cases := map[connect.Class]domain.CallState{
		connect.ClassRefused:      domain.CallErrorConnectPort,
		connect.ClassUnknownHost:  domain.CallErrorUnknownHost,
		connect.ClassOther:        domain.CallErrorOther,
		connect.ClassTimeout:      domain.CallErrorNoConnection,
		connect.ClassNoCandidates: domain.CallErrorNoAddresses,
	}
	for class, want := range cases {
		media := newFakeMedia()
		m := call.NewManager(call.Config{
			Identity:    keyPair(t),
			Establisher: fixedEstablisher{err: &connect.ConnectError{Class: class}},
			Media:       mediaProvider{media},
			Timeouts:    fastTimeouts(),
		})
		s, err := m.Dial(testContext(t), domain.Contact{PublicKey: domain.PublicKey{1}})
		require.NoError(t, err)

		st, _ := s.Wait(testContext(t))
		assert.Equal(t, want, st, class.String())
		require.Eventually(t, func() bool { return m.Current() == nil && media.closeCount() == 1 },
			time.Second, 5*time.Millisecond)
	}
}

func TestDial_BusySlot(t *testing.T) {
	f := dialBob(t)

	_, err := f.manager.Dial(testContext(t), domain.Contact{PublicKey: domain.PublicKey{7}})
	assert.True(t, errors.Is(err, call.ErrBusy))
	assert.Same(t, f.session, f.manager.Current())

	f.manager.Shutdown()
	assert.Nil(t, f.manager.Current())
}

func TestStateForError(t *testing.T) {
	assert.Equal(t, domain.CallErrorAuthentication, call.StateForError(signaling.ErrAuthentication))
	assert.Equal(t, domain.CallErrorOther, call.StateForError(errors.New("boom")))
}
