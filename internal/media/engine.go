package media

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"

	"github.com/tunermason/SC/internal/domain"
)

// DefaultGatherTimeout bounds ICE candidate gathering.
const DefaultGatherTimeout = 10 * time.Second

// ErrClosed is returned when the peer connection is closed mid-negotiation.
var ErrClosed = errors.New("media session closed")

// Provider creates one Engine per call.
type Provider struct {
	// ICEServers are STUN/TURN servers; empty means host candidates only.
	ICEServers    []webrtc.ICEServer
	GatherTimeout time.Duration
	// Loopback includes loopback candidates, for same-host calls and tests.
	Loopback bool
}

var _ domain.MediaProvider = (*Provider)(nil)

// NewMedia returns a fresh Engine with an audio transceiver.
func (p *Provider) NewMedia(settings domain.Settings) (domain.MediaEngine, error) {
	return p.NewEngine(settings)
}

// NewEngine is NewMedia returning the concrete type.
func (p *Provider) NewEngine(settings domain.Settings) (*Engine, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("registering codecs: %w", err)
	}
	se := webrtc.SettingEngine{}
	se.SetIncludeLoopbackCandidate(p.Loopback)

	api := webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithSettingEngine(se))
	pc, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: p.ICEServers})
	if err != nil {
		return nil, fmt.Errorf("creating peer connection: %w", err)
	}
	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio); err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("adding audio transceiver: %w", err)
	}

	gather := p.GatherTimeout
	if gather == 0 {
		gather = DefaultGatherTimeout
	}
	e := &Engine{
		pc:        pc,
		gather:    gather,
		connected: make(chan struct{}),
		down:      make(chan struct{}),
		log: logrus.WithFields(logrus.Fields{
			"function":      "media",
			"no_processing": settings.NoAudioProcessing,
		}),
	}
	pc.OnICEConnectionStateChange(e.onICEState)
	return e, nil
}

// Engine wraps one PeerConnection.
type Engine struct {
	pc     *webrtc.PeerConnection
	gather time.Duration
	log    *logrus.Entry

	connectedOnce sync.Once
	connected     chan struct{}
	downOnce      sync.Once
	down          chan struct{}
	closeOnce     sync.Once
	closeErr      error
}

var _ domain.MediaEngine = (*Engine)(nil)

func (e *Engine) onICEState(state webrtc.ICEConnectionState) {
	e.log.WithField("state", state.String()).Debug("ICE state changed")
	switch state {
	case webrtc.ICEConnectionStateConnected, webrtc.ICEConnectionStateCompleted:
		e.connectedOnce.Do(func() { close(e.connected) })
	case webrtc.ICEConnectionStateDisconnected, webrtc.ICEConnectionStateFailed, webrtc.ICEConnectionStateClosed:
		e.downOnce.Do(func() { close(e.down) })
	}
}

// CreateOffer opens a control data channel and returns the complete offer SDP.
func (e *Engine) CreateOffer(ctx context.Context) (string, error) {
	if _, err := e.pc.CreateDataChannel("control", nil); err != nil {
		return "", fmt.Errorf("creating data channel: %w", err)
	}
	offer, err := e.pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("creating offer: %w", err)
	}
	return e.localDescription(ctx, offer)
}

// CreateAnswer applies the remote offer and returns the complete answer SDP.
func (e *Engine) CreateAnswer(ctx context.Context, offer string) (string, error) {
	remote := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offer}
	if err := e.pc.SetRemoteDescription(remote); err != nil {
		return "", fmt.Errorf("setting remote offer: %w", err)
	}
	answer, err := e.pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("creating answer: %w", err)
	}
	return e.localDescription(ctx, answer)
}

// SetAnswer applies the remote answer to a session we offered.
func (e *Engine) SetAnswer(answer string) error {
	remote := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: answer}
	if err := e.pc.SetRemoteDescription(remote); err != nil {
		return fmt.Errorf("setting remote answer: %w", err)
	}
	return nil
}

func (e *Engine) localDescription(ctx context.Context, desc webrtc.SessionDescription) (string, error) {
	gathered := webrtc.GatheringCompletePromise(e.pc)
	if err := e.pc.SetLocalDescription(desc); err != nil {
		return "", fmt.Errorf("setting local description: %w", err)
	}
	timer := time.NewTimer(e.gather)
	defer timer.Stop()
	select {
	case <-gathered:
	case <-timer.C:
		return "", fmt.Errorf("ICE gathering timed out after %s", e.gather)
	case <-ctx.Done():
		return "", ctx.Err()
	}
	local := e.pc.LocalDescription()
	if local == nil {
		return "", ErrClosed
	}
	return local.SDP, nil
}

// Connected is closed once ICE connects.
func (e *Engine) Connected() <-chan struct{} { return e.connected }

// Disconnected is closed when ICE disconnects, fails or is closed.
func (e *Engine) Disconnected() <-chan struct{} { return e.down }

// Close tears down the peer connection and closes Disconnected. Safe to call
// more than once.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closeErr = e.pc.Close()
		e.downOnce.Do(func() { close(e.down) })
	})
	return e.closeErr
}
