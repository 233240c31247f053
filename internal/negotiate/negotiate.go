// Package negotiate drives a WebRTC peer connection through the manual
// offer/answer exchange: tokens go out of band (URL, clipboard, QR), and
// the result is an open, reliable, ordered data channel handed to the
// protocol layer.
package negotiate

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/matejkoncal/p2p-arcade/internal/signal"
)

// State tracks one negotiation attempt.
type State int

const (
	StateNone State = iota
	StateCreatingOffer
	StateAwaitingCandidates
	StateAwaitingAnswer
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateCreatingOffer:
		return "creating-offer"
	case StateAwaitingCandidates:
		return "awaiting-candidates"
	case StateAwaitingAnswer:
		return "awaiting-answer"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Config holds negotiation settings.
type Config struct {
	// ICEServers are public STUN URLs used for candidate discovery.
	ICEServers []string

	// GatherTimeout bounds the wait for candidate gathering, which has no
	// hard completion guarantee on all networks. Gathering completing
	// early short-circuits the wait.
	GatherTimeout time.Duration

	ChannelLabel string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ICEServers: []string{
			"stun:stun.l.google.com:19302",
			"stun:stun1.l.google.com:19302",
		},
		GatherTimeout: 3 * time.Second,
		ChannelLabel:  "game",
	}
}

// Channel is the open data channel handed to the protocol layer. The
// default channel configuration is reliable and ordered, so messages
// arrive exactly as sent.
type Channel struct {
	dc *webrtc.DataChannel
}

// Send pushes one encoded message to the remote peer.
func (c *Channel) Send(data []byte) error {
	return c.dc.Send(data)
}

// Label returns the channel label.
func (c *Channel) Label() string {
	return c.dc.Label()
}

// Peer is one side of a session's transport. Create it, register the
// callbacks, then run exactly one of the host path (CreateOffer +
// AcceptAnswer) or the guest path (AcceptOffer).
type Peer struct {
	mu    sync.Mutex
	cfg   Config
	pc    *webrtc.PeerConnection
	state State

	onOpen    func(*Channel)
	onMessage func([]byte)
	onClose   func()
	closeOnce sync.Once
}

// New creates a peer connection configured with the public STUN servers
// from cfg. No network traffic happens until an offer or answer is made.
func New(cfg Config) (*Peer, error) {
	servers := make([]webrtc.ICEServer, 0, len(cfg.ICEServers))
	for _, u := range cfg.ICEServers {
		servers = append(servers, webrtc.ICEServer{URLs: []string{u}})
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: servers})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	p := &Peer{cfg: cfg, pc: pc, state: StateNone}

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Printf("📶 connection state: %s", state)
		switch state {
		case webrtc.PeerConnectionStateConnected:
			p.setState(StateConnected)
		case webrtc.PeerConnectionStateDisconnected,
			webrtc.PeerConnectionStateFailed,
			webrtc.PeerConnectionStateClosed:
			p.fireClose()
		}
	})

	return p, nil
}

// OnChannelOpen registers the open callback. Set before starting a path.
func (p *Peer) OnChannelOpen(fn func(*Channel)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onOpen = fn
}

// OnMessage registers the inbound message callback.
func (p *Peer) OnMessage(fn func(data []byte)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onMessage = fn
}

// OnChannelClose registers the close callback; it fires at most once.
func (p *Peer) OnChannelClose(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClose = fn
}

// CreateOffer runs the host path up to the out-of-band handoff: create
// the outbound channel, produce an offer, wait out candidate gathering
// and encode the finalized local description as a token.
func (p *Peer) CreateOffer(ctx context.Context) (string, error) {
	if err := p.transition(StateNone, StateCreatingOffer); err != nil {
		return "", err
	}

	dc, err := p.pc.CreateDataChannel(p.cfg.ChannelLabel, nil)
	if err != nil {
		return "", fmt.Errorf("create data channel: %w", err)
	}
	p.bind(dc)

	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("create offer: %w", err)
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return "", fmt.Errorf("set local description: %w", err)
	}

	if err := p.waitGather(ctx); err != nil {
		return "", err
	}

	token, err := signal.Encode(*p.pc.LocalDescription())
	if err != nil {
		return "", err
	}
	p.setState(StateAwaitingAnswer)
	return token, nil
}

// AcceptOffer runs the guest path: decode the host's offer token, accept
// the inbound channel, produce an answer and encode it as the token the
// user carries back to the host.
func (p *Peer) AcceptOffer(ctx context.Context, offerToken string) (string, error) {
	offer, err := signal.Decode(offerToken)
	if err != nil {
		return "", err
	}
	if offer.Type != webrtc.SDPTypeOffer {
		return "", fmt.Errorf("expected an offer token, got %s", offer.Type)
	}
	if err := p.transition(StateNone, StateCreatingOffer); err != nil {
		return "", err
	}

	p.pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		p.bind(dc)
	})

	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return "", fmt.Errorf("set remote description: %w", err)
	}

	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("create answer: %w", err)
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return "", fmt.Errorf("set local description: %w", err)
	}

	if err := p.waitGather(ctx); err != nil {
		return "", err
	}

	return signal.Encode(*p.pc.LocalDescription())
}

// AcceptAnswer completes the host path with the guest's pasted answer
// token. The channel transitions to open asynchronously afterward.
func (p *Peer) AcceptAnswer(answerToken string) error {
	answer, err := signal.Decode(answerToken)
	if err != nil {
		return err
	}
	if answer.Type != webrtc.SDPTypeAnswer {
		return fmt.Errorf("expected an answer token, got %s", answer.Type)
	}

	p.mu.Lock()
	if p.state != StateAwaitingAnswer {
		state := p.state
		p.mu.Unlock()
		return fmt.Errorf("no outstanding offer (state %s)", state)
	}
	p.mu.Unlock()

	if err := p.pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	return nil
}

// waitGather blocks until candidate gathering reports complete or the
// configured bound elapses, whichever happens first.
func (p *Peer) waitGather(ctx context.Context) error {
	p.setState(StateAwaitingCandidates)

	select {
	case <-webrtc.GatheringCompletePromise(p.pc):
	case <-time.After(p.cfg.GatherTimeout):
		log.Printf("⏱️  candidate gathering still running after %v, proceeding", p.cfg.GatherTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (p *Peer) bind(dc *webrtc.DataChannel) {
	dc.OnOpen(func() {
		log.Printf("✅ data channel %q open", dc.Label())
		p.setState(StateConnected)
		p.mu.Lock()
		fn := p.onOpen
		p.mu.Unlock()
		if fn != nil {
			fn(&Channel{dc: dc})
		}
	})

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		p.mu.Lock()
		fn := p.onMessage
		p.mu.Unlock()
		if fn != nil {
			fn(msg.Data)
		}
	})

	dc.OnClose(func() {
		p.fireClose()
	})
}

func (p *Peer) fireClose() {
	p.closeOnce.Do(func() {
		p.setState(StateClosed)
		p.mu.Lock()
		fn := p.onClose
		p.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}

// Close tears the transport down unconditionally. No shutdown handshake
// is attempted; the remote side observes a channel close.
func (p *Peer) Close() error {
	p.setState(StateClosed)
	return p.pc.Close()
}

// State returns the current negotiation state.
func (p *Peer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Peer) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateClosed {
		return
	}
	p.state = s
}

func (p *Peer) transition(from, to State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != from {
		return fmt.Errorf("negotiation already in state %s", p.state)
	}
	p.state = to
	return nil
}
