// Package session owns one peer's side of a running game session: the
// phase state machine, the host's simulation-and-broadcast tick, and the
// guest's snapshot cache. A single loop goroutine serializes every
// mutation: inbound channel messages, local input, countdown and
// simulation ticks all funnel through it, so session state needs no locks.
package session

import (
	"fmt"
	"log"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/matejkoncal/p2p-arcade/internal/game"
	"github.com/matejkoncal/p2p-arcade/internal/protocol"
)

// Sender pushes an encoded channel message to the remote peer.
type Sender interface {
	Send(data []byte) error
}

// SettingTickMS is the shared tunable carried by peer-setting messages:
// the simulation tick interval in milliseconds.
const SettingTickMS = "tick-ms"

// Config holds session tuning.
type Config struct {
	Game              string         // "pong" or "snake"
	TickInterval      time.Duration  // simulation step period
	CountdownFrom     int            // countdown start value
	CountdownInterval time.Duration  // one countdown tick
	Asset             *protocol.Asset // locally captured skin, sent on open
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Game:              "pong",
		TickInterval:      50 * time.Millisecond,
		CountdownFrom:     3,
		CountdownInterval: time.Second,
	}
}

// SnapshotFunc receives every frame the session wants rendered: the
// authoritative one on the host, the cached one on the guest.
type SnapshotFunc func(protocol.Snapshot)

type eventKind int

const (
	evMessage eventKind = iota
	evOpen
	evClosed
	evLocalInput
	evRestart
	evEnd
)

type event struct {
	kind eventKind
	data []byte
	dir  game.Direction
}

// Session is the per-session context threaded through negotiation,
// protocol handling and simulation. Role is assigned once at construction
// and never changes; all other fields are owned by the Run loop.
type Session struct {
	id   string
	role protocol.Role
	cfg  Config
	clk  clock.Clock
	send Sender
	g    game.Game

	phase     protocol.Phase
	countdown int
	tick      time.Duration

	cache  protocol.Snapshot // guest display cache, replaced wholesale
	assets map[protocol.Role]protocol.Asset

	simTicker *clock.Ticker
	cdTicker  *clock.Ticker

	events chan event
	done   chan struct{}

	onSnapshot SnapshotFunc
}

// New creates a session for the given role. The sender is the open (or
// about-to-open) data channel; clk is the wall clock in production and a
// mock in tests.
func New(role protocol.Role, cfg Config, send Sender, clk clock.Clock) (*Session, error) {
	if role != protocol.RoleHost && role != protocol.RoleGuest {
		return nil, fmt.Errorf("session needs an assigned role, got %q", role)
	}
	g, err := game.New(cfg.Game)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:     uuid.New().String()[:8],
		role:   role,
		cfg:    cfg,
		clk:    clk,
		send:   send,
		g:      g,
		phase:  protocol.PhaseIdle,
		tick:   cfg.TickInterval,
		assets: make(map[protocol.Role]protocol.Asset),
		events: make(chan event, 64),
		done:   make(chan struct{}),
	}
	s.cache.Game = cfg.Game
	s.cache.Phase = protocol.PhaseIdle
	return s, nil
}

// ID returns the short session identifier.
func (s *Session) ID() string { return s.id }

// Role returns the session's immutable role.
func (s *Session) Role() protocol.Role { return s.role }

// OnSnapshot registers the renderer callback. Set it before Run.
func (s *Session) OnSnapshot(fn SnapshotFunc) { s.onSnapshot = fn }

// Done is closed when the session loop has torn down and returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// HandleOpen tells the session its data channel opened. Safe from any
// goroutine.
func (s *Session) HandleOpen() { s.enqueue(event{kind: evOpen}) }

// HandleMessage feeds one inbound channel message into the session loop.
func (s *Session) HandleMessage(data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)
	s.enqueue(event{kind: evMessage, data: buf})
}

// HandleClose tells the session its data channel closed or failed.
func (s *Session) HandleClose() { s.enqueue(event{kind: evClosed}) }

// QueueLocalInput submits a locally produced control intent. The host
// stages it for its own paddle/snake; the guest forwards it to the host
// and never applies it locally.
func (s *Session) QueueLocalInput(dir game.Direction) {
	s.enqueue(event{kind: evLocalInput, dir: dir})
}

// Restart asks the host to start a new round from the terminal phase.
func (s *Session) Restart() { s.enqueue(event{kind: evRestart}) }

// End forces the session back to idle unconditionally.
func (s *Session) End() { s.enqueue(event{kind: evEnd}) }

func (s *Session) enqueue(ev event) {
	select {
	case <-s.done:
	case s.events <- ev:
	default:
		log.Printf("⚠️  [%s] event queue full, dropping event", s.id)
	}
}

// Run executes the session loop until the channel closes or End is
// called. It owns all session state; callers interact only through the
// enqueue methods above.
func (s *Session) Run() {
	defer close(s.done)

	for {
		var simC, cdC <-chan time.Time
		if s.simTicker != nil {
			simC = s.simTicker.C
		}
		if s.cdTicker != nil {
			cdC = s.cdTicker.C
		}

		select {
		case ev := <-s.events:
			switch ev.kind {
			case evOpen:
				s.handleOpen()
			case evMessage:
				s.handleMessage(ev.data)
			case evLocalInput:
				s.handleLocalInput(ev.dir)
			case evRestart:
				s.handleRestart()
			case evClosed:
				s.teardown("channel closed")
				return
			case evEnd:
				s.teardown("ended locally")
				return
			}
		case <-cdC:
			s.countdownTick()
		case <-simC:
			s.simTick()
		}
	}
}

// handleOpen moves idle→lobby. The host then immediately sends its
// captured asset and current settings and kicks off the countdown; the
// guest only announces its asset.
func (s *Session) handleOpen() {
	if s.phase != protocol.PhaseIdle {
		return
	}
	s.phase = protocol.PhaseLobby
	log.Printf("📡 [%s] channel open as %s", s.id, s.role)

	if s.cfg.Asset != nil {
		s.sendMsg(protocol.EncodeAsset(s.cfg.Asset))
	}
	if s.role == protocol.RoleHost {
		s.sendMsg(protocol.EncodeSetting(SettingTickMS, int(s.tick.Milliseconds())))
		s.startCountdown()
		return
	}
	s.cache.Phase = protocol.PhaseLobby
	s.publish(s.frame())
}

// startCountdown enters the countdown phase and arms its ticker. Host
// only; the guest learns about it through phase-transition messages.
func (s *Session) startCountdown() {
	s.phase = protocol.PhaseCountdown
	s.countdown = s.cfg.CountdownFrom
	s.broadcastPhase()

	s.stopCountdown()
	s.cdTicker = s.clk.Ticker(s.cfg.CountdownInterval)
	s.publish(s.frame())
}

// countdownTick decrements the shared countdown, broadcasting each value.
// Hitting zero flips the session to active and starts the simulation.
func (s *Session) countdownTick() {
	if s.phase != protocol.PhaseCountdown {
		return
	}
	s.countdown--
	if s.countdown > 0 {
		s.broadcastPhase()
		s.publish(s.frame())
		return
	}

	s.countdown = 0
	s.stopCountdown()
	s.phase = protocol.PhaseActive
	s.broadcastPhase()

	s.stopSim()
	s.simTicker = s.clk.Ticker(s.tick)
	log.Printf("🎮 [%s] simulation started (%v per tick)", s.id, s.tick)
	s.publish(s.frame())
}

// simTick runs one authoritative step and broadcasts the resulting
// snapshot unconditionally; the guest has no other source of truth. A
// terminal step freezes the world: the freeze-frame is the last broadcast
// until a restart.
func (s *Session) simTick() {
	if s.role != protocol.RoleHost || s.phase != protocol.PhaseActive {
		return
	}

	if terminal := s.g.Step(); terminal {
		s.phase = protocol.PhaseTerminal
		s.stopSim()
		log.Printf("🏁 [%s] game over", s.id)
	}

	snap := s.frame()
	s.sendMsg(protocol.EncodeSnapshot(&snap))
	s.publish(snap)
}

// handleMessage classifies one inbound payload. Malformed or unknown
// messages are dropped; nothing arriving over the wire is fatal.
func (s *Session) handleMessage(data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		log.Printf("⚠️  [%s] dropping malformed message: %v", s.id, err)
		return
	}

	switch msg.Kind {
	case protocol.KindSnapshot:
		if s.role != protocol.RoleGuest {
			log.Printf("⚠️  [%s] dropping snapshot sent to host", s.id)
			return
		}
		// Wholesale replacement: the cache never merges field by field,
		// and the latest received snapshot always wins.
		s.cache = *msg.Snapshot
		s.phase = msg.Snapshot.Phase
		s.countdown = msg.Snapshot.Countdown
		s.publish(s.cache)

	case protocol.KindInput:
		if s.role != protocol.RoleHost {
			log.Printf("⚠️  [%s] dropping input sent to guest", s.id)
			return
		}
		dir, ok := game.ParseDirection(msg.Input.Direction)
		if !ok {
			log.Printf("⚠️  [%s] dropping input with direction %q", s.id, msg.Input.Direction)
			return
		}
		// Staged only: the world mutates on the next simulation step,
		// never from the network path, and never outside active.
		s.g.Queue(game.SlotGuest, dir)

	case protocol.KindPhase:
		if s.role != protocol.RoleGuest {
			return
		}
		s.phase = msg.Phase.Phase
		s.countdown = msg.Phase.Countdown
		s.cache.Phase = msg.Phase.Phase
		s.cache.Countdown = msg.Phase.Countdown
		s.publish(s.cache)

	case protocol.KindSetting:
		if msg.Setting.Name != SettingTickMS {
			log.Printf("⚠️  [%s] dropping unknown setting %q", s.id, msg.Setting.Name)
			return
		}
		s.applyTick(time.Duration(msg.Setting.Value) * time.Millisecond)
		if s.role == protocol.RoleHost {
			// Re-broadcast unchanged so both sides converge.
			s.sendMsg(protocol.EncodeSetting(msg.Setting.Name, msg.Setting.Value))
		}

	case protocol.KindAsset:
		s.assets[msg.Asset.From] = *msg.Asset
		log.Printf("🖼️  [%s] stored asset from %s (%d bytes)", s.id, msg.Asset.From, len(msg.Asset.Data))

	default:
		log.Printf("⚠️  [%s] dropping message of unknown type", s.id)
	}
}

// applyTick adjusts the simulation interval, re-arming the ticker when
// the simulation is already running.
func (s *Session) applyTick(d time.Duration) {
	if d <= 0 {
		return
	}
	s.tick = d
	if s.simTicker != nil {
		s.stopSim()
		s.simTicker = s.clk.Ticker(d)
	}
}

func (s *Session) handleLocalInput(dir game.Direction) {
	if dir == game.DirNone {
		return
	}
	if s.role == protocol.RoleHost {
		s.g.Queue(game.SlotHost, dir)
		return
	}
	s.sendMsg(protocol.EncodeInput(string(dir)))
}

// handleRestart re-enters lobby→countdown after a terminal round. Host
// only; the guest's restart intent would arrive as a future message kind.
func (s *Session) handleRestart() {
	if s.role != protocol.RoleHost || s.phase != protocol.PhaseTerminal {
		return
	}
	s.g.Reset()
	s.phase = protocol.PhaseLobby
	s.startCountdown()
}

// teardown is the unconditional return to idle: tickers stopped, per-
// session state cleared. The transport itself is closed by whoever owns
// the peer connection.
func (s *Session) teardown(reason string) {
	s.stopSim()
	s.stopCountdown()
	s.phase = protocol.PhaseIdle
	s.countdown = 0
	s.cache = protocol.Snapshot{Game: s.cfg.Game, Phase: protocol.PhaseIdle}
	s.assets = make(map[protocol.Role]protocol.Asset)
	log.Printf("🛑 [%s] session idle: %s", s.id, reason)
	s.publish(s.cache)
}

func (s *Session) stopSim() {
	if s.simTicker != nil {
		s.simTicker.Stop()
		s.simTicker = nil
	}
}

func (s *Session) stopCountdown() {
	if s.cdTicker != nil {
		s.cdTicker.Stop()
		s.cdTicker = nil
	}
}

// frame assembles the snapshot to render and broadcast: from the
// authoritative game on the host, from the cache on the guest.
func (s *Session) frame() protocol.Snapshot {
	if s.role != protocol.RoleHost {
		return s.cache
	}

	world, err := s.g.Snapshot()
	if err != nil {
		log.Printf("⚠️  [%s] snapshot failed: %v", s.id, err)
	}
	host, guest := s.g.Scores()
	return protocol.Snapshot{
		Game:       s.cfg.Game,
		Phase:      s.phase,
		Countdown:  s.countdown,
		ScoreHost:  host,
		ScoreGuest: guest,
		World:      world,
	}
}

func (s *Session) broadcastPhase() {
	s.sendMsg(protocol.EncodePhase(s.phase, s.countdown))
}

// sendMsg takes an encode result directly; encode failures are logged and
// dropped, send failures likewise (a dead channel surfaces as HandleClose).
func (s *Session) sendMsg(data []byte, err error) {
	if err != nil {
		log.Printf("⚠️  [%s] encode failed: %v", s.id, err)
		return
	}
	if err := s.send.Send(data); err != nil {
		log.Printf("📭 [%s] send failed: %v", s.id, err)
	}
}

// Asset returns the stored peer asset for a role, if any. Read it only
// after Done or from the snapshot callback goroutine discipline.
func (s *Session) Asset(role protocol.Role) (protocol.Asset, bool) {
	a, ok := s.assets[role]
	return a, ok
}

func (s *Session) publish(snap protocol.Snapshot) {
	if s.onSnapshot != nil {
		s.onSnapshot(snap)
	}
}
