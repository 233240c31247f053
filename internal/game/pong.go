package game

import "encoding/json"

// PongConfig holds the paddle game tuning.
type PongConfig struct {
	Width        float64 // playfield width
	Height       float64 // playfield height
	PaddleInset  float64 // paddle plane distance from the side edge
	PaddleHeight float64
	PaddleSpeed  float64 // units moved per staged input
	BallSpeed    float64 // horizontal units per tick
}

// DefaultPongConfig returns sensible defaults.
func DefaultPongConfig() PongConfig {
	return PongConfig{
		Width:        100,
		Height:       100,
		PaddleInset:  3,
		PaddleHeight: 20,
		PaddleSpeed:  3,
		BallSpeed:    1.6,
	}
}

// pongWorld is the full serialized World State of the paddle game. The
// host paddle guards the left edge, the guest paddle the right.
type pongWorld struct {
	BallX      float64 `json:"ballX"`
	BallY      float64 `json:"ballY"`
	BallVX     float64 `json:"ballVX"`
	BallVY     float64 `json:"ballVY"`
	HostY      float64 `json:"hostY"`
	GuestY     float64 `json:"guestY"`
	ScoreHost  int     `json:"scoreHost"`
	ScoreGuest int     `json:"scoreGuest"`
}

// Pong is the paddle game. It has no terminal phase: after a point the
// ball resets and play continues.
type Pong struct {
	cfg    PongConfig
	w      pongWorld
	staged [2]Direction
}

// NewPong creates a paddle game with centered paddles and a serve toward
// the guest side.
func NewPong(cfg PongConfig) *Pong {
	p := &Pong{cfg: cfg}
	p.w.HostY = cfg.Height / 2
	p.w.GuestY = cfg.Height / 2
	p.serve(1)
	return p
}

func (p *Pong) Name() string { return "pong" }

// Queue stages the latest input; a newer intent in the same tick replaces
// the older one.
func (p *Pong) Queue(slot Slot, dir Direction) {
	if dir != DirUp && dir != DirDown {
		return
	}
	p.staged[slot] = dir
}

// serve centers the ball. dir is the horizontal sign of the new velocity.
func (p *Pong) serve(dir float64) {
	p.w.BallX = p.cfg.Width / 2
	p.w.BallY = p.cfg.Height / 2
	p.w.BallVX = dir * p.cfg.BallSpeed
	p.w.BallVY = 0
}

// Step applies staged paddle input, integrates the ball one tick, handles
// wall and paddle bounces and scores points. Always returns false: the
// paddle game never ends.
func (p *Pong) Step() bool {
	p.movePaddle(SlotHost, &p.w.HostY)
	p.movePaddle(SlotGuest, &p.w.GuestY)

	nx := p.w.BallX + p.w.BallVX
	ny := p.w.BallY + p.w.BallVY

	// Top/bottom bounce, reflecting the overshoot back into the field.
	if ny < 0 {
		ny = -ny
		p.w.BallVY = -p.w.BallVY
	} else if ny > p.cfg.Height {
		ny = 2*p.cfg.Height - ny
		p.w.BallVY = -p.w.BallVY
	}

	leftPlane := p.cfg.PaddleInset
	rightPlane := p.cfg.Width - p.cfg.PaddleInset
	half := p.cfg.PaddleHeight / 2

	switch {
	case p.w.BallVX < 0 && p.w.BallX >= leftPlane && nx <= leftPlane:
		if ny >= p.w.HostY-half && ny <= p.w.HostY+half {
			nx = 2*leftPlane - nx
			p.w.BallVX = -p.w.BallVX
			p.w.BallVY = (ny - p.w.HostY) / half * p.cfg.BallSpeed
		}
	case p.w.BallVX > 0 && p.w.BallX <= rightPlane && nx >= rightPlane:
		if ny >= p.w.GuestY-half && ny <= p.w.GuestY+half {
			nx = 2*rightPlane - nx
			p.w.BallVX = -p.w.BallVX
			p.w.BallVY = (ny - p.w.GuestY) / half * p.cfg.BallSpeed
		}
	}

	// A ball past an edge scores for the opposite side; only the ball
	// resets, never the score.
	if nx > p.cfg.Width {
		p.w.ScoreHost++
		p.serve(-1)
		return false
	}
	if nx < 0 {
		p.w.ScoreGuest++
		p.serve(1)
		return false
	}

	p.w.BallX = nx
	p.w.BallY = ny
	return false
}

// movePaddle applies and consumes the staged input for one paddle. A move
// that would push the paddle past the field boundary is rejected, leaving
// the position unchanged.
func (p *Pong) movePaddle(slot Slot, y *float64) {
	dir := p.staged[slot]
	p.staged[slot] = DirNone

	half := p.cfg.PaddleHeight / 2
	next := *y
	switch dir {
	case DirUp:
		next -= p.cfg.PaddleSpeed
	case DirDown:
		next += p.cfg.PaddleSpeed
	default:
		return
	}
	if next < half || next > p.cfg.Height-half {
		return
	}
	*y = next
}

func (p *Pong) Scores() (int, int) {
	return p.w.ScoreHost, p.w.ScoreGuest
}

func (p *Pong) Snapshot() ([]byte, error) {
	return json.Marshal(p.w)
}

func (p *Pong) Restore(world []byte) error {
	return json.Unmarshal(world, &p.w)
}

// Reset recenters paddles and ball for a fresh round, keeping scores.
func (p *Pong) Reset() {
	p.w.HostY = p.cfg.Height / 2
	p.w.GuestY = p.cfg.Height / 2
	p.staged = [2]Direction{}
	p.serve(1)
}
