package game

import (
	"encoding/json"
	"math/rand"
)

// SnakeConfig holds the grid-chase game tuning.
type SnakeConfig struct {
	Cols     int
	Rows     int
	StartLen int
	Seed     int64 // food placement seed; 0 picks a random one
}

// DefaultSnakeConfig returns sensible defaults.
func DefaultSnakeConfig() SnakeConfig {
	return SnakeConfig{
		Cols:     24,
		Rows:     18,
		StartLen: 3,
	}
}

// Cell is one grid square.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// snakeWorld is the full serialized World State of the grid-chase game.
// Bodies are ordered head first.
type snakeWorld struct {
	Host       []Cell    `json:"host"`
	Guest      []Cell    `json:"guest"`
	HostDir    Direction `json:"hostDir"`
	GuestDir   Direction `json:"guestDir"`
	Food       Cell      `json:"food"`
	ScoreHost  int       `json:"scoreHost"`
	ScoreGuest int       `json:"scoreGuest"`
	Winner     string    `json:"winner,omitempty"` // host, guest or draw
}

// Snake is the grid-chase game. Unlike the paddle game it has a terminal
// state: any collision ends the round and freezes the world.
type Snake struct {
	cfg    SnakeConfig
	w      snakeWorld
	staged [2]Direction
	rng    *rand.Rand
	over   bool
}

// NewSnake creates a grid-chase game with both snakes on the middle row
// heading toward each other.
func NewSnake(cfg SnakeConfig) *Snake {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	s := &Snake{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
	s.Reset()
	return s
}

func (s *Snake) Name() string { return "snake" }

// Queue stages a turn. Reversing straight into yourself is rejected;
// anything else overwrites an earlier intent staged the same tick.
func (s *Snake) Queue(slot Slot, dir Direction) {
	if dir == DirNone {
		return
	}
	current := s.w.HostDir
	if slot == SlotGuest {
		current = s.w.GuestDir
	}
	if dir == current.opposite() {
		return
	}
	s.staged[slot] = dir
}

func delta(d Direction) (int, int) {
	switch d {
	case DirUp:
		return 0, -1
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	case DirRight:
		return 1, 0
	}
	return 0, 0
}

// Step commits staged turns and advances both snakes one cell. All
// game-ending checks run against the proposed head positions, in priority
// order: wall exit, self-collision, head-to-head, collision with the other
// body. A tick that ends the game commits no movement, so the frozen world
// is always the last legal one.
func (s *Snake) Step() bool {
	if s.over {
		return true
	}

	if s.staged[SlotHost] != DirNone {
		s.w.HostDir = s.staged[SlotHost]
		s.staged[SlotHost] = DirNone
	}
	if s.staged[SlotGuest] != DirNone {
		s.w.GuestDir = s.staged[SlotGuest]
		s.staged[SlotGuest] = DirNone
	}

	hx, hy := delta(s.w.HostDir)
	gx, gy := delta(s.w.GuestDir)
	hostHead := Cell{s.w.Host[0].X + hx, s.w.Host[0].Y + hy}
	guestHead := Cell{s.w.Guest[0].X + gx, s.w.Guest[0].Y + gy}

	hostGrows := hostHead == s.w.Food
	guestGrows := guestHead == s.w.Food

	hostOut := !s.inside(hostHead)
	guestOut := !s.inside(guestHead)
	if hostOut || guestOut {
		return s.finish(guestOut, hostOut)
	}

	if hitsBody(hostHead, s.w.Host, !hostGrows) || hitsBody(guestHead, s.w.Guest, !guestGrows) {
		return s.finish(
			hitsBody(guestHead, s.w.Guest, !guestGrows),
			hitsBody(hostHead, s.w.Host, !hostGrows),
		)
	}

	// Head-to-head covers both landing on the same cell and the two heads
	// swapping through each other in one tick.
	if hostHead == guestHead ||
		(hostHead == s.w.Guest[0] && guestHead == s.w.Host[0]) {
		return s.finish(true, true)
	}

	if hitsBody(hostHead, s.w.Guest, !guestGrows) || hitsBody(guestHead, s.w.Host, !hostGrows) {
		return s.finish(
			hitsBody(guestHead, s.w.Host, !hostGrows),
			hitsBody(hostHead, s.w.Guest, !guestGrows),
		)
	}

	s.w.Host = advance(s.w.Host, hostHead, hostGrows)
	s.w.Guest = advance(s.w.Guest, guestHead, guestGrows)

	if hostGrows {
		s.w.ScoreHost++
		s.respawnFood()
	} else if guestGrows {
		s.w.ScoreGuest++
		s.respawnFood()
	}
	return false
}

// finish records the outcome. hostWins/guestWins name the player whose
// opponent caused the ending; both true means a draw.
func (s *Snake) finish(hostWins, guestWins bool) bool {
	switch {
	case hostWins && guestWins:
		s.w.Winner = "draw"
	case hostWins:
		s.w.Winner = "host"
	default:
		s.w.Winner = "guest"
	}
	s.over = true
	return true
}

func (s *Snake) inside(c Cell) bool {
	return c.X >= 0 && c.X < s.cfg.Cols && c.Y >= 0 && c.Y < s.cfg.Rows
}

// hitsBody reports whether c lands on body. When the snake is not growing
// its tail cell vacates this tick and does not count.
func hitsBody(c Cell, body []Cell, tailVacates bool) bool {
	n := len(body)
	if tailVacates {
		n--
	}
	for i := 0; i < n; i++ {
		if body[i] == c {
			return true
		}
	}
	return false
}

// advance prepends the new head, dropping the tail unless growing.
func advance(body []Cell, head Cell, grows bool) []Cell {
	next := make([]Cell, 0, len(body)+1)
	next = append(next, head)
	if grows {
		next = append(next, body...)
	} else {
		next = append(next, body[:len(body)-1]...)
	}
	return next
}

// respawnFood redraws the food until it lands on a free cell.
func (s *Snake) respawnFood() {
	occupied := func(c Cell) bool {
		return hitsBody(c, s.w.Host, false) || hitsBody(c, s.w.Guest, false)
	}
	if len(s.w.Host)+len(s.w.Guest) >= s.cfg.Cols*s.cfg.Rows {
		return // board full, nowhere left to place food
	}
	for {
		c := Cell{s.rng.Intn(s.cfg.Cols), s.rng.Intn(s.cfg.Rows)}
		if !occupied(c) {
			s.w.Food = c
			return
		}
	}
}

func (s *Snake) Scores() (int, int) {
	return s.w.ScoreHost, s.w.ScoreGuest
}

func (s *Snake) Snapshot() ([]byte, error) {
	return json.Marshal(s.w)
}

func (s *Snake) Restore(world []byte) error {
	return json.Unmarshal(world, &s.w)
}

// Reset rebuilds the board for a fresh round, keeping match scores. Host
// starts on the left heading right, guest mirrored.
func (s *Snake) Reset() {
	row := s.cfg.Rows / 2
	host := make([]Cell, s.cfg.StartLen)
	guest := make([]Cell, s.cfg.StartLen)
	for i := 0; i < s.cfg.StartLen; i++ {
		host[i] = Cell{s.cfg.StartLen - 1 - i, row}
		guest[i] = Cell{s.cfg.Cols - s.cfg.StartLen + i, row}
	}

	s.w.Host = host
	s.w.Guest = guest
	s.w.HostDir = DirRight
	s.w.GuestDir = DirLeft
	s.w.Winner = ""
	s.staged = [2]Direction{}
	s.over = false
	s.respawnFood()
}
