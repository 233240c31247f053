package game

import (
	"encoding/json"
	"testing"
)

func testSnakeConfig() SnakeConfig {
	return SnakeConfig{Cols: 12, Rows: 9, StartLen: 3, Seed: 1}
}

// parkFood moves the food out of both snakes' paths.
func parkFood(s *Snake, c Cell) { s.w.Food = c }

func TestSnakeHeadOnCollisionIsTerminalDraw(t *testing.T) {
	s := NewSnake(testSnakeConfig())
	parkFood(s, Cell{0, 0})

	// Both snakes start on the middle row heading toward each other; step
	// until their proposed heads meet.
	var terminal bool
	var steps int
	for steps = 0; steps < 50; steps++ {
		hostBefore := append([]Cell(nil), s.w.Host...)

		terminal = s.Step()
		if terminal {
			// The ending tick commits nothing.
			if len(s.w.Host) != len(hostBefore) || s.w.Host[0] != hostBefore[0] {
				t.Error("terminal tick committed movement")
			}
			break
		}
	}

	if !terminal {
		t.Fatal("expected head-on collision to end the game")
	}
	if s.w.Winner != "draw" {
		t.Errorf("expected draw, got %q", s.w.Winner)
	}
	if !s.Step() {
		t.Error("Step after terminal must keep reporting terminal")
	}
}

func TestSnakeWallExitEndsGame(t *testing.T) {
	s := NewSnake(testSnakeConfig())
	parkFood(s, Cell{0, 0})

	// Send the host snake straight up and off the board.
	s.Queue(SlotHost, DirUp)
	var terminal bool
	for i := 0; i < 20 && !terminal; i++ {
		terminal = s.Step()
	}

	if !terminal {
		t.Fatal("expected wall exit to end the game")
	}
	if s.w.Winner != "guest" {
		t.Errorf("expected guest win on host wall exit, got %q", s.w.Winner)
	}
	for _, c := range s.w.Host {
		if !s.inside(c) {
			t.Errorf("committed out-of-bounds cell %+v", c)
		}
	}
}

func TestSnakeEatingGrowsAndScores(t *testing.T) {
	s := NewSnake(testSnakeConfig())

	// Put the food directly in front of the host head.
	head := s.w.Host[0]
	parkFood(s, Cell{head.X + 1, head.Y})
	lenBefore := len(s.w.Host)

	if s.Step() {
		t.Fatal("eating must not end the game")
	}

	if s.w.ScoreHost != 1 {
		t.Errorf("expected host score 1, got %d", s.w.ScoreHost)
	}
	if len(s.w.Host) != lenBefore+1 {
		t.Errorf("expected body length %d, got %d", lenBefore+1, len(s.w.Host))
	}

	// Food respawned somewhere free.
	if hitsBody(s.w.Food, s.w.Host, false) || hitsBody(s.w.Food, s.w.Guest, false) {
		t.Errorf("food respawned on an occupied cell: %+v", s.w.Food)
	}
}

func TestSnakeRejectsReversal(t *testing.T) {
	s := NewSnake(testSnakeConfig())
	parkFood(s, Cell{0, 0})

	// Host heads right; a left turn would reverse into its own body.
	s.Queue(SlotHost, DirLeft)
	s.Step()

	if s.w.HostDir != DirRight {
		t.Errorf("reversal accepted, direction is %s", s.w.HostDir)
	}
}

func TestSnakeSelfCollisionLosesBeforeOtherChecks(t *testing.T) {
	s := NewSnake(testSnakeConfig())
	parkFood(s, Cell{0, 0})

	// Force a host body whose proposed head lands on its own second
	// segment; keep the guest clear of every other ending condition.
	s.w.Host = []Cell{{5, 6}, {5, 5}, {5, 4}, {4, 4}}
	s.w.HostDir = DirUp // proposed head {5,5} = own second segment
	s.w.Guest = []Cell{{9, 8}, {10, 8}, {11, 8}}
	s.w.GuestDir = DirLeft

	if !s.Step() {
		t.Fatal("expected self-collision to end the game")
	}
	if s.w.Winner != "guest" {
		t.Errorf("expected guest win on host self-collision, got %q", s.w.Winner)
	}
}

func TestSnakeZeroInputStepStaysLegal(t *testing.T) {
	s := NewSnake(SnakeConfig{Cols: 40, Rows: 9, StartLen: 3, Seed: 7})
	parkFood(s, Cell{0, 0})

	for i := 0; i < 10; i++ {
		if s.Step() {
			return // eventual head-on collision is itself a legal state
		}
		for _, c := range append(append([]Cell(nil), s.w.Host...), s.w.Guest...) {
			if !s.inside(c) {
				t.Fatalf("out-of-bounds cell %+v at step %d", c, i)
			}
		}
		if s.w.ScoreHost < 0 || s.w.ScoreGuest < 0 {
			t.Fatal("negative score")
		}
	}
}

func TestSnakeSnapshotRestoreRoundTrip(t *testing.T) {
	s := NewSnake(testSnakeConfig())
	s.w.ScoreGuest = 3

	raw, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	other := NewSnake(testSnakeConfig())
	if err := other.Restore(raw); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	got, _ := json.Marshal(other.w)
	if string(got) != string(raw) {
		t.Errorf("restored world differs:\n got %s\nwant %s", got, raw)
	}
}

func TestSnakeResetClearsTerminal(t *testing.T) {
	s := NewSnake(testSnakeConfig())
	parkFood(s, Cell{0, 0})
	s.w.ScoreHost = 2

	s.Queue(SlotHost, DirUp)
	for i := 0; i < 20; i++ {
		if s.Step() {
			break
		}
	}
	if !s.over {
		t.Fatal("expected terminal before reset")
	}

	s.Reset()

	if s.over {
		t.Error("reset did not clear terminal state")
	}
	if s.w.Winner != "" {
		t.Errorf("reset kept winner %q", s.w.Winner)
	}
	if s.w.ScoreHost != 2 {
		t.Errorf("reset clobbered score: %d", s.w.ScoreHost)
	}
	if len(s.w.Host) != s.cfg.StartLen {
		t.Errorf("expected fresh body of %d, got %d", s.cfg.StartLen, len(s.w.Host))
	}
}

func TestNewByName(t *testing.T) {
	for _, name := range []string{"pong", "snake"} {
		g, err := New(name)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", name, err)
		}
		if g.Name() != name {
			t.Errorf("expected %s, got %s", name, g.Name())
		}
	}
	if _, err := New("chess"); err == nil {
		t.Error("expected error for unknown game")
	}
}
