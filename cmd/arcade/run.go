package main

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"

	"github.com/matejkoncal/p2p-arcade/internal/game"
	"github.com/matejkoncal/p2p-arcade/internal/negotiate"
	"github.com/matejkoncal/p2p-arcade/internal/protocol"
	"github.com/matejkoncal/p2p-arcade/internal/session"
	"github.com/matejkoncal/p2p-arcade/internal/view"
)

func negotiateConfig(cfg *Config) negotiate.Config {
	nc := negotiate.DefaultConfig()
	if len(cfg.stunServers) > 0 {
		nc.ICEServers = cfg.stunServers
	}
	nc.GatherTimeout = cfg.gatherTimeout
	return nc
}

// lateSender satisfies session.Sender before the data channel exists.
// Sends race channel open only in theory: the session only sends in
// response to events, and the first event is the open itself.
type lateSender struct {
	mu sync.Mutex
	ch *negotiate.Channel
}

func (s *lateSender) set(ch *negotiate.Channel) {
	s.mu.Lock()
	s.ch = ch
	s.mu.Unlock()
}

func (s *lateSender) Send(data []byte) error {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()
	if ch == nil {
		return fmt.Errorf("data channel not open yet")
	}
	return ch.Send(data)
}

// loadSkin reads an image file into the peer-asset payload announced on
// channel open.
func loadSkin(path string, role protocol.Role) (*protocol.Asset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skin: %w", err)
	}
	return &protocol.Asset{
		From: role,
		MIME: mime.TypeByExtension(filepath.Ext(path)),
		Data: base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// wireSession builds the session for the given role and plumbs the peer's
// channel callbacks into it. Callbacks only enqueue events; all session
// state changes happen on its own loop.
func wireSession(cfg *Config, role protocol.Role, peer *negotiate.Peer) (*session.Session, error) {
	sc := session.DefaultConfig()
	sc.Game = cfg.game
	sc.TickInterval = cfg.tickInterval
	sc.CountdownFrom = cfg.countdownFrom
	if cfg.skinPath != "" {
		asset, err := loadSkin(cfg.skinPath, role)
		if err != nil {
			return nil, err
		}
		sc.Asset = asset
	}

	sender := &lateSender{}
	sess, err := session.New(role, sc, sender, clock.New())
	if err != nil {
		return nil, err
	}

	peer.OnChannelOpen(func(ch *negotiate.Channel) {
		sender.set(ch)
		sess.HandleOpen()
	})
	peer.OnMessage(sess.HandleMessage)
	peer.OnChannelClose(sess.HandleClose)
	return sess, nil
}

// runSession drives the session until the context is cancelled, the
// channel closes, or the player quits.
func runSession(cmd *cobra.Command, cfg *Config, sess *session.Session, peer *negotiate.Peer, scanner *bufio.Scanner) error {
	var feed *view.Feed
	if cfg.viewAddr != "" {
		feed = view.NewFeed()
		defer feed.Close()
		srv := &http.Server{Addr: cfg.viewAddr, Handler: feed}
		go func() {
			log.Printf("📺 renderer feed on ws://%s", cfg.viewAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("⚠️  renderer feed: %v", err)
			}
		}()
		defer srv.Close()
	}

	var lastPhase protocol.Phase
	var lastHost, lastGuest int
	sess.OnSnapshot(func(snap protocol.Snapshot) {
		if feed != nil {
			feed.Publish(snap)
		}
		if snap.Phase != lastPhase {
			lastPhase = snap.Phase
			switch snap.Phase {
			case protocol.PhaseCountdown:
				log.Printf("⏱️  starting in %d...", snap.Countdown)
			case protocol.PhaseActive:
				log.Printf("🎮 go!")
			case protocol.PhaseTerminal:
				log.Printf("🏁 game over: host %d : %d guest  (r to rematch, q to quit)",
					snap.ScoreHost, snap.ScoreGuest)
			}
		} else if snap.Phase == protocol.PhaseCountdown {
			log.Printf("⏱️  %d...", snap.Countdown)
		}
		if snap.ScoreHost != lastHost || snap.ScoreGuest != lastGuest {
			lastHost, lastGuest = snap.ScoreHost, snap.ScoreGuest
			log.Printf("🏓 host %d : %d guest", lastHost, lastGuest)
		}
	})

	go sess.Run()
	go readInput(scanner, sess)

	log.Printf("⌨️  controls: w/a/s/d to move, r to restart, q to quit")

	select {
	case <-cmd.Context().Done():
		sess.End()
		<-sess.Done()
	case <-sess.Done():
	}
	return nil
}

// readInput turns stdin lines into session commands. Each line is
// scanned rune by rune so "ww" queues two moves.
func readInput(scanner *bufio.Scanner, sess *session.Session) {
	for scanner.Scan() {
		for _, r := range strings.TrimSpace(scanner.Text()) {
			switch r {
			case 'w':
				sess.QueueLocalInput(game.DirUp)
			case 's':
				sess.QueueLocalInput(game.DirDown)
			case 'a':
				sess.QueueLocalInput(game.DirLeft)
			case 'd':
				sess.QueueLocalInput(game.DirRight)
			case 'r':
				sess.Restart()
			case 'q':
				sess.End()
				return
			}
		}
	}
}
