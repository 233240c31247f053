// Package view exposes the read-only renderer feed: every snapshot the
// session publishes is fanned out to attached WebSocket clients so an
// external renderer (a browser page, a dashboard) can draw the game. The
// feed never accepts input and never relays signaling.
package view

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Feed fans session frames out to WebSocket subscribers.
type Feed struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{conns: make(map[*websocket.Conn]struct{})}
}

// ServeHTTP upgrades a renderer connection and keeps it subscribed until
// it goes away.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️  view upgrade failed: %v", err)
		return
	}

	f.mu.Lock()
	f.conns[conn] = struct{}{}
	n := len(f.conns)
	f.mu.Unlock()
	log.Printf("👀 renderer attached (%d total)", n)

	// Drain (and discard) inbound frames so we notice the close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				f.drop(conn)
				return
			}
		}
	}()
}

// Publish sends one frame to every subscriber. Subscribers that fail to
// accept it are dropped; a slow renderer never affects the session.
func (f *Feed) Publish(frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("⚠️  view marshal failed: %v", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(f.conns, conn)
		}
	}
}

// Count returns the number of attached renderers.
func (f *Feed) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}

// Close detaches every subscriber.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.conns {
		conn.Close()
		delete(f.conns, conn)
	}
}

func (f *Feed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.conns[conn]; ok {
		conn.Close()
		delete(f.conns, conn)
		log.Printf("👋 renderer detached (%d left)", len(f.conns))
	}
}
