// Package view streams controller state to passive renderers over
// WebSocket. No rendering logic lives here; clients draw whatever the
// latest frame says.
package view

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/FNXDOOM/Zapdos/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Feed fans controller events out to every connected renderer. Publish
// never blocks: each subscriber holds a one-frame buffer and a slow reader
// has its stale frame evicted, so it always converges on the latest state.
type Feed struct {
	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	latest []byte
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: map[chan []byte]struct{}{}}
}

// Publish implements session.EventSink.
func (f *Feed) Publish(e session.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("marshal view event", "error", err)
		return
	}

	f.mu.Lock()
	f.latest = data
	for ch := range f.subs {
		select {
		case ch <- data:
		default:
			// Evict the unread frame, then retry.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- data:
			default:
			}
		}
	}
	f.mu.Unlock()
}

func (f *Feed) subscribe() (chan []byte, []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan []byte, 1)
	f.subs[ch] = struct{}{}
	return ch, f.latest
}

func (f *Feed) unsubscribe(ch chan []byte) {
	f.mu.Lock()
	delete(f.subs, ch)
	f.mu.Unlock()
}

// ServeHTTP upgrades the connection, replays the latest frame, then
// relays every subsequent event until the client goes away.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("view feed upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch, latest := f.subscribe()
	defer f.unsubscribe(ch)

	if latest != nil {
		if err := conn.WriteMessage(websocket.TextMessage, latest); err != nil {
			return
		}
	}

	// Renderers never send data; reads only detect the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case data := <-ch:
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
