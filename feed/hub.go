// Package feed keeps connected gallery and carousel views in sync with
// the photo store. Every relevant store change is pushed as a full
// snapshot; clients replace their local list wholesale.
package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	mixer "github.com/gef-festival/photo-mixer"
	"github.com/gef-festival/photo-mixer/log"
)

const (
	MsgFeedSnapshot   = "feed.snapshot"
	MsgUploadProgress = "upload.progress"
	MsgUploadComplete = "upload.complete"
)

// Message is one WebSocket frame pushed to feed clients.
type Message struct {
	Type      string                `json:"type"`
	Feed      string                `json:"feed"`
	Photos    []mixer.PhotoRecord   `json:"photos,omitempty"`
	Progress  *mixer.UploadProgress `json:"progress,omitempty"`
	Result    *mixer.UploadResult   `json:"result,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// Hub maintains active feed clients, keyed by photo type, and fans
// messages out to them. A client that cannot keep up is dropped rather
// than allowed to stall the rest.
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// latest snapshot per feed, replayed to newly connected clients
	latest map[string][]mixer.PhotoRecord
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		latest:     make(map[string][]mixer.PhotoRecord),
	}
}

// Run processes registrations and broadcasts until the context ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.feed] == nil {
				h.clients[client.feed] = make(map[*Client]bool)
			}
			h.clients[client.feed][client] = true
			snapshot := h.latest[client.feed]
			h.mu.Unlock()

			if snapshot != nil {
				client.enqueue(marshalMessage(&Message{
					Type:      MsgFeedSnapshot,
					Feed:      client.feed,
					Photos:    snapshot,
					Timestamp: time.Now(),
				}))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.feed]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.feed)
					}
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			if message.Type == MsgFeedSnapshot {
				h.mu.Lock()
				h.latest[message.Feed] = message.Photos
				h.mu.Unlock()
			}

			h.mu.Lock()
			clients := h.clients[message.Feed]
			payload := marshalMessage(message)
			for client := range clients {
				select {
				case client.send <- payload:
				default:
					close(client.send)
					delete(clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastSnapshot pushes a full result-set replacement to one feed.
func (h *Hub) BroadcastSnapshot(feed string, photos []mixer.PhotoRecord) {
	h.broadcast <- &Message{
		Type:      MsgFeedSnapshot,
		Feed:      feed,
		Photos:    photos,
		Timestamp: time.Now(),
	}
}

// BroadcastProgress publishes upload progress for UI feedback. Progress
// is advisory; a client that missed it only misses the progress bar.
func (h *Hub) BroadcastProgress(feed string, progress mixer.UploadProgress) {
	h.broadcast <- &Message{
		Type:      MsgUploadProgress,
		Feed:      feed,
		Progress:  &progress,
		Timestamp: time.Now(),
	}
}

// BroadcastComplete announces a finished upload on its feed.
func (h *Hub) BroadcastComplete(feed string, result mixer.UploadResult) {
	h.broadcast <- &Message{
		Type:      MsgUploadComplete,
		Feed:      feed,
		Result:    &result,
		Timestamp: time.Now(),
	}
}

func marshalMessage(m *Message) []byte {
	payload, err := json.Marshal(m)
	if err != nil {
		log.Error("fail to marshal feed message", zap.Error(err), log.SourceFeed)
		return []byte("{}")
	}
	return payload
}

// Sync mirrors a store subscription into the hub until the context
// ends, then tears the subscription down. No snapshot is delivered
// after teardown.
func Sync(ctx context.Context, store mixer.PhotoStore, hub *Hub, photoType string, limit int64) error {
	sub, err := store.Subscribe(ctx, mixer.PhotoFilter{Type: photoType, Limit: limit})
	if err != nil {
		return err
	}

	go func() {
		defer sub.Unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case snapshot, ok := <-sub.Snapshots():
				if !ok {
					return
				}
				hub.BroadcastSnapshot(photoType, snapshot)
			}
		}
	}()

	return nil
}
