package rpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"

	"activityrewards/core/events"
	"activityrewards/core/types"
)

const (
	wsWriteTimeout        = 10 * time.Second
	defaultSubscriberSize = 64
)

// Hub fans applied-reward events out to websocket subscribers. It implements
// events.Emitter. Slow subscribers lose events rather than block the ledger.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*subscriber]struct{}
	buffer  int
	dropped atomic.Uint64
}

type subscriber struct {
	owner string
	ch    chan *types.Event
}

var _ events.Emitter = (*Hub)(nil)

// NewHub returns a hub whose subscribers buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberSize
	}
	return &Hub{subs: make(map[*subscriber]struct{}), buffer: buffer}
}

// Emit implements events.Emitter.
func (h *Hub) Emit(evt events.Event) {
	if h == nil || evt == nil || evt.EventType() != events.TypeRewardApplied {
		return
	}
	flat := evt.Event()
	if flat == nil {
		return
	}
	owner := flat.Attr("owner")
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if sub.owner != "" && sub.owner != owner {
			continue
		}
		select {
		case sub.ch <- flat.Clone():
		default:
			h.dropped.Add(1)
		}
	}
}

// Dropped reports how many events were discarded for slow subscribers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Subscribe registers a subscriber filtered to owner (empty for all). The
// returned cancel function must be called to release it.
func (h *Hub) Subscribe(owner string) (<-chan *types.Event, func()) {
	sub := &subscriber{owner: owner, ch: make(chan *types.Event, h.buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
		})
	}
}

// Subscribers reports the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (s *Server) handleRewardsWS(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	if s.auth.Enabled() {
		caller, authErr := s.auth.Identify(r)
		if authErr != nil || !caller.Authenticated {
			http.Error(w, "bearer token required", http.StatusUnauthorized)
			return
		}
		owner = string(caller.User)
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	updates, cancel := s.hub.Subscribe(owner)
	defer cancel()

	ctx := conn.CloseRead(r.Context())
	if err := streamEvents(ctx, conn, updates); err != nil {
		if status := websocket.CloseStatus(err); status == -1 && ctx.Err() == nil {
			s.logger.Warn("reward stream failed", slog.Any("error", err))
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func streamEvents(ctx context.Context, conn *websocket.Conn, updates <-chan *types.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeEvent(ctx, conn, evt); err != nil {
				return err
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, evt *types.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
