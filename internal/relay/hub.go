package relay

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/co2viewer/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Snapshots queued per subscriber before it is dropped
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type subscriber struct {
	conn       *websocket.Conn
	remoteAddr string
	send       chan []byte
	closeOnce  sync.Once
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() { close(s.send) })
}

// hub fans snapshots out to WebSocket subscribers.
type hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
}

func newHub() *hub {
	return &hub{subscribers: make(map[*subscriber]struct{})}
}

// add queues the snapshot current returns and registers s in one critical
// section, so every later broadcast reaches s.
func (h *hub) add(s *subscriber, current func() Snapshot) {
	h.mu.Lock()
	if data, err := json.Marshal(current()); err == nil {
		s.send <- data
	}
	h.subscribers[s] = struct{}{}
	h.mu.Unlock()
	logging.LogRelayClient(s.remoteAddr, "subscribed")
}

func (h *hub) remove(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[s]
	delete(h.subscribers, s)
	h.mu.Unlock()

	if ok {
		s.close()
		logging.LogRelayClient(s.remoteAddr, "unsubscribed")
	}
}

// broadcast queues snap for every subscriber. Subscribers whose queue is
// full are dropped.
func (h *hub) broadcast(snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		logging.Error("Failed to encode snapshot", zap.Error(err))
		return
	}

	h.mu.Lock()
	var slow []*subscriber
	for s := range h.subscribers {
		select {
		case s.send <- data:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.Unlock()

	for _, s := range slow {
		logging.Warn("Dropping slow relay subscriber", zap.String("remote_addr", s.remoteAddr))
		h.remove(s)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for s := range h.subscribers {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		h.remove(s)
	}
}

// serve upgrades the request and streams snapshots until the peer leaves.
func (h *hub) serve(w http.ResponseWriter, r *http.Request, current func() Snapshot) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	s := &subscriber{
		conn:       conn,
		remoteAddr: r.RemoteAddr,
		send:       make(chan []byte, sendBuffer),
	}
	h.add(s, current)

	go h.writePump(s)
	h.readPump(s)
}

// readPump discards client messages and keeps the pong deadline fresh.
func (h *hub) readPump(s *subscriber) {
	defer h.remove(s)

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("Relay subscriber read error",
					zap.String("remote_addr", s.remoteAddr),
					zap.Error(err),
				)
			}
			return
		}
	}
}

func (h *hub) writePump(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
