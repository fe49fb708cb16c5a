// Package telemetry serves a websocket feed of per-frame cloud grid
// statistics.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/skyfield/internal/logger"
)

const (
	// sendBuffer is how many snapshots a client may fall behind before it
	// is dropped.
	sendBuffer   = 16
	writeTimeout = 2 * time.Second
)

// Snapshot is one frame of grid statistics.
type Snapshot struct {
	Frame             uint64 `json:"frame"`
	ViewerCoord       [2]int `json:"viewer_coord"`
	LiveChunks        int    `json:"live_chunks"`
	InitializedChunks int    `json:"initialized_chunks"`
	Created           uint64 `json:"created"`
	Disposed          uint64 `json:"disposed"`
	Draws             int    `json:"draws"`
	Culled            int    `json:"culled"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Server broadcasts snapshots to every connected websocket client.
// Publish never blocks the caller.
type Server struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}

	http *http.Server
}

// NewServer creates a server. Call Start to listen, or mount Handler.
func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			// Local debugging feed, any origin may read it.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:     logger.Named("telemetry"),
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP handler serving /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start listens on addr in the background.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.http = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.log.Info("telemetry listening", zap.String("addr", ln.Addr().String()))

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("telemetry server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Close stops the listener and disconnects every client.
func (s *Server) Close(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	s.mu.Lock()
	for c := range s.clients {
		c.close()
		delete(s.clients, c)
	}
	s.mu.Unlock()
	return err
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Publish sends snap to every client. Clients whose queue is full are
// disconnected.
func (s *Server) Publish(snap Snapshot) {
	s.mu.Lock()
	n := len(s.clients)
	s.mu.Unlock()
	if n == 0 {
		return
	}

	msg, err := json.Marshal(snap)
	if err != nil {
		s.log.Error("encoding snapshot", zap.Error(err))
		return
	}
	s.broadcast(msg)
}

func (s *Server) broadcast(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.log.Warn("dropping slow telemetry client")
			c.close()
			delete(s.clients, c)
		}
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		c.close()
	}
	s.mu.Unlock()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.log.Debug("telemetry client connected", zap.String("remote", r.RemoteAddr))

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop discards client messages and notices disconnects.
func (s *Server) readLoop(c *client) {
	defer s.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.log.Debug("telemetry write failed", zap.Error(err))
			s.remove(c)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
}
