// Package server runs the WebSocket preview server. Clients send
// "generate <width> <height> [seed]" lines and receive each map as JSON.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/dungeongen/internal/config"
	"github.com/lawnchairsociety/dungeongen/internal/database"
	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
	"github.com/lawnchairsociety/dungeongen/internal/export"
	"github.com/lawnchairsociety/dungeongen/internal/logger"
)

// MapStore persists served maps. *database.Database satisfies it.
type MapStore interface {
	SaveMap(rec database.MapRecord) (int64, error)
	GetMapByFingerprint(fingerprint string) (*database.MapRecord, error)
}

type Server struct {
	cfg          config.ServerConfig
	generation   config.GenerationConfig
	store        MapStore
	connLimiter  *ConnLimiter
	failures     *FailureLimiter
	httpServer   *http.Server
	mu           sync.Mutex
	conns        map[*websocket.Conn]struct{}
	closed       bool
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewServer creates a preview server. Every map is generated with the
// given settings; a seed in the request overrides the configured one.
func NewServer(cfg config.ServerConfig, generation config.GenerationConfig) *Server {
	return &Server{
		cfg:         cfg,
		generation:  generation,
		connLimiter: NewConnLimiter(cfg.Connections),
		failures:    NewFailureLimiter(cfg.RateLimit),
		conns:       make(map[*websocket.Conn]struct{}),
	}
}

// SetStore enables saving of every served map.
func (s *Server) SetStore(store MapStore) {
	s.store = store
}

// Handler returns the HTTP handler serving /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocketUpgrade)
	return mux
}

// ListenAndServe serves on the configured address until Shutdown.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	s.httpServer = srv
	s.mu.Unlock()

	logger.Info("Preview server listening", "address", s.cfg.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, closes open ones and waits for
// their handlers until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		srv := s.httpServer
		for conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()

		if srv != nil {
			err = srv.Shutdown(ctx)
		}
		s.failures.Stop()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = errors.Join(err, ctx.Err())
		}
	})
	return err
}

func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	clientIP := realIP(r)

	if locked, remaining := s.failures.IsLocked(clientIP); locked {
		logger.Warning("Preview connection rejected - client locked out",
			"client_ip", clientIP,
			"remaining", remaining.Round(time.Second))
		http.Error(w, "Too many rejected requests. Please try again later.", http.StatusTooManyRequests)
		return
	}

	if !s.connLimiter.TryAcquire(clientIP) {
		logger.Warning("Preview connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("Preview connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		s.connLimiter.Release(clientIP)
		return
	}

	if !s.track(conn) {
		conn.Close()
		s.connLimiter.Release(clientIP)
		return
	}

	go s.handleConnection(conn, clientIP)
}

// track registers conn for Shutdown. It returns false once shutdown began.
func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) handleConnection(conn *websocket.Conn, clientIP string) {
	defer func() {
		s.connLimiter.Release(clientIP)
		conn.Close()
		s.untrack(conn)
	}()

	if s.cfg.WebSocket.MaxMessageSize > 0 {
		conn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	}

	client := NewWebSocketClient(conn)
	logger.Info("Preview client connected", "client_ip", clientIP)

	for {
		line, err := client.ReadLine()
		if err != nil {
			logger.Debug("Preview client disconnected", "client_ip", clientIP, "error", err)
			return
		}

		resp, quit := s.handleLine(line, clientIP)
		if quit {
			logger.Info("Preview client quit", "client_ip", clientIP)
			return
		}

		if err := client.WriteJSON(resp); err != nil {
			logger.Warning("Failed to write preview reply", "client_ip", clientIP, "error", err)
			return
		}

		if resp.Error == "" {
			s.failures.RecordSuccess(clientIP)
			continue
		}
		if locked, d := s.failures.RecordFailure(clientIP); locked {
			logger.Warning("Preview client locked out", "client_ip", clientIP, "duration", d)
			client.WriteJSON(errorResponse("too many rejected requests, locked out for %s", d.Round(time.Second)))
			return
		}
	}
}

// handleLine answers one request line. The bool is true for quit.
func (s *Server) handleLine(line, clientIP string) (response, bool) {
	req, err := parseLine(line)
	if errors.Is(err, errQuit) {
		return response{}, true
	}
	if err != nil {
		return errorResponse("%v", err), false
	}
	return s.generate(req, clientIP), false
}

func (s *Server) generate(req generateRequest, clientIP string) response {
	if limit := s.cfg.MaxGridSize; limit > 0 && (req.Width > limit || req.Height > limit) {
		return errorResponse("grid %dx%d exceeds the %d tile limit", req.Width, req.Height, limit)
	}

	opts, err := s.generation.Options()
	if err != nil {
		logger.Error("Invalid generation settings", "error", err)
		return errorResponse("server generation settings are invalid")
	}
	if req.HasSeed {
		opts = append(opts, dungeon.WithSeed(req.Seed))
	}

	m, err := dungeon.New(req.Width, req.Height, opts...)
	if err != nil {
		return errorResponse("%v", err)
	}
	if err := m.Generate(); err != nil {
		return errorResponse("%v", err)
	}

	doc := export.NewDocument(m)
	resp := response{MapDocument: &doc}
	if s.store != nil {
		resp.MapID = s.save(m)
	}

	logger.Info("Map served",
		"client_ip", clientIP,
		"seed", m.Seed(),
		"width", m.Width(),
		"height", m.Height(),
		"rooms", len(doc.Rooms),
		"map_id", resp.MapID)

	return resp
}

// save stores m and returns its ID, or 0 when it could not be stored.
func (s *Server) save(m *dungeon.Map) int64 {
	id, err := s.store.SaveMap(database.RecordFromMap(m))
	if errors.Is(err, database.ErrDuplicateMap) {
		existing, lookupErr := s.store.GetMapByFingerprint(m.Fingerprint())
		if lookupErr != nil {
			logger.Error("Failed to look up stored map", "fingerprint", m.Fingerprint(), "error", lookupErr)
			return 0
		}
		return existing.ID
	}
	if err != nil {
		logger.Error("Failed to save map", "seed", m.Seed(), "error", err)
		return 0
	}
	return id
}
