package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/dungeongen/internal/config"
	"github.com/lawnchairsociety/dungeongen/internal/database"
	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    generateRequest
		wantErr bool
	}{
		{"generate 50 50", generateRequest{Width: 50, Height: 50}, false},
		{"generate 40 30 42", generateRequest{Width: 40, Height: 30, Seed: 42, HasSeed: true}, false},
		{"GENERATE 40 30 -7", generateRequest{Width: 40, Height: 30, Seed: -7, HasSeed: true}, false},
		{"generate  20\t20 ", generateRequest{Width: 20, Height: 20}, false},
		{"generate 50", generateRequest{}, true},
		{"generate 50 50 1 2", generateRequest{}, true},
		{"generate x 50", generateRequest{}, true},
		{"generate 50 y", generateRequest{}, true},
		{"generate 50 50 seed", generateRequest{}, true},
		{"dig 50 50", generateRequest{}, true},
		{"", generateRequest{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLine(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseLine_Quit(t *testing.T) {
	if _, err := parseLine("quit"); err != errQuit {
		t.Errorf("parseLine(quit) error = %v, want errQuit", err)
	}
}

func testServerConfig() config.ServerConfig {
	cfg := config.DefaultConfig().Server
	cfg.Connections = config.ConnectionsConfig{MaxPerIP: 5, MaxTotal: 10}
	cfg.RateLimit = config.RateLimitConfig{MaxFailures: 3, LockoutSeconds: 60, MaxLockoutSeconds: 60}
	cfg.MaxGridSize = 100
	return cfg
}

// startServer serves s on an httptest server and returns its ws:// URL.
func startServer(t *testing.T, s *Server) string {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Shutdown(ctx)
		ts.Close()
	})
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func request(t *testing.T, conn *websocket.Conn, line string) response {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		t.Fatalf("write %q: %v", line, err)
	}
	return readResponse(t, conn)
}

func readResponse(t *testing.T, conn *websocket.Conn) response {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	return resp
}

func TestServer_Generate(t *testing.T) {
	s := NewServer(testServerConfig(), config.DefaultConfig().Generation)
	conn := dial(t, startServer(t, s))

	resp := request(t, conn, "generate 50 50 42")
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.MapDocument == nil {
		t.Fatal("reply carries no map")
	}
	if resp.Seed != 42 || resp.Width != 50 || resp.Height != 50 {
		t.Errorf("header = seed %d, %dx%d", resp.Seed, resp.Width, resp.Height)
	}
	if len(resp.Rooms) != dungeon.DefaultRoomCount {
		t.Errorf("rooms = %d, want %d", len(resp.Rooms), dungeon.DefaultRoomCount)
	}
	if len(resp.Tiles) != 50 || len(resp.Tiles[0]) != 50 {
		t.Errorf("tiles are not 50x50")
	}
	if resp.MapID != 0 {
		t.Errorf("MapID = %d without a store", resp.MapID)
	}

	m, err := dungeon.New(50, 50, dungeon.WithSeed(42))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Generate(); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Fingerprint != m.Fingerprint() {
		t.Error("served map differs from a local map with the same seed")
	}

	// The connection stays usable for further requests.
	again := request(t, conn, "generate 50 50 42")
	if again.Fingerprint != resp.Fingerprint {
		t.Error("same seed served a different map")
	}
}

func TestServer_ErrorReplies(t *testing.T) {
	s := NewServer(testServerConfig(), config.DefaultConfig().Generation)
	conn := dial(t, startServer(t, s))

	tests := []struct {
		line string
		want string
	}{
		{"generate 4 4", "dungeon:"},
		{"generate 500 500", "exceeds"},
		{"teleport", "unknown command"},
	}
	for _, tt := range tests {
		resp := request(t, conn, tt.line)
		if !strings.Contains(resp.Error, tt.want) {
			t.Errorf("%q: error = %q, want it to contain %q", tt.line, resp.Error, tt.want)
		}
		if resp.MapDocument != nil {
			t.Errorf("%q: error reply carries a map", tt.line)
		}
		// A good request between bad ones keeps the client below the lockout.
		if resp := request(t, conn, "generate 50 50 1"); resp.Error != "" {
			t.Fatalf("generate after error: %s", resp.Error)
		}
	}
}

func TestServer_Quit(t *testing.T) {
	s := NewServer(testServerConfig(), config.DefaultConfig().Generation)
	conn := dial(t, startServer(t, s))

	if err := conn.WriteMessage(websocket.TextMessage, []byte("quit")); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the server to close the connection after quit")
	}
}

func TestServer_ConnectionLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.Connections = config.ConnectionsConfig{MaxPerIP: 1, MaxTotal: 10}
	s := NewServer(cfg, config.DefaultConfig().Generation)
	url := startServer(t, s)

	dial(t, url)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("second connection from the same IP should be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %v", resp)
	}
}

func TestServer_OriginRejected(t *testing.T) {
	s := NewServer(testServerConfig(), config.DefaultConfig().Generation)
	url := startServer(t, s)

	header := http.Header{"Origin": []string{"http://evil.example"}}
	if _, _, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Fatal("cross-origin connection should be rejected")
	}

	// The slot is released after the 403 is written.
	deadline := time.Now().Add(time.Second)
	for {
		total, _ := s.connLimiter.Stats()
		if total == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("rejected upgrade kept %d connection slots", total)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServer_Lockout(t *testing.T) {
	s := NewServer(testServerConfig(), config.DefaultConfig().Generation)
	url := startServer(t, s)
	conn := dial(t, url)

	for i := 0; i < 3; i++ {
		if resp := request(t, conn, "nonsense"); resp.Error == "" {
			t.Fatalf("request %d should fail", i+1)
		}
	}

	lockout := readResponse(t, conn)
	if !strings.Contains(lockout.Error, "locked out") {
		t.Errorf("lockout reply = %q", lockout.Error)
	}

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("locked out client should not reconnect")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %v", resp)
	}
}

type memoryStore struct {
	mu     sync.Mutex
	nextID int64
	byFP   map[string]int64
}

func (m *memoryStore) SaveMap(rec database.MapRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byFP == nil {
		m.byFP = make(map[string]int64)
	}
	if _, ok := m.byFP[rec.Fingerprint]; ok {
		return 0, database.ErrDuplicateMap
	}
	m.nextID++
	m.byFP[rec.Fingerprint] = m.nextID
	return m.nextID, nil
}

func (m *memoryStore) GetMapByFingerprint(fp string) (*database.MapRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byFP[fp]
	if !ok {
		return nil, database.ErrMapNotFound
	}
	return &database.MapRecord{ID: id, Fingerprint: fp}, nil
}

func TestServer_SavesMaps(t *testing.T) {
	s := NewServer(testServerConfig(), config.DefaultConfig().Generation)
	s.SetStore(&memoryStore{})
	conn := dial(t, startServer(t, s))

	first := request(t, conn, "generate 50 50 1")
	second := request(t, conn, "generate 50 50 2")
	repeat := request(t, conn, "generate 50 50 1")

	if first.MapID != 1 || second.MapID != 2 {
		t.Errorf("map IDs = %d, %d, want 1, 2", first.MapID, second.MapID)
	}
	if repeat.MapID != first.MapID {
		t.Errorf("repeated map ID = %d, want %d", repeat.MapID, first.MapID)
	}
}

func TestServer_SavesMapsToDatabase(t *testing.T) {
	db, err := database.Open(t.TempDir() + "/maps.db")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	s := NewServer(testServerConfig(), config.DefaultConfig().Generation)
	s.SetStore(db)
	conn := dial(t, startServer(t, s))

	resp := request(t, conn, "generate 50 50 9")
	if resp.MapID == 0 {
		t.Fatal("map was not stored")
	}

	rec, err := db.GetMap(resp.MapID)
	if err != nil {
		t.Fatalf("GetMap: %v", err)
	}
	if rec.Fingerprint != resp.Fingerprint || len(rec.Rooms) != len(resp.Rooms) {
		t.Error("stored map does not match the served one")
	}
}

func TestServer_Shutdown(t *testing.T) {
	s := NewServer(testServerConfig(), config.DefaultConfig().Generation)
	conn := dial(t, startServer(t, s))

	// Make sure the handler is running before shutting down.
	request(t, conn, "generate 50 50 1")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection should be closed after Shutdown")
	}
	if err := s.ListenAndServe(); err != http.ErrServerClosed {
		t.Errorf("ListenAndServe after Shutdown = %v, want ErrServerClosed", err)
	}
}
