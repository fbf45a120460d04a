package server

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketClient reads request lines from and writes JSON replies to a
// preview connection.
type WebSocketClient struct {
	conn    *websocket.Conn
	readBuf []string // lines left over from a multi-line message
	writeMu sync.Mutex
}

// NewWebSocketClient wraps conn.
func NewWebSocketClient(conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{conn: conn}
}

// ReadLine blocks until a non-empty line arrives. A message holding several
// lines is split and the rest are returned by later calls.
func (c *WebSocketClient) ReadLine() (string, error) {
	for len(c.readBuf) == 0 {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		for _, line := range strings.Split(string(message), "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				c.readBuf = append(c.readBuf, trimmed)
			}
		}
	}

	line := c.readBuf[0]
	c.readBuf = c.readBuf[1:]
	return line, nil
}

// WriteJSON sends v as one text message.
func (c *WebSocketClient) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close closes the WebSocket connection.
func (c *WebSocketClient) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote address as a string.
func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
