package network

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// Path is the HTTP path the server upgrades to WebSocket.
const Path = "/ws"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins; the peers are not browsers
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Dial connects to a server. addr is either host:port or a ws:// URL.
func Dial(ctx context.Context, addr string, opts Options) (*Conn, error) {
	target := ServerURL(addr)
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, &Error{Op: "dial " + target, Err: err}
	}
	return NewConn(ws, opts), nil
}

// Upgrade turns an HTTP request into a Conn. On failure the upgrader has
// already written an HTTP error response.
func Upgrade(w http.ResponseWriter, r *http.Request, opts Options) (*Conn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, &Error{Op: "upgrade", Err: err}
	}
	return NewConn(ws, opts), nil
}

// ServerURL normalizes addr to the WebSocket URL of a server.
func ServerURL(addr string) string {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	u := url.URL{Scheme: "ws", Host: addr, Path: Path}
	return u.String()
}
