// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"net"
	"net/http"
	"sync"

	applog "probe/internal/log"

	"github.com/gorilla/websocket"
)

// wsSample is the wire form of one sample.
type wsSample struct {
	Index int     `json:"i"`
	Value float32 `json:"v"`
}

// WSMessage is the JSON document broadcast for every drained batch.
type WSMessage struct {
	Session string     `json:"session"`
	Port    string     `json:"port"`
	Samples []wsSample `json:"samples"`
}

// WebSocketTransport serves /ws and broadcasts every batch to connected clients.
type WebSocketTransport struct {
	session   string
	port      string
	listener  net.Listener
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan WSMessage
	server    *http.Server
	done      chan struct{}
	closeOnce sync.Once
}

// NewWebSocketTransport listens on addr ("host:port", port 0 picks a free one)
// and starts serving. Messages carry session and port so a client watching
// several probes can tell them apart.
func NewWebSocketTransport(addr, session, port string) (*WebSocketTransport, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	wst := &WebSocketTransport{
		session:  session,
		port:     port,
		listener: ln,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan WSMessage, 256),
		done:      make(chan struct{}),
	}

	wst.start()
	return wst, nil
}

// Addr returns the address the server is bound to.
func (wst *WebSocketTransport) Addr() string {
	return wst.listener.Addr().String()
}

func (wst *WebSocketTransport) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)

	wst.server = &http.Server{Handler: mux}

	go func() {
		applog.Infof("WebSocketTransport: serving on ws://%s/ws", wst.Addr())
		if err := wst.server.Serve(wst.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocketTransport: server error: %v", err)
		}
	}()

	go wst.handleBroadcasts()
}

func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketTransport: upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("WebSocketTransport: client connected, total: %d", total)

	// Read until the connection fails so control frames are handled. Data
	// from clients is ignored.
	go func() {
		defer wst.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (wst *WebSocketTransport) removeClient(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	if ok {
		conn.Close()
		applog.Infof("WebSocketTransport: client disconnected, total: %d", total)
	}
}

// ClientCount returns the number of connected clients.
func (wst *WebSocketTransport) ClientCount() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case msg := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				if err := client.WriteJSON(msg); err != nil {
					applog.Warnf("WebSocketTransport: error sending to client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		case <-wst.done:
			return
		}
	}
}

// Send copies the batch into a message and queues it. A full queue drops the
// message; slow browsers must not stall the drainer.
func (wst *WebSocketTransport) Send(batch []Sample) error {
	if len(batch) == 0 {
		return nil
	}
	msg := WSMessage{
		Session: wst.session,
		Port:    wst.port,
		Samples: make([]wsSample, len(batch)),
	}
	for i, s := range batch {
		msg.Samples[i] = wsSample{Index: s.Index, Value: s.Value}
	}

	select {
	case <-wst.done:
		return ErrClosed
	default:
	}

	select {
	case wst.broadcast <- msg:
	default:
		applog.Debugf("WebSocketTransport: queue full, dropped batch of %d samples", len(batch))
	}
	return nil
}

// Close disconnects all clients and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		applog.Infof("WebSocketTransport: closing server")
		close(wst.done)

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()

		err = wst.server.Close()
	})
	return err
}

var _ Transport = (*WebSocketTransport)(nil)
