// Package monitor broadcasts live proof-translation progress over a
// websocket, so a browser tab can watch a large run without polling the
// stats database.
//
// This is a rewrite of sentra-language-sentra's
// internal/network/websocket.go/websocket_server.go shape (an
// http.Server-backed accept loop using a gorilla/websocket.Upgrader, one
// per-client reader goroutine, a registry of live connections guarded by a
// mutex) repurposed from VM-execution events to proof-translation progress
// events, and collapsed to server-only broadcast: nothing here needs to
// receive messages back from a connected browser.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is one JSON progress update, sent as its own websocket text message
// to every connected client.
type Event struct {
	Phase    string `json:"phase"`
	Clauses  int    `json:"clauses"`
	Message  string `json:"message,omitempty"`
}

// Server accepts websocket connections on a single address and fans out
// every Publish call to all of them.
type Server struct {
	httpServer *http.Server
	upgrader   websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
	nextID  int
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Listen starts a websocket server on addr (e.g. ":8787") and returns
// immediately; the server runs until Close is called.
func Listen(addr string) (*Server, error) {
	s := &Server{
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)

	s.httpServer = &http.Server{Addr: addr, Handler: mux}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("monitor: listen %s: %w", addr, err)
	}

	go s.httpServer.Serve(ln)

	return s, nil
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{conn: conn, send: make(chan Event, 64)}

	s.mu.Lock()
	id := fmt.Sprintf("client-%d", s.nextID)
	s.nextID++
	s.clients[id] = c
	s.mu.Unlock()

	go s.writeLoop(id, c)
}

// writeLoop drains c.send to the websocket connection until it's closed or
// the channel is closed by Close, mirroring readMessages' dedicated
// per-connection goroutine in the grounding source (there, a reader; here,
// a writer, since this server only ever pushes progress downstream).
func (s *Server) writeLoop(id string, c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, id)
		s.mu.Unlock()
		c.conn.Close()
	}()

	for event := range c.send {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}

		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// Publish broadcasts event to every currently connected client. A client
// whose send buffer is full has its oldest queued event dropped rather than
// blocking the caller, since progress events are inherently a running
// snapshot, not a durable log.
func (s *Server) Publish(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients {
		select {
		case c.send <- event:
		default:
			select {
			case <-c.send:
			default:
			}

			select {
			case c.send <- event:
			default:
			}
		}
	}
}

// Close stops accepting new connections and closes every live client.
func (s *Server) Close() error {
	s.mu.Lock()
	for id, c := range s.clients {
		close(c.send)
		delete(s.clients, id)
	}
	s.mu.Unlock()

	return s.httpServer.Shutdown(context.Background())
}
