package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const (
	// writeWait is the allowed duration for one outbound message.
	writeWait = 10 * time.Second
	// pongWait bounds how long a client may stay silent.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Client is one connected live-reload browser.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// handleWebSocket upgrades a live-reload connection after checking its
// origin against the server's own address and any configured extras.
func (s *DevServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrigin(r) {
		s.logger.Warn(r.Context(), nil, "websocket origin rejected", "origin", r.Header.Get("Origin"))
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // origin validated above
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 16),
	}

	s.register <- client

	go s.writePump(client)
	go s.readPump(client)
}

// checkOrigin allows same-host origins plus the configured allow list.
// An absent Origin header means a non-browser client and is accepted.
func (s *DevServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	hostPort := s.cfg.Server.Host + ":" + strconv.Itoa(s.cfg.Server.Port)
	allowed := []string{
		"http://" + hostPort,
		"https://" + hostPort,
		"http://localhost:" + strconv.Itoa(s.cfg.Server.Port),
		"http://127.0.0.1:" + strconv.Itoa(s.cfg.Server.Port),
	}
	allowed = append(allowed, s.cfg.Server.AllowedOrigins...)

	for _, a := range allowed {
		if strings.EqualFold(origin, a) {
			return true
		}
	}

	return false
}

// runWebSocketHub owns the client set and fans broadcasts out to it.
func (s *DevServer) runWebSocketHub(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.clientsMutex.Lock()
			for conn, client := range s.clients {
				close(client.send)
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
			}
			s.clients = make(map[*websocket.Conn]*Client)
			s.clientsMutex.Unlock()
			return

		case client := <-s.register:
			s.clientsMutex.Lock()
			s.clients[client.conn] = client
			count := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Debug(ctx, "live-reload client connected", "clients", count)

		case conn := <-s.unregister:
			s.clientsMutex.Lock()
			if client, ok := s.clients[conn]; ok {
				delete(s.clients, conn)
				close(client.send)
			}
			count := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Debug(ctx, "live-reload client disconnected", "clients", count)

		case message := <-s.broadcast:
			s.clientsMutex.RLock()
			for conn, client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Slow client, drop it.
					go func(c *websocket.Conn) { s.unregister <- c }(conn)
				}
			}
			s.clientsMutex.RUnlock()
		}
	}
}

// readPump drains inbound frames so pings are processed, and unregisters
// the client when the connection drops.
func (s *DevServer) readPump(client *Client) {
	defer func() {
		s.unregister <- client.conn
		_ = client.conn.Close(websocket.StatusNormalClosure, "")
	}()

	client.conn.SetReadLimit(512)

	for {
		ctx, cancel := context.WithTimeout(context.Background(), pongWait)
		_, _, err := client.conn.Read(ctx)
		cancel()
		if err != nil {
			return
		}
	}
}

// writePump sends queued messages and periodic pings.
func (s *DevServer) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := client.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := client.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
