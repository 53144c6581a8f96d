package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
)

// client is one connected socket with serialized writes.
type client struct {
	conn    net.Conn
	writeMu sync.Mutex
}

func (c *client) send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.conn.Write(append(data, '\n'))
	return err
}

// Server accepts unix socket connections and dispatches newline-framed JSON
// requests to the handler.
type Server struct {
	socketPath string
	handler    Handler
	listener   net.Listener

	mu       sync.Mutex
	clients  map[*client]struct{}
	beatSubs map[*client]struct{}
	closed   bool
}

// NewServer creates a server for the given socket path.
func NewServer(socketPath string, handler Handler) *Server {
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		clients:    make(map[*client]struct{}),
		beatSubs:   make(map[*client]struct{}),
	}
}

// Start begins listening. A stale socket file from a previous run is removed
// first.
func (s *Server) Start(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}
	s.listener = listener
	log.Printf("[IPC] listening on %s", s.socketPath)

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	go s.acceptLoop(ctx)
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			log.Printf("[IPC] accept error: %v", err)
			continue
		}
		go s.serveConn(ctx, conn)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	c := &client{conn: conn}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		delete(s.beatSubs, c)
		s.mu.Unlock()
		conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			c.send(NewErrorResponse(fmt.Sprintf("malformed request: %v", err)))
			continue
		}

		var resp Response
		switch req.Command {
		case CmdSubscribeBeats:
			s.mu.Lock()
			s.beatSubs[c] = struct{}{}
			s.mu.Unlock()
			resp = NewSuccessResponse(nil)
		case CmdUnsubscribeBeats:
			s.mu.Lock()
			delete(s.beatSubs, c)
			s.mu.Unlock()
			resp = NewSuccessResponse(nil)
		default:
			resp = s.handler.Handle(ctx, req)
		}

		if err := c.send(resp); err != nil {
			log.Printf("[IPC] write error: %v", err)
			return
		}
	}
}

// BroadcastBeat pushes a beat event to every subscribed client. Suitable as
// a scheduler observer.
func (s *Server) BroadcastBeat(index int) {
	msg := NewPushMessage("beat", BeatEvent{Index: index})

	s.mu.Lock()
	subs := make([]*client, 0, len(s.beatSubs))
	for c := range s.beatSubs {
		subs = append(subs, c)
	}
	s.mu.Unlock()

	for _, c := range subs {
		if err := c.send(msg); err != nil {
			log.Printf("[IPC] push error: %v", err)
		}
	}
}

// Close shuts the listener and all client connections.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	for _, c := range clients {
		c.conn.Close()
	}
	os.Remove(s.socketPath)
}
