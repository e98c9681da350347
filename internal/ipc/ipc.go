// Package ipc is the assistant's control socket: a unix-domain JSON
// channel carrying one command and one response per connection. Hotkey
// daemons and assistant-ctl are the expected clients.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"
)

// DefaultSocketPath is where the daemon listens unless configured
// otherwise.
const DefaultSocketPath = "/tmp/zapdos.sock"

// Gesture and query operations accepted over the socket.
const (
	OpPress   = "press"
	OpRelease = "release"
	OpCancel  = "cancel"
	OpStatus  = "status"
)

// Command is the single request frame a client sends.
type Command struct {
	Op string `json:"op"`
}

// Response is the single reply frame the daemon sends back.
type Response struct {
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	State      string `json:"state,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Reply      string `json:"reply,omitempty"`
}

// Handler executes one command against the controller.
type Handler func(Command) Response

// connDeadline bounds a whole request/response exchange.
const connDeadline = 5 * time.Second

// Server accepts control connections on a unix socket.
type Server struct {
	path    string
	handler Handler
	ln      net.Listener
}

// NewServer prepares a control server; Start binds the socket.
func NewServer(path string, handler Handler) *Server {
	if path == "" {
		path = DefaultSocketPath
	}
	return &Server{path: path, handler: handler}
}

// Start binds the socket, replacing any stale file left by a previous
// run, and serves connections until Close.
func (s *Server) Start() error {
	os.Remove(s.path)

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("listen on control socket: %w", err)
	}
	s.ln = ln
	slog.Info("control socket listening", "path", s.path)

	go s.acceptLoop()
	return nil
}

// Close stops accepting connections and removes the socket file.
func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Error("control socket accept", "error", err)
			continue
		}
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connDeadline))

	var cmd Command
	if err := json.NewDecoder(conn).Decode(&cmd); err != nil {
		json.NewEncoder(conn).Encode(Response{OK: false, Error: "malformed command"})
		return
	}

	resp := s.handler(cmd)
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		slog.Error("control socket write", "op", cmd.Op, "error", err)
	}
}

// Send delivers one command to a running daemon and waits for its
// response.
func Send(path string, cmd Command, timeout time.Duration) (*Response, error) {
	if path == "" {
		path = DefaultSocketPath
	}
	if timeout <= 0 {
		timeout = connDeadline
	}

	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))

	if err := json.NewEncoder(conn).Encode(cmd); err != nil {
		return nil, fmt.Errorf("send command: %w", err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &resp, nil
}
