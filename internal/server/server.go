// Package server accepts client connections and replays their commands on
// the local desktop.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"airkvm/internal/clipboard"
	"airkvm/internal/input"
	"airkvm/internal/network"
	"airkvm/internal/protocol"
	"airkvm/internal/replay"
)

// Config configures a Server.
type Config struct {
	// Addr is the TCP listen address, e.g. "0.0.0.0:7878".
	Addr   string
	Replay replay.Options
	Conn   network.Options
	Logger *slog.Logger
}

// Server provides the WebSocket endpoint and health check.
//
// Every connection gets its own replay engine, so modifier and position
// state never leak between clients. The desktop and clipboard are shared:
// two clients connected at once race on them.
type Server struct {
	cfg    Config
	inj    input.Injector
	cb     clipboard.Clipboard
	logger *slog.Logger

	mu    sync.Mutex
	conns map[string]*network.Conn

	// OnConnectionsChanged, if set, is called with the new count whenever a
	// client connects or disconnects.
	OnConnectionsChanged func(count int)
}

// New creates a server that replays onto inj and cb.
func New(inj input.Injector, cb clipboard.Clipboard, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Replay.Logger = logger
	cfg.Conn.Logger = logger
	return &Server{
		cfg:    cfg,
		inj:    inj,
		cb:     cb,
		logger: logger.With("component", "server"),
		conns:  make(map[string]*network.Conn),
	}
}

// Handler returns the server's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(network.Path, s.handleWebSocket)
	mux.HandleFunc(network.HealthPath, s.handleHealth)
	return s.logMiddleware(s.recoverMiddleware(mux))
}

// ListenAndServe serves until ctx is done, then closes every connection.
func (s *Server) ListenAndServe(ctx context.Context) error {
	// Diagnostic: log all local IPs to help the user pick the right one
	if ips, err := network.GetLocalIPs(); err == nil {
		for _, ip := range ips {
			s.logger.Info("local interface", "ip", ip)
		}
	}

	// tcp4 avoids IPv6-only binding issues on Windows
	ln, err := net.Listen("tcp4", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
		s.CloseAll()
	})
	defer stop()

	s.logger.Info("listening", "addr", ln.Addr().String())
	if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Connections returns the number of connected clients.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// CloseAll starts an orderly close of every connection.
func (s *Server) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := network.Upgrade(w, r, s.cfg.Conn)
	if err != nil {
		s.logger.Warn("failed to upgrade connection", "remote", r.RemoteAddr, "error", err)
		return
	}

	id := uuid.NewString()
	logger := s.logger.With("conn", id, "remote", conn.RemoteAddr())
	s.register(id, conn, logger)
	defer s.unregister(id, logger)

	reply := func(answer protocol.Answer) error {
		data, err := protocol.EncodeAnswer(answer)
		if err != nil {
			return err
		}
		return conn.Send(data)
	}
	opts := s.cfg.Replay
	opts.Logger = logger
	engine := replay.NewEngine(s.inj, s.cb, reply, opts)
	defer engine.Close()

	err = conn.Run(r.Context(), func(data []byte) error {
		cmd, err := protocol.DecodeCommand(data)
		if err != nil {
			return err
		}
		if err := engine.Apply(cmd); err != nil {
			logger.Warn("command failed", "command", cmd.Kind().String(), "error", err)
		}
		return nil
	})
	if err != nil {
		logger.Warn("connection ended with error", "error", err)
	}
}

func (s *Server) register(id string, conn *network.Conn, logger *slog.Logger) {
	s.mu.Lock()
	s.conns[id] = conn
	n := len(s.conns)
	s.mu.Unlock()

	logger.Info("client registered", "total", n)
	if n > 1 {
		logger.Warn("multiple clients connected; their input will interleave", "total", n)
	}
	if s.OnConnectionsChanged != nil {
		s.OnConnectionsChanged(n)
	}
}

func (s *Server) unregister(id string, logger *slog.Logger) {
	s.mu.Lock()
	delete(s.conns, id)
	n := len(s.conns)
	s.mu.Unlock()

	logger.Info("client unregistered", "total", n)
	if s.OnConnectionsChanged != nil {
		s.OnConnectionsChanged(n)
	}
}

// handleHealth handles GET /health (for monitoring and discovery)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(network.Health{Status: "ok", Connections: s.Connections()})
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered", "path", r.URL.Path, "panic", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// logMiddleware logs every request
func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}
