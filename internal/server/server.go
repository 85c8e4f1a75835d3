// Package server exposes the environment to remote learners over
// WebSockets. Each connection gets its own Env, seeded from the server seed
// and the connection's index.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/holdemgym/internal/game"
	"github.com/lox/holdemgym/internal/handid"
	"github.com/lox/holdemgym/internal/randutil"
)

// Config configures the server.
type Config struct {
	Addr      string
	Seed      int64
	Game      game.Config
	Policy    game.Policy // nil selects the threshold policy
	Recorders []game.Recorder
}

// Server represents the WebSocket server
type Server struct {
	cfg      Config
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu          sync.Mutex
	connections map[*Connection]bool
	accepted    int
}

// NewServer creates a new WebSocket server
func NewServer(cfg Config, logger *log.Logger) (*Server, error) {
	if err := cfg.Game.Validate(); err != nil {
		return nil, err
	}
	if cfg.Policy == nil {
		cfg.Policy = game.DefaultThresholdPolicy()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			// Learners are local processes, not browsers.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.WithPrefix("server"),
		connections: make(map[*Connection]bool),
	}, nil
}

// Handler returns the HTTP routes: /ws and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then closes every
// connection.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting WebSocket server", "addr", s.cfg.Addr, "seed", s.cfg.Seed)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	// Hijacked WebSocket connections outlive Shutdown.
	s.Stop()
	if serveErr := <-errCh; !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return err
}

// Stop closes all connections.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		_ = conn.Close()
	}
}

// Connections returns the number of open connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}

func (s *Server) newEnv(idx int, logger *log.Logger) (*game.Env, error) {
	seed := randutil.Derive(s.cfg.Seed, idx)
	rng := randutil.New(seed)
	ids := handid.NewGenerator(randutil.NewReader(randutil.Fork(rng)))

	opts := []game.Option{
		game.WithRNG(rng),
		game.WithLogger(logger),
		game.WithPolicy(s.cfg.Policy),
		game.WithHandIDs(ids.Generate),
	}
	for _, r := range s.cfg.Recorders {
		opts = append(opts, game.WithRecorder(r))
	}
	return game.NewEnv(s.cfg.Game, opts...)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	s.mu.Lock()
	idx := s.accepted
	s.accepted++
	s.mu.Unlock()

	logger := s.logger.With("conn", idx)
	env, err := s.newEnv(idx, logger)
	if err != nil {
		s.logger.Error("Failed to create env", "error", err)
		_ = ws.Close()
		return
	}

	conn := newConnection(idx, ws, env, logger)
	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "conn", idx, "total", total)

	conn.Start()
	go func() {
		<-conn.Done()
		s.mu.Lock()
		delete(s.connections, conn)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("Client disconnected", "conn", idx, "total", total)
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
