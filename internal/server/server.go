// Package server hosts crafting benches over telnet and WebSocket. Every
// connection gets its own bench session and mutator; the modifier pool, item
// bases and currency registry are shared read-only.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lawnchairsociety/crucible/internal/antispam"
	"github.com/lawnchairsociety/crucible/internal/bench"
	"github.com/lawnchairsociety/crucible/internal/command"
	"github.com/lawnchairsociety/crucible/internal/config"
	"github.com/lawnchairsociety/crucible/internal/currency"
	"github.com/lawnchairsociety/crucible/internal/items"
	"github.com/lawnchairsociety/crucible/internal/logger"
	"github.com/lawnchairsociety/crucible/internal/mods"
	"github.com/lawnchairsociety/crucible/internal/mutator"
	"github.com/lawnchairsociety/crucible/internal/stats"
)

const welcomeBanner = `=== The Crucible ===
A crafting bench. Type 'bases' to see what can be forged,
'new <base>' to place an item and 'help' for everything else.`

const shutdownMessage = "The forge is closing. Goodbye."

// Server accepts bench connections.
type Server struct {
	cfg        *config.CrucibleConfig
	pool       *mods.Pool
	bases      *items.BaseCatalog
	currencies *currency.Registry
	recorder   mutator.Recorder
	journal    bench.Journal

	limiter *ConnLimiter

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
	clients    map[Client]struct{}

	connSeq      atomic.Int64
	wg           sync.WaitGroup
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewServer creates a server over the shared crafting data. A nil cfg uses
// the defaults.
func NewServer(cfg *config.CrucibleConfig, pool *mods.Pool, bases *items.BaseCatalog, currencies *currency.Registry) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		cfg:        cfg,
		pool:       pool,
		bases:      bases,
		currencies: currencies,
		limiter:    NewConnLimiter(cfg.Connections),
		clients:    make(map[Client]struct{}),
		shutdown:   make(chan struct{}),
	}
}

// SetRecorder journals every transaction from every bench through r.
// It must be called before the server starts accepting.
func (s *Server) SetRecorder(r mutator.Recorder) {
	s.recorder = r
}

// SetJournal lets benches read persisted transactions back.
func (s *Server) SetJournal(j bench.Journal) {
	s.journal = j
}

// SetData swaps the modifier pool and item bases. Benches already open keep
// the data they started with.
func (s *Server) SetData(pool *mods.Pool, bases *items.BaseCatalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool = pool
	s.bases = bases
}

// Limiter returns the connection limiter.
func (s *Server) Limiter() *ConnLimiter {
	return s.limiter
}

// newSession builds a bench with a private mutator and random source.
// A configured seed is offset by the connection number, so runs replay
// per connection order.
func (s *Server) newSession(owner string) *bench.Session {
	seed := s.cfg.RNG.Seed
	n := s.connSeq.Add(1)
	if seed != 0 {
		seed += n
	}

	s.mu.Lock()
	pool, bases := s.pool, s.bases
	s.mu.Unlock()

	m := mutator.New(pool, mods.NewRoller(stats.NewSource(seed)))
	if s.recorder != nil {
		m.SetRecorder(s.recorder)
	}
	opts := []bench.Option{
		bench.WithOwner(owner),
		bench.WithUndoDepth(s.cfg.Session.UndoDepth),
	}
	if s.journal != nil {
		opts = append(opts, bench.WithJournal(s.journal))
	}
	return bench.NewSession(m, s.currencies, bases, opts...)
}

// Listen opens the telnet listener without accepting yet.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.cfg.Listen.Telnet)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen.Telnet, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	logger.Info("Telnet listener started", "address", listener.Addr().String())
	return nil
}

// Addr returns the telnet listener address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start listens and serves telnet connections until Shutdown.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Serve runs the accept loop on the listener opened by Listen.
func (s *Server) Serve() error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return errors.New("server is not listening")
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return nil
			default:
			}
			logger.Warning("Error accepting connection", "error", err)
			continue
		}
		if !s.spawn(func() { s.handleConnection(conn) }) {
			conn.Close()
			return nil
		}
	}
}

// spawn runs fn on a goroutine that Shutdown waits for. It refuses once
// shutdown has begun.
func (s *Server) spawn(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.shutdown:
		return false
	default:
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
	return true
}

func (s *Server) handleConnection(conn net.Conn) {
	ip := extractIP(conn.RemoteAddr().String())
	release, err := s.limiter.Acquire(ip)
	if err != nil {
		logger.Warning("Connection rejected", "ip", ip, "reason", err)
		fmt.Fprintf(conn, "Connection refused: %v.\r\n", err)
		conn.Close()
		return
	}
	defer release()

	s.handleClient(NewTelnetClient(conn))
}

// StartWebSocket serves the /ws endpoint until Shutdown.
func (s *Server) StartWebSocket() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocketUpgrade)

	srv := &http.Server{
		Addr:              s.cfg.Listen.WebSocket,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	select {
	case <-s.shutdown:
		s.mu.Unlock()
		return nil
	default:
	}
	s.httpServer = srv
	s.mu.Unlock()

	logger.Info("WebSocket listener started", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket server failed: %w", err)
	}
	return nil
}

func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	ip := requestIP(r)
	release, err := s.limiter.Acquire(ip)
	if err != nil {
		logger.Warning("WebSocket connection rejected", "ip", ip, "reason", err)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket origin rejected", "origin", origin, "host", r.Host)
			}
			return allowed
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		release()
		logger.Warning("WebSocket upgrade failed", "ip", ip, "error", err)
		return
	}
	if s.cfg.WebSocket.MaxMessageSize > 0 {
		conn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	}

	started := s.spawn(func() {
		defer release()
		s.handleClient(NewWebSocketClient(conn))
	})
	if !started {
		release()
		conn.Close()
	}
}

// handleClient runs the command loop for one bench until the connection ends.
func (s *Server) handleClient(client Client) {
	if !s.track(client) {
		client.WriteLine(shutdownMessage)
		client.Close()
		return
	}
	defer s.untrack(client)

	addr := client.RemoteAddr()
	session := s.newSession(addr)
	logger.Info("Bench opened", "address", addr)
	defer func() {
		logger.Info("Bench closed", "address", addr, "transactions", len(session.History()))
	}()

	if err := client.WriteLine(welcomeBanner); err != nil {
		return
	}

	throttle := antispam.NewTracker(s.cfg.Antispam)
	idle := s.cfg.Session.IdleTimeout
	for {
		if idle > 0 {
			client.SetReadDeadline(time.Now().Add(idle))
		}
		line, err := client.ReadLine()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				client.WriteLine("Idle too long. The forge cools.")
				logger.Info("Bench idle timeout", "address", addr)
			}
			return
		}

		cmd := command.ParseCommand(line)
		if cmd.Name != "" && !cmd.IsQuit() {
			if res := throttle.Check(); !res.Allowed {
				msg := fmt.Sprintf("You're working the forge too quickly. Wait %d seconds.", res.WaitSeconds())
				if err := client.WriteLine(msg); err != nil {
					return
				}
				continue
			}
		}
		if out := cmd.Execute(session); out != "" {
			if err := client.WriteLine(out); err != nil {
				return
			}
		}
		if cmd.IsQuit() {
			return
		}
	}
}

// track registers an open client. It refuses once shutdown has begun.
func (s *Server) track(c Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.shutdown:
		return false
	default:
	}
	s.clients[c] = struct{}{}
	return true
}

func (s *Server) untrack(c Client) {
	s.mu.Lock()
	_, open := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if open {
		c.Close()
	}
}

// ConnectedCount returns the number of open benches.
func (s *Server) ConnectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Shutdown stops both listeners, says goodbye to every open bench and waits
// for their loops to finish. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		logger.Info("Server shutting down")

		s.mu.Lock()
		close(s.shutdown)
		listener := s.listener
		httpServer := s.httpServer
		clients := make([]Client, 0, len(s.clients))
		for c := range s.clients {
			clients = append(clients, c)
		}
		s.clients = make(map[Client]struct{})
		s.mu.Unlock()

		if listener != nil {
			listener.Close()
		}
		if httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := httpServer.Shutdown(ctx); err != nil {
				logger.Warning("WebSocket server shutdown", "error", err)
			}
			cancel()
		}

		for _, c := range clients {
			c.WriteLine(shutdownMessage)
			c.Close()
		}
		s.wg.Wait()
	})
}
