package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"rcmd/internal/commands"
	"rcmd/internal/config"
	"rcmd/internal/metrics"
)

// ErrServerClosed is returned by Serve after Stop.
var ErrServerClosed = errors.New("tcp: server closed")

// Options tunes connection handling. Zero values pick the defaults.
type Options struct {
	MaxMessageSize int           // default MaxMessageSize
	RateLimit      float64       // requests per second per connection, 0 = unlimited
	RateBurst      int           // default 1 when RateLimit is set
	IdleTimeout    time.Duration // 0 = a connection may stay idle forever
	Events         *EventLogger  // default: JSON events on stdout
	Metrics        *metrics.Metrics
}

// TCPServer accepts connections and runs one handling goroutine per connection.
type TCPServer struct {
	cfg        config.ServerConfig
	opts       Options
	registry   *commands.Registry
	dispatcher *Dispatcher
	events     *EventLogger
	metrics    *metrics.Metrics

	Manager *ConnectionManager

	mu       sync.Mutex
	listener net.Listener

	ctx      context.Context // cancelled on Stop, aborts in-flight handlers
	cancel   context.CancelFunc
	quitChan chan struct{} // closed on Stop
	stopOnce sync.Once
	wg       sync.WaitGroup // handling goroutines
}

// constructor for Server
func NewServer(cfg config.ServerConfig, registry *commands.Registry, opts Options) *TCPServer {
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = MaxMessageSize
	}
	if opts.RateLimit > 0 && opts.RateBurst < 1 {
		opts.RateBurst = 1
	}
	if opts.Events == nil {
		opts.Events = DefaultEventLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &TCPServer{
		cfg:        cfg,
		opts:       opts,
		registry:   registry,
		dispatcher: NewDispatcher(NewAuthGuard(cfg.Token), registry, opts.Events, opts.Metrics),
		events:     opts.Events,
		metrics:    opts.Metrics,
		Manager:    NewConnectionManager(opts.Events.Logger()),
		ctx:        ctx,
		cancel:     cancel,
		quitChan:   make(chan struct{}),
	}
}

// Listen binds the listening socket and emits server_started.
func (s *TCPServer) Listen() error {
	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to start TCP server, error: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	_, port := splitAddr(listener.Addr())
	s.events.ServerStarted(s.cfg.Host, port, s.cfg.AuthEnabled(), s.registry.Names())
	return nil
}

// Start binds and then serves until Stop.
func (s *TCPServer) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Addr returns the bound address, or nil before Listen.
func (s *TCPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the accept loop. It returns ErrServerClosed after Stop.
func (s *TCPServer) Serve() error {
	s.mu.Lock()
	listener := s.listener
	if listener == nil {
		s.mu.Unlock()
		return errors.New("tcp: Serve called before Listen")
	}
	select {
	case <-s.quitChan:
		s.mu.Unlock()
		return ErrServerClosed
	default:
	}
	// the accept loop counts as a member of wg so Stop waits for it too
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	var backoff time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.quitChan:
				return ErrServerClosed
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.events.AcceptError(err)
			// back off on e.g. EMFILE so the loop does not spin
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff = min(backoff*2, time.Second)
			}
			select {
			case <-time.After(backoff):
			case <-s.quitChan:
				return ErrServerClosed
			}
			continue
		}
		backoff = 0

		// add +1 to wait group for the new connection handler goroutine
		s.wg.Add(1)
		go func(conn net.Conn) {
			defer s.wg.Done()
			s.handleConnection(conn)
		}(conn)
	}
}

// handleConnection owns conn for its whole lifetime and emits exactly one
// client_connected and one client_disconnected event.
func (s *TCPServer) handleConnection(conn net.Conn) {
	client := NewClientConnection(conn, s)
	s.events.ClientConnected(client.IP, client.Port, client.ID)
	s.metrics.ConnectionOpened()

	defer func() {
		s.Manager.RemoveConnection(client)
		client.Close()
		s.metrics.ConnectionClosed()
		s.events.ClientDisconnected(client.IP, client.Port, client.ID)
	}()

	if !s.Manager.AddConnection(client) {
		return // accepted while shutting down
	}
	client.Listen(s.ctx)
}

// Stop closes the listener and every live connection, waits for the handling
// goroutines to finish and emits server_stopped. Safe to call more than once.
func (s *TCPServer) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		close(s.quitChan) // signal the accept loop
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Unlock()
		s.cancel() // abort running handlers

		s.Manager.CloseAllConnections()
		s.wg.Wait()
		s.events.ServerStopped()
	})
}

// ConnectionCount returns the number of live connections.
func (s *TCPServer) ConnectionCount() int {
	return s.Manager.Count()
}

// Commands returns the registered command names.
func (s *TCPServer) Commands() []string {
	return s.registry.Names()
}
