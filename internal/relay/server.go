package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/antgateway/ant-core/internal/logging"
	"github.com/antgateway/ant-core/internal/message"
	"github.com/antgateway/ant-core/internal/metrics"
)

// Server owns the TCP listener and coordinates relay client lifecycle.
type Server struct {
	mu   sync.RWMutex
	addr string
	hub  *Hub

	flushInterval    time.Duration
	batchSize        int
	handshakeTimeout time.Duration
	maxClients       int
	channelCapacity  byte

	readyOnce sync.Once
	readyCh   chan struct{}

	lastErrMu sync.Mutex
	lastErr   error
	errCh     chan error

	listener net.Listener

	clientsMu sync.RWMutex
	clients   map[*Client]net.Conn

	wg         sync.WaitGroup
	logger     *slog.Logger
	nextConnID uint64

	totalAccepted      atomic.Uint64
	totalHandshakeFail atomic.Uint64
	totalConnected     atomic.Uint64
	totalDisconnected  atomic.Uint64
}

const (
	defaultFlushInterval    = 5 * time.Millisecond
	defaultBatchSize        = 64
	defaultHandshakeTimeout = 3 * time.Second
)

type Option func(*Server)

// NewServer constructs a relay Server. Without WithHub the server
// creates its own Hub, reachable through Hub().
func NewServer(opts ...Option) *Server {
	s := &Server{
		flushInterval:    defaultFlushInterval,
		batchSize:        defaultBatchSize,
		handshakeTimeout: defaultHandshakeTimeout,
		readyCh:          make(chan struct{}),
		errCh:            make(chan error, 1),
		clients:          make(map[*Client]net.Conn),
		logger:           logging.Component("relay"),
	}
	for _, o := range opts {
		o(s)
	}
	if s.addr == "" {
		s.addr = ":0"
	}
	if s.hub == nil {
		s.hub = New()
	}
	return s
}

func WithListenAddr(a string) Option { return func(s *Server) { s.addr = a } }
func WithHub(h *Hub) Option          { return func(s *Server) { s.hub = h } }

func WithFlushInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.flushInterval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func WithHandshakeTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.handshakeTimeout = d
		}
	}
}

func WithMaxClients(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxClients = n
		}
	}
}

// WithChannelCapacity tells the handshake how many ANT channels the
// gateway's Node was configured with, so it can be advertised to
// connecting clients as HandshakeInfo.ChannelCapacity. n is clamped to
// a byte; callers pass the MaxChannels value of the stick's
// Capabilities message here.
func WithChannelCapacity(n int) Option {
	return func(s *Server) {
		if n < 0 {
			n = 0
		}
		if n > 255 {
			n = 255
		}
		s.channelCapacity = byte(n)
	}
}

// Hub returns the server's backing Hub, suitable for registering as an
// eventmachine.Callback via eventmachine.CallbackFunc(server.Hub().Broadcast).
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) Addr() string           { s.mu.RLock(); defer s.mu.RUnlock(); return s.addr }
func (s *Server) setAddr(a string)       { s.mu.Lock(); s.addr = a; s.mu.Unlock() }
func (s *Server) Ready() <-chan struct{} { return s.readyCh }
func (s *Server) Errors() <-chan error   { return s.errCh }

func (s *Server) setError(err error) {
	if err == nil {
		return
	}
	s.lastErrMu.Lock()
	s.lastErr = err
	s.lastErrMu.Unlock()
	select {
	case s.errCh <- err:
	default:
	}
}

func (s *Server) LastError() error {
	s.lastErrMu.Lock()
	defer s.lastErrMu.Unlock()
	return s.lastErr
}

// Serve accepts TCP clients until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	addr := s.addr
	if addr == "" {
		addr = ":0"
	}
	s.mu.Unlock()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		wrap := fmt.Errorf("%w: %v", ErrListen, err)
		metrics.IncError(mapErrToMetric(wrap))
		s.setError(wrap)
		return wrap
	}
	s.setAddr(ln.Addr().String())
	s.listener = ln
	s.readyOnce.Do(func() { close(s.readyCh) })
	s.logger.Info("tcp_listen", "addr", s.Addr())

	go func() { <-ctx.Done(); _ = ln.Close() }()
	for {
		if err := s.acceptOnce(ctx, ln); err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (s *Server) acceptOnce(ctx context.Context, ln net.Listener) error {
	conn, err := ln.Accept()
	if err != nil {
		select {
		case <-ctx.Done():
			return context.Canceled
		default:
		}
		if _, ok := err.(net.Error); ok {
			time.Sleep(200 * time.Millisecond)
			return nil
		}
		wrap := fmt.Errorf("%w: %v", ErrAccept, err)
		metrics.IncError(mapErrToMetric(wrap))
		s.setError(wrap)
		return wrap
	}

	s.totalAccepted.Add(1)
	connID := atomic.AddUint64(&s.nextConnID, 1)
	connLogger := s.logger.With("conn_id", connID, "remote", conn.RemoteAddr().String())
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
		_ = tcp.SetKeepAlive(true)
		_ = tcp.SetKeepAlivePeriod(30 * time.Second)
	}

	hctx, cancel := context.WithTimeout(ctx, s.handshakeTimeout)
	err = ServerHandshake(hctx, conn, s.handshakeTimeout, s.channelCapacity)
	cancel()
	if err != nil {
		wrap := fmt.Errorf("%w: %v", ErrHandshake, err)
		metrics.IncError(mapErrToMetric(wrap))
		s.setError(wrap)
		metrics.IncRelayReject()
		s.totalHandshakeFail.Add(1)
		connLogger.Warn("relay_handshake_failed", "error", wrap)
		_ = conn.Close()
		return nil
	}

	if s.maxClients > 0 && s.hub.Count() >= s.maxClients {
		metrics.IncRelayReject()
		connLogger.Warn("relay_client_reject_max", "max_clients", s.maxClients)
		_ = conn.Close()
		return nil
	}

	cl := s.newClient()
	s.clientsMu.Lock()
	s.clients[cl] = conn
	s.clientsMu.Unlock()
	s.totalConnected.Add(1)
	connLogger.Info("relay_client_connected")

	s.startWriter(ctx.Done(), conn, cl, connLogger)
	s.startReader(ctx.Done(), conn, cl, connLogger)
	return nil
}

func (s *Server) newClient() *Client {
	bufSize := 512
	if s.hub.OutBufSize > 0 {
		bufSize = s.hub.OutBufSize
	}
	cl := &Client{Out: make(chan message.Message, bufSize), Closed: make(chan struct{})}
	s.hub.Add(cl)
	return cl
}

// Shutdown gracefully closes all relay connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}

	s.clientsMu.Lock()
	for cl, conn := range s.clients {
		_ = conn.Close()
		s.hub.Remove(cl)
		delete(s.clients, cl)
	}
	s.clientsMu.Unlock()

	done := make(chan struct{})
	go func() { s.wg.Wait(); close(done) }()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: shutdown timeout: %v", ErrContext, ctx.Err())
	case <-done:
		s.logger.Info("relay_shutdown_summary",
			"accepted", s.totalAccepted.Load(),
			"handshake_fail", s.totalHandshakeFail.Load(),
			"connected", s.totalConnected.Load(),
			"disconnected", s.totalDisconnected.Load())
		return nil
	}
}
