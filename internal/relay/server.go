package relay

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/co2viewer/internal/gauge"
	"github.com/muurk/co2viewer/internal/logging"
	"github.com/muurk/co2viewer/internal/mqtt"
)

const (
	// DefaultListen is the relay's default listen address
	DefaultListen = ":8080"

	// DefaultInterval matches the monitor's poll cadence
	DefaultInterval = 5 * time.Second

	shutdownTimeout = 10 * time.Second
)

// Fetcher returns the sensor's current reading as text.
type Fetcher interface {
	Fetch(ctx context.Context, address string) (string, error)
}

// Publisher receives every poll result. *mqtt.Publisher satisfies it.
type Publisher interface {
	PublishReading(t mqtt.Telemetry) error
	PublishStatus(s mqtt.Status) error
}

// Config holds the relay configuration
type Config struct {
	Address  string
	Listen   string
	Interval time.Duration
	CertPath string // serve HTTPS when both CertPath and KeyPath are set
	KeyPath  string
}

// Server polls one sensor and serves the latest reading.
type Server struct {
	config    Config
	fetcher   Fetcher
	publisher Publisher
	state     state
	hub       *hub
	now       func() time.Time

	mu         sync.Mutex
	httpServer *http.Server

	pollMu     sync.Mutex
	lastOnline *bool
}

// New creates a relay for cfg.Address. publisher may be nil.
func New(cfg Config, fetcher Fetcher, publisher Publisher) (*Server, error) {
	if cfg.Address == "" {
		return nil, errors.New("relay needs a sensor address")
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if (cfg.CertPath == "") != (cfg.KeyPath == "") {
		return nil, errors.New("TLS needs both a certificate and a key")
	}

	return &Server{
		config:    cfg,
		fetcher:   fetcher,
		publisher: publisher,
		hub:       newHub(),
		now:       time.Now,
	}, nil
}

// Handler returns the relay's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/co2", s.handleCO2)
	mux.HandleFunc("/reading", s.handleReading)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// Snapshot returns the latest poll result.
func (s *Server) Snapshot() Snapshot {
	return s.state.get()
}

// Subscribers returns the number of connected WebSocket clients.
func (s *Server) Subscribers() int {
	return s.hub.count()
}

// Run polls and serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}

	if s.config.CertPath != "" {
		tlsConfig, err := NewTLSConfig(s.config.CertPath, s.config.KeyPath)
		if err != nil {
			_ = listener.Close()
			return err
		}
		listener = tls.NewListener(listener, tlsConfig)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	logging.Info("Starting relay",
		zap.String("listen", listener.Addr().String()),
		zap.String("sensor", s.config.Address),
		zap.Duration("interval", s.config.Interval),
		zap.Bool("tls", s.config.CertPath != ""),
		zap.Bool("mqtt", s.publisher != nil),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(listener)
	}()

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	s.startPoller(pollCtx)

	select {
	case <-ctx.Done():
		logging.Info("Shutdown signal received, stopping relay...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("relay server failed: %w", err)
	}
}

// Shutdown stops the HTTP server and disconnects subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	s.hub.closeAll()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	var err error
	if srv != nil {
		if err = srv.Shutdown(ctx); err != nil {
			logging.Warn("Relay shutdown timed out", zap.Error(err))
		}
	}

	logging.Sync()
	return err
}

// startPoller polls immediately and then on every interval until ctx ends.
func (s *Server) startPoller(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()

		for {
			s.PollOnce(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// PollOnce fetches one reading, stores it and fans it out.
func (s *Server) PollOnce(ctx context.Context) Snapshot {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	raw, err := s.fetcher.Fetch(ctx, s.config.Address)
	var reading *Reading
	if err == nil {
		var ppm float64
		if ppm, err = gauge.ParsePPM(raw); err == nil {
			r := NewReading(s.config.Address, raw, ppm, s.now())
			reading = &r
		}
	}
	if err != nil && ctx.Err() != nil {
		return s.state.get()
	}

	logging.LogPoll(s.config.Address, 0, raw, err)
	snap := s.state.update(reading, err, s.now())
	s.hub.broadcast(snap)
	s.publish(snap)
	return snap
}

func (s *Server) publish(snap Snapshot) {
	if s.publisher == nil {
		return
	}

	if s.lastOnline == nil || *s.lastOnline != snap.OK {
		s.publishStatus(snap)
	}

	if !snap.OK {
		return
	}
	r := snap.Reading
	t := mqtt.Telemetry{
		Address:    r.Address,
		PPM:        r.PPM,
		Percentage: r.Percentage,
		Level:      r.Level,
		Timestamp:  r.Timestamp,
	}
	if err := s.publisher.PublishReading(t); err != nil {
		logging.Warn("Failed to publish reading", zap.Error(err))
	}
}

// publishStatus announces snap's online state. The state is only recorded
// once the broker has it, so a failed publish is retried on the next poll.
func (s *Server) publishStatus(snap Snapshot) {
	status := mqtt.Status{Online: snap.OK, Address: s.config.Address, Error: snap.Error, Timestamp: snap.UpdatedAt}
	if err := s.publisher.PublishStatus(status); err != nil {
		logging.Warn("Failed to publish relay status", zap.Error(err))
		return
	}
	online := snap.OK
	s.lastOnline = &online
}

// RepublishStatus announces the current status again. Call it when the
// broker connection comes back, since the broker replaces the retained
// status with the last will when the connection drops.
func (s *Server) RepublishStatus() {
	if s.publisher == nil {
		return
	}

	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	s.lastOnline = nil
	snap := s.state.get()
	if snap.UpdatedAt.IsZero() {
		return
	}
	s.publishStatus(snap)
}

func (s *Server) handleCO2(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.state.get()
	if !snap.OK {
		http.Error(w, "no reading available", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(snap.Reading.Raw))
}

func (s *Server) handleReading(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.state.get()
	status := http.StatusOK
	if !snap.OK {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		logging.Debug("Failed to write reading response", zap.Error(err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.serve(w, r, s.state.get)
}
