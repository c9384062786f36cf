// Package mqtt republishes sensor readings to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	// DefaultPort is the plain MQTT port
	DefaultPort = 1883

	// DefaultTopic is where readings are published
	DefaultTopic = "co2viewer/ppm"

	// DefaultClientID identifies the relay to the broker
	DefaultClientID = "co2viewer-relay"

	publishTimeout = 5 * time.Second
	qos            = 1
)

// ErrNotConnected is returned when publishing before the broker connection is up.
var ErrNotConnected = errors.New("mqtt client not connected")

// ErrStopped is returned by Connect after Disconnect.
var ErrStopped = errors.New("mqtt client stopped")

// Config selects the broker and topic.
type Config struct {
	Broker   string
	Port     int
	Topic    string
	ClientID string
}

// StatusTopic is the retained online/offline topic derived from Topic.
func (c Config) StatusTopic() string {
	return c.Topic + "/status"
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.ClientID == "" {
		c.ClientID = DefaultClientID
	}
	return c
}

// Telemetry is one reading as published on Topic.
type Telemetry struct {
	Address    string    `json:"address"`
	PPM        float64   `json:"ppm"`
	Percentage float64   `json:"percentage"`
	Level      string    `json:"level"`
	Timestamp  time.Time `json:"timestamp"`
}

// Status is the retained message on StatusTopic.
type Status struct {
	Online    bool      `json:"online"`
	Address   string    `json:"address,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher owns one broker connection.
type Publisher struct {
	client    paho.Client
	cfg       Config
	logger    *zap.Logger
	mu        sync.RWMutex
	connected bool
	onConnect func()

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewPublisher configures a publisher with auto-reconnect and an offline
// last-will on the status topic. It does not connect.
func NewPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	p := &Publisher{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	will, err := json.Marshal(Status{Online: false})
	if err != nil {
		return nil, fmt.Errorf("marshal last will: %w", err)
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetBinaryWill(cfg.StatusTopic(), will, qos, true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ paho.Client) {
		p.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		p.setConnected(false)
		logger.Warn("MQTT connection lost", zap.Error(err))
	})

	p.client = paho.NewClient(opts)
	return p, nil
}

// SetOnConnect registers fn to run after every successful connection,
// including automatic reconnects.
func (p *Publisher) SetOnConnect(fn func()) {
	p.mu.Lock()
	p.onConnect = fn
	p.mu.Unlock()
}

// handleConnect runs on paho's goroutine after every (re)connect.
func (p *Publisher) handleConnect() {
	p.setConnected(true)
	p.logger.Info("MQTT connected", zap.String("broker", p.cfg.Broker), zap.Int("port", p.cfg.Port))

	p.mu.RLock()
	fn := p.onConnect
	p.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Config returns the effective configuration.
func (p *Publisher) Config() Config {
	return p.cfg
}

// Connect waits for the initial connection, honoring ctx and Disconnect.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return ErrStopped
	default:
	}

	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			p.setConnected(true)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return ErrStopped
		default:
		}
	}
}

// PublishReading publishes t on the reading topic.
func (p *Publisher) PublishReading(t Telemetry) error {
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	if err := p.publish(p.cfg.Topic, false, t); err != nil {
		return fmt.Errorf("publish reading: %w", err)
	}
	p.logger.Debug("Published reading", zap.String("topic", p.cfg.Topic), zap.Float64("ppm", t.PPM))
	return nil
}

// PublishStatus publishes s as the retained status.
func (p *Publisher) PublishStatus(s Status) error {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}
	if err := p.publish(p.cfg.StatusTopic(), true, s); err != nil {
		return fmt.Errorf("publish status: %w", err)
	}
	p.logger.Debug("Published status", zap.String("topic", p.cfg.StatusTopic()), zap.Bool("online", s.Online))
	return nil
}

func (p *Publisher) publish(topic string, retained bool, payload any) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	token := p.client.Publish(topic, qos, retained, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		p.logger.Error("MQTT publish failed", zap.String("topic", topic), zap.Error(err))
		return err
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect publishes an offline status when possible and closes the
// connection. Safe to call more than once.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() {
		close(p.stopCh)

		if p.IsConnected() {
			if err := p.PublishStatus(Status{Online: false}); err != nil {
				p.logger.Warn("Failed to publish offline status", zap.Error(err))
			}
		}
		if p.client != nil {
			p.client.Disconnect(250)
		}
		p.setConnected(false)
		p.logger.Info("MQTT disconnected")
	})
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}
