package relay

import (
	"sync"
	"time"

	"github.com/muurk/co2viewer/internal/gauge"
)

// Reading is a successful poll as served by the relay.
type Reading struct {
	Address    string    `json:"address"`
	Raw        string    `json:"raw"`
	PPM        float64   `json:"ppm"`
	Percentage float64   `json:"percentage"`
	Level      string    `json:"level"`
	Color      string    `json:"color"`
	Label      string    `json:"label"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewReading builds a Reading from the sensor's raw text and parsed value.
func NewReading(address, raw string, ppm float64, at time.Time) Reading {
	g := gauge.NewReading(ppm)
	return Reading{
		Address:    address,
		Raw:        raw,
		PPM:        g.PPM,
		Percentage: g.Percentage,
		Level:      g.Level.String(),
		Color:      g.Level.Hex(),
		Label:      gauge.Label(raw),
		Timestamp:  at,
	}
}

// Snapshot is the relay's view after the latest poll.
type Snapshot struct {
	OK        bool      `json:"ok"`
	Reading   *Reading  `json:"reading,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// state holds the latest snapshot for concurrent readers.
type state struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

func (s *state) update(r *Reading, err error, at time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = Snapshot{UpdatedAt: at}
	if err != nil {
		s.snapshot.Error = err.Error()
		return s.snapshot
	}
	copied := *r
	s.snapshot.OK = true
	s.snapshot.Reading = &copied
	return s.snapshot
}

func (s *state) get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if snap.Reading != nil {
		copied := *snap.Reading
		snap.Reading = &copied
	}
	return snap
}
