package monitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/co2viewer/internal/gauge"
	"github.com/muurk/co2viewer/internal/logging"
)

// DisplayState selects which panel is visible.
type DisplayState int

const (
	// ShowForm shows the address form.
	ShowForm DisplayState = iota
	// ShowGauge shows the latest reading.
	ShowGauge
)

// String returns the state name used in logs.
func (s DisplayState) String() string {
	switch s {
	case ShowGauge:
		return "gauge"
	default:
		return "form"
	}
}

// Trigger identifies what asked for a cycle.
type Trigger int

const (
	// TriggerStartup is the one cycle run when the session opens.
	TriggerStartup Trigger = iota
	// TriggerTick is the periodic poll.
	TriggerTick
	// TriggerRefresh is a manual refresh.
	TriggerRefresh
	// TriggerSubmit is a form submission.
	TriggerSubmit
)

// String returns the trigger name used in logs.
func (t Trigger) String() string {
	switch t {
	case TriggerStartup:
		return "startup"
	case TriggerTick:
		return "tick"
	case TriggerRefresh:
		return "refresh"
	case TriggerSubmit:
		return "submit"
	default:
		return "unknown"
	}
}

// AddressStore persists the sensor address.
type AddressStore interface {
	Load() (string, bool)
	Save(addr string) error
}

// Fetcher returns the sensor's current reading as text.
type Fetcher interface {
	Fetch(ctx context.Context, address string) (string, error)
}

// Cycle is one accepted fetch-and-render pass.
type Cycle struct {
	Seq     uint64
	Trigger Trigger
	Address string
	// Persist is set for submissions; Run saves Address before fetching.
	Persist bool
}

// Outcome is what Run produced for a cycle.
type Outcome struct {
	Cycle Cycle
	Raw   string
	Err   error
}

// Result is the effect of a completed cycle on the display.
type Result struct {
	State DisplayState
	// Reading is non-nil only when the gauge must be redrawn.
	Reading *gauge.Reading
	Label   string
	Err     error
}

// Snapshot is a copy of the session at one instant.
type Snapshot struct {
	Address     string
	State       DisplayState
	Reading     *gauge.Reading
	Label       string
	LastErr     error
	InFlight    bool
	Started     bool
	LastUpdated time.Time
}

// Monitor is the session context shared by the UI loop and its fetch commands.
type Monitor struct {
	store   AddressStore
	fetcher Fetcher
	now     func() time.Time

	mu          sync.Mutex
	address     string
	state       DisplayState
	reading     *gauge.Reading
	label       string
	lastErr     error
	seq         uint64
	inFlight    bool
	started     bool
	lastUpdated time.Time
}

// New creates a Monitor in ShowForm with the stored address, if any.
func New(store AddressStore, fetcher Fetcher) *Monitor {
	m := &Monitor{
		store:   store,
		fetcher: fetcher,
		now:     time.Now,
		state:   ShowForm,
	}
	if addr, ok := store.Load(); ok {
		m.address = addr
	}
	return m
}

// UseAddress replaces the session address without persisting it.
func (m *Monitor) UseAddress(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.address = strings.TrimSpace(addr)
}

// Begin starts a cycle for trigger. It returns false when the trigger is
// guarded off: a repeated startup, a tick or refresh while the form is
// showing, or any trigger while another cycle is in flight.
func (m *Monitor) Begin(trigger Trigger) (Cycle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch trigger {
	case TriggerStartup:
		if m.started {
			return Cycle{}, false
		}
		m.started = true
	case TriggerTick, TriggerRefresh:
		if !m.started || m.state == ShowForm || m.inFlight {
			return Cycle{}, false
		}
	default:
		return Cycle{}, false
	}

	return m.beginLocked(trigger, false), true
}

// Submit accepts a new address from the form and starts a persisting cycle.
// It is ignored unless the form is showing and addr is not blank. Any cycle
// already in flight is superseded.
func (m *Monitor) Submit(addr string) (Cycle, bool) {
	addr = strings.TrimSpace(addr)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != ShowForm || addr == "" {
		return Cycle{}, false
	}

	m.started = true
	m.address = addr
	return m.beginLocked(TriggerSubmit, true), true
}

func (m *Monitor) beginLocked(trigger Trigger, persist bool) Cycle {
	m.seq++
	m.inFlight = true
	return Cycle{
		Seq:     m.seq,
		Trigger: trigger,
		Address: m.address,
		Persist: persist,
	}
}

// Run performs the blocking part of a cycle. A failed save is logged by the
// store and does not prevent the fetch.
func (m *Monitor) Run(ctx context.Context, c Cycle) Outcome {
	if c.Persist {
		_ = m.store.Save(c.Address)
	}
	raw, err := m.fetcher.Fetch(ctx, c.Address)
	return Outcome{Cycle: c, Raw: raw, Err: err}
}

// Complete applies an outcome. It returns false for outcomes of superseded
// cycles, which leave the session untouched.
func (m *Monitor) Complete(o Outcome) (Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if o.Cycle.Seq != m.seq {
		logging.Debug("Discarding stale cycle",
			zap.Uint64("cycle", o.Cycle.Seq),
			zap.Uint64("current", m.seq),
		)
		return Result{}, false
	}

	m.inFlight = false
	m.lastUpdated = m.now()
	logging.LogPoll(o.Cycle.Address, o.Cycle.Seq, o.Raw, o.Err)

	if o.Err != nil {
		m.state = ShowForm
		m.lastErr = o.Err
		return Result{State: ShowForm, Err: o.Err}, true
	}

	ppm, err := gauge.ParsePPM(o.Raw)
	if err != nil {
		m.state = ShowForm
		m.lastErr = err
		return Result{State: ShowForm, Err: err}, true
	}

	reading := gauge.NewReading(ppm)
	m.state = ShowGauge
	m.reading = &reading
	m.label = gauge.Label(o.Raw)
	m.lastErr = nil

	return Result{State: ShowGauge, Reading: &reading, Label: m.label}, true
}

// Snapshot returns a copy of the current session.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Address:     m.address,
		State:       m.state,
		Label:       m.label,
		LastErr:     m.lastErr,
		InFlight:    m.inFlight,
		Started:     m.started,
		LastUpdated: m.lastUpdated,
	}
	if m.reading != nil {
		r := *m.reading
		s.Reading = &r
	}
	return s
}
