package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/co2viewer/internal/gauge"
	"github.com/muurk/co2viewer/internal/logging"
	"github.com/muurk/co2viewer/internal/monitor"
	"github.com/muurk/co2viewer/internal/sensor"
)

const (
	// DefaultInterval is the poll cadence
	DefaultInterval = 5 * time.Second

	// DefaultRadius is the gauge radius in rows
	DefaultRadius = 7

	// DefaultScanTimeout bounds the suggestion scan
	DefaultScanTimeout = 3 * time.Second
)

// Scanner looks up sensor addresses for form suggestions.
type Scanner interface {
	Addresses(ctx context.Context) ([]string, error)
}

// Options configure the monitor screen.
type Options struct {
	Interval time.Duration
	Radius   int
	// Scanner is optional; without it the form offers no suggestions.
	Scanner     Scanner
	ScanTimeout time.Duration
}

// Messages for async operations
type tickMsg time.Time

type cycleDoneMsg struct {
	outcome monitor.Outcome
}

type scanCompleteMsg struct {
	addresses []string
	err       error
}

// Model is the bubbletea model for the monitor.
type Model struct {
	monitor *monitor.Monitor
	opts    Options

	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	gaugeKey gaugeKeyMap
	formKey  formKeyMap

	// Last completed cycle as shown on screen
	state   monitor.DisplayState
	reading *gauge.Reading
	label   string
	lastErr error

	scanning bool

	Width  int
	Height int
}

// New creates the model around m.
func New(m *monitor.Monitor, opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Radius <= 0 {
		opts.Radius = DefaultRadius
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = DefaultScanTimeout
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "192.168.1.31 or ud-co2s.local"
	input.Prompt = "› "
	input.PromptStyle = FocusedInputStyle
	input.CharLimit = 253
	input.Width = 36
	input.ShowSuggestions = true
	input.SetValue(m.Snapshot().Address)
	input.Focus()

	return Model{
		monitor:  m,
		opts:     opts,
		input:    input,
		spinner:  s,
		help:     help.New(),
		gaugeKey: newGaugeKeyMap(),
		formKey:  newFormKeyMap(),
		state:    monitor.ShowForm,
		scanning: opts.Scanner != nil,
	}
}

// Init starts the startup cycle, the poll timer and the suggestion scan.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.startCycle(monitor.TriggerStartup),
		m.tick(),
		m.spinner.Tick,
		textinput.Blink,
	}
	if m.opts.Scanner != nil {
		cmds = append(cmds, m.scan())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.state == monitor.ShowGauge {
			return m.updateGauge(msg)
		}
		return m.updateForm(msg)

	case tickMsg:
		return m, tea.Batch(m.startCycle(monitor.TriggerTick), m.tick())

	case cycleDoneMsg:
		return m.applyOutcome(msg.outcome), nil

	case scanCompleteMsg:
		m.scanning = false
		if msg.err != nil {
			logging.Warn("Sensor scan failed", zap.Error(msg.err))
			return m, nil
		}
		m.input.SetSuggestions(msg.addresses)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateGauge(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.gaugeKey.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.gaugeKey.Refresh):
		return m, m.startCycle(monitor.TriggerRefresh)
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.formKey.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.formKey.Submit):
		c, ok := m.monitor.Submit(m.input.Value())
		if !ok {
			return m, nil
		}
		m.lastErr = nil
		return m, m.run(c)

	case key.Matches(msg, m.formKey.Rescan):
		if m.opts.Scanner == nil || m.scanning {
			return m, nil
		}
		m.scanning = true
		return m, m.scan()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// applyOutcome folds a finished cycle into the screen state.
func (m Model) applyOutcome(o monitor.Outcome) Model {
	res, ok := m.monitor.Complete(o)
	if !ok {
		return m
	}

	m.state = res.State
	m.lastErr = res.Err

	if res.State == monitor.ShowGauge {
		m.reading = res.Reading
		m.label = res.Label
		m.input.Blur()
		return m
	}

	if addr := m.monitor.Snapshot().Address; addr != "" && strings.TrimSpace(m.input.Value()) == "" {
		m.input.SetValue(addr)
	}
	m.input.Focus()
	return m
}

// startCycle asks the monitor for a cycle and returns the command running
// it, or nil when the trigger was guarded off.
func (m Model) startCycle(trigger monitor.Trigger) tea.Cmd {
	c, ok := m.monitor.Begin(trigger)
	if !ok {
		return nil
	}
	return m.run(c)
}

func (m Model) run(c monitor.Cycle) tea.Cmd {
	mon := m.monitor
	return func() tea.Msg {
		return cycleDoneMsg{outcome: mon.Run(context.Background(), c)}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) scan() tea.Cmd {
	scanner := m.opts.Scanner
	timeout := m.opts.ScanTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		addrs, err := scanner.Addresses(ctx)
		return scanCompleteMsg{addresses: addrs, err: err}
	}
}

// View renders exactly one panel: the gauge or the form.
func (m Model) View() string {
	var content, footer string
	if m.state == monitor.ShowGauge && m.reading != nil {
		content = m.gaugeView()
		footer = m.help.View(m.gaugeKey)
	} else {
		content = m.formView()
		footer = m.help.View(m.formKey)
	}
	return RenderApplicationContainer(content, footer, m.Width, m.Height)
}

func (m Model) gaugeView() string {
	ring := gauge.Render(*m.reading, m.opts.Radius)
	label := LabelStyle.
		Foreground(lipgloss.Color(m.reading.Level.Hex())).
		Render(m.label)

	snap := m.monitor.Snapshot()
	status := SubtitleStyle.Render(snap.Address)
	if snap.InFlight {
		status = m.spinner.View() + " " + status
	}

	return lipgloss.JoinVertical(lipgloss.Center, ring, label, status)
}

func (m Model) formView() string {
	lines := []string{
		TitleStyle.Render("Sensor address"),
		m.input.View(),
		"",
	}

	switch {
	case m.monitor.Snapshot().InFlight:
		lines = append(lines, m.spinner.View()+" Connecting...")
	case m.lastErr != nil:
		lines = append(lines, ErrorStyle.Render("✗ "+formError(m.lastErr)))
	default:
		lines = append(lines, SubtitleStyle.Render("Enter the host or IP of the sensor"))
	}

	if m.scanning {
		lines = append(lines, SubtitleStyle.Render("Searching the network for sensors..."))
	}

	return FormBoxStyle.Render(strings.Join(lines, "\n"))
}

func formError(err error) string {
	if errors.Is(err, gauge.ErrNotANumber) {
		return "The address answered, but not with a reading"
	}
	return sensor.ShortMessage(err)
}

// Run starts the full-screen monitor and blocks until the user quits.
func Run(m *monitor.Monitor, opts Options) error {
	p := tea.NewProgram(New(m, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
