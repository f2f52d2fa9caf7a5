package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/joshuapare/memkit/mem"
	"github.com/joshuapare/memkit/mem/arena"
	"github.com/joshuapare/memkit/mem/cmalloc"
	"github.com/joshuapare/memkit/mem/pool"
	"github.com/joshuapare/memkit/mem/track"
)

// Config carries the command line settings into the model.
type Config struct {
	Backend string
	Workers int
	Quota   string
}

// historyLen bounds the live-byte samples kept for the history graph.
const historyLen = 120

// tickInterval is how often the monitor samples the tracker.
const tickInterval = 250 * time.Millisecond

// Model is the main application model
type Model struct {
	backendName  string
	closeBackend func() error
	tracker      *track.Tracker
	limiter      *track.Limiter
	pool         *pool.Pool // non-nil only for the pool backend
	gen          *generator
	keys         KeyMap
	quotaBar     progress.Model

	width  int
	height int

	paused        bool
	showHelp      bool
	statusMessage string

	stats     track.Stats
	poolStats pool.Stats
	lastTick  time.Time
	rate      float64 // completed operations per second over the last interval
	history   []int64 // live-byte samples, newest last

	err error
}

// NewModel builds the monitor and its workload without starting either.
func NewModel(cfg Config) (Model, error) {
	if cfg.Backend == "" {
		cfg.Backend = "system"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}

	backend, closeBackend, err := openBackend(cfg.Backend)
	if err != nil {
		return Model{}, err
	}

	wrapped := backend
	var limiter *track.Limiter
	if cfg.Quota != "" {
		quota, err := humanize.ParseBytes(cfg.Quota)
		if err != nil {
			closeBackend()
			return Model{}, fmt.Errorf("invalid quota %q: %w", cfg.Quota, err)
		}
		limiter = track.Limit(wrapped, int64(quota))
		wrapped = limiter
	}
	tracker := track.Wrap(wrapped)
	p, _ := backend.(*pool.Pool)

	return Model{
		backendName:  cfg.Backend,
		closeBackend: closeBackend,
		tracker:      tracker,
		limiter:      limiter,
		pool:         p,
		gen:          newGenerator(tracker, cfg.Workers),
		keys:         DefaultKeyMap(),
		quotaBar:     progress.New(progress.WithDefaultGradient()),
		lastTick:     time.Now(),
		history:      make([]int64, 0, historyLen),
	}, nil
}

// Init starts the workload and the sampling ticker.
func (m Model) Init() tea.Cmd {
	m.gen.Start()
	return tickCmd()
}

// Close stops the workload and releases backend resources.
func (m Model) Close() error {
	m.gen.Stop()
	return m.closeBackend()
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// clearStatusMsg clears the transient status message.
type clearStatusMsg struct{}

func clearStatusCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// statsReport formats the sampled counters as a plain text snapshot
// suitable for pasting into a report.
func (m Model) statsReport() string {
	s := m.stats
	lines := []string{
		fmt.Sprintf("memtop backend=%s", m.backendName),
		fmt.Sprintf("allocs=%d reallocs=%d releases=%d failed=%d",
			s.Allocs, s.Reallocs, s.Releases, s.Failed),
		fmt.Sprintf("live=%s handles=%d peak=%s",
			humanize.IBytes(uint64(max(s.LiveBytes, 0))), s.LiveHandles,
			humanize.IBytes(uint64(max(s.PeakBytes, 0)))),
	}
	if m.limiter != nil {
		lines = append(lines, fmt.Sprintf("quota=%s of %s denied=%d",
			humanize.IBytes(uint64(max(m.limiter.Used(), 0))),
			humanize.IBytes(uint64(max(m.limiter.Max(), 0))),
			m.limiter.Denied()))
	}
	return strings.Join(lines, "\n")
}

// openBackend builds the backend the monitor should drive.
func openBackend(name string) (mem.Backend, func() error, error) {
	switch strings.ToLower(name) {
	case "", "system":
		return mem.SystemBackend{}, noClose, nil

	case "pool":
		p, err := pool.New(nil)
		if err != nil {
			return nil, nil, fmt.Errorf("pool backend: %w", err)
		}
		return p, noClose, nil

	case "arena":
		a, err := arena.New(&arena.Options{
			RegionSize: 1 << 20,
			MaxBytes:   256 << 20,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("arena backend: %w", err)
		}
		return a, a.Close, nil

	case "cmalloc":
		return cmalloc.New(), noClose, nil

	default:
		return nil, nil, fmt.Errorf(
			"unknown backend %q (expected system, pool, arena, or cmalloc)", name)
	}
}

func noClose() error { return nil }
