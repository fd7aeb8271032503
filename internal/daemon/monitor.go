// Package daemon provides the connectivity monitor and the auto-sync
// scheduler that together drive background synchronization.
//
// The monitor probes the remote store on a ticker and publishes
// online/offline transitions. The scheduler listens for those
// transitions and runs every registered sync-all once per
// offline-to-online flip, plus once at registration when already
// online. Neither component ever blocks a local write path.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// MonitorConfig holds configuration for the connectivity monitor.
type MonitorConfig struct {
	// ProbeInterval is how often the remote store is probed.
	ProbeInterval time.Duration

	// ProbeTimeout bounds a single probe attempt.
	ProbeTimeout time.Duration

	// Logger for monitor activity.
	Logger *log.Logger
}

// DefaultMonitorConfig returns sensible defaults.
func DefaultMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		ProbeInterval: 10 * time.Second,
		ProbeTimeout:  5 * time.Second,
		Logger:        log.New(os.Stderr, "[monitor] ", log.LstdFlags),
	}
}

// Monitor tracks connectivity to the remote store by probing it
// periodically. Transitions are published on Events; steady state is
// silent.
type Monitor struct {
	probe  func(ctx context.Context) error
	config *MonitorConfig

	mu      sync.Mutex
	running bool
	online  bool

	events chan bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor creates a monitor around a probe function, typically the
// remote store's Ping. A nil config uses DefaultMonitorConfig.
func NewMonitor(probe func(ctx context.Context) error, config *MonitorConfig) *Monitor {
	if config == nil {
		config = DefaultMonitorConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		probe:  probe,
		config: config,
		events: make(chan bool, 8),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start runs an immediate probe to establish the initial state, then
// begins the periodic probe loop. Calling Start on a running monitor is
// an error.
func (m *Monitor) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("monitor already running")
	}
	m.running = true
	m.mu.Unlock()

	m.CheckNow()

	m.wg.Add(1)
	go m.loop()
	return nil
}

// Stop shuts the probe loop down and waits for it to exit. Stopping a
// monitor that was never started is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// Online reports the last probed connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Events delivers connectivity transitions: true for offline-to-online,
// false for the reverse. Steady-state probes publish nothing. The
// channel is buffered; if no one is listening, transitions are dropped.
func (m *Monitor) Events() <-chan bool {
	return m.events
}

// CheckNow runs one probe immediately and publishes a transition if the
// state changed. Safe to call whether or not the loop is running.
func (m *Monitor) CheckNow() {
	ctx, cancel := context.WithTimeout(m.ctx, m.config.ProbeTimeout)
	err := m.probe(ctx)
	cancel()

	nowOnline := err == nil

	m.mu.Lock()
	changed := nowOnline != m.online
	m.online = nowOnline
	m.mu.Unlock()

	if !changed {
		return
	}

	if nowOnline {
		m.config.Logger.Println("Connectivity restored")
	} else {
		m.config.Logger.Printf("Connectivity lost: %v", err)
	}

	select {
	case m.events <- nowOnline:
	default:
		m.config.Logger.Println("WARNING: dropping connectivity event, no listener")
	}
}

func (m *Monitor) loop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow()
		}
	}
}
