// Package mission implements the live scanning/watching state machine: it
// owns the current config, the filesystem watcher, the skip cache, and the
// full-scan task, and exposes the small set of operations the RPC surface
// needs (reload, pause, restart, status, full scan).
package mission

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/excludewatch/excludewatch/internal/attr"
	"github.com/excludewatch/excludewatch/internal/configstore"
	"github.com/excludewatch/excludewatch/internal/logging"
	"github.com/excludewatch/excludewatch/internal/rule"
	"github.com/excludewatch/excludewatch/internal/scan"
)

// State is the Mission's coarse-grained lifecycle state.
type State int

const (
	Idle State = iota
	Running
	Reloading
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Reloading:
		return "reloading"
	default:
		return "unknown"
	}
}

// Mission ties together configuration, the live watcher, and metrics. Its
// config is swapped atomically so in-flight readers never observe a torn
// mix of old and new values.
type Mission struct {
	store *configstore.Store
	attrs *attr.Attributes
	log   *logging.Logger

	config    atomic.Pointer[rule.Config]
	skipCache *scan.SkipCache
	metrics   Metrics

	mu          sync.Mutex
	state       State
	watchCancel context.CancelFunc
	watchDone   chan struct{}

	fullScan *fullScanTask

	props     *propertyStore
	configDir string
}

// New constructs a Mission from an already-resolved config. It does not
// start the watcher; call Start for that.
func New(store *configstore.Store, cfg *rule.Config, log *logging.Logger) *Mission {
	configDir := filepath.Dir(store.Path)
	m := &Mission{
		store:     store,
		attrs:     attr.New(),
		log:       log,
		skipCache: scan.NewSkipCache(),
		props:     newPropertyStore(filepath.Join(configDir, ".properties"), log),
		configDir: configDir,
	}
	m.config.Store(cfg)

	if st, err := loadEventState(m.configDir); err == nil && !st.LastFlush.IsZero() {
		log.Infof("last watcher flush before restart: %s", st.LastFlush.Format("2006-01-02T15:04:05"))
	}
	return m
}

// Config returns the currently active, fully resolved config.
func (m *Mission) Config() *rule.Config {
	return m.config.Load()
}

// MetricsSnapshot returns a snapshot of the mission's lifetime counters.
func (m *Mission) MetricsSnapshot() Snapshot {
	return m.metrics.Snapshot()
}

// State returns the current lifecycle state.
func (m *Mission) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start begins watching the current config's directories. It is idempotent:
// calling Start while already running is a no-op.
func (m *Mission) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startLocked()
}

func (m *Mission) startLocked() {
	if m.state == Running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.watchCancel = cancel
	done := make(chan struct{})
	m.watchDone = done
	m.state = Running
	go func() {
		runWatcher(ctx, m)
		close(done)
		if ctx.Err() != nil {
			return
		}
		// The event stream ended (or could not be created) on its own:
		// drop to Idle unless a later Pause/Start has already taken over.
		m.mu.Lock()
		if m.watchDone == done {
			cancel()
			m.watchCancel = nil
			m.watchDone = nil
			m.state = Idle
		}
		m.mu.Unlock()
	}()
}

// Pause stops the watcher without discarding config or metrics. Restart
// brings it back; a Reload while paused swaps the config but leaves the
// watcher stopped.
func (m *Mission) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseLocked()
}

func (m *Mission) pauseLocked() {
	if m.watchCancel != nil {
		m.watchCancel()
		<-m.watchDone
		m.watchCancel = nil
		m.watchDone = nil
	}
	m.state = Idle
}

// Restart stops and restarts the watcher against the current config,
// discarding the skip cache.
func (m *Mission) Restart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseLocked()
	m.skipCache.Flush()
	m.startLocked()
}

// SetConfig loads and resolves the on-disk config, and, if that succeeds,
// atomically swaps it in and, if the watcher was running, restarts it
// against the new config. A failed load/resolve leaves the previously
// active config and the watcher state untouched.
func (m *Mission) SetConfig() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prevState := m.state
	m.state = Reloading

	cfg, err := m.store.LoadResolved()
	if err != nil {
		m.state = prevState
		return err
	}

	m.config.Store(cfg)
	m.skipCache.Flush()

	if prevState == Running {
		m.pauseLocked()
		m.startLocked()
	} else {
		m.state = prevState
	}
	return nil
}

// Get returns a stored property value, or ("", false) if absent.
func (m *Mission) Get(key string) (string, bool) {
	return m.props.Get(key)
}

// Set stores a property value.
func (m *Mission) Set(key, value string) {
	m.props.Set(key, value)
}

// Del removes a property value.
func (m *Mission) Del(key string) {
	m.props.Del(key)
}
