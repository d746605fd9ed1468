package mission

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/excludewatch/excludewatch/internal/action"
	"github.com/excludewatch/excludewatch/internal/scan"
)

// ScanStatus is a value published to a full scan's subscriber: either a
// progress sample or the final result.
type ScanStatus struct {
	// Scanning is true for progress samples, false for the terminal Result.
	Scanning    bool
	CurrentPath string
	Found       int64
	Result      action.Batch
	Err         error
}

// fullScanTask tracks the single in-flight full scan, if any.
type fullScanTask struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// StartFullScan cancels any running full scan, then starts a new one
// against the current config, publishing progress and a terminal result to
// the returned channel. The caller is responsible for applying the
// resulting batch via ApplyActionBatch; StartFullScan only computes it.
func (m *Mission) StartFullScan() <-chan ScanStatus {
	m.mu.Lock()
	if m.fullScan == nil {
		m.fullScan = &fullScanTask{}
	}
	ft := m.fullScan
	m.mu.Unlock()

	ft.mu.Lock()
	if ft.cancel != nil {
		ft.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	ft.cancel = cancel
	ft.mu.Unlock()

	out := make(chan ScanStatus, 128)
	cfg := m.Config()

	go func() {
		defer close(out)

		progress := make(chan scan.Progress, 128)
		var found atomic.Int64

		done := make(chan struct{})
		go func() {
			defer close(done)
			for p := range progress {
				select {
				case out <- ScanStatus{Scanning: true, CurrentPath: p.CurrentPath, Found: p.Found}:
				default:
				}
			}
		}()

		root, err := cfg.Walk.Root()
		var batch action.Batch
		if err == nil {
			batch, err = scan.Recursive(ctx, root, cfg.Walk, m.attrs, m.log, scan.RecursiveOptions{
				Progress: progress,
				Found:    &found,
			})
		}
		close(progress)
		<-done

		if err != nil {
			out <- ScanStatus{Result: batch, Err: err}
			return
		}
		batch = batch.FilterByMode(cfg.NoInclude)
		out <- ScanStatus{Result: batch}
	}()

	return out
}

// StopFullScan cancels the in-flight full scan, if any.
func (m *Mission) StopFullScan() {
	m.mu.Lock()
	ft := m.fullScan
	m.mu.Unlock()
	if ft == nil {
		return
	}
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if ft.cancel != nil {
		ft.cancel()
	}
}

// ApplyActionBatch applies batch and updates metrics, aggregating per-path
// errors rather than aborting partway through.
func (m *Mission) ApplyActionBatch(batch action.Batch) error {
	err := batch.Apply(m.attrs)
	for _, p := range batch.Add {
		m.metrics.IncExcluded(p)
	}
	for range batch.Remove {
		m.metrics.IncIncluded()
	}
	return err
}
