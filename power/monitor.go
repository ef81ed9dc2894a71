// package power tracks on-battery, battery percentage, and lid-closed state
// by subscribing to the UPower system bus service, and publishes the latest
// snapshot for the engine to read without blocking. Absence of the bus
// degrades to a monitor that reports the zero-value State forever; the
// engine is expected to tolerate that.
package power

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fennwick/glowwall/common"
)

// State is a snapshot of the system's power posture.
type State struct {
	OnBattery bool
	// BatteryPercentage is nil when no battery is present or its value is
	// unknown.
	BatteryPercentage *float64
	LidIsClosed       bool
}

// Handle is a read-only, latest-value view onto a Monitor's state. It is
// safe for concurrent use and never blocks.
type Handle struct {
	mu      sync.RWMutex
	current State
}

// Current returns the most recently published State.
func (h *Handle) Current() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// NewHandleWithState builds a Handle already reporting s, for callers that
// need a fixed power snapshot without running a Monitor goroutine (chiefly
// engine tests driving the pause/reduce-rate policy).
func NewHandleWithState(s State) *Handle {
	h := &Handle{}
	h.set(s)
	return h
}

func (h *Handle) set(s State) {
	h.mu.Lock()
	h.current = s
	h.mu.Unlock()
}

// Monitor owns a dedicated goroutine that watches UPower D-Bus signals and
// updates a Handle. It mirrors the "power-monitor thread with its own
// single-threaded task executor" shape: the goroutine owns its own D-Bus
// connection and never shares it with the engine loop.
type Monitor struct {
	handle *Handle
	logger *slog.Logger
}

// NewMonitor builds a Monitor and its Handle. The Handle reports the
// zero-value State until Start succeeds in reaching the bus.
func NewMonitor(logger *slog.Logger) (*Monitor, *Handle) {
	logger = common.Coalesce(logger, slog.Default())
	h := &Handle{}
	return &Monitor{handle: h, logger: logger}, h
}

// Handle returns the Monitor's Handle.
func (m *Monitor) Handle() *Handle {
	return m.handle
}

// Start connects to the system bus and spawns the monitoring goroutine. If
// the bus or the UPower service is unreachable, Start logs a warning and
// returns nil: the Handle keeps reporting the zero-value State, matching the
// spec's degrade-to-defaults requirement. Start does not block past the
// initial snapshot fetch; the monitoring goroutine runs until ctx is
// cancelled.
func (m *Monitor) Start(ctx context.Context) error {
	conn, err := connectUPower(ctx)
	if err != nil {
		m.logger.Warn("power monitor: UPower unavailable, degrading to defaults", "error", err)
		return nil
	}

	initial, err := conn.snapshot(ctx)
	if err != nil {
		m.logger.Warn("power monitor: failed to read initial state", "error", err)
	} else {
		m.handle.set(initial)
	}

	changes := make(chan State, 8)
	go conn.watch(ctx, changes, m.logger)

	go func() {
		for {
			select {
			case <-ctx.Done():
				conn.close()
				return
			case s, ok := <-changes:
				if !ok {
					return
				}
				m.handle.set(s)
			}
		}
	}()

	return nil
}
