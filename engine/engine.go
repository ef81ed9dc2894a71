// package engine is the wallpaper daemon's orchestrator: the single event
// loop that owns every compositor-facing resource (surfaces, layer-shell
// roles, viewports, GPU surfaces) and reacts to compositor events, config
// changes, and power-state changes by creating, redrawing, reconfiguring,
// or tearing down per-output layers. Grounded on the owning-goroutine,
// channel-fed event loop of Carmen-Shannon-oxy-go's engine package,
// generalized from "tick + render callback" to "compositor event dispatch
// plus config/power inputs".
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fennwick/glowwall/common"
	"github.com/fennwick/glowwall/compositor"
	"github.com/fennwick/glowwall/config"
	"github.com/fennwick/glowwall/gpucontext"
	"github.com/fennwick/glowwall/power"
)

// waylandPollInterval bounds how long Run's event loop can go without
// re-checking ctx and the config-change channel while waiting on the
// compositor connection, so neither a stop signal nor a config edit ever
// waits behind a compositor that has no periodic traffic to offer (a static
// image output with no shader frame callback may never wake Dispatch on its
// own).
const waylandPollInterval = 250 * time.Millisecond

// Engine owns every piece of state the event handlers in handlers.go
// mutate. A single goroutine calls Run; no field is accessed concurrently
// except powerHandle, which is a lock-free latest-value cell by design.
type Engine struct {
	reg   compositor.Registry
	store *config.Store
	cfg   config.Config

	bindings      []*binding
	outputsByName map[string]compositor.Output

	gpu            *gpucontext.Context
	preferLowPower bool

	powerHandle *power.Handle
	powerSaving config.PowerSavingConfig

	logger *slog.Logger
}

// New loads the current configuration, builds the initial (output-less)
// binding list, and eagerly constructs a GPU context iff any binding's
// source is a shader. A failure doing so is logged, not returned: the
// corresponding layers stay uninitialized and retry on their next
// configure, matching the engine's per-shader failure semantics.
func New(reg compositor.Registry, store *config.Store, powerHandle *power.Handle, logger *slog.Logger) (*Engine, error) {
	logger = common.Coalesce(logger, slog.Default())

	cfg, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	e := &Engine{
		reg:            reg,
		store:          store,
		cfg:            cfg,
		outputsByName:  map[string]compositor.Output{},
		preferLowPower: cfg.PreferLowPower,
		powerHandle:    powerHandle,
		powerSaving:    cfg.PowerSaving,
		logger:         logger,
	}
	e.rebuildBindings(nil)

	if e.hasShaderBinding() {
		if err := e.ensureGPU(); err != nil {
			e.logger.Warn("engine: failed to create gpu context at startup, shader layers will retry on configure", "error", err)
		}
	}

	return e, nil
}

// Run wires the compositor callbacks, processes any outputs already
// discovered, and services compositor and config events until ctx is
// cancelled or the compositor connection is lost.
func (e *Engine) Run(ctx context.Context) error {
	e.reg.OnOutputAdded(e.handleOutputAdded)
	e.reg.OnOutputUpdated(e.handleOutputUpdated)
	e.reg.OnOutputRemoved(e.handleOutputRemoved)

	for _, o := range e.reg.Outputs() {
		e.handleOutputAdded(o)
	}

	configChanges := e.store.Watch(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case cs, ok := <-configChanges:
			if !ok {
				configChanges = nil
				continue
			}
			e.applyConfigChanges(cs)
			continue
		default:
		}

		ready, err := e.reg.WaitReadable(waylandPollInterval)
		if err != nil {
			return fmt.Errorf("wait for compositor events: %w", err)
		}
		if !ready {
			// Timed out with nothing pending: loop back around to the
			// ctx/config select above instead of blocking in Dispatch.
			continue
		}

		if err := e.reg.Dispatch(); err != nil {
			return fmt.Errorf("compositor dispatch: %w", err)
		}
	}
}

func (e *Engine) ensureGPU() error {
	if e.gpu != nil {
		return nil
	}
	ctx, err := gpucontext.New(e.preferLowPower)
	if err != nil {
		return err
	}
	e.gpu = ctx
	return nil
}

func (e *Engine) hasShaderBinding() bool {
	for _, b := range e.bindings {
		if b.entry.Source.Kind == config.SourceShader {
			return true
		}
	}
	return false
}

// rebuildBindings replaces e.bindings with one built from the current
// config, moving layers forward from previous (by output selector, when
// the source kind is unchanged) instead of tearing down and recreating
// them, to avoid a visible flash and unnecessary GPU reallocation. Layers
// left behind in previous (selector removed, or source kind changed) are
// destroyed.
func (e *Engine) rebuildBindings(previous []*binding) {
	entries := e.collectEntries()

	next := make([]*binding, 0, len(entries))
	for _, entry := range entries {
		nb := newBinding(entry, e.logger)
		if prev := findBinding(previous, entry.OutputSelector); prev != nil && sameSourceKind(prev.entry.Source, entry.Source) {
			nb.layers = prev.layers
			prev.layers = map[string]*layer{}
		}
		next = append(next, nb)
	}

	for _, prev := range previous {
		for _, l := range prev.layers {
			e.destroyLayer(l)
		}
		prev.close()
	}

	e.bindings = next
	e.rebindOrphanedOutputs()
}

// rebindOrphanedOutputs re-runs output-added selection for any currently
// active output that has no layer in any binding after a rebuild, so an
// already-connected output doesn't go dark until its next hotplug event.
func (e *Engine) rebindOrphanedOutputs() {
	for name, o := range e.outputsByName {
		bound := false
		for _, b := range e.bindings {
			if _, ok := b.layers[name]; ok {
				bound = true
				break
			}
		}
		if !bound {
			e.handleOutputAdded(o)
		}
	}
}

// collectEntries assembles the ordered list of background entries a newly
// added output is matched against: explicit backgrounds first (in config
// order), then any per-output override not already covered by an explicit
// entry (skipped entirely when same_on_all is set), then the default entry
// last as the final "all" fallback.
func (e *Engine) collectEntries() []config.BackgroundEntry {
	entries := append([]config.BackgroundEntry{}, e.cfg.Backgrounds...)

	seen := map[string]bool{}
	for _, be := range entries {
		seen[be.OutputSelector] = true
	}

	if !e.cfg.SameOnAll {
		for name := range e.outputsByName {
			if seen[name] {
				continue
			}
			if override, ok := e.store.OutputEntry(name); ok {
				entries = append(entries, config.BackgroundEntry{OutputSelector: name, Source: override.Source})
				seen[name] = true
			}
		}
	}

	entries = append(entries, e.cfg.DefaultBackground)
	return entries
}

func (e *Engine) destroyLayer(l *layer) {
	if l.gpuSurface != nil {
		l.gpuSurface.Release()
	}
	if l.fracScale != nil {
		l.fracScale.Destroy()
	}
	if l.viewport != nil {
		l.viewport.Destroy()
	}
	if l.layerSurface != nil {
		l.layerSurface.Destroy()
	}
	if l.buffer != nil {
		l.buffer.Destroy()
	}
	if l.surface != nil {
		l.surface.Destroy()
	}
}

// Config key names the engine reacts to directly; the rest of §6's keys
// pass through config.Store's typed accessors and never need special
// handling beyond a plain reload.
const (
	keyDefaultBackground = "default_background"
	keyBackgrounds       = "backgrounds"
	keySameOnAll         = "same_on_all"
)

func isPowerSavingKey(key string) bool {
	switch key {
	case config.KeyPauseOnFullscreen, config.KeyPauseOnCovered, config.KeyCoverageThreshold,
		config.KeyAdjustOnBattery, config.KeyOnBatteryAction, config.KeyPauseOnLowBattery,
		config.KeyLowBatteryThreshold, config.KeyPauseOnLidClosed:
		return true
	}
	return false
}

func isOutputKey(key string) (string, bool) {
	const prefix = "output."
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return strings.TrimPrefix(key, prefix), true
}
