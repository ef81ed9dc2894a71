package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennwick/glowwall/config"
	"github.com/fennwick/glowwall/power"
)

func newTestStore(t *testing.T, cfg config.Config) *config.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	store, err := config.NewStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveConfig(cfg))
	return store
}

func newTestEngine(t *testing.T, cfg config.Config, reg *fakeRegistry, handle *power.Handle) *Engine {
	t.Helper()
	e, err := New(reg, newTestStore(t, cfg), handle, nil)
	require.NoError(t, err)
	wireOutputCallbacks(e)
	return e
}

// wireOutputCallbacks registers the engine's output handlers on its registry
// the way Run does, without entering Run's event loop.
func wireOutputCallbacks(e *Engine) {
	e.reg.OnOutputAdded(e.handleOutputAdded)
	e.reg.OnOutputUpdated(e.handleOutputUpdated)
	e.reg.OnOutputRemoved(e.handleOutputRemoved)
}

func layerFor(e *Engine, outputName string) *layer {
	for _, b := range e.bindings {
		if l, ok := b.layers[outputName]; ok {
			return l
		}
	}
	return nil
}

func bindingFor(e *Engine, outputName string) *binding {
	for _, b := range e.bindings {
		if _, ok := b.layers[outputName]; ok {
			return b
		}
	}
	return nil
}

// Scenario 1: image/solid background on a single 1920x1080 output at
// scale 1.0 allocates exactly one w*h*4 byte pool, draws once, and never
// touches the GPU context.
func TestImageBackgroundOnSingleOutputAllocatesExactBuffer(t *testing.T) {
	cfg := config.Config{
		DefaultBackground: config.BackgroundEntry{
			OutputSelector: config.AllOutputsSelector,
			Source:         config.Source{Kind: config.SourceSolidColor, Color: [3]float32{1, 0, 0}},
		},
		PowerSaving: config.DefaultPowerSavingConfig(),
	}
	reg := &fakeRegistry{}
	e := newTestEngine(t, cfg, reg, power.NewHandleWithState(power.State{}))

	reg.addOutput(&fakeOutput{name: "eDP-1", scale120: 120})
	require.Len(t, reg.surfaces, 1)

	surf := reg.surfaces[0]
	surf.layerSurface.onConfigure(1920, 1080, 7)

	require.Len(t, reg.buffers, 1)
	assert.Equal(t, 1920*1080*4, len(reg.buffers[0].pixels))
	assert.Equal(t, surf, reg.buffers[0].attachedTo)
	assert.Contains(t, surf.layerSurface.acked, uint32(7))

	l := layerFor(e, "eDP-1")
	require.NotNil(t, l)
	assert.Nil(t, l.gpuSurface)
	assert.Nil(t, e.gpu)
}

func TestOutputAddedFallsBackToAllSelectorForUnknownName(t *testing.T) {
	cfg := config.Config{
		Backgrounds: []config.BackgroundEntry{
			{OutputSelector: "HDMI-1", Source: config.Source{Kind: config.SourceSolidColor, Color: [3]float32{0, 1, 0}}},
		},
		DefaultBackground: config.BackgroundEntry{
			OutputSelector: config.AllOutputsSelector,
			Source:         config.Source{Kind: config.SourceSolidColor, Color: [3]float32{0, 0, 1}},
		},
	}
	reg := &fakeRegistry{}
	e := newTestEngine(t, cfg, reg, power.NewHandleWithState(power.State{}))

	reg.addOutput(&fakeOutput{name: "eDP-1", scale120: 120})

	b := bindingFor(e, "eDP-1")
	require.NotNil(t, b)
	assert.Equal(t, config.AllOutputsSelector, b.entry.OutputSelector)
}

// Both outputs match the same explicit "all" entry before the default
// entry is ever considered, since the default only applies when no earlier
// entry's selector matches.
func TestOutputAddedPrefersExplicitAllEntryOverDefault(t *testing.T) {
	cfg := config.Config{
		Backgrounds: []config.BackgroundEntry{
			{OutputSelector: config.AllOutputsSelector, Source: config.Source{Kind: config.SourceSolidColor, Color: [3]float32{1, 1, 0}}},
		},
		DefaultBackground: config.BackgroundEntry{OutputSelector: config.AllOutputsSelector, Source: config.Source{Kind: config.SourceSolidColor}},
	}
	reg := &fakeRegistry{}
	e := newTestEngine(t, cfg, reg, power.NewHandleWithState(power.State{}))

	reg.addOutput(&fakeOutput{name: "eDP-1", scale120: 120})
	firstBinding := bindingFor(e, "eDP-1")
	require.NotNil(t, firstBinding)
	assert.Same(t, &e.bindings[0].entry, &firstBinding.entry)

	reg.addOutput(&fakeOutput{name: "HDMI-1", scale120: 120})
	secondBinding := bindingFor(e, "HDMI-1")
	require.NotNil(t, secondBinding)
	assert.Same(t, &e.bindings[0].entry, &secondBinding.entry)
}

func TestOutputRemovedDestroysLayer(t *testing.T) {
	cfg := config.Config{DefaultBackground: config.BackgroundEntry{OutputSelector: config.AllOutputsSelector, Source: config.Source{Kind: config.SourceSolidColor}}}
	reg := &fakeRegistry{}
	e := newTestEngine(t, cfg, reg, power.NewHandleWithState(power.State{}))

	out := &fakeOutput{name: "eDP-1", scale120: 120}
	reg.addOutput(out)
	surf := reg.surfaces[0]

	reg.removeOutput(out)

	assert.True(t, surf.destroyed)
	assert.True(t, surf.layerSurface.destroyed)
	assert.True(t, surf.viewport.destroyed)
	assert.Nil(t, layerFor(e, "eDP-1"))
}

func TestFractionalScaleChangeRedrawsStaticLayerAtSameSize(t *testing.T) {
	cfg := config.Config{DefaultBackground: config.BackgroundEntry{OutputSelector: config.AllOutputsSelector, Source: config.Source{Kind: config.SourceSolidColor}}}
	reg := &fakeRegistry{hasFracScaleManager: true}
	e := newTestEngine(t, cfg, reg, power.NewHandleWithState(power.State{}))

	reg.addOutput(&fakeOutput{name: "eDP-1", scale120: 120})
	surf := reg.surfaces[0]
	surf.layerSurface.onConfigure(1920, 1080, 1)
	require.Len(t, reg.buffers, 1)

	surf.fracScale.onScale(180)

	l := layerFor(e, "eDP-1")
	require.NotNil(t, l)
	assert.Equal(t, int32(180), l.scale120)
	assert.Len(t, reg.buffers, 1)
}

func TestApplyConfigChangesRebuildsBackgroundsPreservingLayer(t *testing.T) {
	cfg := config.Config{DefaultBackground: config.BackgroundEntry{
		OutputSelector: config.AllOutputsSelector,
		Source:         config.Source{Kind: config.SourceSolidColor, Color: [3]float32{1, 0, 0}},
	}}
	path := filepath.Join(t.TempDir(), "config.json")
	store, err := config.NewStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveConfig(cfg))

	reg := &fakeRegistry{}
	e, err := New(reg, store, power.NewHandleWithState(power.State{}), nil)
	require.NoError(t, err)
	wireOutputCallbacks(e)

	reg.addOutput(&fakeOutput{name: "eDP-1", scale120: 120})
	surf := reg.surfaces[0]

	cfg.DefaultBackground.Source.Color = [3]float32{0, 1, 0}
	require.NoError(t, store.SaveConfig(cfg))
	e.applyConfigChanges(config.ChangeSet{"default_background"})

	l := layerFor(e, "eDP-1")
	require.NotNil(t, l)
	assert.Same(t, surf, l.surface)
	assert.False(t, surf.destroyed)
}

func TestSameOnAllSkipsPerOutputOverride(t *testing.T) {
	cfg := config.Config{DefaultBackground: config.BackgroundEntry{
		OutputSelector: config.AllOutputsSelector,
		Source:         config.Source{Kind: config.SourceSolidColor, Color: [3]float32{0, 0, 1}},
	}}
	path := filepath.Join(t.TempDir(), "config.json")
	store, err := config.NewStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveConfig(cfg))
	require.NoError(t, store.SetOutputEntry("eDP-1", config.BackgroundEntry{
		OutputSelector: "eDP-1",
		Source:         config.Source{Kind: config.SourceSolidColor, Color: [3]float32{1, 1, 1}},
	}))

	reg := &fakeRegistry{}
	e, err := New(reg, store, power.NewHandleWithState(power.State{}), nil)
	require.NoError(t, err)
	wireOutputCallbacks(e)

	reg.addOutput(&fakeOutput{name: "eDP-1"})

	overrideBinding := bindingFor(e, "eDP-1")
	require.NotNil(t, overrideBinding)
	assert.Equal(t, "eDP-1", overrideBinding.entry.OutputSelector)
	assert.Equal(t, [3]float32{1, 1, 1}, overrideBinding.entry.Source.Color)

	cfg.SameOnAll = true
	require.NoError(t, store.SaveConfig(cfg))
	e.applyConfigChanges(config.ChangeSet{"same_on_all"})

	for _, b := range e.bindings {
		assert.NotEqual(t, "eDP-1", b.entry.OutputSelector)
	}
	assert.NotNil(t, layerFor(e, "eDP-1"))
}

func TestPowerPolicyPausesOnLidClosed(t *testing.T) {
	e := &Engine{
		powerSaving: config.PowerSavingConfig{PauseOnLidClosed: true},
		powerHandle: power.NewHandleWithState(power.State{LidIsClosed: true}),
	}
	paused, rate := e.powerPolicy()
	assert.True(t, paused)
	assert.Nil(t, rate)
}

func TestPowerPolicyPausesOnLowBattery(t *testing.T) {
	pct := 19.0
	e := &Engine{
		powerSaving: config.PowerSavingConfig{PauseOnLowBattery: true, LowBatteryThreshold: 20},
		powerHandle: power.NewHandleWithState(power.State{BatteryPercentage: &pct}),
	}
	paused, _ := e.powerPolicy()
	assert.True(t, paused)
}

func TestPowerPolicyResumesWhenLowBatteryThresholdLowered(t *testing.T) {
	pct := 19.0
	e := &Engine{
		powerSaving: config.PowerSavingConfig{PauseOnLowBattery: true, LowBatteryThreshold: 10},
		powerHandle: power.NewHandleWithState(power.State{BatteryPercentage: &pct}),
	}
	paused, _ := e.powerPolicy()
	assert.False(t, paused)
}

func TestPowerPolicyReducesFrameRateOnBatteryAction(t *testing.T) {
	e := &Engine{
		powerSaving: config.PowerSavingConfig{AdjustOnBattery: true, OnBatteryAction: config.ActionReduceTo15Fps},
		powerHandle: power.NewHandleWithState(power.State{OnBattery: true}),
	}
	paused, rate := e.powerPolicy()
	assert.False(t, paused)
	require.NotNil(t, rate)
	assert.Equal(t, uint8(15), *rate)
}

func TestPowerPolicyNoPauseWhenHandleNil(t *testing.T) {
	e := &Engine{}
	paused, rate := e.powerPolicy()
	assert.False(t, paused)
	assert.Nil(t, rate)
}

func TestIsOutputKeyExtractsName(t *testing.T) {
	name, ok := isOutputKey("output.eDP-1")
	assert.True(t, ok)
	assert.Equal(t, "eDP-1", name)

	_, ok = isOutputKey("same_on_all")
	assert.False(t, ok)
}
