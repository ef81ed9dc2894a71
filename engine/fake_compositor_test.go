package engine

import (
	"time"

	"github.com/fennwick/glowwall/compositor"
)

// fakeOutput, fakeSurface and friends implement the compositor package's
// interfaces entirely in memory, so the orchestration in handlers.go can be
// exercised end to end without a Wayland session or a GPU. Static (non-
// shader) scenarios only: shader scenarios would require a real wgpu
// adapter/device, which canvas and gpucontext's own unit tests cover at the
// pure-function level instead (see physical_size_test.go and
// gpucontext's classifyAcquireError coverage).
type fakeOutput struct {
	name     string
	mode     compositor.OutputMode
	haveMode bool
	scale120 int32
}

func (o *fakeOutput) Name() string                               { return o.name }
func (o *fakeOutput) CurrentMode() (compositor.OutputMode, bool) { return o.mode, o.haveMode }
func (o *fakeOutput) ScaleFactor120() int32                      { return o.scale120 }

type fakeViewport struct {
	width, height int32
	destroyed     bool
}

func (v *fakeViewport) SetDestination(w, h int32) { v.width, v.height = w, h }
func (v *fakeViewport) Destroy()                  { v.destroyed = true }

type fakeFractionalScale struct {
	onScale   func(int32)
	destroyed bool
}

func (f *fakeFractionalScale) OnScale(fn func(int32)) { f.onScale = fn }
func (f *fakeFractionalScale) Destroy()               { f.destroyed = true }

type fakeLayerSurface struct {
	onConfigure func(width, height uint32, serial uint32)
	onClosed    func()
	acked       []uint32
	destroyed   bool
}

func (l *fakeLayerSurface) OnConfigure(fn func(width, height uint32, serial uint32)) { l.onConfigure = fn }
func (l *fakeLayerSurface) OnClosed(fn func())                                       { l.onClosed = fn }
func (l *fakeLayerSurface) AckConfigure(serial uint32)                               { l.acked = append(l.acked, serial) }
func (l *fakeLayerSurface) Destroy()                                                 { l.destroyed = true }

type fakeBuffer struct {
	pixels     []byte
	attachedTo compositor.Surface
	destroyed  bool
}

func (b *fakeBuffer) Pixels() []byte                     { return b.pixels }
func (b *fakeBuffer) AttachTo(s compositor.Surface)      { b.attachedTo = s }
func (b *fakeBuffer) Destroy()                           { b.destroyed = true }

type fakeSurface struct {
	reg          *fakeRegistry
	layerSurface *fakeLayerSurface
	viewport     *fakeViewport
	fracScale    *fakeFractionalScale
	hasFracScale bool
	onFrame      func()
	commits      int
	destroyed    bool
}

func (s *fakeSurface) NativeDisplay() uintptr { return 1 }
func (s *fakeSurface) NativeWindow() uintptr  { return 2 }

func (s *fakeSurface) LayerShellSurface(compositor.Output) (compositor.LayerSurface, error) {
	s.layerSurface = &fakeLayerSurface{}
	return s.layerSurface, nil
}

func (s *fakeSurface) Viewport() (compositor.Viewport, error) {
	s.viewport = &fakeViewport{}
	return s.viewport, nil
}

func (s *fakeSurface) FractionalScale() (compositor.FractionalScale, bool) {
	if !s.hasFracScale {
		return nil, false
	}
	s.fracScale = &fakeFractionalScale{}
	return s.fracScale, true
}

func (s *fakeSurface) Frame(fn func()) { s.onFrame = fn }
func (s *fakeSurface) Commit()         { s.commits++ }
func (s *fakeSurface) Destroy()        { s.destroyed = true }

// triggerFrame invokes the pending frame callback, as the compositor would
// the next time it wants a frame. The handler is expected to re-arm it.
func (s *fakeSurface) triggerFrame() {
	fn := s.onFrame
	s.onFrame = nil
	if fn != nil {
		fn()
	}
}

type fakeRegistry struct {
	surfaces            []*fakeSurface
	buffers             []*fakeBuffer
	outputs             []compositor.Output
	onAdded             func(compositor.Output)
	onUpdated           func(compositor.Output)
	onRemoved           func(compositor.Output)
	hasFracScaleManager bool
}

func (r *fakeRegistry) CreateSurface() (compositor.Surface, error) {
	s := &fakeSurface{reg: r, hasFracScale: r.hasFracScaleManager}
	r.surfaces = append(r.surfaces, s)
	return s, nil
}

func (r *fakeRegistry) CreateBuffer(width, height int32) (compositor.Buffer, error) {
	b := &fakeBuffer{pixels: make([]byte, width*height*4)}
	r.buffers = append(r.buffers, b)
	return b, nil
}

func (r *fakeRegistry) OnOutputAdded(fn func(compositor.Output))   { r.onAdded = fn }
func (r *fakeRegistry) OnOutputUpdated(fn func(compositor.Output)) { r.onUpdated = fn }
func (r *fakeRegistry) OnOutputRemoved(fn func(compositor.Output)) { r.onRemoved = fn }
func (r *fakeRegistry) Outputs() []compositor.Output               { return r.outputs }
func (r *fakeRegistry) HasFractionalScaleManager() bool            { return r.hasFracScaleManager }
func (r *fakeRegistry) Roundtrip() error                           { return nil }
func (r *fakeRegistry) Dispatch() error                            { return nil }
func (r *fakeRegistry) Close() error                               { return nil }

// WaitReadable always reports the fake connection as immediately readable:
// there is no real fd to poll, and the tests that exercise handlers call
// them directly rather than through Run's event loop.
func (r *fakeRegistry) WaitReadable(time.Duration) (bool, error) { return true, nil }

func (r *fakeRegistry) addOutput(o compositor.Output) {
	r.outputs = append(r.outputs, o)
	if r.onAdded != nil {
		r.onAdded(o)
	}
}

func (r *fakeRegistry) updateOutput(o compositor.Output) {
	if r.onUpdated != nil {
		r.onUpdated(o)
	}
}

func (r *fakeRegistry) removeOutput(o compositor.Output) {
	for i, existing := range r.outputs {
		if existing == o {
			r.outputs = append(r.outputs[:i], r.outputs[i+1:]...)
			break
		}
	}
	if r.onRemoved != nil {
		r.onRemoved(o)
	}
}
