package wlclient

// #include <stdlib.h>
// #include <wayland-client.h>
// #include "wlr-layer-shell-unstable-v1-client-protocol.h"
// #include "viewporter-client-protocol.h"
// #include "fractional-scale-v1-client-protocol.h"
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/fennwick/glowwall/compositor"
)

// Surface wraps a wl_surface and the registry it came from, so it can bind
// the layer-shell role, a viewport, and a fractional-scale object on
// demand.
type Surface struct {
	dsp *Display
	hnd *C.struct_wl_surface
	reg *Registry

	onFrame func()
}

func newSurface(dsp *Display, hnd *C.struct_wl_surface, reg *Registry) *Surface {
	return &Surface{dsp: dsp, hnd: hnd, reg: reg}
}

// NativeDisplay and NativeWindow expose the raw handles a GPU surface is
// built from.
func (s *Surface) NativeDisplay() uintptr { return uintptr(unsafe.Pointer(s.dsp.hnd)) }
func (s *Surface) NativeWindow() uintptr  { return uintptr(unsafe.Pointer(s.hnd)) }

func (s *Surface) LayerShellSurface(output compositor.Output) (compositor.LayerSurface, error) {
	wlOutput, ok := output.(*Output)
	if !ok {
		return nil, fmt.Errorf("output %v was not created by wlclient", output)
	}
	hnd := C.zwlr_layer_shell_v1_get_layer_surface(
		s.reg.layerShell,
		s.hnd,
		wlOutput.hnd,
		C.ZWLR_LAYER_SHELL_V1_LAYER_BACKGROUND,
		C.CString("glowwall"),
	)
	ls := &LayerSurface{dsp: s.dsp, hnd: hnd}
	s.dsp.add((*C.struct_wl_proxy)(unsafe.Pointer(hnd)), ls)

	anchors := C.ZWLR_LAYER_SURFACE_V1_ANCHOR_TOP | C.ZWLR_LAYER_SURFACE_V1_ANCHOR_BOTTOM |
		C.ZWLR_LAYER_SURFACE_V1_ANCHOR_LEFT | C.ZWLR_LAYER_SURFACE_V1_ANCHOR_RIGHT
	C.zwlr_layer_surface_v1_set_anchor(hnd, C.uint32_t(anchors))
	C.zwlr_layer_surface_v1_set_exclusive_zone(hnd, -1)
	C.zwlr_layer_surface_v1_set_keyboard_interactivity(hnd, C.ZWLR_LAYER_SURFACE_V1_KEYBOARD_INTERACTIVITY_NONE)

	return ls, nil
}

func (s *Surface) Viewport() (compositor.Viewport, error) {
	hnd := C.wp_viewporter_get_viewport(s.reg.viewporter, s.hnd)
	vp := &Viewport{dsp: s.dsp, hnd: hnd}
	s.dsp.add((*C.struct_wl_proxy)(unsafe.Pointer(hnd)), vp)
	return vp, nil
}

func (s *Surface) FractionalScale() (compositor.FractionalScale, bool) {
	if s.reg.fracScaleManager == nil {
		return nil, false
	}
	hnd := C.wp_fractional_scale_manager_v1_get_fractional_scale(s.reg.fracScaleManager, s.hnd)
	fs := &FractionalScale{dsp: s.dsp, hnd: hnd}
	s.dsp.add((*C.struct_wl_proxy)(unsafe.Pointer(hnd)), fs)
	return fs, true
}

func (s *Surface) Frame(fn func()) {
	hnd := C.wl_surface_frame(s.hnd)
	cb := &callback{dsp: s.dsp, hnd: hnd, onDone: fn}
	s.dsp.add((*C.struct_wl_proxy)(unsafe.Pointer(hnd)), cb)
}

func (s *Surface) Commit() { C.wl_surface_commit(s.hnd) }

func (s *Surface) Destroy() {
	C.wl_surface_destroy(s.hnd)
	s.dsp.forget((*C.struct_wl_proxy)(unsafe.Pointer(s.hnd)))
}

// callback wraps a one-shot wl_callback (frame callbacks and display sync).
type callback struct {
	dsp    *Display
	hnd    *C.struct_wl_callback
	onDone func()
}

func (c *callback) internal() any { return (*callbackEvents)(c) }

type callbackEvents callback

func (c *callbackEvents) Done(data uint32) {
	(*callback)(c).dsp.forget((*C.struct_wl_proxy)(unsafe.Pointer(c.hnd)))
	if c.onDone != nil {
		c.onDone()
	}
}

// LayerSurface wraps zwlr_layer_surface_v1.
type LayerSurface struct {
	dsp *Display
	hnd *C.struct_zwlr_layer_surface_v1

	onConfigure func(width, height uint32, serial uint32)
	onClosed    func()
}

func (l *LayerSurface) internal() any { return (*layerSurfaceEvents)(l) }

type layerSurfaceEvents LayerSurface

func (l *layerSurfaceEvents) Configure(serial, width, height uint32) {
	if l.onConfigure != nil {
		l.onConfigure(width, height, serial)
	}
}

func (l *layerSurfaceEvents) Closed() {
	if l.onClosed != nil {
		l.onClosed()
	}
}

func (l *LayerSurface) OnConfigure(fn func(width, height uint32, serial uint32)) { l.onConfigure = fn }
func (l *LayerSurface) OnClosed(fn func())                                      { l.onClosed = fn }

func (l *LayerSurface) AckConfigure(serial uint32) {
	C.zwlr_layer_surface_v1_ack_configure(l.hnd, C.uint32_t(serial))
}

func (l *LayerSurface) Destroy() {
	C.zwlr_layer_surface_v1_destroy(l.hnd)
	l.dsp.forget((*C.struct_wl_proxy)(unsafe.Pointer(l.hnd)))
}

// Viewport wraps wp_viewport.
type Viewport struct {
	dsp *Display
	hnd *C.struct_wp_viewport
}

func (v *Viewport) SetDestination(width, height int32) {
	C.wp_viewport_set_destination(v.hnd, C.int32_t(width), C.int32_t(height))
}

func (v *Viewport) Destroy() {
	C.wp_viewport_destroy(v.hnd)
	v.dsp.forget((*C.struct_wl_proxy)(unsafe.Pointer(v.hnd)))
}

// FractionalScale wraps wp_fractional_scale_v1.
type FractionalScale struct {
	dsp *Display
	hnd *C.struct_wp_fractional_scale_v1

	onScale func(scale120 int32)
}

func (f *FractionalScale) internal() any { return (*fractionalScaleEvents)(f) }

type fractionalScaleEvents FractionalScale

func (f *fractionalScaleEvents) PreferredScale(scale uint32) {
	if f.onScale != nil {
		f.onScale(int32(scale))
	}
}

func (f *FractionalScale) OnScale(fn func(scale120 int32)) { f.onScale = fn }

func (f *FractionalScale) Destroy() {
	C.wp_fractional_scale_v1_destroy(f.hnd)
	f.dsp.forget((*C.struct_wl_proxy)(unsafe.Pointer(f.hnd)))
}
