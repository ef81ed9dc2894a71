package wlclient

// #include <stdlib.h>
// #include <wayland-client.h>
// #include "wlr-layer-shell-unstable-v1-client-protocol.h"
// #include "viewporter-client-protocol.h"
// #include "fractional-scale-v1-client-protocol.h"
import "C"

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/fennwick/glowwall/compositor"
)

// registry is the concrete wl_registry proxy. The public Registry type
// wraps it behind the compositor.Registry interface surface and adds the
// discovery bookkeeping (output map, global name lookups) the engine needs.
type registry struct {
	dsp *Display
	hnd *C.struct_wl_registry

	onGlobal       func(name uint32, iface string, version uint32)
	onGlobalRemove func(name uint32)
}

func (r *registry) internal() any { return (*registryEvents)(r) }

type registryEvents registry

func (r *registryEvents) Global(name uint32, iface string, version uint32) {
	if r.onGlobal != nil {
		r.onGlobal(name, iface, version)
	}
}

func (r *registryEvents) GlobalRemove(name uint32) {
	if r.onGlobalRemove != nil {
		r.onGlobalRemove(name)
	}
}

func (r *registry) bind(name uint32, iface *C.struct_wl_interface, version uint32) unsafe.Pointer {
	return unsafe.Pointer(C.wl_registry_bind(r.hnd, C.uint32_t(name), iface, C.uint32_t(version)))
}

// Registry implements compositor.Registry over a live Wayland connection.
type Registry struct {
	dsp *Display
	reg *registry

	compositor *C.struct_wl_compositor
	shm        *C.struct_wl_shm
	layerShell *C.struct_zwlr_layer_shell_v1
	viewporter *C.struct_wp_viewporter
	fracScaleManager *C.struct_wp_fractional_scale_manager_v1

	outputs map[uint32]*Output

	onOutputAdded   func(compositor.Output)
	onOutputUpdated func(compositor.Output)
	onOutputRemoved func(compositor.Output)
}

// Open connects to the compositor and performs the initial global-discovery
// roundtrip.
func Open() (*Registry, error) {
	dsp, err := Connect()
	if err != nil {
		return nil, err
	}

	r := &Registry{dsp: dsp, outputs: map[uint32]*Output{}}
	reg := dsp.getRegistry()
	r.reg = reg
	reg.onGlobal = r.handleGlobal
	reg.onGlobalRemove = r.handleGlobalRemove

	if err := dsp.Roundtrip(); err != nil {
		return nil, err
	}
	// A second roundtrip lets bound globals (outputs in particular)
	// deliver their initial event batch before engine startup reads them.
	if err := dsp.Roundtrip(); err != nil {
		return nil, err
	}

	if r.compositor == nil || r.shm == nil || r.layerShell == nil || r.viewporter == nil {
		return nil, fmt.Errorf("compositor is missing a required global (wl_compositor, wl_shm, zwlr_layer_shell_v1, wp_viewporter)")
	}

	return r, nil
}

func (r *Registry) handleGlobal(name uint32, iface string, version uint32) {
	switch iface {
	case "wl_compositor":
		r.compositor = (*C.struct_wl_compositor)(r.reg.bind(name, compositorInterface, min32(version, 4)))
	case "wl_shm":
		r.shm = (*C.struct_wl_shm)(r.reg.bind(name, shmInterface, min32(version, 1)))
	case "zwlr_layer_shell_v1":
		r.layerShell = (*C.struct_zwlr_layer_shell_v1)(r.reg.bind(name, layerShellInterface, min32(version, 4)))
	case "wp_viewporter":
		r.viewporter = (*C.struct_wp_viewporter)(r.reg.bind(name, viewporterInterface, min32(version, 1)))
	case "wp_fractional_scale_manager_v1":
		r.fracScaleManager = (*C.struct_wp_fractional_scale_manager_v1)(r.reg.bind(name, fractionalScaleManagerInterface, min32(version, 1)))
	case "wl_output":
		hnd := (*C.struct_wl_output)(r.reg.bind(name, outputInterface, min32(version, 4)))
		out := newOutput(r.dsp, hnd, name)
		r.outputs[name] = out
		r.dsp.add((*C.struct_wl_proxy)(unsafe.Pointer(hnd)), out)
		out.onDone = func(firstTime bool) {
			if firstTime {
				if r.onOutputAdded != nil {
					r.onOutputAdded(out)
				}
				return
			}
			if r.onOutputUpdated != nil {
				r.onOutputUpdated(out)
			}
		}
	}
}

func (r *Registry) handleGlobalRemove(name uint32) {
	if out, ok := r.outputs[name]; ok {
		delete(r.outputs, name)
		if r.onOutputRemoved != nil {
			r.onOutputRemoved(out)
		}
	}
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func (r *Registry) CreateSurface() (compositor.Surface, error) {
	hnd := C.wl_compositor_create_surface(r.compositor)
	surf := newSurface(r.dsp, hnd, r)
	r.dsp.add((*C.struct_wl_proxy)(unsafe.Pointer(hnd)), surf)
	return surf, nil
}

func (r *Registry) OnOutputAdded(fn func(compositor.Output))   { r.onOutputAdded = fn }
func (r *Registry) OnOutputUpdated(fn func(compositor.Output)) { r.onOutputUpdated = fn }
func (r *Registry) OnOutputRemoved(fn func(compositor.Output)) { r.onOutputRemoved = fn }

// Outputs returns the outputs already discovered (and past their initial
// "done" batch or not) at call time.
func (r *Registry) Outputs() []compositor.Output {
	out := make([]compositor.Output, 0, len(r.outputs))
	for _, o := range r.outputs {
		out = append(out, o)
	}
	return out
}

func (r *Registry) HasFractionalScaleManager() bool { return r.fracScaleManager != nil }

func (r *Registry) Roundtrip() error { return r.dsp.Roundtrip() }
func (r *Registry) Dispatch() error  { return r.dsp.Dispatch() }

func (r *Registry) WaitReadable(timeout time.Duration) (bool, error) {
	return r.dsp.WaitReadable(timeout)
}

func (r *Registry) Close() error {
	r.dsp.Disconnect()
	return nil
}
