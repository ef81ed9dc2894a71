// package gpucontext owns the single adapter/device/queue shared by every
// surface the engine creates, and configures per-output surfaces against it.
// Grounded on the instance/adapter/device acquisition and surface
// configuration shape of a WebGPU game-engine renderer backend, generalized
// from "one surface bound to one window" to "N surfaces, one per output,
// sharing one device/queue".
package gpucontext

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Context owns the WebGPU instance, adapter, device, and queue. A single
// Context is shared across every output's Surface.
type Context struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

// New creates the WebGPU instance and requests an adapter and device. When
// preferLowPower is set, a low-power adapter is requested, falling back to
// the default preference if none is reported by the backend — the
// renderer's RequestAdapterOptions this is generalized from never needs
// this hint because it always targets the default/high-performance adapter.
func New(preferLowPower bool) (*Context, error) {
	instance := wgpu.CreateInstance(nil)

	opts := &wgpu.RequestAdapterOptions{}
	if preferLowPower {
		opts.PowerPreference = wgpu.PowerPreferenceLowPower
	}

	adapter, err := instance.RequestAdapter(opts)
	if err != nil && preferLowPower {
		adapter, err = instance.RequestAdapter(&wgpu.RequestAdapterOptions{})
	}
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "glowwall device",
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}

	return &Context{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
	}, nil
}

// Device returns the shared device.
func (c *Context) Device() *wgpu.Device {
	return c.device
}

// Queue returns the shared queue. All submissions across every surface are
// serialized through this queue in the order the engine loop emits them.
func (c *Context) Queue() *wgpu.Queue {
	return c.queue
}

// CreateSurface wraps instance.CreateSurface for callers that already built
// a platform SurfaceDescriptor (see surface.go for the Wayland helper).
func (c *Context) CreateSurface(descriptor *wgpu.SurfaceDescriptor) *wgpu.Surface {
	return c.instance.CreateSurface(descriptor)
}
