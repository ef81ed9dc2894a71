package gpucontext

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Surface wraps a wgpu.Surface with the configuration the engine last
// applied, so it can be reconfigured at the same format on resize or on
// Lost/Outdated recovery without re-deriving capabilities each time.
type Surface struct {
	ctx    *Context
	native *wgpu.Surface
	format wgpu.TextureFormat
	width  uint32
	height uint32
}

// NewWaylandSurface builds a wgpu.SurfaceDescriptor from a Wayland display
// and surface object and creates a Surface bound to this Context's adapter
// and device.
func (c *Context) NewWaylandSurface(display, surface uintptr) *Surface {
	descriptor := &wgpu.SurfaceDescriptor{
		WaylandSurfaceDescriptor: &wgpu.SurfaceDescriptorFromWaylandSurface{
			Display: display,
			Surface: surface,
		},
	}
	native := c.CreateSurface(descriptor)
	return &Surface{ctx: c, native: native}
}

// Native returns the underlying wgpu.Surface, for callers (the canvas
// package) that need it directly.
func (s *Surface) Native() *wgpu.Surface {
	return s.native
}

// Format returns the format this surface was last configured with.
func (s *Surface) Format() wgpu.TextureFormat {
	return s.format
}

// Width and Height return the physical pixel dimensions this surface was
// last configured with.
func (s *Surface) Width() uint32  { return s.width }
func (s *Surface) Height() uint32 { return s.height }

// Configure selects a surface format and present mode and applies them at
// the given physical size: AutoVsync presentation, opaque alpha
// compositing, no extra view formats, matching the spec's fixed
// configuration policy (there is no user-facing present-mode setting here,
// unlike the renderer this is generalized from).
func (s *Surface) Configure(width, height uint32) error {
	capabilities := s.native.GetCapabilities(s.ctx.adapter)
	if len(capabilities.Formats) == 0 {
		return errors.New("surface reports no supported formats")
	}

	format := capabilities.Formats[0]
	alphaMode := wgpu.CompositeAlphaModeOpaque
	found := false
	for _, m := range capabilities.AlphaModes {
		if m == wgpu.CompositeAlphaModeOpaque {
			found = true
			break
		}
	}
	if !found && len(capabilities.AlphaModes) > 0 {
		alphaMode = capabilities.AlphaModes[0]
	}

	presentMode := wgpu.PresentModeFifo // AutoVsync: always-available vsync-capped mode.

	s.native.Configure(s.ctx.adapter, s.ctx.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       width,
		Height:      height,
		PresentMode: presentMode,
		AlphaMode:   alphaMode,
	})

	s.format = format
	s.width = width
	s.height = height
	return nil
}

// AcquireResult classifies the outcome of acquiring the next surface
// texture, matching the Lost/Outdated/Timeout/OutOfMemory recovery paths
// the engine's frame-callback handler implements.
type AcquireResult int

const (
	AcquireOK AcquireResult = iota
	AcquireLost
	AcquireOutdated
	AcquireTimeout
	AcquireOutOfMemory
	AcquireOtherError
)

// AcquireNextTexture acquires the next swapchain texture and view. On any
// non-success status the texture (if any) is released and the classified
// AcquireResult is returned alongside a non-nil error; callers branch on the
// result rather than on string matching.
func (s *Surface) AcquireNextTexture() (*wgpu.TextureView, AcquireResult, error) {
	texture, err := s.native.GetCurrentTexture()
	if err != nil {
		return nil, classifyAcquireError(err), err
	}

	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, AcquireOtherError, fmt.Errorf("create surface texture view: %w", err)
	}

	return view, AcquireOK, nil
}

// Present presents the current surface image.
func (s *Surface) Present() {
	s.native.Present()
}

// Release drops the underlying wgpu surface. Called when an output is
// removed; the shared Context's adapter, device and queue outlive it.
func (s *Surface) Release() {
	s.native.Release()
}

func classifyAcquireError(err error) AcquireResult {
	switch {
	case errors.Is(err, wgpu.ErrSurfaceLost):
		return AcquireLost
	case errors.Is(err, wgpu.ErrSurfaceOutdated):
		return AcquireOutdated
	case errors.Is(err, wgpu.ErrSurfaceTimeout):
		return AcquireTimeout
	case errors.Is(err, wgpu.ErrOutOfMemory):
		return AcquireOutOfMemory
	default:
		return AcquireOtherError
	}
}
