// package compositor declares the Wayland surface boundary the engine
// drives: output discovery, layer-shell surface lifecycle, viewport
// scaling, and optional fractional-scale reporting. The engine depends only
// on these interfaces; compositor/wlclient implements them over
// libwayland-client, and engine's tests implement them over an in-memory
// fake so end-to-end scenarios run without a Wayland session.
package compositor

import "time"

// OutputMode is one advertised display mode: physical pixel dimensions and
// refresh rate in millihertz.
type OutputMode struct {
	Width, Height int32
	RefreshMHz    int32
}

// Output is a single display the compositor exposes.
type Output interface {
	// Name is the compositor-assigned output name (e.g. "eDP-1").
	Name() string
	// CurrentMode returns the output's current mode and whether one has
	// been reported yet.
	CurrentMode() (OutputMode, bool)
	// ScaleFactor120 returns the integer output scale in 120ths, used when
	// neither a fractional-scale manager nor a v6+ output object is
	// available. Defaults to 120 (1x) until the compositor reports one.
	ScaleFactor120() int32
}

// Viewport lets a surface's committed buffer be scaled to an arbitrary
// logical destination size, independent of the buffer's own pixel size.
type Viewport interface {
	SetDestination(width, height int32)
	Destroy()
}

// FractionalScale reports a surface's preferred scale in 120ths, finer
// grained than the integer buffer_scale.
type FractionalScale interface {
	// OnScale registers the callback invoked when the compositor reports
	// a new preferred scale.
	OnScale(func(scale120 int32))
	Destroy()
}

// LayerSurface is a zwlr-layer-shell-v1 surface anchored as a desktop
// background.
type LayerSurface interface {
	// OnConfigure registers the callback invoked with the compositor's
	// assigned logical size (0 means "use the anchored/output size") and
	// the serial to acknowledge.
	OnConfigure(func(width, height uint32, serial uint32))
	// OnClosed registers the callback invoked when the compositor asks the
	// surface to tear down (e.g. output removed).
	OnClosed(func())
	AckConfigure(serial uint32)
	Destroy()
}

// Surface is a generic wl_surface plus the layer-shell role and optional
// scaling helpers bound to it.
type Surface interface {
	// NativeDisplay and NativeWindow return the platform handles a GPU
	// surface is created from.
	NativeDisplay() uintptr
	NativeWindow() uintptr

	LayerShellSurface(output Output) (LayerSurface, error)
	Viewport() (Viewport, error)
	FractionalScale() (FractionalScale, bool)

	// Frame requests a one-shot frame callback, invoked the next time the
	// compositor wants a new frame from this surface.
	Frame(func())
	Commit()
	Destroy()
}

// Buffer is an SHM-backed pixel buffer for a static (non-shader) layer.
type Buffer interface {
	// Pixels returns the buffer's writable pixel storage, BGRA byte order
	// (native-endian ARGB8888), row-major with no padding.
	Pixels() []byte
	AttachTo(Surface)
	Destroy()
}

// Registry is the compositor connection's global object directory: the
// entry point the engine uses to create surfaces and learn about outputs.
type Registry interface {
	// CreateSurface allocates a new wl_surface with no role yet.
	CreateSurface() (Surface, error)

	// CreateBuffer allocates a width*height ARGB8888 SHM buffer for a
	// static layer.
	CreateBuffer(width, height int32) (Buffer, error)

	// OnOutputAdded/OnOutputUpdated/OnOutputRemoved register the engine's
	// output lifecycle callbacks. OnOutputUpdated fires for mode and scale
	// changes alike.
	OnOutputAdded(func(Output))
	OnOutputUpdated(func(Output))
	OnOutputRemoved(func(Output))

	// Outputs returns the outputs already known at call time, so a caller
	// that registers OnOutputAdded after construction can still process
	// the initial discovery batch.
	Outputs() []Output

	// HasFractionalScaleManager reports whether wp-fractional-scale-v1 was
	// advertised; when false, outputs' ScaleFactor120 is authoritative.
	HasFractionalScaleManager() bool

	// Roundtrip blocks until all requests issued so far have been
	// processed by the compositor, used during startup discovery.
	Roundtrip() error

	// Dispatch processes any events currently queued from the compositor
	// connection, invoking the registered callbacks. It may block briefly
	// reading one batch of events off the wire; callers that need to stay
	// responsive to other event sources call it only after WaitReadable
	// reports the connection has something to process.
	Dispatch() error

	// WaitReadable blocks up to timeout for the compositor connection to
	// have pending events, reporting true if it became readable before the
	// timeout elapsed. This lets a caller multiplex the connection with
	// other event sources (a context, a config-change channel) in a single
	// bounded wait instead of blocking indefinitely inside Dispatch when the
	// compositor has no periodic traffic to offer (e.g. a static-image
	// output with no shader frame callback ever requested).
	WaitReadable(timeout time.Duration) (bool, error)

	// Close releases the connection. After Close, Dispatch returns an
	// error.
	Close() error
}
