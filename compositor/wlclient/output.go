package wlclient

// #include <wayland-client.h>
import "C"

import (
	"fmt"

	"github.com/fennwick/glowwall/compositor"
)

// Output implements compositor.Output over a wl_output proxy, accumulating
// the mode/geometry/scale events the compositor sends in a batch terminated
// by "done" (wl_output version >= 2) or immediately usable as each event
// lands (version 1, no done event — callers re-check after Dispatch).
type Output struct {
	dsp  *Display
	hnd  *C.struct_wl_output
	name uint32

	outputName string
	mode       compositor.OutputMode
	haveMode   bool
	scale120   int32

	everDone bool
	onDone   func(firstTime bool)
}

func newOutput(dsp *Display, hnd *C.struct_wl_output, name uint32) *Output {
	return &Output{dsp: dsp, hnd: hnd, name: name, scale120: 120}
}

func (o *Output) internal() any { return (*outputEvents)(o) }

type outputEvents Output

func (o *outputEvents) Geometry(x, y, physWidth, physHeight, subpixel int32, make_, model string, transform int32) {
}

func (o *outputEvents) Mode(flags, width, height, refresh int32) {
	if flags&int32(C.WL_OUTPUT_MODE_CURRENT) == 0 {
		return
	}
	o.mode = compositor.OutputMode{Width: width, Height: height, RefreshMHz: refresh}
	o.haveMode = true
}

func (o *outputEvents) Done() {
	first := !o.everDone
	o.everDone = true
	if o.onDone != nil {
		o.onDone(first)
	}
}

func (o *outputEvents) Scale(factor int32) {
	o.scale120 = factor * 120
}

func (o *outputEvents) Name(name string) {
	o.outputName = name
}

func (o *outputEvents) Description(description string) {}

func (o *Output) Name() string {
	if o.outputName != "" {
		return o.outputName
	}
	return fmt.Sprintf("output-%d", o.name)
}

func (o *Output) CurrentMode() (compositor.OutputMode, bool) {
	return o.mode, o.haveMode
}

func (o *Output) ScaleFactor120() int32 {
	return o.scale120
}
