package engine

import "github.com/fennwick/glowwall/compositor"

// defaultPhysicalWidth and defaultPhysicalHeight are the logical fallback
// size used when a layer has neither a known logical size nor a known
// output mode yet (scaled by the current fractional scale like any other
// physical size).
const (
	defaultPhysicalWidth  = 1920
	defaultPhysicalHeight = 1080
)

// physicalSize resolves the physical pixel dimensions a shader layer's GPU
// surface should be configured at. logicalWidth/logicalHeight of 0 means no
// compositor-assigned logical size yet; scale120 <= 0 means no scale
// reported yet and is treated as 120 (1x); haveMode reports whether mode is
// populated.
func physicalSize(logicalWidth, logicalHeight uint32, scale120 int32, mode compositor.OutputMode, haveMode bool) (uint32, uint32) {
	if scale120 <= 0 {
		scale120 = 120
	}

	if logicalWidth > 0 && logicalHeight > 0 {
		return scaleDim(logicalWidth, scale120), scaleDim(logicalHeight, scale120)
	}
	if haveMode {
		return uint32(mode.Width), uint32(mode.Height)
	}
	return scaleDim(defaultPhysicalWidth, scale120), scaleDim(defaultPhysicalHeight, scale120)
}

func scaleDim(v uint32, scale120 int32) uint32 {
	return uint32(int64(v) * int64(scale120) / 120)
}
