package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fennwick/glowwall/compositor"
)

func TestPhysicalSizeUsesLogicalSizeWhenKnown(t *testing.T) {
	w, h := physicalSize(1920, 1080, 180, compositor.OutputMode{}, false)
	assert.Equal(t, uint32(2880), w)
	assert.Equal(t, uint32(1620), h)
}

func TestPhysicalSizeFallsBackToModeWhenLogicalSizeUnknown(t *testing.T) {
	mode := compositor.OutputMode{Width: 2560, Height: 1440}
	w, h := physicalSize(0, 0, 120, mode, true)
	assert.Equal(t, uint32(2560), w)
	assert.Equal(t, uint32(1440), h)
}

func TestPhysicalSizeDefaultsWhenNothingKnown(t *testing.T) {
	w, h := physicalSize(0, 0, 0, compositor.OutputMode{}, false)
	assert.Equal(t, uint32(defaultPhysicalWidth), w)
	assert.Equal(t, uint32(defaultPhysicalHeight), h)
}

func TestPhysicalSizeTreatsZeroScaleAs120(t *testing.T) {
	w, h := physicalSize(1920, 1080, 0, compositor.OutputMode{}, false)
	assert.Equal(t, uint32(1920), w)
	assert.Equal(t, uint32(1080), h)
}

func TestPhysicalSizeScalesDefaultByReportedScale(t *testing.T) {
	w, h := physicalSize(0, 0, 150, compositor.OutputMode{}, false)
	assert.Equal(t, uint32(2400), w)
	assert.Equal(t, uint32(1350), h)
}
