package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fennwick/glowwall/config"
)

func TestDetectsGlslLanguageForFragExtension(t *testing.T) {
	source := config.ShaderSource{
		ShaderPath: "/tmp/test.frag",
		Language:   config.LanguageWgsl,
		FrameRate:  30,
	}

	assert.Equal(t, config.LanguageGlsl, detectLanguage(source))
}

func TestDetectsGlslLanguageForGlslExtension(t *testing.T) {
	source := config.ShaderSource{
		ShaderPath: "/tmp/test.glsl",
		Language:   config.LanguageWgsl,
	}

	assert.Equal(t, config.LanguageGlsl, detectLanguage(source))
}

func TestDetectLanguageFallsBackToDeclaredLanguage(t *testing.T) {
	source := config.ShaderSource{
		ShaderPath: "/tmp/test.wgsl",
		Language:   config.LanguageWgsl,
	}

	assert.Equal(t, config.LanguageWgsl, detectLanguage(source))
}

func TestAlignsBytesPerRowToWgpuRequirement(t *testing.T) {
	aligned := alignedBytesPerRow(1, 4)
	assert.Equal(t, uint32(textureRowAlignment), aligned)
}

func TestAlignedBytesPerRowIsAlreadyAlignedWhenWideEnough(t *testing.T) {
	aligned := alignedBytesPerRow(64, 4) // 64*4 = 256, already aligned.
	assert.Equal(t, uint32(256), aligned)
}

func TestPadsTextureUploadRowsWhenNeeded(t *testing.T) {
	width, height := uint32(1), uint32(2)
	rgba := make([]byte, width*height*4)
	for i := range rgba {
		rgba[i] = 1
	}

	staging := textureUploadData(rgba, width, height)

	assert.Equal(t, uint32(textureRowAlignment), staging.BytesPerRow)
	assert.Equal(t, height, staging.Height)
	assert.Len(t, staging.Pixels, int(staging.BytesPerRow*height))
}

func TestTextureUploadDataReturnsOriginalSliceWhenAlreadyAligned(t *testing.T) {
	width, height := uint32(64), uint32(2)
	rgba := make([]byte, width*height*4)

	staging := textureUploadData(rgba, width, height)

	assert.Equal(t, uint32(256), staging.BytesPerRow)
	assert.Equal(t, height, staging.Height)
	assert.Len(t, staging.Pixels, len(rgba))
}

func TestGlslIsRejectedWhenBuildingShaderSource(t *testing.T) {
	_, err := buildShaderSource(config.LanguageGlsl, "preamble", "void main(){}")
	assert.Error(t, err)
}

func TestBuildShaderSourcePrependsPreambleForWgsl(t *testing.T) {
	full, err := buildShaderSource(config.LanguageWgsl, "PREAMBLE", "BODY")
	assert.NoError(t, err)
	assert.Equal(t, "PREAMBLE\nBODY", full)
}

func TestFrameIntervalForMatchesFrameRate(t *testing.T) {
	interval := frameIntervalFor(30)
	assert.InDelta(t, float64(1)/30, interval.Seconds(), 0.0001)
}
