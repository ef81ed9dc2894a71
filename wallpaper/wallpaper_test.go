package wallpaper

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennwick/glowwall/config"
)

func TestSolidColorImageCreation(t *testing.T) {
	img := createSolidColorImage([3]float32{1, 0, 0}, 10, 10)
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 0, A: 255}, img.RGBAAt(5, 5))
}

func TestGradientSingleColorDegradesToSolid(t *testing.T) {
	img := createGradientImage([][3]float32{{0, 1, 0}}, 1.0, 10, 10)
	assert.Equal(t, color.RGBA{R: 0, G: 255, B: 0, A: 255}, img.RGBAAt(5, 5))
}

func TestGradientEmptyColorsDegradesToBlack(t *testing.T) {
	img := createGradientImage(nil, 1.0, 4, 4)
	assert.Equal(t, color.RGBA{R: 0, G: 0, B: 0, A: 255}, img.RGBAAt(0, 0))
}

func TestGradientCenterMatchesFirstColor(t *testing.T) {
	img := createGradientImage([][3]float32{{1, 0, 0}, {0, 0, 1}}, 1.0, 11, 11)
	center := img.RGBAAt(5, 5)
	assert.Equal(t, uint8(255), center.R)
	assert.Equal(t, uint8(0), center.B)
}

func TestFindFirstImageInDirReturnsAlphabeticallyFirst(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte{}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte{}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte{}, 0o644))

	got := findFirstImageInDir(dir)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), got)
}

func TestFindFirstImageInDirEmptyWhenNoImages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte{}, 0o644))

	assert.Empty(t, findFirstImageInDir(dir))
}

func TestRenderSolidColor(t *testing.T) {
	img, err := Render(config.Source{Kind: config.SourceSolidColor, Color: [3]float32{0, 0, 1}}, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0, G: 0, B: 255, A: 255}, img.RGBAAt(4, 4))
}

func TestRenderPathMissingFileErrors(t *testing.T) {
	_, err := Render(config.Source{Kind: config.SourcePath, Path: "/does/not/exist.png"}, 8, 8)
	assert.Error(t, err)
}

func TestIsShader(t *testing.T) {
	assert.True(t, IsShader(config.Source{Kind: config.SourceShader}))
	assert.False(t, IsShader(config.Source{Kind: config.SourceSolidColor}))
}

func TestToRGBAPixels(t *testing.T) {
	img := createSolidColorImage([3]float32{1, 1, 1}, 3, 2)
	pixels, width, height := ToRGBAPixels(img)
	assert.Equal(t, uint32(3), width)
	assert.Equal(t, uint32(2), height)
	assert.Len(t, pixels, 3*2*4)
}
