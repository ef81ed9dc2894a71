// package wallpaper renders the static (non-shader) background sources —
// a single image, a solid color, or a radial gradient — into an RGBA image
// of the width and height the caller asks for. Grounded on cosmic-bg-lib's
// external_surface.rs background-loading helpers.
package wallpaper

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anthonynsimon/bild/transform"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".webp": true, ".gif": true, ".bmp": true,
}

// findFirstImageInDir returns the alphabetically first image file in dir,
// or "" if dir has none.
func findFirstImageInDir(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			images = append(images, e.Name())
		}
	}
	if len(images) == 0 {
		return ""
	}
	sort.Strings(images)
	return filepath.Join(dir, images[0])
}

// ListImages returns the image files directly inside dir, sorted by name.
// Used by the engine to build a directory source's rotation queue.
func ListImages(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(images)
	return images
}

// createSolidColorImage fills a width x height RGBA image with color, given
// as [R,G,B] in [0,1].
func createSolidColorImage(c [3]float32, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	px := color.RGBA{R: to8(c[0]), G: to8(c[1]), B: to8(c[2]), A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, px)
		}
	}
	return img
}

// createGradientImage renders a radial gradient centered on the image,
// interpolating piecewise-linearly across colors as distance from center
// grows, out to maxDist = radius * the half-diagonal. A single color
// degrades to a solid fill; no colors degrades to black.
func createGradientImage(colors [][3]float32, radius float32, width, height int) *image.RGBA {
	if len(colors) == 0 {
		return createSolidColorImage([3]float32{0, 0, 0}, width, height)
	}
	if len(colors) == 1 {
		return createSolidColorImage(colors[0], width, height)
	}

	centerX := float32(width) / 2
	centerY := float32(height) / 2
	maxDist := float32(math.Sqrt(float64(centerX*centerX+centerY*centerY))) * radius

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := float32(x) + 0.5 - centerX
			dy := float32(y) + 0.5 - centerY
			dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
			t := dist / maxDist
			if t > 1 {
				t = 1
			}

			colorIdx := t * float32(len(colors)-1)
			idx1 := int(math.Floor(float64(colorIdx)))
			idx2 := idx1 + 1
			if idx2 > len(colors)-1 {
				idx2 = len(colors) - 1
			}
			frac := colorIdx - float32(idx1)

			c1, c2 := colors[idx1], colors[idx2]
			r := to8(c1[0] + (c2[0]-c1[0])*frac)
			g := to8(c1[1] + (c2[1]-c1[1])*frac)
			b := to8(c1[2] + (c2[2]-c1[2])*frac)

			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

func to8(v float32) uint8 {
	scaled := v * 255
	switch {
	case scaled <= 0:
		return 0
	case scaled >= 255:
		return 255
	default:
		return uint8(scaled)
	}
}

// zoom crops img to width:height's aspect ratio (the largest centered region
// that matches it) and resizes that crop to exactly width x height with a
// Lanczos filter, matching cosmic-bg's "zoom to fill" scaling policy: the
// output is always fully covered, with any excess source cropped away rather
// than the whole image stretched to fit.
func zoom(img image.Image, width, height int) *image.RGBA {
	cropped := cropToAspect(img, width, height)
	resized := transform.Resize(cropped, width, height, transform.Lanczos)
	out := image.NewRGBA(resized.Bounds())
	drawInto(out, resized)
	return out
}

// cropToAspect returns the largest centered region of img whose aspect ratio
// matches width:height.
func cropToAspect(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW <= 0 || srcH <= 0 || width <= 0 || height <= 0 {
		return img
	}

	targetRatio := float64(width) / float64(height)
	srcRatio := float64(srcW) / float64(srcH)

	cropW, cropH := srcW, srcH
	switch {
	case srcRatio > targetRatio:
		cropW = int(float64(srcH) * targetRatio)
	case srcRatio < targetRatio:
		cropH = int(float64(srcW) / targetRatio)
	default:
		return img
	}
	if cropW < 1 {
		cropW = 1
	}
	if cropH < 1 {
		cropH = 1
	}

	offsetX := b.Min.X + (srcW-cropW)/2
	offsetY := b.Min.Y + (srcH-cropH)/2
	rect := image.Rect(offsetX, offsetY, offsetX+cropW, offsetY+cropH)
	return transform.Crop(img, rect)
}

func drawInto(dst *image.RGBA, src image.Image) {
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, src.At(x, y))
		}
	}
}

// resolveImagePath returns path itself if it names a file, or the first
// image found inside it if it names a directory.
func resolveImagePath(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if !info.IsDir() {
		return path, true
	}
	first := findFirstImageInDir(path)
	return first, first != ""
}
