package wallpaper

import (
	"fmt"
	"image"

	"github.com/fennwick/glowwall/config"
)

// Render produces an RGBA image sized width x height for a static
// background source (path, solid color, or gradient). SourceShader is not
// handled here — shader sources are rendered by the canvas package.
func Render(src config.Source, width, height int) (*image.RGBA, error) {
	switch src.Kind {
	case config.SourcePath:
		resolved, ok := resolveImagePath(src.Path)
		if !ok {
			return nil, fmt.Errorf("no image found at %q", src.Path)
		}
		img, err := decodeImageFile(resolved)
		if err != nil {
			return nil, fmt.Errorf("decode %q: %w", resolved, err)
		}
		return zoom(img, width, height), nil

	case config.SourceSolidColor:
		return createSolidColorImage(src.Color, width, height), nil

	case config.SourceGradient:
		colors := make([][3]float32, len(src.GradientColors))
		for i, c := range src.GradientColors {
			colors[i] = c
		}
		return createGradientImage(colors, src.GradientRadius, width, height), nil

	default:
		return nil, fmt.Errorf("source kind %v has no static rendering", src.Kind)
	}
}

// IsShader reports whether src should instead be handed to the canvas
// package for animated rendering.
func IsShader(src config.Source) bool {
	return src.Kind == config.SourceShader
}
