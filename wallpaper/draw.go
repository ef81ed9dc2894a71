package wallpaper

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// decodeImageFile opens and decodes path using whichever registered image
// codec matches its contents.
func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("unrecognized image format: %w", err)
	}
	return img, nil
}

// ToRGBAPixels flattens an image.RGBA's pixel buffer for GPU upload. The
// stride of image.RGBA already matches width*4 for images we construct
// ourselves (createSolidColorImage, createGradientImage, zoom's output),
// so Pix can be handed to the uploader directly.
func ToRGBAPixels(img *image.RGBA) (pixels []byte, width, height uint32) {
	b := img.Bounds()
	return img.Pix, uint32(b.Dx()), uint32(b.Dy())
}
