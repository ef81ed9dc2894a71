package canvas

import "github.com/fennwick/glowwall/common"

// textureRowAlignment is wgpu's COPY_BYTES_PER_ROW_ALIGNMENT: every row of a
// buffer-to-texture (or texture-to-buffer) copy must start at a multiple of
// this many bytes.
const textureRowAlignment = 256

// alignedBytesPerRow rounds width*bytesPerPixel up to the next multiple of
// textureRowAlignment.
func alignedBytesPerRow(width, bytesPerPixel uint32) uint32 {
	unpadded := width * bytesPerPixel
	return (unpadded + textureRowAlignment - 1) / textureRowAlignment * textureRowAlignment
}

// textureUploadData pads rgba's rows to alignedBytesPerRow and returns the
// result as a common.TextureStagingData: the same bytes if the unpadded
// stride already satisfies alignment, otherwise a freshly allocated buffer
// with each row copied to its padded offset and the gap left zeroed.
func textureUploadData(rgba []byte, width, height uint32) common.TextureStagingData {
	const bytesPerPixel = 4
	unpaddedBytesPerRow := width * bytesPerPixel
	bytesPerRow := alignedBytesPerRow(width, bytesPerPixel)

	if bytesPerRow == unpaddedBytesPerRow {
		return common.TextureStagingData{Pixels: rgba, Width: width, Height: height, BytesPerRow: bytesPerRow}
	}

	padded := make([]byte, bytesPerRow*height)
	for row := uint32(0); row < height; row++ {
		srcOffset := row * unpaddedBytesPerRow
		dstOffset := row * bytesPerRow
		copy(padded[dstOffset:dstOffset+unpaddedBytesPerRow], rgba[srcOffset:srcOffset+unpaddedBytesPerRow])
	}

	return common.TextureStagingData{Pixels: padded, Width: width, Height: height, BytesPerRow: bytesPerRow}
}
