package onnx

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// grayscale decodes a JPEG or PNG frame, converts it to 8-bit luma and
// scales it to w x h. Pixel values are returned as float32 in [0, 255].
func grayscale(data []byte, w, h int) ([]float32, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("decode frame: empty image")
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := make([]float32, w*h)
	for y := 0; y < h; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x, v := range row {
			out[y*w+x] = float32(v)
		}
	}
	return out, nil
}
