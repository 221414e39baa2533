package llm

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// ImageTooLargeError is returned when the encoded image exceeds the budget
type ImageTooLargeError struct {
	EncodedSize int
	Limit       int
}

func (e *ImageTooLargeError) Error() string {
	return fmt.Sprintf("encoded image is %d bytes, limit %d", e.EncodedSize, e.Limit)
}

// PreparedImage is a screenshot ready to attach to a vision request
type PreparedImage struct {
	PNG         []byte
	Width       int
	Height      int
	EncodedSize int // base64 length
}

// PrepareImage loads the image, flattens it onto an opaque background, scales
// it to fit within maxDim on both axes (never enlarging) and re-encodes it as
// PNG. When the base64 size is over maxEncoded an *ImageTooLargeError is
// returned along with the prepared image.
func PrepareImage(path string, maxDim, maxEncoded int) (*PreparedImage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	src, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	w, h := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), maxDim)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == src.Bounds().Dx() && h == src.Bounds().Dy() {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	prepared := &PreparedImage{
		PNG:         buf.Bytes(),
		Width:       w,
		Height:      h,
		EncodedSize: base64.StdEncoding.EncodedLen(buf.Len()),
	}
	if maxEncoded > 0 && prepared.EncodedSize > maxEncoded {
		return prepared, &ImageTooLargeError{EncodedSize: prepared.EncodedSize, Limit: maxEncoded}
	}
	return prepared, nil
}

// fitWithin scales (w, h) down to fit a maxDim square, keeping aspect ratio
func fitWithin(w, h, maxDim int) (int, int) {
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return w, h
	}
	if w >= h {
		nh := h * maxDim / w
		if nh < 1 {
			nh = 1
		}
		return maxDim, nh
	}
	nw := w * maxDim / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxDim
}
