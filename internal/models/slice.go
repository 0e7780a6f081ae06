package models

import (
	"image"
)

// Slice represents a single 2D plane of a volume as it was read from disk
type Slice struct {
	// Image is the decoded slice converted to 8-bit gray
	Image *image.Gray

	// Index is the position of this slice in the sorted sequence
	Index int

	// Filename is the original filename of the slice
	Filename string
}

// Width returns the width of the slice in pixels
func (s Slice) Width() int {
	return s.Image.Bounds().Dx()
}

// Height returns the height of the slice in pixels
func (s Slice) Height() int {
	return s.Image.Bounds().Dy()
}

// StackSlices copies a sequence of equally sized slices into a new volume,
// slice i becoming plane z = i.
func StackSlices(slices []Slice) *Volume[uint8] {
	if len(slices) == 0 {
		return nil
	}

	width := slices[0].Width()
	height := slices[0].Height()
	vol := NewVolume[uint8](width, height, len(slices))

	for z, s := range slices {
		bounds := s.Image.Bounds()
		for y := 0; y < height; y++ {
			// Rows of image.Gray are contiguous, so copy them directly
			row := s.Image.Pix[s.Image.PixOffset(bounds.Min.X, bounds.Min.Y+y):][:width]
			copy(vol.Data[vol.Index(0, y, z):], row)
		}
	}

	return vol
}
