package models

import (
	"fmt"
)

// Sample is the set of voxel types a Volume can hold
type Sample interface {
	uint8 | uint16 | float32
}

// Grid is the sample-type independent view of a volume. It is what callers
// hand to code that dispatches on the sample type.
type Grid interface {
	Width() int
	Height() int
	Depth() int

	// BitDepth is 8, 16 or 32 (float)
	BitDepth() int
}

// Volume represents a 3D voxel grid
type Volume[T Sample] struct {
	// Data is the 3D volume data as a 1D array in row-major order
	// (x varies fastest, then y, then z)
	Data []T

	// W, H and D are the dimensions of the volume in voxels
	W, H, D int
}

// NewVolume allocates a zero-filled volume
func NewVolume[T Sample](width, height, depth int) *Volume[T] {
	if width < 0 || height < 0 || depth < 0 {
		panic(fmt.Sprintf("invalid volume dimensions %dx%dx%d", width, height, depth))
	}
	return &Volume[T]{
		Data: make([]T, width*height*depth),
		W:    width,
		H:    height,
		D:    depth,
	}
}

// NewVolumeFromData wraps an existing row-major buffer
func NewVolumeFromData[T Sample](data []T, width, height, depth int) (*Volume[T], error) {
	if width*height*depth != len(data) {
		return nil, fmt.Errorf("data length %d does not match dimensions %dx%dx%d", len(data), width, height, depth)
	}
	return &Volume[T]{Data: data, W: width, H: height, D: depth}, nil
}

// Width returns the size along x
func (v *Volume[T]) Width() int { return v.W }

// Height returns the size along y
func (v *Volume[T]) Height() int { return v.H }

// Depth returns the size along z
func (v *Volume[T]) Depth() int { return v.D }

// BitDepth identifies the sample type
func (v *Volume[T]) BitDepth() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 8
	case uint16:
		return 16
	case float32:
		return 32
	}
	panic("unreachable")
}

// Len returns the number of voxels
func (v *Volume[T]) Len() int { return len(v.Data) }

// Index returns the flat index of voxel (x, y, z)
func (v *Volume[T]) Index(x, y, z int) int {
	return (z*v.H+y)*v.W + x
}

// Contains reports whether (x, y, z) lies inside the grid
func (v *Volume[T]) Contains(x, y, z int) bool {
	return x >= 0 && x < v.W && y >= 0 && y < v.H && z >= 0 && z < v.D
}

// At returns the sample at (x, y, z). Bounds are not checked.
func (v *Volume[T]) At(x, y, z int) T {
	return v.Data[(z*v.H+y)*v.W+x]
}

// Set stores a sample at (x, y, z). Bounds are not checked.
func (v *Volume[T]) Set(x, y, z int, value T) {
	v.Data[(z*v.H+y)*v.W+x] = value
}

// Fill sets every voxel to value
func (v *Volume[T]) Fill(value T) {
	for i := range v.Data {
		v.Data[i] = value
	}
}

// Clone returns a deep copy
func (v *Volume[T]) Clone() *Volume[T] {
	data := make([]T, len(v.Data))
	copy(data, v.Data)
	return &Volume[T]{Data: data, W: v.W, H: v.H, D: v.D}
}

// Equal reports whether two volumes have the same shape and samples
func (v *Volume[T]) Equal(other *Volume[T]) bool {
	if !SameShape(v, other) {
		return false
	}
	for i, s := range v.Data {
		if other.Data[i] != s {
			return false
		}
	}
	return true
}

// SameShape reports whether two grids have identical dimensions.
// A nil grid never matches.
func SameShape(a, b Grid) bool {
	if IsNil(a) || IsNil(b) {
		return false
	}
	return a.Width() == b.Width() && a.Height() == b.Height() && a.Depth() == b.Depth()
}

// IsNil reports whether g is nil or holds a nil volume
func IsNil(g Grid) bool {
	if g == nil {
		return true
	}
	switch v := g.(type) {
	case *Volume[uint8]:
		return v == nil
	case *Volume[uint16]:
		return v == nil
	case *Volume[float32]:
		return v == nil
	}
	return false
}

// ToFloat32 converts a volume to 32-bit float samples
func ToFloat32[T Sample](v *Volume[T]) *Volume[float32] {
	out := NewVolume[float32](v.W, v.H, v.D)
	for i, s := range v.Data {
		out.Data[i] = float32(s)
	}
	return out
}

// ToUint8 converts a volume to bytes, clamping to [0, 255] and rounding
// to the nearest integer
func ToUint8[T Sample](v *Volume[T]) *Volume[uint8] {
	out := NewVolume[uint8](v.W, v.H, v.D)
	for i, s := range v.Data {
		f := float64(s)
		switch {
		case f <= 0:
			out.Data[i] = 0
		case f >= 255:
			out.Data[i] = 255
		default:
			out.Data[i] = uint8(f + 0.5)
		}
	}
	return out
}
