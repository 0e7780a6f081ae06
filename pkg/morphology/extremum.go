// Package morphology provides the sliding-window extremum buffer and the
// separable box (cuboid structuring element) dilation and erosion built on it.
package morphology

import (
	"math"

	"github.com/pkg/errors"

	"volmorph/internal/models"
)

const (
	// Max selects the maximum of the window (dilation)
	Max = 1
	// Min selects the minimum of the window (erosion)
	Min = -1
)

// ExtremumBuffer keeps the maximum (or minimum) of the last n values pushed
// into it.
//
// Values live in a circular buffer: pushing a value overwrites the oldest
// one. The extremum is cached and only recomputed by Peek when a push may
// have invalidated it, i.e. when the new value beats the cache or the evicted
// value was the cache. The worst case Peek is O(n), which is fine for the
// small windows separable line filters use.
//
// An ExtremumBuffer is not safe for concurrent use.
type ExtremumBuffer[T models.Sample] struct {
	// extremum is the current max (sign = 1) or min (sign = -1)
	extremum T

	// dirty is set when extremum may no longer match the buffer content
	dirty bool

	sign int

	// buffer holds the stored values, head is the slot of the oldest one
	buffer []T
	head   int
}

// NewExtremumBuffer creates a buffer of n slots filled with value. sign is
// Max or Min.
func NewExtremumBuffer[T models.Sample](n int, value T, sign int) (*ExtremumBuffer[T], error) {
	if n <= 0 {
		return nil, errors.Errorf("buffer size must be positive, got %d", n)
	}
	if sign != Max && sign != Min {
		return nil, errors.Errorf("sign must be +1 or -1, got %d", sign)
	}

	b := &ExtremumBuffer[T]{
		sign:   sign,
		buffer: make([]T, n),
	}
	b.Fill(value)
	return b, nil
}

// Len returns the capacity of the buffer
func (b *ExtremumBuffer[T]) Len() int {
	return len(b.buffer)
}

// Sign returns Max or Min
func (b *ExtremumBuffer[T]) Sign() int {
	return b.sign
}

// SetSign switches the buffer between max and min tracking. The stored
// values are kept; the extremum is recomputed on the next Peek.
func (b *ExtremumBuffer[T]) SetSign(sign int) error {
	if sign != Max && sign != Min {
		return errors.Errorf("sign must be +1 or -1, got %d", sign)
	}
	if sign != b.sign {
		b.sign = sign
		b.dirty = true
	}
	return nil
}

// Push adds a value and evicts the oldest one
func (b *ExtremumBuffer[T]) Push(value T) {
	// the new value beats the current extremum
	if b.beats(value, b.extremum) {
		b.dirty = true
	}

	// the evicted value may have been the extremum
	if b.buffer[b.head] == b.extremum {
		b.dirty = true
	}

	b.buffer[b.head] = value
	b.head++
	if b.head == len(b.buffer) {
		b.head = 0
	}
}

// Peek returns the extremum of the stored values
func (b *ExtremumBuffer[T]) Peek() T {
	if b.dirty {
		b.update()
	}
	return b.extremum
}

// Clear fills the buffer with the identity of the tracked extremum: 0 or
// -Inf when tracking the max, the largest value or +Inf for the min.
func (b *ExtremumBuffer[T]) Clear() {
	b.Fill(Identity[T](b.sign))
}

// Fill sets every slot to value
func (b *ExtremumBuffer[T]) Fill(value T) {
	for i := range b.buffer {
		b.buffer[i] = value
	}
	b.extremum = value
	b.dirty = false
}

func (b *ExtremumBuffer[T]) update() {
	ext := Identity[T](b.sign)
	for _, v := range b.buffer {
		if b.beats(v, ext) {
			ext = v
		}
	}
	b.extremum = ext
	b.dirty = false
}

// beats reports whether a is strictly better than c for the tracked extremum
func (b *ExtremumBuffer[T]) beats(a, c T) bool {
	if b.sign == Max {
		return a > c
	}
	return a < c
}

// Identity returns the neutral element of the max (sign = Max) or min
// (sign = Min) over samples of type T.
func Identity[T models.Sample](sign int) T {
	var zero T
	if sign == Max {
		switch any(zero).(type) {
		case float32:
			return any(float32(math.Inf(-1))).(T)
		default:
			return zero
		}
	}

	switch any(zero).(type) {
	case uint8:
		return any(uint8(math.MaxUint8)).(T)
	case uint16:
		return any(uint16(math.MaxUint16)).(T)
	default:
		return any(float32(math.Inf(1))).(T)
	}
}
