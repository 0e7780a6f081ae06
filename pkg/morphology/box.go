package morphology

import (
	"github.com/pkg/errors"

	"volmorph/internal/models"
)

// CubeSize returns the side of a cube structuring element of the given
// radius
func CubeSize(radius int) int {
	return 2*radius + 1
}

// DilateBox computes the dilation of v by an sx × sy × sz box. The box
// covers [i-(s-1)/2, i-(s-1)/2+s-1] along each axis, so odd sizes are
// centered. Voxels outside the grid do not contribute.
func DilateBox[T models.Sample](v *models.Volume[T], sx, sy, sz int) (*models.Volume[T], error) {
	return boxFilter(v, sx, sy, sz, Max)
}

// ErodeBox computes the erosion of v by an sx × sy × sz box
func ErodeBox[T models.Sample](v *models.Volume[T], sx, sy, sz int) (*models.Volume[T], error) {
	return boxFilter(v, sx, sy, sz, Min)
}

// boxFilter runs the separable filter as three 1D passes. The rectangular
// box is the product of three segments, so filtering each axis in turn gives
// the same result as the full 3D window.
func boxFilter[T models.Sample](v *models.Volume[T], sx, sy, sz int, sign int) (*models.Volume[T], error) {
	if v == nil {
		return nil, errors.New("nil volume")
	}
	if sx < 1 || sy < 1 || sz < 1 {
		return nil, errors.Errorf("box size must be at least 1 along each axis, got %dx%dx%d", sx, sy, sz)
	}

	out := v.Clone()
	w, h, d := v.W, v.H, v.D

	// x lines
	if sx > 1 && w > 0 {
		p, err := newLinePass(out.Data, sx, w, sign)
		if err != nil {
			return nil, err
		}
		for z := 0; z < d; z++ {
			for y := 0; y < h; y++ {
				p.run(out.Index(0, y, z), 1)
			}
		}
	}

	// y lines
	if sy > 1 && h > 0 {
		p, err := newLinePass(out.Data, sy, h, sign)
		if err != nil {
			return nil, err
		}
		for z := 0; z < d; z++ {
			for x := 0; x < w; x++ {
				p.run(out.Index(x, 0, z), w)
			}
		}
	}

	// z lines
	if sz > 1 && d > 0 {
		p, err := newLinePass(out.Data, sz, d, sign)
		if err != nil {
			return nil, err
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				p.run(out.Index(x, y, 0), w*h)
			}
		}
	}

	return out, nil
}

// linePass filters lines of one axis in place
type linePass[T models.Sample] struct {
	data []T
	buf  *ExtremumBuffer[T]

	// line is a scratch copy of the current line
	line []T

	// lead is the number of positions the window extends past the center
	lead int
	id   T
}

func newLinePass[T models.Sample](data []T, size, n int, sign int) (*linePass[T], error) {
	id := Identity[T](sign)
	buf, err := NewExtremumBuffer(size, id, sign)
	if err != nil {
		return nil, err
	}
	offset := (size - 1) / 2
	return &linePass[T]{
		data: data,
		buf:  buf,
		line: make([]T, n),
		lead: size - 1 - offset,
		id:   id,
	}, nil
}

func (p *linePass[T]) run(start, stride int) {
	n := len(p.line)
	for i := 0; i < n; i++ {
		p.line[i] = p.data[start+i*stride]
	}

	p.buf.Clear()
	for j := 0; j < p.lead; j++ {
		p.buf.Push(p.at(j))
	}

	for i := 0; i < n; i++ {
		p.buf.Push(p.at(i + p.lead))
		p.data[start+i*stride] = p.buf.Peek()
	}
}

func (p *linePass[T]) at(i int) T {
	if i < len(p.line) {
		return p.line[i]
	}
	return p.id
}
