package reconstruction

import (
	"math/rand"

	"volmorph/internal/models"
)

// createCubicMeshVolume creates a 20x20x20 volume holding the 12 edges of a
// cube as square tubes of width 7 centered on the planes 5 and 15
func createCubicMeshVolume() *models.Volume[uint8] {
	vol := models.NewVolume[uint8](20, 20, 20)

	// number of voxels between edges and tube borders
	gap := 2

	// First, the edges in the x direction
	for z := 5 - gap - 1; z <= 5+gap+1; z++ {
		for y := 5 - gap - 1; y <= 5+gap+1; y++ {
			for x := 5 - gap - 1; x <= 15+gap+1; x++ {
				vol.Set(x, y, z, 255)
				vol.Set(x, y, z+10, 255)
			}
		}
	}

	// then, the edges in the y direction
	for z := 5 - gap - 1; z <= 5+gap+1; z++ {
		for x := 5 - gap - 1; x <= 5+gap+1; x++ {
			for y := 5 - gap - 1; y <= 15+gap+1; y++ {
				vol.Set(x+10, y, z, 255)
				vol.Set(x, y, z+10, 255)
				vol.Set(x+10, y, z+10, 255)
			}
		}
	}

	// Finally, the edges in the z direction
	for y := 5 - gap - 1; y <= 5+gap+1; y++ {
		for x := 5 - gap - 1; x <= 5+gap+1; x++ {
			for z := 5 - gap - 1; z <= 15+gap+1; z++ {
				vol.Set(x, y+10, z, 255)
				vol.Set(x+10, y+10, z, 255)
			}
		}
	}

	return vol
}

// createCubicHollowMeshVolume carves the inside of the cubic mesh tubes,
// leaving walls one voxel thick
func createCubicHollowMeshVolume() *models.Volume[uint8] {
	vol := createCubicMeshVolume()
	gap := 2

	for z := 5 - gap; z <= 5+gap; z++ {
		for y := 5 - gap; y <= 5+gap; y++ {
			for x := 5 - gap; x <= 15+gap; x++ {
				vol.Set(x, y, z, 0)
				vol.Set(x, y, z+10, 0)
			}
		}
	}
	for z := 5 - gap; z <= 5+gap; z++ {
		for x := 5 - gap; x <= 5+gap; x++ {
			for y := 5 - gap; y <= 15+gap; y++ {
				vol.Set(x+10, y, z, 0)
				vol.Set(x, y, z+10, 0)
				vol.Set(x+10, y, z+10, 0)
			}
		}
	}
	for y := 5 - gap; y <= 5+gap; y++ {
		for x := 5 - gap; x <= 5+gap; x++ {
			for z := 5 - gap; z <= 15+gap; z++ {
				vol.Set(x, y+10, z, 0)
				vol.Set(x+10, y+10, z, 0)
			}
		}
	}

	return vol
}

// createThinCubicMeshVolume creates a 5x5x5 wire-frame cube with edges one
// voxel thick. Reconstruction from (0,0,0) has to go around the whole frame
// to reach (0,4,0).
func createThinCubicMeshVolume() *models.Volume[uint8] {
	vol := models.NewVolume[uint8](5, 5, 5)

	for x := 0; x < 5; x++ {
		vol.Set(x, 0, 0, 255)
		vol.Set(x, 0, 4, 255)
	}
	for y := 0; y < 5; y++ {
		vol.Set(4, y, 0, 255)
		vol.Set(0, y, 4, 255)
		vol.Set(4, y, 4, 255)
	}
	for z := 0; z < 5; z++ {
		vol.Set(0, 4, z, 255)
		vol.Set(4, 4, z, 255)
	}

	return vol
}

// hilbertPoint maps a distance along a 3D Hilbert curve to coordinates on a
// grid of side 2^bits (J. Skilling, "Programming the Hilbert curve", 2004)
func hilbertPoint(h, bits int) [3]int {
	const dims = 3
	var p [dims]int

	// transposed form: interleave the bits of h across the axes
	for b := 0; b < bits*dims; b++ {
		v := (h >> (bits*dims - 1 - b)) & 1
		p[b%dims] |= v << (bits - 1 - b/dims)
	}

	// Gray decode
	n := 2 << (bits - 1)
	t := p[dims-1] >> 1
	for i := dims - 1; i > 0; i-- {
		p[i] ^= p[i-1]
	}
	p[0] ^= t

	// undo excess work
	for q := 2; q != n; q <<= 1 {
		mask := q - 1
		for i := dims - 1; i >= 0; i-- {
			if p[i]&q != 0 {
				p[0] ^= mask
			} else {
				t := (p[0] ^ p[i]) & mask
				p[0] ^= t
				p[i] ^= t
			}
		}
	}
	return p
}

// createHilbertCurveVolume draws an order 2 Hilbert curve scaled by two,
// with the voxels between consecutive curve points filled, in a 7x7x7
// volume. The curve passes through (3,0,0).
func createHilbertCurveVolume() *models.Volume[uint8] {
	vol := models.NewVolume[uint8](7, 7, 7)

	prev := [3]int{-1, -1, -1}
	for h := 0; h < 64; h++ {
		p := hilbertPoint(h, 2)
		x, y, z := 2*p[2], 2*p[1], 2*p[0]
		vol.Set(x, y, z, 255)
		if prev[0] >= 0 {
			vol.Set((x+prev[0])/2, (y+prev[1])/2, (z+prev[2])/2, 255)
		}
		prev = [3]int{x, y, z}
	}

	return vol
}

// invert returns 255 - v for every voxel
func invert(v *models.Volume[uint8]) *models.Volume[uint8] {
	out := v.Clone()
	for i, s := range out.Data {
		out.Data[i] = 255 - s
	}
	return out
}

// randomVolume fills a volume with random bytes. When sparse is set most
// voxels are zero, which makes a good marker.
func randomVolume(rng *rand.Rand, w, h, d int, sparse bool) *models.Volume[uint8] {
	vol := models.NewVolume[uint8](w, h, d)
	for i := range vol.Data {
		if sparse && rng.Intn(4) != 0 {
			continue
		}
		vol.Data[i] = uint8(rng.Intn(256))
	}
	return vol
}

// naiveReconstruction iterates elementary geodesic dilations (or erosions)
// over the full neighborhood until the volume stops changing. It is the
// textbook definition the hybrid algorithm must agree with.
func naiveReconstruction[T Sample](marker, mask *models.Volume[T], typ Type, conn Connectivity) *models.Volume[T] {
	nh := newNeighborhood(conn, marker.W, marker.H)
	erode := typ == ByErosion
	better := func(a, b T) bool {
		if erode {
			return a < b
		}
		return a > b
	}

	cur := marker.Clone()
	for i := range cur.Data {
		if better(cur.Data[i], mask.Data[i]) {
			cur.Data[i] = mask.Data[i]
		}
	}

	for {
		next := cur.Clone()
		for z := 0; z < cur.D; z++ {
			for y := 0; y < cur.H; y++ {
				for x := 0; x < cur.W; x++ {
					i := cur.Index(x, y, z)
					v := cur.Data[i]
					for _, n := range nh.full {
						if !cur.Contains(x+n.dx, y+n.dy, z+n.dz) {
							continue
						}
						if w := cur.Data[i+n.di]; better(w, v) {
							v = w
						}
					}
					if better(v, mask.Data[i]) {
						v = mask.Data[i]
					}
					next.Data[i] = v
				}
			}
		}
		if next.Equal(cur) {
			return cur
		}
		cur = next
	}
}

// labelComponents labels the connected components of the non-zero voxels
// with a breadth first search
func labelComponents(vol *models.Volume[uint8], conn Connectivity) []int {
	nh := newNeighborhood(conn, vol.W, vol.H)
	labels := make([]int, vol.Len())
	next := 0

	for z := 0; z < vol.D; z++ {
		for y := 0; y < vol.H; y++ {
			for x := 0; x < vol.W; x++ {
				start := vol.Index(x, y, z)
				if vol.Data[start] == 0 || labels[start] != 0 {
					continue
				}
				next++
				labels[start] = next
				pending := [][3]int{{x, y, z}}
				for len(pending) > 0 {
					p := pending[0]
					pending = pending[1:]
					for _, n := range nh.full {
						nx, ny, nz := p[0]+n.dx, p[1]+n.dy, p[2]+n.dz
						if !vol.Contains(nx, ny, nz) {
							continue
						}
						j := vol.Index(nx, ny, nz)
						if vol.Data[j] != 0 && labels[j] == 0 {
							labels[j] = next
							pending = append(pending, [3]int{nx, ny, nz})
						}
					}
				}
			}
		}
	}
	return labels
}
