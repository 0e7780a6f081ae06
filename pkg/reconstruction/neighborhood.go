package reconstruction

// neighbor is a voxel offset, with di the matching flat index delta
type neighbor struct {
	dx, dy, dz int
	di         int
}

// offset tables, filled by init. Causal offsets come strictly before the
// center in (z, y, x) order, anti-causal ones strictly after. Both are
// listed plane by plane and row by row with x varying fastest.
var (
	c6Causal, c6AntiCausal   []neighbor
	c26Causal, c26AntiCausal []neighbor
)

func init() {
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				n := neighbor{dx: dx, dy: dy, dz: dz}
				causal := dz < 0 || (dz == 0 && (dy < 0 || (dy == 0 && dx < 0)))
				face := abs(dx)+abs(dy)+abs(dz) == 1

				if causal {
					c26Causal = append(c26Causal, n)
					if face {
						c6Causal = append(c6Causal, n)
					}
				} else {
					c26AntiCausal = append(c26AntiCausal, n)
					if face {
						c6AntiCausal = append(c6AntiCausal, n)
					}
				}
			}
		}
	}
}

// neighborhood holds the offset tables of one connectivity resolved for a
// grid of a given width and height
type neighborhood struct {
	causal     []neighbor
	antiCausal []neighbor
	full       []neighbor
}

func newNeighborhood(conn Connectivity, width, height int) neighborhood {
	causal, anti := c6Causal, c6AntiCausal
	if conn == C26 {
		causal, anti = c26Causal, c26AntiCausal
	}

	nh := neighborhood{
		causal:     resolve(causal, width, height),
		antiCausal: resolve(anti, width, height),
	}
	nh.full = append(append([]neighbor{}, nh.causal...), nh.antiCausal...)
	return nh
}

func resolve(offsets []neighbor, width, height int) []neighbor {
	out := make([]neighbor, len(offsets))
	for i, n := range offsets {
		n.di = (n.dz*height+n.dy)*width + n.dx
		out[i] = n
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
