package reconstruction

import (
	"time"

	"go.uber.org/zap"

	"volmorph/internal/models"
)

// Sample is the set of voxel types the hybrid engine is implemented for
type Sample interface {
	uint8 | float32
}

// hybrid runs the hybrid reconstruction (Vincent, 1993) on one pair of
// volumes: a forward and a backward raster sweep diffuse marker values, then
// a FIFO queue finishes the propagation from the voxels the sweeps could
// not resolve.
//
// Dilation and erosion share the code: above reports whether a lies above b
// in the propagation order (a > b for dilation, a < b for erosion), sup and
// inf are the matching max and min.
type hybrid[T Sample] struct {
	marker []T
	mask   []T

	width, height, depth int

	erode bool
	nh    neighborhood
	queue *voxelQueue

	stats  *Stats
	logger *zap.SugaredLogger
}

func newHybrid[T Sample](marker, mask *models.Volume[T], params *Params, stats *Stats, logger *zap.SugaredLogger) *hybrid[T] {
	return &hybrid[T]{
		marker: marker.Data,
		mask:   mask.Data,
		width:  marker.W,
		height: marker.H,
		depth:  marker.D,
		erode:  params.Type == ByErosion,
		nh:     newNeighborhood(params.Connectivity, marker.W, marker.H),
		stats:  stats,
		logger: logger,
	}
}

func (e *hybrid[T]) above(a, b T) bool {
	if e.erode {
		return a < b
	}
	return a > b
}

func (e *hybrid[T]) sup(a, b T) T {
	if e.above(b, a) {
		return b
	}
	return a
}

func (e *hybrid[T]) inf(a, b T) T {
	if e.above(a, b) {
		return b
	}
	return a
}

func (e *hybrid[T]) inside(x, y, z int) bool {
	return x >= 0 && x < e.width && y >= 0 && y < e.height && z >= 0 && z < e.depth
}

// run executes the four phases. The marker is modified in place.
func (e *hybrid[T]) run(maxQueueDepth int) error {
	start := time.Now()
	e.initialize()
	e.stats.InitDuration = time.Since(start)
	e.logger.Debugw("marker clamped to mask", "elapsed", e.stats.InitDuration)

	start = time.Now()
	e.forwardScan()
	e.stats.ForwardDuration = time.Since(start)
	e.logger.Debugw("forward scan done", "elapsed", e.stats.ForwardDuration)

	// The queue lives for the backward scan and the propagation only
	e.queue = newVoxelQueue(e.width*e.height, maxQueueDepth)
	defer func() {
		e.stats.PeakQueueDepth = e.queue.peak
		e.queue = nil
	}()

	start = time.Now()
	err := e.backwardScan()
	e.stats.BackwardDuration = time.Since(start)
	e.stats.InitialQueueSize = e.queue.len()
	if err != nil {
		return err
	}
	e.logger.Debugw("backward scan done", "elapsed", e.stats.BackwardDuration, "queued", e.stats.InitialQueueSize)

	start = time.Now()
	err = e.processQueue()
	e.stats.QueueDuration = time.Since(start)
	if err != nil {
		return err
	}
	e.logger.Debugw("queue processed", "elapsed", e.stats.QueueDuration, "propagations", e.stats.Propagations)

	return nil
}

// initialize clamps the marker to the mask
func (e *hybrid[T]) initialize() {
	m, g := e.marker, e.mask
	for i := range m {
		m[i] = e.inf(m[i], g[i])
	}
}

// forwardScan visits voxels in increasing (z, y, x) order and pulls values
// from the causal neighbors
func (e *hybrid[T]) forwardScan() {
	m, g := e.marker, e.mask
	causal := e.nh.causal

	i := 0
	for z := 0; z < e.depth; z++ {
		for y := 0; y < e.height; y++ {
			for x := 0; x < e.width; x++ {
				v := m[i]
				for _, n := range causal {
					if !e.inside(x+n.dx, y+n.dy, z+n.dz) {
						continue
					}
					v = e.sup(v, m[i+n.di])
				}
				m[i] = e.inf(v, g[i])
				i++
			}
		}
	}
}

// backwardScan visits voxels in decreasing (z, y, x) order, pulls values from
// the anti-causal neighbors and queues every voxel that could still raise
// one of them
func (e *hybrid[T]) backwardScan() error {
	m, g := e.marker, e.mask
	anti := e.nh.antiCausal

	i := len(m) - 1
	for z := e.depth - 1; z >= 0; z-- {
		for y := e.height - 1; y >= 0; y-- {
			for x := e.width - 1; x >= 0; x-- {
				v := m[i]
				for _, n := range anti {
					if !e.inside(x+n.dx, y+n.dy, z+n.dz) {
						continue
					}
					v = e.sup(v, m[i+n.di])
				}
				v = e.inf(v, g[i])
				m[i] = v

				// q must be below p and not yet saturated by its mask
				for _, n := range anti {
					if !e.inside(x+n.dx, y+n.dy, z+n.dz) {
						continue
					}
					j := i + n.di
					if e.above(v, m[j]) && e.above(g[j], m[j]) {
						if err := e.queue.push(x, y, z); err != nil {
							return err
						}
						break
					}
				}
				i--
			}
		}
	}
	return nil
}

// processQueue propagates values from queued voxels to their full
// neighborhood until the queue is empty
func (e *hybrid[T]) processQueue() error {
	m, g := e.marker, e.mask
	full := e.nh.full
	q := e.queue

	for !q.empty() {
		x, y, z := q.pop()
		i := (z*e.height+y)*e.width + x
		v := m[i]

		for _, n := range full {
			nx, ny, nz := x+n.dx, y+n.dy, z+n.dz
			if !e.inside(nx, ny, nz) {
				continue
			}
			j := i + n.di
			w := e.inf(v, g[j])
			if e.above(w, m[j]) {
				m[j] = w
				e.stats.Propagations++
				if err := q.push(nx, ny, nz); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
