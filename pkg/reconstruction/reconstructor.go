// Package reconstruction implements grayscale geodesic reconstruction of 3D
// volumes with the hybrid algorithm of L. Vincent, "Morphological grayscale
// reconstruction in image analysis: applications and efficient algorithms",
// IEEE Transactions on Image Processing, 1993.
//
// Reconstruction by dilation grows the marker volume inside the mask: the
// result is the largest volume below the mask whose regional maxima are all
// connected to the marker. Reconstruction by erosion is the dual.
package reconstruction

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"volmorph/internal/models"
)

// Stats holds counters and timings of the last reconstruction
type Stats struct {
	// InitialQueueSize is the number of voxels queued by the backward scan
	InitialQueueSize int

	// Propagations counts the voxels updated while draining the queue
	Propagations int

	// PeakQueueDepth is the largest queue length reached
	PeakQueueDepth int

	InitDuration     time.Duration
	ForwardDuration  time.Duration
	BackwardDuration time.Duration
	QueueDuration    time.Duration
}

// Total returns the time spent in all phases
func (s Stats) Total() time.Duration {
	return s.InitDuration + s.ForwardDuration + s.BackwardDuration + s.QueueDuration
}

// Reconstructor runs geodesic reconstructions with a fixed set of
// parameters. It is not safe for concurrent use; use one Reconstructor per
// goroutine.
type Reconstructor struct {
	// params stores the reconstruction configuration
	params Params

	// logger receives progress messages when params.Verbose is set
	logger *zap.SugaredLogger

	// stats of the last run, reported by Stats
	stats Stats
}

// NewReconstructor creates a reconstructor. A nil params uses DefaultParams.
// Parameters are validated when the reconstruction is applied.
func NewReconstructor(params *Params) *Reconstructor {
	if params == nil {
		params = DefaultParams()
	}
	return &Reconstructor{
		params: *params,
		logger: zap.NewNop().Sugar(),
	}
}

// SetLogger sets the logger used for progress reporting in verbose mode
func (r *Reconstructor) SetLogger(logger *zap.SugaredLogger) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	r.logger = logger
}

// Params returns a copy of the parameters
func (r *Reconstructor) Params() Params {
	return r.params
}

// Stats returns the counters of the last reconstruction
func (r *Reconstructor) Stats() Stats {
	return r.stats
}

// Apply reconstructs marker under mask. Both must be volumes of the same
// shape and sample type (8-bit or 32-bit float). The marker is modified in
// place and returned.
func (r *Reconstructor) Apply(marker, mask models.Grid) (models.Grid, error) {
	if !models.SameShape(marker, mask) {
		return nil, shapeError(marker, mask)
	}

	switch m := marker.(type) {
	case *models.Volume[uint8]:
		g, ok := mask.(*models.Volume[uint8])
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedSampleType, "8-bit marker with %d-bit mask", mask.BitDepth())
		}
		if _, err := Reconstruct(r, m, g); err != nil {
			return nil, err
		}
		return m, nil

	case *models.Volume[float32]:
		g, ok := mask.(*models.Volume[float32])
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedSampleType, "float marker with %d-bit mask", mask.BitDepth())
		}
		if _, err := Reconstruct(r, m, g); err != nil {
			return nil, err
		}
		return m, nil
	}

	return nil, errors.Wrapf(ErrUnsupportedSampleType, "no reconstruction for %d-bit volumes", marker.BitDepth())
}

// Reconstruct is the typed form of Apply
func Reconstruct[T Sample](r *Reconstructor, marker, mask *models.Volume[T]) (*models.Volume[T], error) {
	if !models.SameShape(marker, mask) {
		return nil, shapeError(marker, mask)
	}
	if err := r.params.validate(); err != nil {
		return nil, err
	}

	logger := r.progressLogger()
	logger.Infow("starting reconstruction",
		"type", r.params.Type,
		"connectivity", int(r.params.Connectivity),
		"size", []int{marker.W, marker.H, marker.D},
		"bitDepth", marker.BitDepth(),
	)

	r.stats = Stats{}
	engine := newHybrid(marker, mask, &r.params, &r.stats, logger)
	if err := engine.run(r.params.MaxQueueDepth); err != nil {
		logger.Warnw("reconstruction aborted", "error", err)
		return nil, err
	}

	logger.Infow("reconstruction done",
		"elapsed", r.stats.Total(),
		"initialQueue", r.stats.InitialQueueSize,
		"propagations", r.stats.Propagations,
		"peakQueue", r.stats.PeakQueueDepth,
	)
	return marker, nil
}

// ReconstructByDilation reconstructs marker under mask by dilation with the
// given connectivity
func ReconstructByDilation(marker, mask models.Grid, conn Connectivity) (models.Grid, error) {
	return NewReconstructor(&Params{Type: ByDilation, Connectivity: conn}).Apply(marker, mask)
}

// ReconstructByErosion reconstructs marker above mask by erosion with the
// given connectivity
func ReconstructByErosion(marker, mask models.Grid, conn Connectivity) (models.Grid, error) {
	return NewReconstructor(&Params{Type: ByErosion, Connectivity: conn}).Apply(marker, mask)
}

func (r *Reconstructor) progressLogger() *zap.SugaredLogger {
	if !r.params.Verbose {
		return zap.NewNop().Sugar()
	}
	return r.logger
}

func shapeError(marker, mask models.Grid) error {
	if models.IsNil(marker) || models.IsNil(mask) {
		return errors.Wrap(ErrShapeMismatch, "nil volume")
	}
	return errors.Wrapf(ErrShapeMismatch, "marker is %dx%dx%d, mask is %dx%dx%d",
		marker.Width(), marker.Height(), marker.Depth(),
		mask.Width(), mask.Height(), mask.Depth())
}
