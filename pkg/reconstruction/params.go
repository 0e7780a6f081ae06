package reconstruction

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrShapeMismatch is returned when marker and mask dimensions differ
	ErrShapeMismatch = errors.New("marker and mask shapes differ")

	// ErrUnsupportedConnectivity is returned for connectivities other than 6 and 26
	ErrUnsupportedConnectivity = errors.New("unsupported connectivity")

	// ErrUnsupportedSampleType is returned when no implementation exists for
	// the sample type of the volumes
	ErrUnsupportedSampleType = errors.New("unsupported sample type")

	// ErrAllocation is returned when the propagation queue cannot grow. The
	// marker is left partially reconstructed but still bounded by the mask.
	ErrAllocation = errors.New("propagation queue allocation failed")
)

// Type selects reconstruction by dilation or by erosion
type Type int

const (
	// ByDilation propagates marker values upwards, bounded above by the mask
	ByDilation Type = iota
	// ByErosion propagates marker values downwards, bounded below by the mask
	ByErosion
)

// String returns "dilation" or "erosion"
func (t Type) String() string {
	switch t {
	case ByDilation:
		return "dilation"
	case ByErosion:
		return "erosion"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType parses "dilation" or "erosion" (case insensitive)
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dilation", "by-dilation", "bydilation":
		return ByDilation, nil
	case "erosion", "by-erosion", "byerosion":
		return ByErosion, nil
	}
	return 0, errors.Errorf("unknown reconstruction type %q (must be dilation or erosion)", s)
}

// Connectivity is the number of neighbors of a voxel: 6 (faces) or 26
// (faces, edges and corners)
type Connectivity int

const (
	// C6 connects voxels sharing a face
	C6 Connectivity = 6
	// C26 connects voxels sharing a face, an edge or a corner
	C26 Connectivity = 26
)

// Validate reports ErrUnsupportedConnectivity for values other than 6 and 26
func (c Connectivity) Validate() error {
	if c != C6 && c != C26 {
		return errors.Wrapf(ErrUnsupportedConnectivity, "got %d, must be 6 or 26", int(c))
	}
	return nil
}

// Params holds the reconstruction options
type Params struct {
	// Type is ByDilation (default) or ByErosion
	Type Type

	// Connectivity is C6 (default) or C26
	Connectivity Connectivity

	// Verbose enables progress logging. It never changes the result.
	Verbose bool

	// MaxQueueDepth bounds the number of voxels waiting in the propagation
	// queue. Zero means unbounded.
	MaxQueueDepth int
}

// DefaultParams returns reconstruction by dilation with 6-connectivity
func DefaultParams() *Params {
	return &Params{
		Type:         ByDilation,
		Connectivity: C6,
	}
}

func (p *Params) validate() error {
	if p.Type != ByDilation && p.Type != ByErosion {
		return errors.Errorf("invalid reconstruction type %d", int(p.Type))
	}
	if err := p.Connectivity.Validate(); err != nil {
		return err
	}
	if p.MaxQueueDepth < 0 {
		return errors.Errorf("max queue depth must not be negative, got %d", p.MaxQueueDepth)
	}
	return nil
}
