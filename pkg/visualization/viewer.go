// Package visualization extracts 2D views of volumes and writes them as
// images.
package visualization

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"volmorph/internal/models"
)

// Viewer extracts planes and regions of an 8-bit volume
type Viewer struct {
	// volume is the displayed volume, it is never modified
	volume *models.Volume[uint8]
}

// NewViewer creates a viewer over vol
func NewViewer(vol *models.Volume[uint8]) *Viewer {
	return &Viewer{volume: vol}
}

// axisLength returns the number of planes along axis
func (v *Viewer) axisLength(axis string) (int, error) {
	switch axis {
	case "x", "X":
		return v.volume.W, nil
	case "y", "Y":
		return v.volume.H, nil
	case "z", "Z":
		return v.volume.D, nil
	default:
		return 0, errors.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}
}

// ExtractSlice extracts a 2D plane perpendicular to axis. An x slice is the
// YZ plane with z along the image width, a y slice the XZ plane with z
// along the height, a z slice the XY plane.
func (v *Viewer) ExtractSlice(axis string, position int) (*image.Gray, error) {
	n, err := v.axisLength(axis)
	if err != nil {
		return nil, err
	}
	if position < 0 || position >= n {
		return nil, errors.Errorf("position %d outside [0, %d) along %s", position, n, axis)
	}

	vol := v.volume
	var img *image.Gray

	switch axis {
	case "x", "X":
		img = image.NewGray(image.Rect(0, 0, vol.D, vol.H))
		for y := 0; y < vol.H; y++ {
			for z := 0; z < vol.D; z++ {
				img.Pix[img.PixOffset(z, y)] = vol.At(position, y, z)
			}
		}

	case "y", "Y":
		img = image.NewGray(image.Rect(0, 0, vol.W, vol.D))
		for z := 0; z < vol.D; z++ {
			copy(img.Pix[img.PixOffset(0, z):], vol.Data[vol.Index(0, position, z):][:vol.W])
		}

	default:
		img = image.NewGray(image.Rect(0, 0, vol.W, vol.H))
		// the XY plane is contiguous in the volume
		plane := vol.W * vol.H
		copy(img.Pix, vol.Data[position*plane:][:plane])
	}

	return img, nil
}

// ExtractRegion copies the box of the given origin and size into a new
// volume
func (v *Viewer) ExtractRegion(startX, startY, startZ, sizeX, sizeY, sizeZ int) (*models.Volume[uint8], error) {
	if startX < 0 || startY < 0 || startZ < 0 {
		return nil, errors.New("start coordinates must be non-negative")
	}
	if sizeX <= 0 || sizeY <= 0 || sizeZ <= 0 {
		return nil, errors.New("size dimensions must be positive")
	}
	vol := v.volume
	if startX+sizeX > vol.W || startY+sizeY > vol.H || startZ+sizeZ > vol.D {
		return nil, errors.New("region extends beyond volume boundaries")
	}

	region := models.NewVolume[uint8](sizeX, sizeY, sizeZ)
	for z := 0; z < sizeZ; z++ {
		for y := 0; y < sizeY; y++ {
			src := vol.Index(startX, startY+y, startZ+z)
			copy(region.Data[region.Index(0, y, z):], vol.Data[src:src+sizeX])
		}
	}
	return region, nil
}

// SaveSlice writes an image, the format follows the file extension
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	if err := imaging.Save(img, filename); err != nil {
		return errors.Wrapf(err, "saving slice %s", filename)
	}
	return nil
}

// SaveSliceSequence writes every plane along axis to outputDir as
// slice_<axis>_<NNN>.png
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	n, err := v.axisLength(axis)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", outputDir)
	}

	for pos := 0; pos < n; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
