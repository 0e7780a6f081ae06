package reconstruction

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"volmorph/internal/models"
)

// Summary describes the intensity distribution of a volume
type Summary struct {
	Voxels int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize computes intensity statistics of a volume
func Summarize[T models.Sample](v *models.Volume[T]) Summary {
	if v == nil || v.Len() == 0 {
		return Summary{}
	}

	values := make([]float64, v.Len())
	for i, s := range v.Data {
		values[i] = float64(s)
	}

	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		// sample deviation is undefined for one voxel
		std = 0
	}
	return Summary{
		Voxels: len(values),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(values),
		Max:    floats.Max(values),
	}
}

// CountChanged returns the number of voxels that differ between two volumes
// of the same shape
func CountChanged[T models.Sample](before, after *models.Volume[T]) int {
	if !models.SameShape(before, after) {
		return -1
	}
	changed := 0
	for i, s := range before.Data {
		if after.Data[i] != s {
			changed++
		}
	}
	return changed
}
