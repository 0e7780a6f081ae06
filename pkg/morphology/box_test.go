package morphology

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"volmorph/internal/models"
)

// bruteForceBox evaluates the box filter directly over the full 3D window
func bruteForceBox(v *models.Volume[uint8], sx, sy, sz int, sign int) *models.Volume[uint8] {
	out := models.NewVolume[uint8](v.W, v.H, v.D)
	ox, oy, oz := (sx-1)/2, (sy-1)/2, (sz-1)/2

	for z := 0; z < v.D; z++ {
		for y := 0; y < v.H; y++ {
			for x := 0; x < v.W; x++ {
				ext := Identity[uint8](sign)
				for k := z - oz; k < z-oz+sz; k++ {
					for j := y - oy; j < y-oy+sy; j++ {
						for i := x - ox; i < x-ox+sx; i++ {
							if !v.Contains(i, j, k) {
								continue
							}
							s := v.At(i, j, k)
							if (sign == Max && s > ext) || (sign == Min && s < ext) {
								ext = s
							}
						}
					}
				}
				out.Set(x, y, z, ext)
			}
		}
	}
	return out
}

func TestBoxFilterMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	vol := models.NewVolume[uint8](9, 7, 6)
	for i := range vol.Data {
		vol.Data[i] = uint8(rng.Intn(256))
	}

	sizes := [][3]int{
		{1, 1, 1},
		{3, 3, 3},
		{3, 1, 5},
		{2, 2, 2},
		{4, 3, 2},
		{11, 1, 1},
		{1, 9, 7},
	}
	for _, s := range sizes {
		dilated, err := DilateBox(vol, s[0], s[1], s[2])
		if err != nil {
			t.Fatalf("DilateBox %v failed: %v", s, err)
		}
		if diff := cmp.Diff(bruteForceBox(vol, s[0], s[1], s[2], Max).Data, dilated.Data); diff != "" {
			t.Errorf("Dilation by %v differs (-want +got):\n%s", s, diff)
		}

		eroded, err := ErodeBox(vol, s[0], s[1], s[2])
		if err != nil {
			t.Fatalf("ErodeBox %v failed: %v", s, err)
		}
		if diff := cmp.Diff(bruteForceBox(vol, s[0], s[1], s[2], Min).Data, eroded.Data); diff != "" {
			t.Errorf("Erosion by %v differs (-want +got):\n%s", s, diff)
		}
	}
}

func TestBoxFilterLeavesInputUntouched(t *testing.T) {
	vol := models.NewVolume[uint8](5, 5, 5)
	vol.Set(2, 2, 2, 200)
	orig := vol.Clone()

	out, err := DilateBox(vol, CubeSize(1), CubeSize(1), CubeSize(1))
	if err != nil {
		t.Fatalf("DilateBox failed: %v", err)
	}
	if !vol.Equal(orig) {
		t.Errorf("Expected the input volume to be left untouched")
	}
	if out.At(1, 1, 1) != 200 || out.At(3, 3, 3) != 200 {
		t.Errorf("Expected the 3x3x3 cube around the center to be set")
	}
	if out.At(0, 2, 2) != 0 {
		t.Errorf("Expected voxels outside the cube to stay 0, got %d", out.At(0, 2, 2))
	}
}

func TestBoxFilterFloat(t *testing.T) {
	vol, _ := models.NewVolumeFromData([]float32{-1, 0.5, -3, 2, -0.25}, 5, 1, 1)

	out, err := ErodeBox(vol, 3, 1, 1)
	if err != nil {
		t.Fatalf("ErodeBox failed: %v", err)
	}
	want := []float32{-1, -3, -3, -3, -0.25}
	if diff := cmp.Diff(want, out.Data); diff != "" {
		t.Errorf("Unexpected erosion (-want +got):\n%s", diff)
	}

	out, err = DilateBox(vol, 3, 1, 1)
	if err != nil {
		t.Fatalf("DilateBox failed: %v", err)
	}
	want = []float32{0.5, 0.5, 2, 2, 2}
	if diff := cmp.Diff(want, out.Data); diff != "" {
		t.Errorf("Unexpected dilation (-want +got):\n%s", diff)
	}
}

func TestBoxFilterErrors(t *testing.T) {
	if _, err := DilateBox[uint8](nil, 3, 3, 3); err == nil {
		t.Errorf("Expected an error for a nil volume")
	}
	vol := models.NewVolume[uint8](3, 3, 3)
	if _, err := ErodeBox(vol, 3, 0, 3); err == nil {
		t.Errorf("Expected an error for a zero box size")
	}
	if _, err := DilateBox(vol, -1, 3, 3); err == nil {
		t.Errorf("Expected an error for a negative box size")
	}
}

func TestCubeSize(t *testing.T) {
	for r, want := range map[int]int{0: 1, 1: 3, 2: 5, 7: 15} {
		if got := CubeSize(r); got != want {
			t.Errorf("CubeSize(%d): expected %d, got %d", r, want, got)
		}
	}
}
