// Package stack loads directories of 2D slices into volumes.
package stack

import (
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"volmorph/internal/models"
)

var (
	// ErrNoSlices is returned when a directory holds no readable image files
	ErrNoSlices = errors.New("no slice images found")

	// ErrSliceSize is returned when the slices of a stack differ in size
	ErrSliceSize = errors.New("slices differ in size")
)

// supported image extensions, lower case
var extensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".gif":  true,
}

// ListSlices returns the image files of dir sorted by the number embedded in
// their names. Files with equal numbers keep their lexical order.
func ListSlices(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading slice directory %s", dir)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if extensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, entry.Name())
		}
	}

	// os.ReadDir sorts by name, so the stable sort breaks ties lexically
	sort.SliceStable(files, func(i, j int) bool {
		return extractNumber(files[i]) < extractNumber(files[j])
	})
	return files, nil
}

// LoadSlices decodes the image files of dir and converts them to 8-bit gray.
// Every file that fails to decode is reported in the returned error.
func LoadSlices(dir string) ([]models.Slice, error) {
	files, err := ListSlices(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrNoSlices, "in %s", dir)
	}

	slices := make([]models.Slice, 0, len(files))
	var errs error
	for _, name := range files {
		img, err := imaging.Open(filepath.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "decoding %s", name))
			continue
		}
		slices = append(slices, models.Slice{
			Image:    toGray(img),
			Index:    len(slices),
			Filename: name,
		})
	}
	if errs != nil {
		return nil, errs
	}
	return slices, nil
}

// Load reads a directory of slices as a volume, slice i becoming plane z = i
func Load(dir string) (*models.Volume[uint8], error) {
	slices, err := LoadSlices(dir)
	if err != nil {
		return nil, err
	}

	width, height := slices[0].Width(), slices[0].Height()
	for _, s := range slices[1:] {
		if s.Width() != width || s.Height() != height {
			return nil, errors.Wrapf(ErrSliceSize, "%s is %dx%d, %s is %dx%d",
				slices[0].Filename, width, height, s.Filename, s.Width(), s.Height())
		}
	}

	return models.StackSlices(slices), nil
}

// toGray converts any decoded image to 8-bit gray with its origin at (0, 0)
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) {
		return g
	}
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// extractNumber concatenates the digits of a file name, 0 if there are none
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	var digits strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}

	if digits.Len() > 0 {
		if num, err := strconv.Atoi(digits.String()); err == nil {
			return num
		}
	}
	return 0
}
