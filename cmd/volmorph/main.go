// Package main is the volmorph command line tool.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"volmorph/internal/models"
	"volmorph/pkg/config"
	"volmorph/pkg/morphology"
	"volmorph/pkg/reconstruction"
	"volmorph/pkg/stack"
	"volmorph/pkg/visualization"
)

const (
	// Flags.
	flagMarker       = "marker"
	flagMask         = "mask"
	flagOut          = "out"
	flagIn           = "in"
	flagType         = "type"
	flagConnectivity = "connectivity"
	flagConfig       = "config"
	flagFloat        = "float"
	flagRegularize   = "regularize"
	flagQueueDepth   = "max-queue-depth"
	flagVerbose      = "verbose"
	flagAxis         = "axis"
	flagOp           = "op"
	flagSize         = "size"

	opDilate = "dilate"
	opErode  = "erode"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// commonFlags returns fresh output, config and logging flags for a command
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     flagOut,
			Aliases:  []string{"o"},
			Required: true,
			Usage:    "write result slices to `DIR`",
		},
		&cli.StringFlag{
			Name:  flagAxis,
			Usage: "axis along which result slices are written (x, y or z)",
		},
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "load defaults from `FILE`",
		},
		&cli.BoolFlag{
			Name:    flagVerbose,
			Aliases: []string{"v"},
			Usage:   "enable progress logging",
		},
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "volmorph",
		Usage:  "grayscale morphological reconstruction of 3D image stacks",
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:      "reconstruct",
				Usage:     "reconstruct a marker stack under (or above) a mask stack",
				UsageText: "volmorph reconstruct --marker DIR --mask DIR --out DIR [options]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     flagMarker,
						Required: true,
						Usage:    "read marker slices from `DIR`",
					},
					&cli.StringFlag{
						Name:     flagMask,
						Required: true,
						Usage:    "read mask slices from `DIR`",
					},
					&cli.StringFlag{
						Name:    flagType,
						Aliases: []string{"t"},
						Usage:   "reconstruction type, dilation or erosion",
					},
					&cli.IntFlag{
						Name:  flagConnectivity,
						Usage: "voxel connectivity, 6 or 26",
					},
					&cli.BoolFlag{
						Name:  flagFloat,
						Usage: "run on 32-bit float samples",
					},
					&cli.IntFlag{
						Name:  flagRegularize,
						Usage: "smooth the mask with a box erosion and dilation of `RADIUS` first",
					},
					&cli.IntFlag{
						Name:  flagQueueDepth,
						Usage: "bound the propagation queue to `N` voxels",
					},
				}, commonFlags()...),
				Action: reconstructAction,
			},
			{
				Name:      "filter",
				Usage:     "apply a box dilation or erosion to a stack",
				UsageText: "volmorph filter --in DIR --out DIR --op dilate|erode --size N",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     flagIn,
						Aliases:  []string{"i"},
						Required: true,
						Usage:    "read slices from `DIR`",
					},
					&cli.StringFlag{
						Name:     flagOp,
						Required: true,
						Usage:    "operation, dilate or erode",
					},
					&cli.IntFlag{
						Name:  flagSize,
						Value: 3,
						Usage: "side of the cubic structuring element",
					},
				}, commonFlags()...),
				Action: filterAction,
			},
		},
	}
}

// loadConfig reads the config file and applies the flags set on the command
// line over it
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if c.IsSet(flagType) {
		cfg.Reconstruction.Type = c.String(flagType)
	}
	if c.IsSet(flagConnectivity) {
		cfg.Reconstruction.Connectivity = c.Int(flagConnectivity)
	}
	if c.IsSet(flagQueueDepth) {
		cfg.Reconstruction.MaxQueueDepth = c.Int(flagQueueDepth)
	}
	if c.IsSet(flagRegularize) {
		cfg.Filter.RegularizeRadius = c.Int(flagRegularize)
	}
	if c.IsSet(flagVerbose) {
		cfg.Output.Verbose = c.Bool(flagVerbose)
	}
	if c.IsSet(flagAxis) {
		cfg.Output.Axis = c.String(flagAxis)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	if !verbose {
		return zap.NewNop().Sugar(), nil
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, errors.Wrap(err, "creating logger")
	}
	return logger.Sugar(), nil
}

func reconstructAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	params, err := cfg.ReconstructionParams()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Output.Verbose)
	if err != nil {
		return err
	}

	marker, err := stack.Load(c.String(flagMarker))
	if err != nil {
		return errors.Wrap(err, "loading marker")
	}
	mask, err := stack.Load(c.String(flagMask))
	if err != nil {
		return errors.Wrap(err, "loading mask")
	}
	logger.Infow("stacks loaded", "size", []int{marker.W, marker.H, marker.D})

	if r := cfg.Filter.RegularizeRadius; r > 0 {
		if mask, err = regularize(mask, r); err != nil {
			return err
		}
		logger.Infow("mask regularized", "radius", r)
	}

	before := marker.Clone()
	rec := reconstruction.NewReconstructor(params)
	rec.SetLogger(logger)

	var result *models.Volume[uint8]
	if c.Bool(flagFloat) {
		out, err := rec.Apply(models.ToFloat32(marker), models.ToFloat32(mask))
		if err != nil {
			return err
		}
		result = models.ToUint8(out.(*models.Volume[float32]))
	} else {
		out, err := rec.Apply(marker, mask)
		if err != nil {
			return err
		}
		result = out.(*models.Volume[uint8])
	}

	stats := rec.Stats()
	markerSummary := reconstruction.Summarize(before)
	maskSummary := reconstruction.Summarize(mask)
	resultSummary := reconstruction.Summarize(result)
	changed := reconstruction.CountChanged(before, result)
	logger.Infow("summary",
		"markerMean", markerSummary.Mean,
		"maskMean", maskSummary.Mean,
		"resultMean", resultSummary.Mean,
		"changed", changed,
		"initialQueue", stats.InitialQueueSize,
		"propagations", stats.Propagations,
		"peakQueue", stats.PeakQueueDepth,
	)

	fmt.Fprintf(c.App.Writer, "Reconstruction by %s (C%d) of a %dx%dx%d volume in %v\n",
		params.Type, params.Connectivity, result.W, result.H, result.D, stats.Total())
	fmt.Fprintf(c.App.Writer, "Mean intensity: marker %.3f, mask %.3f, result %.3f\n",
		markerSummary.Mean, maskSummary.Mean, resultSummary.Mean)
	fmt.Fprintf(c.App.Writer, "Changed voxels: %d, initial queue: %d, propagations: %d, peak queue: %d\n",
		changed, stats.InitialQueueSize, stats.Propagations, stats.PeakQueueDepth)

	return writeStack(c, result, cfg.Output.Axis)
}

// regularize smooths the mask by a box erosion followed by a box dilation
func regularize(mask *models.Volume[uint8], radius int) (*models.Volume[uint8], error) {
	s := morphology.CubeSize(radius)
	eroded, err := morphology.ErodeBox(mask, s, s, s)
	if err != nil {
		return nil, errors.Wrap(err, "regularizing mask")
	}
	return morphology.DilateBox(eroded, s, s, s)
}

func filterAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Output.Verbose)
	if err != nil {
		return err
	}

	vol, err := stack.Load(c.String(flagIn))
	if err != nil {
		return err
	}

	size := c.Int(flagSize)
	var result *models.Volume[uint8]
	switch op := c.String(flagOp); op {
	case opDilate:
		result, err = morphology.DilateBox(vol, size, size, size)
	case opErode:
		result, err = morphology.ErodeBox(vol, size, size, size)
	default:
		return errors.Errorf("unknown operation %q (must be %s or %s)", op, opDilate, opErode)
	}
	if err != nil {
		return err
	}

	summary := reconstruction.Summarize(result)
	logger.Infow("filter done", "op", c.String(flagOp), "size", size, "mean", summary.Mean)
	fmt.Fprintf(c.App.Writer, "Box %s of size %d: mean intensity %.3f -> %.3f\n",
		c.String(flagOp), size, reconstruction.Summarize(vol).Mean, summary.Mean)

	return writeStack(c, result, cfg.Output.Axis)
}

func writeStack(c *cli.Context, vol *models.Volume[uint8], axis string) error {
	dir := c.String(flagOut)
	if err := visualization.NewViewer(vol).SaveSliceSequence(axis, dir); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Slices saved to: %s\n", dir)
	return nil
}
