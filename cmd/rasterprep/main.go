package main

import (
	"fmt"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/urfave/cli/v2"

	"github.com/wgdzlh/rasterprep"
	"github.com/wgdzlh/rasterprep/log"
)

const APP_NAME string = `rasterprep`

const LOGLEVEL string = `log-level`
const LOGJSON string = `log-json`

const RASTER string = `raster`
const VECTOR string = `vector`
const OUTPUT string = `output`
const REPROJECT string = `reproject`
const COMPRESS string = `compress`

const RASTERS string = `rasters`
const ROADS string = `roads`
const BUFFER string = `buffer`
const PIXELSIZE string = `pixel-size`
const NATIVEGRID string = `native-grid`
const EXTENSION string = `ext`
const PREFIX string = `prefix`
const WORKERS string = `workers`
const ALLTOUCHED string = `all-touched`

func envVars(name string) []string {
	return []string{strcase.ToScreamingSnake(APP_NAME + "_" + name)}
}

func main() {
	app := cli.NewApp()
	app.Name = APP_NAME
	app.Usage = "Raster preprocessing: extent expansion and road masking"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    LOGLEVEL,
			Usage:   "Log level: debug, info, warn or error",
			Value:   "info",
			EnvVars: envVars(LOGLEVEL),
		},
		&cli.BoolFlag{
			Name:    LOGJSON,
			Usage:   "Log as JSON instead of console text",
			EnvVars: envVars(LOGJSON),
		},
	}
	app.Before = func(c *cli.Context) error {
		if c.Bool(LOGJSON) {
			log.UseJSON()
		}
		return log.SetLevel(c.String(LOGLEVEL))
	}
	app.After = func(c *cli.Context) error {
		_ = log.Sync()
		return nil
	}
	app.Commands = []*cli.Command{
		expandCommand(),
		maskRoadsCommand(),
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func expandCommand() *cli.Command {
	return &cli.Command{
		Name:  "expand",
		Usage: "Expand a raster to the bounding box of a reference vector, padding with zeros",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     RASTER,
				Aliases:  []string{"r"},
				Usage:    "Source raster (single band)",
				Required: true,
				EnvVars:  envVars(RASTER),
			},
			&cli.StringFlag{
				Name:     VECTOR,
				Aliases:  []string{"v"},
				Usage:    "Reference vector whose total bounds become the new extent",
				Required: true,
				EnvVars:  envVars(VECTOR),
			},
			&cli.StringFlag{
				Name:     OUTPUT,
				Aliases:  []string{"o"},
				Usage:    "Output GeoTIFF",
				Required: true,
				EnvVars:  envVars(OUTPUT),
			},
			&cli.BoolFlag{
				Name:    REPROJECT,
				Usage:   "Reproject the vector into the raster CRS instead of failing on a CRS mismatch",
				EnvVars: envVars(REPROJECT),
			},
			&cli.StringFlag{
				Name:    COMPRESS,
				Usage:   "GeoTIFF compression of the output, e.g. LZW. Defaults to the source compression",
				EnvVars: envVars(COMPRESS),
			},
		},
		Action: func(c *cli.Context) error {
			ret, err := rasterprep.NewToolbox().Expand(rasterprep.ExpandOptions{
				RasterPath: c.String(RASTER),
				VectorPath: c.String(VECTOR),
				OutputPath: c.String(OUTPUT),
				Reproject:  c.Bool(REPROJECT),
				Compress:   c.String(COMPRESS),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Extended raster saved to %s (%s, offset %d,%d)\n", ret.OutputPath, ret.Grid, ret.OffsetX, ret.OffsetY)
			return nil
		},
	}
}

func maskRoadsCommand() *cli.Command {
	return &cli.Command{
		Name:  "mask-roads",
		Usage: "Zero the pixels under buffered roads in every raster of a directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     RASTERS,
				Aliases:  []string{"i"},
				Usage:    "Directory of input rasters",
				Required: true,
				EnvVars:  envVars(RASTERS),
			},
			&cli.StringFlag{
				Name:     ROADS,
				Aliases:  []string{"r"},
				Usage:    "Road vector (e.g. a shapefile), same CRS as the rasters unless --reproject",
				Required: true,
				EnvVars:  envVars(ROADS),
			},
			&cli.StringFlag{
				Name:     OUTPUT,
				Aliases:  []string{"o"},
				Usage:    "Output directory, created if missing",
				Required: true,
				EnvVars:  envVars(OUTPUT),
			},
			&cli.Float64Flag{
				Name:    BUFFER,
				Aliases: []string{"b"},
				Usage:   "Road buffer distance in CRS units",
				Value:   rasterprep.DefaultBufferDistance,
				EnvVars: envVars(BUFFER),
			},
			&cli.Float64Flag{
				Name:    PIXELSIZE,
				Aliases: []string{"p"},
				Usage:   "Mask grid resolution in CRS units, must equal the raster resolution",
				Value:   rasterprep.DefaultPixelSize,
				EnvVars: envVars(PIXELSIZE),
			},
			&cli.BoolFlag{
				Name:    NATIVEGRID,
				Usage:   "Rasterize on each raster's own grid and ignore --pixel-size",
				EnvVars: envVars(NATIVEGRID),
			},
			&cli.StringFlag{
				Name:    EXTENSION,
				Usage:   "Raster file extension to look for",
				Value:   rasterprep.FILE_EXT_TIF,
				EnvVars: envVars(EXTENSION),
			},
			&cli.StringFlag{
				Name:    PREFIX,
				Usage:   "Output filename prefix",
				Value:   rasterprep.OUTPUT_PREFIX,
				EnvVars: envVars(PREFIX),
			},
			&cli.IntFlag{
				Name:    WORKERS,
				Aliases: []string{"w"},
				Usage:   "Rasters processed concurrently",
				Value:   1,
				EnvVars: envVars(WORKERS),
			},
			&cli.BoolFlag{
				Name:    ALLTOUCHED,
				Usage:   "Mask every pixel touched by a buffered road, not only those whose center is covered",
				EnvVars: envVars(ALLTOUCHED),
			},
			&cli.BoolFlag{
				Name:    REPROJECT,
				Usage:   "Reproject roads into each raster's CRS instead of failing on a CRS mismatch",
				EnvVars: envVars(REPROJECT),
			},
		},
		Action: func(c *cli.Context) error {
			opts, err := rasterprep.NewMaskOptions(c.String(RASTERS), c.String(ROADS), c.String(OUTPUT))
			if err != nil {
				return err
			}
			opts.BufferDistance = c.Float64(BUFFER)
			opts.PixelSize = c.Float64(PIXELSIZE)
			opts.NativeGrid = c.Bool(NATIVEGRID)
			opts.Extension = c.String(EXTENSION)
			opts.OutputPrefix = c.String(PREFIX)
			opts.Workers = c.Int(WORKERS)
			opts.AllTouched = c.Bool(ALLTOUCHED)
			opts.Reproject = c.Bool(REPROJECT)

			report, err := rasterprep.NewToolbox().MaskRoads(c.Context, opts)
			if err != nil {
				return err
			}
			for _, f := range report.Processed {
				fmt.Printf("Processed and saved masked raster for %s\n", f)
			}
			if len(report.Failures) > 0 {
				fmt.Fprintf(os.Stderr, "%d of %d rasters failed:\n", len(report.Failures), len(report.Failures)+len(report.Processed))
				for _, f := range report.Failures {
					fmt.Fprintf(os.Stderr, "  %s\n", f.Error())
				}
				return cli.Exit("road masking incomplete", 1)
			}
			return nil
		},
	}
}
