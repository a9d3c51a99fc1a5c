package rasterprep

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	roadWest  = 500000.0
	roadNorth = 4100010.0
	// 纵贯栅格第5列中心的道路
	roadWkt = "LINESTRING (500005.5 4099999,500005.5 4100011)"
)

// 10x10、分辨率1m、全为1的栅格
func writeOnesTif(t *testing.T, path string) {
	writeTestTif(t, path, TransformFromOrigin(roadWest, roadNorth, 1, 1), testEPSG, 10, 10, onesFloat32(100), godal.Float32)
}

func roadsFixture(t *testing.T, names ...string) (rasterDir, roadPath string) {
	dir := t.TempDir()
	rasterDir = filepath.Join(dir, "rasters")
	require.NoError(t, os.Mkdir(rasterDir, 0755))
	for _, n := range names {
		writeOnesTif(t, filepath.Join(rasterDir, n))
	}
	roadPath = filepath.Join(dir, "roads.geojson")
	writeTestVector(t, roadPath, testEPSG, godal.GTLineString, roadWkt)
	return
}

func maskOptions(t *testing.T, rasterDir, roadPath, outputDir string) MaskOptions {
	opts, err := NewMaskOptions(rasterDir, roadPath, outputDir)
	require.NoError(t, err)
	opts.BufferDistance = 0.4
	opts.PixelSize = 1
	return opts
}

func zeroColumns(t *testing.T, r *Raster) (cols map[int]int) {
	cols = map[int]int{}
	for i, v := range r.Pixels.([]float32) {
		switch v {
		case 0:
			cols[i%r.Width]++
		case 1:
		default:
			t.Errorf("unexpected value %v at %d", v, i)
		}
	}
	return
}

func TestNewMaskOptions(t *testing.T) {
	opts, err := NewMaskOptions("in", "roads.shp", "out")
	require.NoError(t, err)
	assert.Equal(t, DefaultBufferDistance, opts.BufferDistance)
	assert.Equal(t, DefaultPixelSize, opts.PixelSize)
	assert.Equal(t, FILE_EXT_TIF, opts.Extension)
	assert.Equal(t, OUTPUT_PREFIX, opts.OutputPrefix)
	assert.Equal(t, 1, opts.Workers)
	assert.NoError(t, NewToolbox().validateOptions(opts))

	opts.Workers = 0
	assert.ErrorIs(t, NewToolbox().validateOptions(opts), ErrInvalidOptions)
	opts.Workers, opts.Extension = 1, "tif"
	assert.ErrorIs(t, NewToolbox().validateOptions(opts), ErrInvalidOptions)
}

func TestMaskRoads(t *testing.T) {
	rasterDir, roadPath := roadsFixture(t, "a.tif", "b.TIF")
	outDir := filepath.Join(t.TempDir(), "out")
	opts := maskOptions(t, rasterDir, roadPath, outDir)
	opts.Workers = 2

	report, err := NewToolbox().MaskRoads(context.Background(), opts)
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Equal(t, []string{filepath.Join(rasterDir, "a.tif"), filepath.Join(rasterDir, "b.TIF")}, report.Processed)

	for _, n := range []string{"RF_a.tif", "RF_b.TIF"} {
		r := readBack(t, filepath.Join(outDir, n))
		assert.Equal(t, 10, r.Width)
		assert.Equal(t, godal.Float32, r.DataType)
		assert.Equal(t, map[int]int{5: 10}, zeroColumns(t, r), n)
	}
	// 输入不变
	assert.Equal(t, onesFloat32(100), readBack(t, filepath.Join(rasterDir, "a.tif")).Pixels)
}

func TestMaskRoadsBufferGrows(t *testing.T) {
	rasterDir, roadPath := roadsFixture(t, "a.tif")
	g := NewToolbox()
	masked := func(buffer float64) map[int]int {
		outDir := filepath.Join(t.TempDir(), "out")
		opts := maskOptions(t, rasterDir, roadPath, outDir)
		opts.BufferDistance = buffer
		report, err := g.MaskRoads(context.Background(), opts)
		require.NoError(t, err)
		require.NoError(t, report.Err())
		return zeroColumns(t, readBack(t, filepath.Join(outDir, "RF_a.tif")))
	}
	narrow, wide := masked(0.4), masked(1.2)
	assert.Equal(t, map[int]int{5: 10}, narrow)
	assert.Equal(t, map[int]int{4: 10, 5: 10, 6: 10}, wide)
	for col := range narrow {
		assert.Contains(t, wide, col)
	}
}

func TestMaskRoadsNoRoadInExtent(t *testing.T) {
	dir := t.TempDir()
	tif := filepath.Join(dir, "a.tif")
	writeOnesTif(t, tif)
	roadPath := filepath.Join(dir, "far.geojson")
	writeTestVector(t, roadPath, testEPSG, godal.GTLineString, "LINESTRING (600000 4000000,600100 4000100)")

	g := NewToolbox()
	roads, err := g.LoadVectorLayer(roadPath)
	require.NoError(t, err)
	out := filepath.Join(dir, "out.tif")
	require.NoError(t, g.MaskRaster(tif, out, roads, maskOptions(t, dir, roadPath, dir)))
	r := readBack(t, out)
	assert.Equal(t, readBack(t, tif).Grid, r.Grid)
	assert.Equal(t, onesFloat32(100), r.Pixels)
}

func TestMaskRoadsGridMismatch(t *testing.T) {
	rasterDir, roadPath := roadsFixture(t, "a.tif")
	outDir := filepath.Join(t.TempDir(), "out")
	opts := maskOptions(t, rasterDir, roadPath, outDir)
	opts.PixelSize = 2

	report, err := NewToolbox().MaskRoads(context.Background(), opts)
	require.NoError(t, err)
	assert.Empty(t, report.Processed)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0], ErrGridMismatch)
	assert.ErrorIs(t, report.Err(), ErrGridMismatch)
	assert.NoFileExists(t, filepath.Join(outDir, "RF_a.tif"))

	// 使用栅格自身网格时不校验PixelSize
	opts.NativeGrid = true
	report, err = NewToolbox().MaskRoads(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, report.Processed, 1)
	assert.Empty(t, report.Failures)
}

func TestMaskRoadsIsolatesFailures(t *testing.T) {
	rasterDir, roadPath := roadsFixture(t, "a.tif", "c.tif")
	bad := filepath.Join(rasterDir, "b.tif")
	require.NoError(t, os.WriteFile(bad, []byte("not a tiff"), 0644))
	outDir := filepath.Join(t.TempDir(), "out")
	opts := maskOptions(t, rasterDir, roadPath, outDir)
	opts.Workers = 3

	report, err := NewToolbox().MaskRoads(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(rasterDir, "a.tif"), filepath.Join(rasterDir, "c.tif")}, report.Processed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, bad, report.Failures[0].Path)
	assert.ErrorIs(t, report.Failures[0], ErrOpenRaster)
	assert.FileExists(t, filepath.Join(outDir, "RF_c.tif"))
}

func TestMaskRoadsInPlaceSkipsOutputs(t *testing.T) {
	rasterDir, roadPath := roadsFixture(t, "a.tif", "b.tif")
	opts := maskOptions(t, rasterDir, roadPath, rasterDir)
	g := NewToolbox()

	report, err := g.MaskRoads(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, report.Processed, 2)

	report, err = g.MaskRoads(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, report.Processed, 2)
	assert.Empty(t, report.Failures)
	assert.NoFileExists(t, filepath.Join(rasterDir, "RF_RF_a.tif"))
}

func TestMaskRoadsErrors(t *testing.T) {
	rasterDir, roadPath := roadsFixture(t)
	g := NewToolbox()
	opts := maskOptions(t, rasterDir, roadPath, t.TempDir())
	_, err := g.MaskRoads(context.Background(), opts)
	assert.ErrorIs(t, err, ErrNoRasters)

	writeOnesTif(t, filepath.Join(rasterDir, "a.tif"))
	opts.RoadPath = filepath.Join(rasterDir, "missing.shp")
	_, err = g.MaskRoads(context.Background(), opts)
	assert.ErrorIs(t, err, ErrOpenVector)

	wgs := filepath.Join(t.TempDir(), "wgs.geojson")
	writeTestVector(t, wgs, 4326, godal.GTLineString, "LINESTRING (-105 37,-104.9 37.1)")
	opts.RoadPath = wgs
	report, err := g.MaskRoads(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0], ErrCRSMismatch)
}

func TestMaskRasterOutputCollision(t *testing.T) {
	rasterDir, roadPath := roadsFixture(t, "a.tif")
	g := NewToolbox()
	roads, err := g.LoadVectorLayer(roadPath)
	require.NoError(t, err)
	tif := filepath.Join(rasterDir, "a.tif")
	err = g.MaskRaster(tif, tif, roads, maskOptions(t, rasterDir, roadPath, rasterDir))
	assert.ErrorIs(t, err, ErrOutputCollision)
}

func TestMaskRoadsCancelled(t *testing.T) {
	rasterDir, roadPath := roadsFixture(t, "a.tif", "b.tif")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := NewToolbox().MaskRoads(ctx, maskOptions(t, rasterDir, roadPath, t.TempDir()))
	require.NoError(t, err)
	assert.Empty(t, report.Processed)
	require.Len(t, report.Failures, 2)
	assert.ErrorIs(t, report.Failures[1], context.Canceled)
}

func TestMaskGrid(t *testing.T) {
	src := Grid{Transform: TransformFromOrigin(0, 100, 2, 2), Width: 50, Height: 50}
	opts := MaskOptions{PixelSize: 2}
	grid, err := maskGrid(src, opts)
	require.NoError(t, err)
	assert.True(t, grid.AlignedWith(src))

	opts.PixelSize = 1
	_, err = maskGrid(src, opts)
	assert.ErrorIs(t, err, ErrGridMismatch)

	opts.NativeGrid = true
	grid, err = maskGrid(src, opts)
	require.NoError(t, err)
	assert.Equal(t, src, grid)
}
