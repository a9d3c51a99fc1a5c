package rasterprep

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wgdzlh/rasterprep/log"
	"github.com/wgdzlh/rasterprep/utils"

	"github.com/airbusgeo/godal"
	"github.com/creasty/defaults"
	"go.uber.org/zap"
)

// 获取带默认值的道路掩膜参数
func NewMaskOptions(rasterDir, roadPath, outputDir string) (opts MaskOptions, err error) {
	if err = defaults.Set(&opts); err != nil {
		return
	}
	opts.RasterDir = rasterDir
	opts.RoadPath = roadPath
	opts.OutputDir = outputDir
	return
}

// 批量去除目录下各栅格中道路覆盖的像元：
// 道路矢量按栅格范围裁剪、缓冲后栅格化，取反后与原栅格相乘，结果以OutputPrefix为前缀写入OutputDir。
// 单个栅格失败不影响其余栅格，失败列表见BatchReport.Failures；返回的err仅表示批处理本身无法进行。
func (g *Toolbox) MaskRoads(ctx context.Context, opts MaskOptions) (report BatchReport, err error) {
	if err = g.validateOptions(opts); err != nil {
		return
	}
	files, err := g.listRasters(opts)
	if err != nil {
		return
	}
	if err = utils.EnsureDir(opts.OutputDir); err != nil {
		log.Error(g.logTag+"create output dir failed", zap.String("dir", opts.OutputDir), zap.Error(err))
		return
	}
	roads, err := g.LoadVectorLayer(opts.RoadPath)
	if err != nil {
		return
	}
	log.Info(g.logTag+"start mask roads", zap.Int("rasters", len(files)), zap.Int("roads", len(roads.Features)),
		zap.Float64("buffer", opts.BufferDistance), zap.Float64("pixelSize", opts.PixelSize), zap.Int("workers", opts.Workers))

	errs := make([]error, len(files))
	jobs := make(chan int)
	wg := sync.WaitGroup{}
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = g.MaskRaster(files[i], utils.GetPrefixedPath(opts.OutputDir, opts.OutputPrefix, files[i]), roads, opts)
			}
		}()
	}
	dispatched := 0
dispatch:
	for i := range files {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
			dispatched++
		}
	}
	close(jobs)
	wg.Wait()

	for i, f := range files {
		e := errs[i]
		if i >= dispatched {
			e = ctx.Err()
		}
		if e != nil {
			report.Failures = append(report.Failures, FileFailure{Path: f, Err: e})
			continue
		}
		report.Processed = append(report.Processed, f)
	}
	if len(report.Failures) > 0 {
		log.Warn(g.logTag+"mask roads finished with failures", zap.Int("processed", len(report.Processed)), zap.Int("failed", len(report.Failures)), zap.Error(report.Err()))
	} else {
		log.Info(g.logTag+"mask roads finished", zap.Int("processed", len(report.Processed)))
	}
	return
}

// 列出待处理栅格；输出目录与输入目录相同时跳过已带前缀的输出文件
func (g *Toolbox) listRasters(opts MaskOptions) (files []string, err error) {
	all, err := utils.ListFilesWithExt(opts.RasterDir, opts.Extension)
	if err != nil {
		log.Error(g.logTag+"list rasters failed", zap.String("dir", opts.RasterDir), zap.Error(err))
		err = fmt.Errorf("%w: %s: %v", ErrOpenRaster, opts.RasterDir, err)
		return
	}
	skipOutputs := opts.OutputPrefix != "" && utils.SamePath(opts.RasterDir, opts.OutputDir)
	for _, f := range all {
		if skipOutputs && strings.HasPrefix(filepath.Base(f), opts.OutputPrefix) {
			log.Debug(g.logTag+"skip previous output", zap.String("tif", f))
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		err = fmt.Errorf("%w: %s (*%s)", ErrNoRasters, opts.RasterDir, opts.Extension)
	}
	return
}

// 去除单个栅格中道路覆盖的像元并写出到out，roads由LoadVectorLayer得到
func (g *Toolbox) MaskRaster(tif, out string, roads *VectorLayer, opts MaskOptions) (err error) {
	defer func() {
		if err != nil {
			log.Error(g.logTag+"mask raster failed", zap.String("tif", tif), zap.Error(err))
		}
	}()
	if utils.SamePath(tif, out) {
		err = fmt.Errorf("%w: %s", ErrOutputCollision, out)
		return
	}
	src, err := g.ReadRaster(tif)
	if err != nil {
		return
	}
	needReproject, err := g.checkSrs(src.SRS, roads.SRS, opts.Reproject)
	if err != nil {
		return
	}
	grid, err := maskGrid(src.Grid, opts)
	if err != nil {
		return
	}
	ext := src.Bounds()
	var (
		candidates = roads.Features
		srs        = roads.SRS
		dstSrs     string
		gc         []closable
	)
	defer func() {
		closeAll(gc)
	}()
	if needReproject {
		srs, dstSrs = src.SRS, src.SRS
	} else {
		candidates = roads.FeaturesWithin(ext)
	}
	geos, err := g.parseFeatures(roads, candidates, dstSrs)
	if err != nil {
		return
	}
	gc = appendGeos(gc, geos)
	buffed, err := g.clipAndBuffer(geos, ext, srs, opts.BufferDistance)
	if err != nil {
		return
	}
	gc = appendGeos(gc, buffed)
	if len(buffed) == 0 {
		log.Info(g.logTag+"no road in raster extent", zap.String("tif", tif))
	}
	burned, err := g.rasterizeMask(grid, srs, buffed, opts.AllTouched)
	if err != nil {
		err = fmt.Errorf("rasterize roads: %w", err)
		return
	}
	if err = maskAny(src.Pixels, invertMask(burned)); err != nil {
		return
	}
	if err = g.WriteRaster(src, out); err != nil {
		return
	}
	log.Info(g.logTag+"processed and saved masked raster", zap.String("tif", tif), zap.String("out", out),
		zap.Int("roads", len(buffed)), zap.Int("masked", countNonZero(burned)))
	return
}

// 掩膜网格：由栅格范围和PixelSize重建，且必须与栅格自身网格一致
func maskGrid(src Grid, opts MaskOptions) (grid Grid, err error) {
	if opts.NativeGrid {
		grid = src
		return
	}
	if grid, err = GridFromOrigin(src.Bounds(), opts.PixelSize); err != nil {
		return
	}
	if !grid.AlignedWith(src) {
		px, py := src.Transform.PixelSize()
		err = fmt.Errorf("%w: mask grid %s vs raster grid %s (raster resolution %gx%g, pixel size %g)",
			ErrGridMismatch, grid, src, px, py, opts.PixelSize)
	}
	return
}

func appendGeos(gc []closable, geos []*godal.Geometry) []closable {
	for _, v := range geos {
		gc = append(gc, v)
	}
	return gc
}
