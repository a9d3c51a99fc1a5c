package rasterprep

import (
	"fmt"

	"github.com/wgdzlh/rasterprep/log"

	"github.com/go-spatial/geom"
	"go.uber.org/zap"
)

// 将栅格范围扩展到参考矢量的总范围，扩展部分填0，输出单波段GeoTIFF
func (g *Toolbox) Expand(opts ExpandOptions) (ret ExpandResult, err error) {
	if err = g.validateOptions(opts); err != nil {
		return
	}
	log.Info(g.logTag+"start expand raster", zap.String("raster", opts.RasterPath), zap.String("vector", opts.VectorPath), zap.String("out", opts.OutputPath))
	src, err := g.ReadRaster(opts.RasterPath)
	if err != nil {
		return
	}
	vl, err := g.LoadVectorLayer(opts.VectorPath)
	if err != nil {
		return
	}
	needReproject, err := g.checkSrs(src.SRS, vl.SRS, opts.Reproject)
	if err != nil {
		return
	}
	ext := vl.Bounds
	if needReproject {
		if ext, err = g.layerBoundsIn(vl, src.SRS); err != nil {
			return
		}
	}
	dst, col, row, err := expandRaster(src, ext)
	if err != nil {
		log.Error(g.logTag+"expand raster failed", zap.String("raster", opts.RasterPath), zap.Error(err))
		return
	}
	if opts.Compress != "" {
		dst.Compress = opts.Compress
	}
	if err = g.WriteRaster(dst, opts.OutputPath); err != nil {
		return
	}
	ret = ExpandResult{
		OutputPath: opts.OutputPath,
		Grid:       dst.Grid,
		OffsetX:    col,
		OffsetY:    row,
	}
	log.Info(g.logTag+"extended raster saved", zap.String("out", opts.OutputPath), zap.Stringer("grid", dst.Grid), zap.Int("offsetX", col), zap.Int("offsetY", row))
	return
}

// 在ext范围、源栅格分辨率的新网格上放置源像元块，源块超出新网格时报错
func expandRaster(src *Raster, ext geom.Extent) (dst *Raster, col, row int, err error) {
	px, py := src.Transform.PixelSize()
	grid, err := GridForBounds(ext, px, py)
	if err != nil {
		return
	}
	col, row, ok := PixelOffset(grid.Transform, src.Transform)
	if !ok || !grid.Fits(col, row, src.Width, src.Height) {
		err = fmt.Errorf("%w: %dx%d block at offset (%d,%d) in %dx%d grid", ErrOutOfBounds, src.Width, src.Height, col, row, grid.Width, grid.Height)
		return
	}
	dst = &Raster{Profile: src.Profile}
	dst.Grid = grid
	if dst.Pixels, err = allocPixels(src.DataType, grid.Size()); err != nil {
		return
	}
	err = pasteAny(dst.Pixels, grid.Width, src.Pixels, src.Width, src.Height, col, row)
	return
}
