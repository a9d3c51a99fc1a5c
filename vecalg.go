package rasterprep

import (
	"fmt"

	"github.com/wgdzlh/rasterprep/log"

	"github.com/airbusgeo/godal"
	"github.com/go-spatial/geom"
	"go.uber.org/zap"
)

// 用矩形ext裁剪几何后做缓冲，裁剪或缓冲结果为空的几何被丢弃；返回的几何由调用方Close
func (g *Toolbox) clipAndBuffer(geos []*godal.Geometry, ext geom.Extent, srs string, dist float64) (out []*godal.Geometry, err error) {
	sr, err := godal.NewSpatialRefFromWKT(srs)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrMissingCRS, err)
		return
	}
	defer sr.Close()
	box, err := godal.NewGeometryFromWKT(ExtentToWkt(ext), sr)
	if err != nil {
		err = fmt.Errorf("%w: clip box: %v", ErrInvalidGeometry, err)
		return
	}
	defer box.Close()
	defer func() {
		if err != nil {
			for _, v := range out {
				v.Close()
			}
			out = nil
		}
	}()
	var clipped, buffed *godal.Geometry
	for i, geo := range geos {
		if clipped, err = geo.Intersection(box); err != nil {
			log.Error(g.logTag+"err in clip geometry", zap.Int("idx", i), zap.Error(err))
			err = fmt.Errorf("%w: clip: %v", ErrInvalidGeometry, err)
			return
		}
		if clipped.Empty() {
			clipped.Close()
			continue
		}
		buffed, err = clipped.Buffer(dist, BufferQuadSegs)
		clipped.Close()
		if err != nil {
			log.Error(g.logTag+"err in buffer geometry", zap.Int("idx", i), zap.Float64("dist", dist), zap.Error(err))
			err = fmt.Errorf("%w: buffer: %v", ErrInvalidGeometry, err)
			return
		}
		if buffed.Empty() {
			buffed.Close()
			continue
		}
		out = append(out, buffed)
	}
	return
}

// 将几何烧录到grid网格上：几何内部为1，背景为0
func (g *Toolbox) rasterizeMask(grid Grid, srs string, geos []*godal.Geometry, allTouched bool) (burned []byte, err error) {
	burned = make([]byte, grid.Size())
	if len(geos) == 0 {
		return
	}
	mds, err := godal.Create(godal.Memory, "", 1, godal.Byte, grid.Width, grid.Height)
	if err != nil {
		return
	}
	defer mds.Close()
	if err = mds.SetGeoTransform(grid.Transform); err != nil {
		return
	}
	if err = mds.SetProjection(srs); err != nil {
		return
	}
	opts := []godal.RasterizeGeometryOption{godal.Values(MaskBurnValue)}
	if allTouched {
		opts = append(opts, godal.AllTouched())
	}
	for i, geo := range geos {
		if err = mds.RasterizeGeometry(geo, opts...); err != nil {
			log.Error(g.logTag+"err in rasterize geometry", zap.Int("idx", i), zap.Error(err))
			return
		}
	}
	err = mds.Bands()[0].Read(0, 0, burned, grid.Width, grid.Height)
	return
}

func countNonZero(b []byte) (n int) {
	for _, v := range b {
		if v != 0 {
			n++
		}
	}
	return
}
