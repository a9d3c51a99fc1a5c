package rasterprep

import (
	"fmt"

	"github.com/wgdzlh/rasterprep/log"

	"github.com/airbusgeo/godal"
	"github.com/go-spatial/geom"
	"go.uber.org/zap"
)

// 读取矢量文件第一个图层的全部几何（WKB）及坐标系、总范围
func (g *Toolbox) LoadVectorLayer(path string) (vl *VectorLayer, err error) {
	log.Info(g.logTag+"start load vector", zap.String("path", path))
	ds, err := godal.Open(path, godal.VectorOnly())
	if err != nil {
		log.Error(g.logTag+"open vector failed", zap.String("path", path), zap.Error(err))
		err = fmt.Errorf("%w: %s: %v", ErrOpenVector, path, err)
		return
	}
	defer ds.Close()
	layers := ds.Layers()
	if len(layers) == 0 {
		err = fmt.Errorf("%w: %s has no layer", ErrEmptyVector, path)
		return
	}
	layer := layers[0]
	vl = &VectorLayer{Path: path}
	if vl.SRS, err = layer.SpatialRef().WKT(); err != nil || vl.SRS == "" {
		err = fmt.Errorf("%w: %s", ErrMissingCRS, path)
		return
	}
	var (
		feature *godal.Feature
		gc      []closable
		idx     int
		total   *geom.Extent
	)
	defer func() {
		closeAll(gc)
	}()
	layer.ResetReading()
	for feature = layer.NextFeature(); feature != nil; feature = layer.NextFeature() {
		gc = append(gc, feature)
		idx++
		var ft Feature
		if ft, err = readFeature(feature.Geometry()); err != nil {
			log.Error(g.logTag+"err in read feature geometry", zap.String("path", path), zap.Int("idx", idx), zap.Error(err))
			err = fmt.Errorf("%w: %s feature #%d: %v", ErrInvalidGeometry, path, idx, err)
			return
		}
		if ft.Geom == nil {
			continue
		}
		vl.Features = append(vl.Features, ft)
		if total == nil {
			e := ft.Extent
			total = &e
		} else {
			total.Add(&ft.Extent)
		}
	}
	if total == nil {
		err = fmt.Errorf("%w: %s", ErrEmptyVector, path)
		return
	}
	vl.Bounds = *total
	log.Info(g.logTag+"got features from vector", zap.String("path", path), zap.Int("total", idx), zap.Int("valid", len(vl.Features)), zap.Float64s("bounds", vl.Bounds[:]))
	return
}

// 空几何返回零值Feature
func readFeature(geo *godal.Geometry) (ft Feature, err error) {
	wkb, err := geo.WKB()
	if err != nil {
		return
	}
	if geo.Empty() {
		return
	}
	bnds, err := geo.Bounds()
	if err != nil {
		return
	}
	ft.Geom = wkb
	ft.Extent = geom.Extent(bnds)
	return
}

// 解析图层全部要素几何，可选投影到目标坐标系；返回的几何由调用方Close
func (g *Toolbox) parseFeatures(vl *VectorLayer, fs []Feature, dstSrs string) (geos []*godal.Geometry, err error) {
	sr, err := godal.NewSpatialRefFromWKT(vl.SRS)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrMissingCRS, vl.Path, err)
		return
	}
	defer sr.Close()
	var dst *godal.SpatialRef
	if dstSrs != "" {
		if dst, err = godal.NewSpatialRefFromWKT(dstSrs); err != nil {
			err = fmt.Errorf("%w: %v", ErrMissingCRS, err)
			return
		}
		defer dst.Close()
	}
	geos = make([]*godal.Geometry, 0, len(fs))
	defer func() {
		if err != nil {
			for _, v := range geos {
				v.Close()
			}
			geos = nil
		}
	}()
	var geo *godal.Geometry
	for i := range fs {
		if geo, err = godal.NewGeometryFromWKB(fs[i].Geom, sr); err != nil {
			log.Error(g.logTag+"parse wkb failed", zap.String("path", vl.Path), zap.Error(err))
			err = fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
			return
		}
		geos = append(geos, geo)
		if dst != nil {
			if err = geo.Reproject(dst); err != nil {
				log.Error(g.logTag+"geo transform failed", zap.String("path", vl.Path), zap.Error(err))
				err = fmt.Errorf("%w: reproject: %v", ErrInvalidGeometry, err)
				return
			}
		}
	}
	return
}

// 图层在目标坐标系下的总范围
func (g *Toolbox) layerBoundsIn(vl *VectorLayer, dstSrs string) (ext geom.Extent, err error) {
	geos, err := g.parseFeatures(vl, vl.Features, dstSrs)
	if err != nil {
		return
	}
	defer func() {
		for _, v := range geos {
			v.Close()
		}
	}()
	var total *geom.Extent
	for _, geo := range geos {
		var bnds [4]float64
		if bnds, err = geo.Bounds(); err != nil {
			return
		}
		e := geom.Extent(bnds)
		if total == nil {
			total = &e
		} else {
			total.Add(&e)
		}
	}
	if total == nil {
		err = fmt.Errorf("%w: %s", ErrEmptyVector, vl.Path)
		return
	}
	ext = *total
	return
}

// 按外包范围筛选与ext相交的要素
func (vl *VectorLayer) FeaturesWithin(ext geom.Extent) (fs []Feature) {
	for i := range vl.Features {
		fe := vl.Features[i].Extent
		if fe.MinX() > ext.MaxX() || fe.MaxX() < ext.MinX() || fe.MinY() > ext.MaxY() || fe.MaxY() < ext.MinY() {
			continue
		}
		fs = append(fs, vl.Features[i])
	}
	return
}
