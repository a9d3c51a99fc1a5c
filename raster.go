package rasterprep

import (
	"errors"
	"fmt"
	"os"

	"github.com/wgdzlh/rasterprep/log"
	"github.com/wgdzlh/rasterprep/utils"

	"github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

// 写出栅格所需的格式参数（尺寸、变换、数据类型、坐标系等）
type Profile struct {
	Grid
	DataType  godal.DataType
	SRS       string // WKT
	NoData    float64
	HasNoData bool
	Compress  string
}

// 单波段栅格
type Raster struct {
	Profile
	Pixels interface{} // []byte, []uint16, []int16, []uint32, []int32, []float32 或 []float64，行优先
}

func (r *Raster) validate() error {
	if n := pixelCount(r.Pixels); n != r.Size() {
		return fmt.Errorf("%w: %d pixels for %dx%d grid", ErrShapeMismatch, n, r.Width, r.Height)
	}
	return nil
}

// 读取单波段栅格（含坐标系、变换、无效值等信息）
func (g *Toolbox) ReadRaster(tif string) (r *Raster, err error) {
	sds, err := godal.Open(tif, godal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %s: %v", ErrOpenRaster, tif, err)
		return
	}
	defer sds.Close()
	bands := sds.Bands()
	switch bc := len(bands); {
	case bc == 0:
		err = fmt.Errorf("%w: %s", ErrNoBand, tif)
		return
	case bc > 1:
		log.Error(g.logTag+"tif can have only one band", zap.String("tif", tif), zap.Int("bands", bc))
		err = fmt.Errorf("%w: %s has %d", ErrMultiBand, tif, bc)
		return
	}
	gt, err := sds.GeoTransform()
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrNoGeoTransform, tif, err)
		return
	}
	r = &Raster{}
	r.Transform = Transform(gt)
	if !r.Transform.NorthUp() {
		err = fmt.Errorf("%w: %s %s", ErrRotatedRaster, tif, r.Transform)
		return
	}
	if r.SRS = sds.Projection(); r.SRS == "" {
		err = fmt.Errorf("%w: %s", ErrMissingCRS, tif)
		return
	}
	band := bands[0]
	bs := band.Structure()
	r.Width, r.Height, r.DataType = bs.SizeX, bs.SizeY, bs.DataType
	r.NoData, r.HasNoData = band.NoData()
	r.Compress = sds.Metadata(MD_KEY_COMPRESSION, godal.Domain(MD_DOMAIN_IMAGE_STRUCTURE))
	log.Info(g.logTag+"read tif band", zap.String("tif", tif), zap.String("dt", r.DataType.String()), zap.Int("width", r.Width), zap.Int("height", r.Height))
	if r.Pixels, err = allocPixels(r.DataType, r.Size()); err != nil {
		return
	}
	if err = band.Read(0, 0, r.Pixels, r.Width, r.Height); err != nil {
		log.Error(g.logTag+"read tif band failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %s: %v", ErrReadBand, tif, err)
	}
	return
}

// 将栅格写为GeoTIFF：先写入同目录临时文件，成功后再重命名
func (g *Toolbox) WriteRaster(r *Raster, out string) (err error) {
	if err = r.validate(); err != nil {
		return
	}
	tmp := utils.GetTmpSibling(out)
	defer func() {
		if err != nil {
			os.Remove(tmp)
			log.Error(g.logTag+"write tif failed", zap.String("out", out), zap.Error(err))
			if !errors.Is(err, ErrWriteRaster) {
				err = fmt.Errorf("%w: %s: %v", ErrWriteRaster, out, err)
			}
		}
	}()
	opts := []string{CO_BIGTIFF}
	if r.Compress != "" {
		opts = append(opts, fmt.Sprintf(CO_COMPRESS, r.Compress))
	}
	ds, err := godal.Create(godal.GTiff, tmp, 1, r.DataType, r.Width, r.Height, godal.CreationOption(opts...))
	if err != nil {
		return
	}
	if err = g.fillDataset(ds, r); err != nil {
		ds.Close()
		return
	}
	if err = ds.Close(); err != nil { // 关闭时落盘
		return
	}
	err = os.Rename(tmp, out)
	return
}

func (g *Toolbox) fillDataset(ds *godal.Dataset, r *Raster) (err error) {
	if err = ds.SetGeoTransform(r.Transform); err != nil {
		return
	}
	if err = ds.SetProjection(r.SRS); err != nil {
		return
	}
	band := ds.Bands()[0]
	if r.HasNoData {
		if err = band.SetNoData(r.NoData); err != nil {
			return
		}
	}
	err = band.Write(0, 0, r.Pixels, r.Width, r.Height)
	return
}
