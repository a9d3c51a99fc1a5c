package rasterprep

import (
	"fmt"

	"github.com/go-spatial/geom"
	"go.uber.org/multierr"
)

type GdalGeo = []byte

// 矢量要素：几何WKB及其外包范围
type Feature struct {
	Geom   GdalGeo
	Extent geom.Extent
}

// 矢量图层（取数据源的第一个图层），几何以WKB常驻内存，供各栅格独立解析
type VectorLayer struct {
	Path     string
	SRS      string // WKT
	Features []Feature
	Bounds   geom.Extent
}

// 扩展栅格范围的参数
type ExpandOptions struct {
	RasterPath string `validate:"required"`
	VectorPath string `validate:"required"`
	OutputPath string `validate:"required"`
	Reproject  bool   // 坐标系不一致时将参考矢量投影到栅格坐标系，否则报错
	Compress   string // 输出压缩方式，为空时沿用源栅格
}

type ExpandResult struct {
	OutputPath string
	Grid       Grid
	OffsetX    int
	OffsetY    int
}

// 道路掩膜批处理参数，通过NewMaskOptions获取默认值
type MaskOptions struct {
	RasterDir      string  `validate:"required"`
	RoadPath       string  `validate:"required"`
	OutputDir      string  `validate:"required"`
	BufferDistance float64 `default:"3" validate:"gte=0"`
	PixelSize      float64 `default:"2" validate:"gt=0"`
	NativeGrid     bool    // 直接使用栅格自身网格，忽略PixelSize
	Extension      string  `default:".tif" validate:"required,startswith=."`
	OutputPrefix   string  `default:"RF_"`
	Workers        int     `default:"1" validate:"gte=1"`
	AllTouched     bool
	Reproject      bool
}

// 单个栅格处理失败信息
type FileFailure struct {
	Path string
	Err  error
}

func (f FileFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

func (f FileFailure) Unwrap() error {
	return f.Err
}

// 批处理结果，Processed与Failures均按文件列表顺序排列
type BatchReport struct {
	Processed []string
	Failures  []FileFailure
}

// 合并所有失败，无失败时为nil
func (r BatchReport) Err() (err error) {
	for _, f := range r.Failures {
		err = multierr.Append(err, f)
	}
	return
}
