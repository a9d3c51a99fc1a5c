package rasterprep

import (
	"fmt"
	"math"

	"github.com/go-spatial/geom"
)

// 仿射变换系数，与GDAL GeoTransform次序一致：
// [左上角X, 像元宽, X旋转, 左上角Y, Y旋转, 像元高(北向上时为负)]
type Transform [6]float64

// 像元网格：仿射变换 + 行列数
type Grid struct {
	Transform Transform
	Width     int
	Height    int
}

// 由范围和行列数构建变换（北向上）
func TransformFromBounds(ext geom.Extent, width, height int) Transform {
	return Transform{
		ext.MinX(), ext.XSpan() / float64(width), 0,
		ext.MaxY(), 0, -ext.YSpan() / float64(height),
	}
}

// 由左上角坐标和像元大小构建变换（北向上）
func TransformFromOrigin(west, north, xSize, ySize float64) Transform {
	return Transform{west, xSize, 0, north, 0, -ySize}
}

func (t Transform) OriginX() float64 { return t[0] }

func (t Transform) OriginY() float64 { return t[3] }

// 像元大小，Y方向取正值
func (t Transform) PixelSize() (x, y float64) {
	return t[1], -t[5]
}

// 是否为北向上、无旋转且像元大小为正的变换
func (t Transform) NorthUp() bool {
	return t[2] == 0 && t[4] == 0 && t[1] > 0 && t[5] < 0
}

// 像元(col,row)左上角对应的地理坐标
func (t Transform) Apply(col, row float64) (x, y float64) {
	x = t[0] + col*t[1] + row*t[2]
	y = t[3] + col*t[4] + row*t[5]
	return
}

func (t Transform) String() string {
	return fmt.Sprintf("[%g %g %g %g %g %g]", t[0], t[1], t[2], t[3], t[4], t[5])
}

// 网格覆盖的地理范围
func (g Grid) Bounds() geom.Extent {
	x0, y0 := g.Transform.Apply(0, 0)
	x1, y1 := g.Transform.Apply(float64(g.Width), float64(g.Height))
	return geom.Extent{math.Min(x0, x1), math.Min(y0, y1), math.Max(x0, x1), math.Max(y0, y1)}
}

func (g Grid) Size() int {
	return g.Width * g.Height
}

func (g Grid) String() string {
	return fmt.Sprintf("%dx%d %s", g.Width, g.Height, g.Transform)
}

// 判断两个网格是否对齐（行列数一致，变换系数在相对容差内相等）
func (g Grid) AlignedWith(o Grid) bool {
	if g.Width != o.Width || g.Height != o.Height {
		return false
	}
	px, py := g.Transform.PixelSize()
	tol := GridRelTolerance * math.Max(math.Abs(px), math.Abs(py))
	for i := range g.Transform {
		if math.Abs(g.Transform[i]-o.Transform[i]) > tol {
			return false
		}
	}
	return true
}

// 按像元大小将范围划分为网格，行列数四舍五入
func GridForBounds(ext geom.Extent, xSize, ySize float64) (g Grid, err error) {
	if xSize <= 0 || ySize <= 0 {
		err = fmt.Errorf("%w: pixel size %gx%g", ErrEmptyExtent, xSize, ySize)
		return
	}
	g.Width = int(math.Round(ext.XSpan() / xSize))
	g.Height = int(math.Round(ext.YSpan() / ySize))
	if g.Width <= 0 || g.Height <= 0 {
		err = fmt.Errorf("%w: %v at %gx%g gives %dx%d", ErrEmptyExtent, ext, xSize, ySize, g.Width, g.Height)
		return
	}
	g.Transform = TransformFromBounds(ext, g.Width, g.Height)
	return
}

// 按左上角和固定像元大小划分网格（掩膜网格），变换不随四舍五入调整像元大小
func GridFromOrigin(ext geom.Extent, pixelSize float64) (g Grid, err error) {
	if pixelSize <= 0 {
		err = fmt.Errorf("%w: pixel size %g", ErrEmptyExtent, pixelSize)
		return
	}
	g.Width = int(math.Round(ext.XSpan() / pixelSize))
	g.Height = int(math.Round(ext.YSpan() / pixelSize))
	if g.Width <= 0 || g.Height <= 0 {
		err = fmt.Errorf("%w: %v at %g gives %dx%d", ErrEmptyExtent, ext, pixelSize, g.Width, g.Height)
		return
	}
	g.Transform = TransformFromOrigin(ext.MinX(), ext.MaxY(), pixelSize, pixelSize)
	return
}

// 计算inner网格左上角在outer网格中的像元偏移（按inner的像元大小换算，向零取整）
// inner左上角位于outer左上角以西或以北时ok为false
func PixelOffset(outer, inner Transform) (col, row int, ok bool) {
	px, py := inner.PixelSize()
	fc := (inner.OriginX() - outer.OriginX()) / px
	fr := (outer.OriginY() - inner.OriginY()) / py
	col, row = truncSnap(fc), truncSnap(fr)
	ok = fc > -OffsetSnapTolerance && fr > -OffsetSnapTolerance
	return
}

// 向零取整，距离整数不超过OffsetSnapTolerance时取该整数
func truncSnap(v float64) int {
	if r := math.Round(v); math.Abs(v-r) <= OffsetSnapTolerance {
		return int(r)
	}
	return int(math.Trunc(v))
}

// 检查大小为w*h的块放在(col,row)处是否完全落在网格内
func (g Grid) Fits(col, row, w, h int) bool {
	return col >= 0 && row >= 0 && col+w <= g.Width && row+h <= g.Height
}
