package rasterprep

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"golang.org/x/exp/constraints"
)

// 栅格像元值类型
type Sample interface {
	constraints.Integer | constraints.Float
}

// 按数据类型分配全零像元缓冲
func allocPixels(dt godal.DataType, n int) (buf interface{}, err error) {
	switch dt {
	case godal.Byte:
		buf = make([]byte, n)
	case godal.UInt16:
		buf = make([]uint16, n)
	case godal.Int16:
		buf = make([]int16, n)
	case godal.UInt32:
		buf = make([]uint32, n)
	case godal.Int32:
		buf = make([]int32, n)
	case godal.Float32:
		buf = make([]float32, n)
	case godal.Float64:
		buf = make([]float64, n)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedType, dt.String())
	}
	return
}

func pixelCount(buf interface{}) int {
	switch b := buf.(type) {
	case []byte:
		return len(b)
	case []uint16:
		return len(b)
	case []int16:
		return len(b)
	case []uint32:
		return len(b)
	case []int32:
		return len(b)
	case []float32:
		return len(b)
	case []float64:
		return len(b)
	}
	return -1
}

// 将srcW*srcH的块src复制到宽为dstW的dst中(col,row)处，调用方保证块在范围内
func pasteBlock[T Sample](dst []T, dstW int, src []T, srcW, srcH, col, row int) {
	for y := 0; y < srcH; y++ {
		off := (row+y)*dstW + col
		copy(dst[off:off+srcW], src[y*srcW:(y+1)*srcW])
	}
}

// 保留掩膜keep为1处的像元，其余置零
func applyKeepMask[T Sample](px []T, keep []byte) {
	for i, k := range keep {
		if k == 0 {
			px[i] = 0
		}
	}
}

// 类型分发：src块粘贴到dst（两者类型须一致）
func pasteAny(dst interface{}, dstW int, src interface{}, srcW, srcH, col, row int) (err error) {
	switch d := dst.(type) {
	case []byte:
		s, ok := src.([]byte)
		if !ok {
			break
		}
		pasteBlock(d, dstW, s, srcW, srcH, col, row)
		return
	case []uint16:
		s, ok := src.([]uint16)
		if !ok {
			break
		}
		pasteBlock(d, dstW, s, srcW, srcH, col, row)
		return
	case []int16:
		s, ok := src.([]int16)
		if !ok {
			break
		}
		pasteBlock(d, dstW, s, srcW, srcH, col, row)
		return
	case []uint32:
		s, ok := src.([]uint32)
		if !ok {
			break
		}
		pasteBlock(d, dstW, s, srcW, srcH, col, row)
		return
	case []int32:
		s, ok := src.([]int32)
		if !ok {
			break
		}
		pasteBlock(d, dstW, s, srcW, srcH, col, row)
		return
	case []float32:
		s, ok := src.([]float32)
		if !ok {
			break
		}
		pasteBlock(d, dstW, s, srcW, srcH, col, row)
		return
	case []float64:
		s, ok := src.([]float64)
		if !ok {
			break
		}
		pasteBlock(d, dstW, s, srcW, srcH, col, row)
		return
	}
	err = fmt.Errorf("%w: cannot paste %T into %T", ErrUnsupportedType, src, dst)
	return
}

// 类型分发：像元与反转掩膜相乘
func maskAny(px interface{}, keep []byte) (err error) {
	if n := pixelCount(px); n != len(keep) {
		err = fmt.Errorf("%w: %d pixels vs %d mask cells", ErrShapeMismatch, n, len(keep))
		return
	}
	switch p := px.(type) {
	case []byte:
		applyKeepMask(p, keep)
	case []uint16:
		applyKeepMask(p, keep)
	case []int16:
		applyKeepMask(p, keep)
	case []uint32:
		applyKeepMask(p, keep)
	case []int32:
		applyKeepMask(p, keep)
	case []float32:
		applyKeepMask(p, keep)
	case []float64:
		applyKeepMask(p, keep)
	default:
		err = fmt.Errorf("%w: %T", ErrUnsupportedType, px)
	}
	return
}

// 将0/1烧录结果反转为保留掩膜（道路处为0，其余为1）
func invertMask(burned []byte) (keep []byte) {
	keep = make([]byte, len(burned))
	for i, v := range burned {
		if v == 0 {
			keep[i] = 1
		}
	}
	return
}
