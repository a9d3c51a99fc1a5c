package rasterprep

import (
	"fmt"
	"strconv"

	"github.com/go-spatial/geom"
)

func PointsToWkt(x1, x2, y1, y2 float64) string {
	return fmt.Sprintf("POLYGON((%[1]s %[3]s, %[1]s %[4]s, %[2]s %[4]s, %[2]s %[3]s, %[1]s %[3]s))", ftoa(x1), ftoa(x2), ftoa(y1), ftoa(y2))
}

// 范围转WKT矩形
func ExtentToWkt(ext geom.Extent) string {
	return PointsToWkt(ext.MinX(), ext.MaxX(), ext.MinY(), ext.MaxY())
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
