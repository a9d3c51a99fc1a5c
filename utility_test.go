package rasterprep

import (
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
)

func TestExtentToWkt(t *testing.T) {
	assert.Equal(t, "POLYGON((1.5 -2, 1.5 4, 3 4, 3 -2, 1.5 -2))", ExtentToWkt(geom.Extent{1.5, -2, 3, 4}))
	assert.Equal(t, "POLYGON((500000 4100000, 500000 4100010.25, 500010 4100010.25, 500010 4100000, 500000 4100000))",
		PointsToWkt(500000, 500010, 4100000, 4100010.25))
}
