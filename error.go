package rasterprep

import "errors"

var (
	ErrOpenRaster      = errors.New("open raster failed")
	ErrOpenVector      = errors.New("open vector failed")
	ErrReadBand        = errors.New("read raster band failed")
	ErrWriteRaster     = errors.New("write raster failed")
	ErrNoBand          = errors.New("raster has no band")
	ErrMultiBand       = errors.New("raster must have exactly one band")
	ErrUnsupportedType = errors.New("unsupported raster data type")
	ErrEmptyVector     = errors.New("vector layer has no geometry")
	ErrNoRasters       = errors.New("no raster found in directory")
	ErrMissingCRS      = errors.New("missing coordinate reference system")
	ErrCRSMismatch     = errors.New("coordinate reference systems differ")
	ErrInvalidGeometry = errors.New("invalid geometry")
	ErrRotatedRaster   = errors.New("rotated or flipped raster transform")
	ErrNoGeoTransform  = errors.New("raster has no geotransform")
	ErrOutOfBounds     = errors.New("raster block out of target grid bounds")
	ErrGridMismatch    = errors.New("mask grid does not match raster grid")
	ErrEmptyExtent     = errors.New("extent is empty at raster resolution")
	ErrShapeMismatch   = errors.New("pixel buffer shape mismatch")
	ErrOutputCollision = errors.New("output path collides with input")
	ErrInvalidOptions  = errors.New("invalid options")
)
