package rasterprep

const (
	LOG_TAG = "Toolbox:"

	FILE_EXT_TIF  = ".tif"
	OUTPUT_PREFIX = "RF_"

	DefaultBufferDistance = 3.0
	DefaultPixelSize      = 2.0

	BufferQuadSegs = 16 // 每1/4圆弧的分段数

	MaskBurnValue = 1

	OffsetSnapTolerance = 1e-6 // 像素偏移量接近整数时按整数处理
	GridRelTolerance    = 1e-9 // 网格对齐的相对容差

	MD_DOMAIN_IMAGE_STRUCTURE = "IMAGE_STRUCTURE"
	MD_KEY_COMPRESSION        = "COMPRESSION"
	CO_COMPRESS               = "COMPRESS=%s"
	CO_BIGTIFF                = "BIGTIFF=IF_SAFER"
)
