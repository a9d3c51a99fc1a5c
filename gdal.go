package rasterprep

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/wgdzlh/rasterprep/log"

	"github.com/airbusgeo/godal"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Toolbox struct {
	sridMap  map[string]int // WKT -> EPSG，仅用于日志和报错信息
	rLock    sync.Mutex
	validate *validator.Validate
	logTag   string
}

// 由GDAL库C语言创建的对象，需要手动调用Close回收
type closable interface {
	Close()
}

var registerOnce sync.Once

// 初始化工具箱，首次调用时注册全部GDAL驱动
func NewToolbox() *Toolbox {
	registerOnce.Do(godal.RegisterAll)
	return &Toolbox{
		sridMap:  map[string]int{},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logTag:   LOG_TAG,
	}
}

// 获取坐标系对应的EPSG编号（识别失败为0，结果缓存）
func (g *Toolbox) getSrid(wkt string) (srid int) {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	srid, ok := g.sridMap[wkt]
	if ok {
		return
	}
	defer func() {
		g.sridMap[wkt] = srid
	}()
	sr, err := godal.NewSpatialRefFromWKT(wkt)
	if err != nil {
		log.Debug(g.logTag+"parse srs wkt failed", zap.Error(err))
		return
	}
	defer sr.Close()
	code := sr.AuthorityCode("")
	if code == "" {
		if err = sr.AutoIdentifyEPSG(); err == nil {
			code = sr.AuthorityCode("")
		}
	}
	srid, _ = strconv.Atoi(code)
	log.Debug(g.logTag+"got srid from srs", zap.Int("srid", srid))
	return
}

func (g *Toolbox) describeSrs(wkt string) string {
	if srid := g.getSrid(wkt); srid > 0 {
		return fmt.Sprintf("EPSG:%d", srid)
	}
	return "custom CRS"
}

// 判断两个WKT是否描述同一坐标系
func sameSrs(a, b string) (same bool, err error) {
	if a == b {
		same = true
		return
	}
	sa, err := godal.NewSpatialRefFromWKT(a)
	if err != nil {
		return
	}
	defer sa.Close()
	sb, err := godal.NewSpatialRefFromWKT(b)
	if err != nil {
		return
	}
	defer sb.Close()
	same = sa.IsSame(sb)
	return
}

// 校验矢量与栅格坐标系一致；不一致且允许投影时返回needReproject=true
func (g *Toolbox) checkSrs(rasterSrs, vectorSrs string, allowReproject bool) (needReproject bool, err error) {
	if rasterSrs == "" || vectorSrs == "" {
		err = ErrMissingCRS
		return
	}
	same, err := sameSrs(rasterSrs, vectorSrs)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrMissingCRS, err)
		return
	}
	if same {
		return
	}
	if !allowReproject {
		err = fmt.Errorf("%w: raster in %s, vector in %s", ErrCRSMismatch, g.describeSrs(rasterSrs), g.describeSrs(vectorSrs))
		return
	}
	log.Info(g.logTag+"vector will be reprojected", zap.String("from", g.describeSrs(vectorSrs)), zap.String("to", g.describeSrs(rasterSrs)))
	needReproject = true
	return
}

func (g *Toolbox) validateOptions(opts interface{}) (err error) {
	if err = g.validate.Struct(opts); err != nil {
		log.Error(g.logTag+"invalid options", zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return
}

func closeAll(gc []closable) {
	for _, v := range gc {
		v.Close()
	}
}
