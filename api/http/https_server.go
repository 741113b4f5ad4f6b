package http

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"EpiPredict/internal/config"
	"EpiPredict/internal/middleware/ratelimit"
	"EpiPredict/internal/middleware/requestid"
	"EpiPredict/internal/modules/epitope/application/dto/respond"
	epitopeService "EpiPredict/internal/modules/epitope/application/service"
	"EpiPredict/internal/modules/epitope/domain/peptide"
	"EpiPredict/internal/modules/epitope/infrastructure/model"
	epitopeHandler "EpiPredict/internal/modules/epitope/interface/http"
	structureService "EpiPredict/internal/modules/structure/application/service"
	"EpiPredict/internal/modules/structure/infrastructure/esmfold"
	structurePersistence "EpiPredict/internal/modules/structure/infrastructure/persistence"
	structureHandler "EpiPredict/internal/modules/structure/interface/http"
	"EpiPredict/pkg/cache"
	"EpiPredict/pkg/ssl"
	"EpiPredict/pkg/zlog"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server 组装完成的 HTTP 服务及其需要在退出时释放的资源
type Server struct {
	Engine *gin.Engine
	Models *model.Registry
}

// Setup 按配置构造模型、缓存、服务与路由
func Setup(conf *config.Config) (*Server, error) {
	policy, err := cache.ParsePolicy(conf.CacheConfig.Policy)
	if err != nil {
		return nil, err
	}

	registry := model.NewRegistry(model.NewOnnxLoader(model.OnnxLoaderConfig{
		LibraryPath:   conf.ModelConfig.OrtLibraryPath,
		TokenizerPath: conf.ModelConfig.TokenizerPath,
		Models: map[peptide.HLAClass]model.OnnxOptions{
			peptide.ClassI:  onnxOptions(conf.ModelConfig.ClassI),
			peptide.ClassII: onnxOptions(conf.ModelConfig.ClassII),
		},
	}))
	if conf.ModelConfig.LoadOnStartup {
		// 加载失败不阻止启动：/health 报告 degraded，首个预测请求会再尝试一次
		if err := registry.Reload(context.Background()); err != nil {
			zlog.Warn("starting with models unavailable", zap.Error(err))
		}
	}

	predictSvc := epitopeService.NewPredictService(
		registry,
		epitopeService.NewBatchPredictor(registry, conf.ModelConfig.BatchSize),
		cache.New[respond.PredictRespond](conf.CacheConfig.Capacity, policy),
		conf.PredictConfig.MaxSequenceLength,
	)

	structureSvc := structureService.NewStructureService(
		esmfold.NewClient(conf.StructureConfig.Endpoint, time.Duration(conf.StructureConfig.TimeoutSeconds)*time.Second),
		cache.New[string](conf.StructureConfig.CacheCapacity, cache.FIFO{}),
		structurePersistence.NewRedisStructureStore(time.Duration(conf.StructureConfig.RedisTTLHours)*time.Hour),
	)

	return &Server{
		Engine: NewEngine(conf, predictSvc, structureSvc),
		Models: registry,
	}, nil
}

func onnxOptions(c config.ClassModelConfig) model.OnnxOptions {
	return model.OnnxOptions{
		ModelPath:    c.ModelPath,
		InputName:    c.InputName,
		OutputName:   c.OutputName,
		ApplySoftmax: c.ApplySoftmax,
	}
}

// NewEngine 注册中间件与路由
func NewEngine(conf *config.Config, predictSvc epitopeService.PredictService, structureSvc structureService.StructureService) *gin.Engine {
	GE := gin.New()
	GE.Use(gin.Recovery(), requestid.RequestID())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = conf.SecurityConfig.AllowOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"*"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", requestid.Header}
	GE.Use(cors.New(corsConfig))
	GE.Use(ssl.TlsHandler(ssl.SecureOptions{
		Host:        conf.MainConfig.Host,
		Port:        conf.MainConfig.Port,
		SSLRedirect: conf.SecurityConfig.SSLRedirect,
		IsDev:       gin.Mode() != gin.ReleaseMode,
	}))

	predictH := epitopeHandler.NewPredictHandler(predictSvc)
	structureH := structureHandler.NewStructureHandler(structureSvc)

	GE.POST("/predict", predictH.Predict)
	GE.GET("/health", predictH.Health)
	GE.GET("/cache/stats", predictH.CacheStats)

	api := GE.Group("/api")
	api.POST("/predict-structure",
		ratelimit.Limit(conf.StructureConfig.RatePerSecond, conf.StructureConfig.Burst),
		structureH.Predict)

	registerStatic(GE, conf.StaticConfig.Dir)
	return GE
}

// registerStatic 前端静态资源，目录不存在时跳过
func registerStatic(GE *gin.Engine, dir string) {
	if dir == "" {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		zlog.Info("static dir not found, front end disabled", zap.String("dir", dir))
		return
	}
	GE.Static("/static", dir)
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err == nil {
		GE.StaticFile("/", index)
	}
}
