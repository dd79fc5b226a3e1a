package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/controller"
	"interview_prep_backend/internal/events"
	"interview_prep_backend/internal/llm"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/session"
	"interview_prep_backend/pkg/database"
	"interview_prep_backend/pkg/logger"
	"interview_prep_backend/pkg/monitoring"
	"interview_prep_backend/pkg/security"
	"interview_prep_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the external collaborators the application is built on.
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Store     session.Store
	Generator llm.Generator
	Publisher events.Publisher
}

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	deps            Deps
	generator       *llm.Swappable
	retrying        *llm.RetryingGenerator
	limiter         *security.RateLimiter
	services        *services
	shutdownHooks   []func(context.Context) error
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	resume   *repository.ResumeRepository
	jd       *repository.JobDescriptionRepository
	analysis *repository.AnalysisRepository
	result   *repository.TestResultRepository
	progress *repository.ProgressRepository
	project  *repository.ProjectProgressRepository
	roadmap  *repository.RoadmapRepository
}

type services struct {
	auth         *service.AuthService
	storage      *service.StorageService
	gamification *service.GamificationService
	test         *service.TestService
	resume       *service.ResumeService
	analysis     *service.AnalysisService
	roadmap      *service.RoadmapService
	progress     *service.ProgressService
	dashboard    *service.DashboardService
	coach        *service.CoachService
}

type controllers struct {
	auth         *controller.AuthController
	test         *controller.TestController
	gamification *controller.GamificationController
	resume       *controller.ResumeController
	analysis     *controller.AnalysisController
	roadmap      *controller.RoadmapController
	progress     *controller.ProgressController
	dashboard    *controller.DashboardController
	coach        *controller.CoachController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig runs the hot-reload callbacks for a freshly loaded config.
func (a *App) ApplyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		resume:   repository.NewResumeRepository(db),
		jd:       repository.NewJobDescriptionRepository(db),
		analysis: repository.NewAnalysisRepository(db),
		result:   repository.NewTestResultRepository(db),
		progress: repository.NewProgressRepository(db),
		project:  repository.NewProjectProgressRepository(db),
		roadmap:  repository.NewRoadmapRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}
	d := a.deps

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.gamification = service.NewGamificationService(d.DB, repos.user, repos.project, d.Publisher, cfg.Gamification)
	s.test = service.NewTestService(a.generator, d.Store, repos.result, s.gamification, cfg)
	s.resume = service.NewResumeService(repos.resume, repos.jd, s.storage)
	s.analysis = service.NewAnalysisService(s.resume, repos.analysis, a.generator, s.gamification, cfg)
	s.roadmap = service.NewRoadmapService(s.analysis, repos.roadmap, a.generator, cfg.Roadmap)
	s.progress = service.NewProgressService(repos.progress, s.analysis)
	s.dashboard = service.NewDashboardService(repos.user, repos.analysis, repos.progress, repos.result, repos.project)
	s.coach = service.NewCoachService(a.generator, d.Store, cfg)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		test:         controller.NewTestController(s.test),
		gamification: controller.NewGamificationController(s.gamification),
		resume:       controller.NewResumeController(s.resume),
		analysis:     controller.NewAnalysisController(s.analysis),
		roadmap:      controller.NewRoadmapController(s.roadmap),
		progress:     controller.NewProgressController(s.progress),
		dashboard:    controller.NewDashboardController(s.dashboard),
		coach:        controller.NewCoachController(s.coach),
		health:       controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) registerHotReload() {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		logger.SetLevel(cfg.Server.Mode)
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.limiter.SetLimit(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	})
	if a.retrying != nil {
		a.RegisterConfigCallback(func(cfg *config.Config) {
			a.retrying.SetTimeout(cfg.AI.Timeout)
			if cfg.AI.Model == a.Config.AI.Model && cfg.AI.Provider == a.Config.AI.Provider {
				return
			}
			retrying, err := newGenerator(context.Background(), &cfg.AI)
			if err != nil {
				logger.Log.Error("Failed to rebuild generator, keeping the current one", zap.Error(err))
				return
			}
			a.retrying = retrying
			a.generator.Swap(retrying)
			a.Config.AI.Model = cfg.AI.Model
			a.Config.AI.Provider = cfg.AI.Provider
			logger.Log.Info("Generator switched", zap.String("provider", cfg.AI.Provider), zap.String("model", cfg.AI.Model))
		})
	}
}

// New builds the router on top of already initialised dependencies.
func New(cfg *config.Config, deps Deps) *App {
	if deps.Publisher == nil {
		deps.Publisher = events.NoopPublisher{}
	}
	if deps.Store == nil {
		deps.Store = session.NewMemoryStore(time.Minute)
	}

	app := &App{
		Config:    cfg,
		DB:        deps.DB,
		Redis:     deps.Redis,
		deps:      deps,
		generator: llm.NewSwappable(deps.Generator),
		limiter:   security.NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute),
	}
	if r, ok := deps.Generator.(*llm.RetryingGenerator); ok {
		app.retrying = r
	}

	repos := app.initRepositories(deps.DB)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, deps.DB)

	// 监控初始化
	monitoring.Init()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.registerHotReload()
	app.onShutdown(func(context.Context) error {
		app.limiter.Stop()
		return nil
	})
	app.onShutdown(func(context.Context) error { return deps.Store.Close() })
	app.onShutdown(func(context.Context) error { return deps.Publisher.Close() })

	return app
}

func (a *App) onShutdown(hook func(context.Context) error) {
	a.shutdownHooks = append(a.shutdownHooks, hook)
}

// NewApp connects to the database, redis, the message broker and the
// generative backend as configured, then builds the application.
func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// release 模式下只有显式要求才执行迁移
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	deps := Deps{DB: db}

	if cfg.Session.Store == "redis" {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		deps.Redis = rdb
		deps.Store = session.NewRedisStore(rdb, "interview_prep:")
	} else {
		deps.Store = session.NewMemoryStore(time.Minute)
	}

	if cfg.Events.Enabled {
		pub, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			// 事件是尽力而为的，broker 不可用时不阻止启动
			logger.Log.Error("Failed to connect to message broker, events disabled", zap.Error(err))
		} else {
			deps.Publisher = pub
		}
	}

	gen, err := newGenerator(context.Background(), &cfg.AI)
	if err != nil {
		logger.Log.Error("Generative backend unavailable, fallbacks will be used", zap.Error(err))
	} else {
		deps.Generator = gen
	}

	app := New(cfg, deps)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.onShutdown(tp.Shutdown)
		}
	}

	return app
}

func newGenerator(ctx context.Context, cfg *config.AIConfig) (*llm.RetryingGenerator, error) {
	var (
		next llm.Generator
		err  error
	)
	switch cfg.Provider {
	case "openai":
		next = llm.NewOpenAIGenerator(cfg.BaseURL, cfg.APIKey, cfg.Model)
	default:
		next, err = llm.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.Model)
	}
	if err != nil {
		return nil, err
	}
	return llm.NewRetryingGenerator(next, cfg.Provider, cfg.Timeout, cfg.MaxAttempts), nil
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close(ctx)

	logger.Log.Info("Server exiting")
}

// Close releases the session store, broker connection, tracer and redis.
func (a *App) Close(ctx context.Context) {
	for i := len(a.shutdownHooks) - 1; i >= 0; i-- {
		if err := a.shutdownHooks[i](ctx); err != nil {
			logger.Log.Warn("Shutdown hook failed", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
}
