package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quest_edu_backend/internal/config"
	"quest_edu_backend/internal/controller"
	"quest_edu_backend/internal/repository"
	"quest_edu_backend/internal/service"
	"quest_edu_backend/pkg/database"
	"quest_edu_backend/pkg/logger"
	"quest_edu_backend/pkg/monitoring"
	"quest_edu_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user    *repository.UserRepository
	event   *repository.EventRepository
	summary *repository.SummaryRepository
	mission *repository.MissionRepository
}

type services struct {
	auth          *service.AuthService
	badge         *service.BadgeService
	aggregator    *service.AggregatorService
	ledger        *service.LedgerService
	progress      *service.ProgressService
	classroomSync *service.ClassroomSyncService
}

type controllers struct {
	auth     *controller.AuthController
	quest    *controller.QuestController
	progress *controller.ProgressController
	health   *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:    repository.NewUserRepository(db),
		event:   repository.NewEventRepository(db),
		summary: repository.NewSummaryRepository(db),
		mission: repository.NewMissionRepository(db),
	}
}

// initServices 显式依赖注入：账本、聚合器、读路径各自拿到构造时传入的
// 存储句柄，全程不触碰进程级单例。
func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.badge = service.NewBadgeService()
	s.aggregator = service.NewAggregatorService(repos.event, repos.summary, repos.mission, s.badge)
	s.ledger = service.NewLedgerService(repos.event, repos.user, s.aggregator, db, rdb)
	s.progress = service.NewProgressService(
		repos.summary,
		repos.event,
		repos.user,
		s.aggregator,
		rdb,
		time.Duration(cfg.Ledger.SummaryCacheSeconds)*time.Second,
	)
	s.classroomSync = service.NewClassroomSyncService(cfg.Classroom, s.ledger, repos.user)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		quest:    controller.NewQuestController(s.ledger),
		progress: controller.NewProgressController(s.progress, s.aggregator),
		health:   controller.NewHealthController(db),
	}
}

// startBackgroundTasks 课堂同步轮询 + 概要对账
func (a *App) startBackgroundTasks(s *services, cfg *config.Config) {
	if s.classroomSync.Enabled() {
		go func() {
			ticker := time.NewTicker(time.Duration(cfg.Classroom.PollSeconds) * time.Second)
			for range ticker.C {
				if err := s.classroomSync.SyncOnce(context.Background()); err != nil {
					logger.Log.Error("classroom sync error", zap.Error(err))
				}
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Ledger.ReconcileMinutes) * time.Minute)
		for range ticker.C {
			if err := s.aggregator.ReconcileAll(time.Now()); err != nil {
				logger.Log.Error("summary reconcile error", zap.Error(err))
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("quest-ledger", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, cfg)

	app.startBackgroundTasks(services, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
