package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	_ "github.com/GOG-777/course-registration-api/api/swagger"
	"github.com/GOG-777/course-registration-api/internal/handler"
	"github.com/GOG-777/course-registration-api/internal/repository"
	"github.com/GOG-777/course-registration-api/internal/router"
	"github.com/GOG-777/course-registration-api/internal/service"
	"github.com/GOG-777/course-registration-api/pkg/cache"
	"github.com/GOG-777/course-registration-api/pkg/config"
	"github.com/GOG-777/course-registration-api/pkg/database"
	"github.com/GOG-777/course-registration-api/pkg/logger"
	corsmiddleware "github.com/GOG-777/course-registration-api/pkg/middleware/cors"
	reqidmiddleware "github.com/GOG-777/course-registration-api/pkg/middleware/requestid"
)

// @title Course Registration API
// @version 1.0.0
// @description Student course registration, enrollment ledger and GPA service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsService := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "course-registration-api",
	})
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Catalog.CacheTTL, logr,
		cfg.Catalog.CacheEnabled && redisClient != nil)
	courseService := service.NewCourseService(courseRepo, cacheService, validate, logr)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, metricsService, validate, logr)
	resultService := service.NewResultService(courseRepo, cacheRepo, cfg.Scores.TTL, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	router.Register(r, cfg, router.Dependencies{
		AuthService:       authService,
		MetricsService:    metricsService,
		UserRepository:    userRepo,
		AuthHandler:       handler.NewAuthHandler(authService),
		CourseHandler:     handler.NewCourseHandler(courseService),
		EnrollmentHandler: handler.NewEnrollmentHandler(enrollmentService),
		ResultHandler:     handler.NewResultHandler(resultService),
		MetricsHandler:    handler.NewMetricsHandler(metricsService, db),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
