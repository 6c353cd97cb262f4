package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/GOG-777/course-registration-api/internal/handler"
	"github.com/GOG-777/course-registration-api/internal/middleware"
	"github.com/GOG-777/course-registration-api/internal/models"
	"github.com/GOG-777/course-registration-api/internal/repository"
	"github.com/GOG-777/course-registration-api/internal/service"
	"github.com/GOG-777/course-registration-api/pkg/config"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthService       *service.AuthService
	MetricsService    *service.MetricsService
	UserRepository    *repository.UserRepository
	AuthHandler       *handler.AuthHandler
	CourseHandler     *handler.CourseHandler
	EnrollmentHandler *handler.EnrollmentHandler
	ResultHandler     *handler.ResultHandler
	MetricsHandler    *handler.MetricsHandler
}

// Register wires the HTTP routes into the gin engine.
func Register(r *gin.Engine, cfg *config.Config, deps Dependencies) {
	if deps.MetricsService != nil {
		r.Use(middleware.Metrics(deps.MetricsService))
	}

	if deps.MetricsHandler != nil {
		r.GET("/health", deps.MetricsHandler.Health)
		r.GET("/ready", deps.MetricsHandler.Ready)
		r.GET("/metrics", deps.MetricsHandler.Prometheus)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authRequired := middleware.JWT(deps.AuthService)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.POST("/register", deps.AuthHandler.Register)
		auth.POST("/login", deps.AuthHandler.Login)
		auth.POST("/refresh", deps.AuthHandler.Refresh)
		auth.POST("/logout", authRequired, deps.AuthHandler.Logout)
		auth.GET("/profile", authRequired, deps.AuthHandler.Profile)
	}

	if deps.CourseHandler != nil {
		courses := api.Group("/courses")
		courses.GET("", deps.CourseHandler.List)
		courses.GET("/level/:level/semester/:semester", deps.CourseHandler.ListByLevelSemester)
		courses.GET("/:id", deps.CourseHandler.Get)

		admin := courses.Group("", authRequired, adminOnly)
		admin.POST("", middleware.Audit(deps.UserRepository, models.AuditActionCourseCreate, "course"), deps.CourseHandler.Create)
		admin.PUT("/:id", middleware.Audit(deps.UserRepository, models.AuditActionCourseUpdate, "course"), deps.CourseHandler.Update)
		admin.DELETE("/:id", middleware.Audit(deps.UserRepository, models.AuditActionCourseDelete, "course"), deps.CourseHandler.Delete)
	}

	if deps.EnrollmentHandler != nil {
		enrollments := api.Group("/enrollments", authRequired)
		enrollments.POST("/enroll", deps.EnrollmentHandler.Enroll)
		enrollments.GET("/my-courses", deps.EnrollmentHandler.MyCourses)
		enrollments.PUT("/drop/:courseId", deps.EnrollmentHandler.Drop)

		enrollments.GET("", adminOnly, deps.EnrollmentHandler.Ledger)
		enrollments.GET("/course/:courseId", adminOnly, deps.EnrollmentHandler.CourseRoster)
		enrollments.GET("/export", adminOnly, deps.EnrollmentHandler.Export)
	}

	if deps.ResultHandler != nil {
		results := api.Group("/results", authRequired)
		results.POST("/compute", deps.ResultHandler.Compute)
		results.GET("/scores", deps.ResultHandler.GetScores)
		results.PUT("/scores", deps.ResultHandler.SaveScores)
		results.DELETE("/scores", deps.ResultHandler.ClearScores)
	}
}
