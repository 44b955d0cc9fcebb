package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/handler"
	"github.com/noah-isme/institute-api/internal/middleware"
	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/internal/service"
	"github.com/noah-isme/institute-api/pkg/config"
	"github.com/noah-isme/institute-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/institute-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/institute-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Courses     *handler.CourseHandler
	Inquiries   *handler.InquiryHandler
	Enrollments *handler.EnrollmentHandler
	Payments    *handler.PaymentHandler
	Settings    *handler.SettingHandler
	Dashboard   *handler.DashboardHandler
	Reports     *handler.ReportHandler
	System      *handler.SystemHandler
}

// New builds the gin engine. Everything except auth, probes and signed downloads sits behind
// the site gate; dashboard, reports and settings additionally need the admin password.
func New(cfg *config.Config, log *zap.Logger, sessions *service.SessionService, metrics *service.MetricsService, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.System.Health)
	r.GET("/ready", h.System.Ready)
	r.GET("/metrics", h.System.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/site", h.Auth.SiteLogin)
	auth.POST("/admin", h.Auth.AdminLogin)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/session", h.Auth.Session)

	api.GET("/export/:token", h.Reports.DownloadExport)

	site := api.Group("")
	site.Use(middleware.RequireSession(sessions, cfg.APIPrefix+"/auth/site", models.SessionScopeSite))

	site.GET("/courses", h.Courses.List)
	site.GET("/courses/:id", h.Courses.Get)

	site.GET("/inquiries", h.Inquiries.List)
	site.POST("/inquiries", h.Inquiries.Create)
	site.GET("/inquiries/:id", h.Inquiries.Get)
	site.PATCH("/inquiries/:id", h.Inquiries.Update)
	site.PATCH("/inquiries/:id/status", h.Inquiries.UpdateStatus)
	site.DELETE("/inquiries/:id", h.Inquiries.Delete)
	site.POST("/inquiries/:id/enroll", h.Enrollments.Convert)

	site.GET("/enrollments", h.Enrollments.List)
	site.GET("/enrollments/:id", h.Enrollments.Get)
	site.GET("/enrollments/:id/payments", h.Payments.List)
	site.POST("/enrollments/:id/payments", h.Payments.Record)

	admin := api.Group("")
	admin.Use(middleware.RequireSession(sessions, cfg.APIPrefix+"/auth/admin", models.SessionScopeAdmin))

	admin.POST("/courses", h.Courses.Create)
	admin.PUT("/courses/:id", h.Courses.Update)
	admin.DELETE("/courses/:id", h.Courses.Delete)

	admin.GET("/dashboard", h.Dashboard.Summary)

	admin.POST("/reports/exports", h.Reports.CreateExport)
	admin.GET("/reports/exports/:id", h.Reports.ExportStatus)
	admin.GET("/reports/:type", h.Reports.Download)

	admin.GET("/settings", h.Settings.List)
	admin.GET("/settings/:key", h.Settings.Get)
	admin.PUT("/settings/:key", h.Settings.Upsert)
	admin.DELETE("/settings/:key", h.Settings.Delete)

	admin.GET("/admin/system/metrics", h.System.Snapshot)

	return r
}
