package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mini-drive/backend/internal/config"
	"github.com/mini-drive/backend/internal/model"
	"github.com/mini-drive/backend/internal/service"
)

type RouterDeps struct {
	Log     *zap.Logger
	Auth    *service.AuthService
	Users   *service.UserService
	Files   *service.FileService
	HTTP    config.HTTPConfig
	Storage config.StorageConfig
}

// NewRouter assembles the engine. The public allow-list is exactly what is
// mounted outside the auth group: health, root, metrics, the OpenAPI doc,
// register and login.
func NewRouter(d RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		RequestID(),
		ginzap.Ginzap(d.Log, time.RFC3339, true),
		ginzap.RecoveryWithZap(d.Log, true),
		RateLimit(d.HTTP.RateLimitRPS, d.HTTP.RateLimitBurst),
		MaxInFlight(d.HTTP.MaxInFlight),
		Metrics(),
	)
	if len(d.HTTP.AllowedOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = d.HTTP.AllowedOrigins
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
		r.Use(cors.New(corsCfg))
	}

	r.GET("/", Root)
	r.GET("/healthz", Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/openapi.json", OpenAPIDoc)

	authH := NewAuthHandler(d.Auth, d.Users, d.Log)
	userH := NewUserHandler(d.Users, d.Log)
	fileH := NewFileHandler(d.Files, d.Log)

	api := r.Group("/api/v1")
	api.POST("/auth/register", authH.Register)
	api.POST("/auth/login", authH.Login)

	protected := api.Group("", AuthMiddleware(d.Auth))
	protected.GET("/auth/me", authH.Me)
	protected.PUT("/auth/password", authH.ChangePassword)

	files := protected.Group("/files")
	files.POST("", MaxBodyBytes(d.Storage.MaxUploadBytes), fileH.Upload)
	files.GET("", fileH.List)
	files.GET("/archive", fileH.Archive)
	files.GET("/:id", fileH.Get)
	files.GET("/:id/content", fileH.Download)
	files.PUT("/:id", fileH.Rename)
	files.DELETE("/:id", fileH.Delete)

	users := protected.Group("/users", RequireRole(model.RoleAdmin))
	users.GET("", userH.List)
	users.DELETE("/:id", userH.Disable)

	return r
}
