package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"teachassist/internal/bootstrap"
	"teachassist/internal/transport/http/handler"
	"teachassist/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	if app.TracingEnabled {
		router.Use(otelgin.Middleware(app.Config.App.Name))
	}
	if len(app.Config.App.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     app.Config.App.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	// Multipart bodies above this spill to temp files.
	router.MaxMultipartMemory = 32 << 20

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	svc := app.Services
	maxUpload := int64(app.Config.Storage.MaxUploadMB) << 20
	authHandler := handler.NewAuthHandler(svc.Auth)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)
	authGroup.PATCH("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.UpdateMe)

	protected := v1.Group("")
	protected.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	handler.NewCatalogHandler(svc.Catalog, maxUpload).Register(protected)
	handler.NewArtifactHandler(svc.Artifacts).Register(protected)
	handler.NewLectureHandler(svc.Lectures, svc.Transcription, maxUpload).Register(protected)
	handler.NewPresentationHandler(svc.Presentations).Register(protected)

	return router
}
