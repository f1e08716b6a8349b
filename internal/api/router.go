package api

import (
	"github.com/gin-gonic/gin"

	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/api/handler"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/api/middleware"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/config"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/logger"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/repository"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	repo *repository.BriefRepository,
	pipeline *service.PipelineService,
	synthesizer *service.SynthesizerService,
	cfg *config.Config,
	log *logger.Logger,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler(repo, synthesizer)
	briefHandler := handler.NewBriefHandler(repo, pipeline)

	// Health and dependency status
	r.GET("/health", healthHandler.Health)
	r.GET("/status", healthHandler.Status)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.POST("/briefs", briefHandler.Submit)
		v1.GET("/briefs", briefHandler.ListBriefs)
		v1.GET("/briefs/:id", briefHandler.GetBrief)
	}

	return r
}
