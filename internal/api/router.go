package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/footwatch/internal/api/handlers"
	"github.com/your-org/footwatch/internal/api/ws"
	"github.com/your-org/footwatch/internal/auth"
)

type RouterConfig struct {
	APIKey  string
	DB      handlers.Store
	Blob    handlers.Blob
	Matcher handlers.Matcher
	// Scanner runs admin-triggered scans in the request. Nil leaves them to
	// the worker.
	Scanner handlers.Scanner
	Control handlers.ControlPublisher
	Hub     *ws.Hub

	DBPing   handlers.ContextPinger
	BlobPing handlers.ContextPinger
	NATSPing handlers.NATSPinger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DBPing, cfg.BlobPing, cfg.NATSPing)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Cases
	caseH := handlers.NewCaseHandler(cfg.DB, cfg.Matcher, cfg.Scanner, cfg.Control)
	v1.POST("/cases/:id/match", caseH.Match)
	v1.GET("/cases/:id/nearby-footage", caseH.NearbyFootage)
	v1.GET("/cases/:id/analysis", caseH.Analysis)
	v1.POST("/cases/:id/footage/:footageId/assign", caseH.Assign)

	// Footage
	footageH := handlers.NewFootageHandler(cfg.Matcher, cfg.Control)
	v1.POST("/footage/:id/match", footageH.Match)

	// Matches
	matchH := handlers.NewMatchHandler(cfg.DB, cfg.Blob, cfg.Scanner, cfg.Control)
	v1.GET("/matches", matchH.List)
	v1.GET("/matches/stats", matchH.Stats)
	v1.POST("/matches/run-pending", matchH.RunPending)
	v1.GET("/matches/:id", matchH.Get)
	v1.POST("/matches/:id/reprocess", matchH.Reprocess)
	v1.DELETE("/matches/:id", matchH.Delete)

	// Detections
	detH := handlers.NewDetectionHandler(cfg.DB, cfg.Blob)
	v1.GET("/detections/:id/crop", detH.Crop)

	return r
}
