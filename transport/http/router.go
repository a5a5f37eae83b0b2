package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/layer-3/nftgate/service"
)

// MetricsRecorder observes requests and exposes the collected metrics
type MetricsRecorder interface {
	RequestObserver
	Handler() http.Handler
}

// Dependencies are the services the router dispatches to
type Dependencies struct {
	Auth     *service.AuthService
	Search   *service.SearchService
	Payments *service.PaymentService
	Limiter  *service.RateLimiter
	Metrics  MetricsRecorder // Optional
	Log      logrus.FieldLogger
}

// SetupRouter sets up the Gin router
func SetupRouter(deps Dependencies) *gin.Engine {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}

	router := gin.New()

	var observer RequestObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}
	router.Use(RequestLogger(deps.Log, observer), Recovery(deps.Log))

	handlers := NewHandlers(deps)

	router.GET("/healthz", handlers.Health)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := router.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	{
		auth.POST("/nft-auth", handlers.Login)
		auth.POST("/verify-nft", handlers.VerifyNFT)
	}

	// NFT-gated, metered routes
	api.POST("/search",
		SearchAvailable(deps.Search),
		AuthMiddleware(deps.Auth, true),
		RateLimitMiddleware(deps.Limiter),
		handlers.Search,
	)
	api.GET("/session", AuthMiddleware(deps.Auth, false), handlers.Session)

	// Payment-gated routes carry no session and no quota
	api.POST("/payments/x402/verify", handlers.PaidSearch)

	return router
}
