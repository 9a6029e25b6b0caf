package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/datapass/datapass/internal/api/v1"
	"github.com/datapass/datapass/internal/config"
	"github.com/datapass/datapass/internal/logger"
	"github.com/datapass/datapass/internal/rest/middleware"
)

// NewRouter assembles the HTTP surface for the entitlement API.
func NewRouter(
	cfg *config.Configuration,
	log *logger.Logger,
	entitlementHandler *v1.EntitlementHandler,
) *gin.Engine {
	if cfg.Deployment.Mode == config.ModeProd {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ContextMiddleware())
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.ErrorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	group := router.Group("/v1")
	{
		group.POST("/subscriptions", entitlementHandler.Subscribe)
		group.GET("/subscriptions/:id", entitlementHandler.GetSubscription)
		group.POST("/subscriptions/:id/extend", entitlementHandler.ExtendSubscription)
		group.POST("/subscriptions/:id/consumers", entitlementHandler.AddConsumers)
		group.DELETE("/subscriptions/:id/consumers", entitlementHandler.RemoveConsumers)
		group.PUT("/subscriptions/:id/consumers", entitlementHandler.ReplaceConsumers)
		group.GET("/subscriptions/:id/quotes/consumers", entitlementHandler.QuoteExtraConsumerFee)
		group.GET("/quotes/subscription", entitlementHandler.QuoteSubscriptionFee)
		group.GET("/access", entitlementHandler.CheckAccess)
	}

	return router
}
