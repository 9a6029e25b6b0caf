package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	v1 "github.com/datapass/datapass/internal/api/v1"
	"github.com/datapass/datapass/internal/config"
	"github.com/datapass/datapass/internal/domain/payment"
	"github.com/datapass/datapass/internal/domain/pricing"
	"github.com/datapass/datapass/internal/integration/treasury"
	"github.com/datapass/datapass/internal/logger"
	"github.com/datapass/datapass/internal/repository"
	"github.com/datapass/datapass/internal/rest"
	"github.com/datapass/datapass/internal/service"
	"github.com/datapass/datapass/internal/webhook"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			webhook.NewPubSub,
			webhook.NewPublisher,
			webhook.NewDispatcher,
			repository.NewRepositories,
			newFeePolicy,
			newChargingPort,
			newServiceParams,
			service.NewEntitlementService,
			v1.NewEntitlementHandler,
			rest.NewRouter,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

func newFeePolicy(cfg *config.Configuration) (pricing.Policy, error) {
	return pricing.NewLinearPolicy(cfg)
}

func newChargingPort(cfg *config.Configuration, log *logger.Logger) (payment.ChargingPort, error) {
	return treasury.NewChargingPort(cfg, log)
}

func newServiceParams(
	cfg *config.Configuration,
	log *logger.Logger,
	repos *repository.Repositories,
	policy pricing.Policy,
	charger payment.ChargingPort,
	publisher webhook.Publisher,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:         log,
		Config:         cfg,
		SubRepo:        repos.Subscription,
		ConsumerRepo:   repos.ConsumerIndex,
		Registry:       repos.Registry,
		FeePolicy:      policy,
		ChargingPort:   charger,
		EventPublisher: publisher,
	}
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	log *logger.Logger,
	router *gin.Engine,
	publisher webhook.Publisher,
	dispatcher *webhook.Dispatcher,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting server",
				"address", cfg.Server.Address,
				"resource_id", cfg.Subscription.ResourceID,
				"store", cfg.Subscription.Store,
			)
			if cfg.Webhook.Enabled {
				if err := dispatcher.Start(context.Background()); err != nil {
					return err
				}
			}
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalw("server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("shutting down server")
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			return publisher.Close()
		},
	})
}
