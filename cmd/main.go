package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/auctionforge/engine/internal/auction/application"
	authttp "github.com/auctionforge/engine/internal/auction/infra/http"
	"github.com/auctionforge/engine/internal/auction/infra/repository/postgres"
	aucws "github.com/auctionforge/engine/internal/auction/infra/websocket"
	"github.com/auctionforge/engine/internal/auction/scheduler"
	"github.com/auctionforge/engine/internal/broadcast"
	"github.com/auctionforge/engine/internal/identity"
	"github.com/auctionforge/engine/internal/shared/config"
	"github.com/auctionforge/engine/internal/shared/db"
	"github.com/auctionforge/engine/internal/shared/db/migrations"
	"github.com/auctionforge/engine/internal/shared/httpserver"
	"github.com/auctionforge/engine/internal/shared/lock"
	"github.com/auctionforge/engine/internal/shared/logger"
	ws "github.com/auctionforge/engine/internal/shared/websocket"
)

func main() {
	log := logger.GetLogger()
	defer logger.Sync()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := migrations.RunMigrations(); err != nil {
		log.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := db.GetPostgresDBPool(ctx)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	// Repositories and transaction runner.
	txRunner := db.NewPoolTxRunner(pool)
	auctionRepo := postgres.NewAuctionRepositoryPostgres(pool)
	bidRepo := postgres.NewBidRepositoryPostgres(pool)
	mandateRepo := postgres.NewMandateRepositoryPostgres(pool)
	dutchRepo := postgres.NewDutchStateRepositoryPostgres(pool)

	// Broadcast pipeline: hub for WebSocket fan-out, NATS mirror if configured.
	hub := ws.NewHub()
	go hub.Run(ctx)

	sinks := []broadcast.Sink{broadcast.NewHubSink(hub)}
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("auction-engine"))
		if err != nil {
			log.Fatal("nats connection failed", zap.Error(err))
		}
		defer nc.Close()
		sinks = append(sinks, broadcast.NewNATSSink(nc))
		log.Info("nats event sink enabled", zap.String("url", cfg.NATSURL))
	}
	coordinator := broadcast.NewCoordinator(sinks...)
	go coordinator.Run(ctx)

	// Per-auction critical sections shared by bids, buys and decay ticks.
	locks := lock.NewKeyed()
	guard := application.NewAuctionGuard(locks, cfg.LockWait, cfg.LockRetries, cfg.LockBackoff)

	dutchScheduler := scheduler.New(auctionRepo, dutchRepo, locks, coordinator, cfg.LockWait)
	defer dutchScheduler.Shutdown()

	resolver := application.NewAutoBidResolver(bidRepo, auctionRepo, mandateRepo, txRunner, coordinator)
	service := application.NewAuctionService(
		application.NewCreateAuctionUseCase(auctionRepo, dutchRepo, txRunner, dutchScheduler),
		application.NewListAuctionsUseCase(auctionRepo, dutchRepo),
		application.NewSubmitBidUseCase(auctionRepo, bidRepo, txRunner, guard, resolver, coordinator, cfg.MinBidFloor),
		application.NewMandateUseCase(auctionRepo, mandateRepo, cfg.MinMandateIncrement),
		application.NewBuyDutchUseCase(auctionRepo, dutchRepo, guard, coordinator, dutchScheduler),
		application.NewSettlementUseCase(auctionRepo, bidRepo, dutchRepo),
	)

	// Resume price-decay timers for Dutch auctions that survived a restart.
	if err := dutchScheduler.Rehydrate(ctx); err != nil {
		log.Fatal("scheduler rehydration failed", zap.Error(err))
	}

	provider := identity.NewPostgresProvider(pool)

	server := httpserver.New()
	api := server.App().Group("/", identity.AuthMiddleware(provider))
	authttp.NewAuctionHandler(service).RegisterRoutes(api)

	messageHandler := aucws.NewMessageHandler(hub, service)
	go messageHandler.Run(ctx)
	messageHandler.RegisterRoutes(ctx, api)

	go func() {
		if err := server.Listen(cfg.HTTPAddr); err != nil {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	if err := server.Shutdown(); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
}
