package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/events"
	"storefront/internal/httpserver"
	"storefront/internal/payments"
	"storefront/internal/redisx"
	cartrepo "storefront/internal/repository/cart"
	ledgerrepo "storefront/internal/repository/ledger"
	orderrepo "storefront/internal/repository/order"
	paymentrepo "storefront/internal/repository/payment"
	productrepo "storefront/internal/repository/product"
	cartsvc "storefront/internal/service/cart"
	catalogsvc "storefront/internal/service/catalog"
	ordersvc "storefront/internal/service/order"
	sweepersvc "storefront/internal/service/sweeper"
	"storefront/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // optional .env for local development
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	cache := redisx.NewCache(rdb)

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.SettledTopic, logger)
	producer.Start(ctx)

	st := store.New(dbpool, logger)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool, logger)
	ledgerRepo := ledgerrepo.NewPostgres(logger)
	orderRepo := orderrepo.NewPostgres(logger)
	paymentRepo := paymentrepo.NewPostgres(logger)

	catalogService := catalogsvc.New(productRepo)
	cartService := cartsvc.New(cartRepo, productRepo)
	orderService := ordersvc.New(ordersvc.Deps{
		Store:     st,
		Orders:    orderRepo,
		Carts:     cartRepo,
		Ledger:    ledgerRepo,
		Payments:  paymentRepo,
		Gateway:   payments.NewMock(cfg.PaymentSuccessRate),
		Publisher: producer,
		Cache:     cache,
		Logger:    logger,
	}, cfg.PaymentWindow)

	sweeper := sweepersvc.New(st, orderRepo, ledgerRepo, cache, cache, logger)
	go sweeper.Run(ctx, cfg.SweepInterval)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CatalogSvc: catalogService,
		CartSvc:    cartService,
		OrderSvc:   orderService,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}

	// Stop the sweeper and flush pending events before exiting.
	cancel()
	producer.WaitClosed()
}
