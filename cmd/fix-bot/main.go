package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/ismaiel54/fix-trading-bot/internal/config"
	"github.com/ismaiel54/fix-trading-bot/internal/fix"
	"github.com/ismaiel54/fix-trading-bot/internal/journal"
	"github.com/ismaiel54/fix-trading-bot/internal/logging"
	"github.com/ismaiel54/fix-trading-bot/internal/msg"
	"github.com/ismaiel54/fix-trading-bot/internal/observability"
	"github.com/ismaiel54/fix-trading-bot/internal/session"
	"github.com/ismaiel54/fix-trading-bot/internal/strategy"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("fix-bot")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting fix-bot service",
		zap.String("symbol", cfg.Symbol),
		zap.String("md_host", cfg.MarketDataHost),
		zap.String("oe_host", cfg.OrderEntryHost),
		zap.String("order_route", cfg.OrderRoute),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("http_port", cfg.HTTPPort),
	)

	// Parse the signing key early: without it neither logon can succeed.
	key, err := fix.ParseSigningKey(cfg.PrivateKeyBase64)
	if err != nil {
		logger.Fatal("failed to parse signing key", zap.Error(err))
	}

	// Open order journal
	dbPath := filepath.Join(cfg.DataDir, "fixbot.db")
	store, err := journal.Open(dbPath)
	if err != nil {
		logger.Fatal("failed to open order journal", zap.Error(err))
	}
	defer store.Close()
	logger.Info("order journal opened", zap.String("path", dbPath))

	// Create Kafka producer when brokers are configured
	var producer *msg.Producer
	if cfg.KafkaBrokers != "" {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		producer, err = msg.NewProducer(brokers, cfg.ServiceName, logger)
		if err != nil {
			logger.Fatal("failed to create kafka producer", zap.Error(err))
		}
		defer producer.Close()
	}

	// Create health checker and gRPC server
	healthChecker := observability.NewHealthChecker(logger)

	grpcServer := grpc.NewServer()
	healthChecker.RegisterGRPC(grpcServer)

	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		logger.Fatal("failed to listen on gRPC port", zap.Error(err))
	}

	grpcErrCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr()))
		if err := grpcServer.Serve(grpcListener); err != nil {
			grpcErrCh <- err
		}
	}()

	// Start HTTP health server
	httpErrCh := make(chan error, 1)
	go func() {
		if err := healthChecker.StartHTTPServer(cfg.HTTPAddr()); err != nil && err != http.ErrServerClosed {
			httpErrCh <- err
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Shared strategy state and engine
	state := strategy.NewState(cfg.ReferencePrice)
	engine := strategy.NewEngine(state, cfg.OrderQty, logger)

	// Order entry session: opens the readiness gate and runs the demo flow
	oe := session.NewOrderEntrySession(session.OrderEntryConfig{
		TargetCompID: cfg.TargetCompID,
		Username:     cfg.APIKey,
		Key:          key,
		Symbol:       cfg.Symbol,
		DemoQty:      cfg.OrderQty,
		DemoPrice:    cfg.ReferencePrice,
		CancelDelay:  cfg.DemoCancelDelay,
		Dial:         session.TLSDialer(cfg.OrderEntryHost, cfg.EndpointPort()),
		State:        state,
		Journal:      store,
		Health:       healthChecker,
		Logger:       logger,
	})

	// Market data session: feeds the engine and carries strategy orders,
	// unless routing points them at the order entry connection.
	var orderSender session.Sender
	if cfg.OrderRoute == config.RouteOrderEntry {
		orderSender = oe
	}
	md := session.NewMarketDataSession(session.MarketDataConfig{
		TargetCompID: cfg.TargetCompID,
		Username:     cfg.APIKey,
		Key:          key,
		Symbol:       cfg.Symbol,
		Dial:         session.TLSDialer(cfg.MarketDataHost, cfg.EndpointPort()),
		OrderSender:  orderSender,
		Engine:       engine,
		Journal:      store,
		Producer:     producer,
		Health:       healthChecker,
		Logger:       logger,
	})

	// Run both sessions. A failed session terminates only itself; the
	// process exits once both have stopped.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := oe.Run(ctx); err != nil {
			logger.Error("order entry session stopped", zap.Error(err))
			return
		}
		logger.Info("order entry session ended cleanly")
	}()
	go func() {
		defer wg.Done()
		if err := md.Run(ctx); err != nil {
			logger.Error("market data session stopped", zap.Error(err))
			return
		}
		logger.Info("market data session ended cleanly")
	}()

	sessionsDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(sessionsDone)
	}()

	// Start outbox publisher loop
	publisherErrCh := make(chan error, 1)
	if producer != nil {
		publisher := journal.NewPublisher(store, producer, logger)
		go func() {
			if err := publisher.Run(ctx); err != nil {
				publisherErrCh <- err
			}
		}()
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-sessionsDone:
		logger.Info("both sessions stopped")
	case err := <-grpcErrCh:
		logger.Error("gRPC server error", zap.Error(err))
	case err := <-httpErrCh:
		logger.Error("HTTP server error", zap.Error(err))
	case err := <-publisherErrCh:
		logger.Error("publisher error", zap.Error(err))
	}

	// Graceful shutdown
	logger.Info("shutting down gracefully...")

	cancel()
	md.Close()
	oe.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := healthChecker.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down health checker", zap.Error(err))
	}

	grpcServer.GracefulStop()

	logger.Info("fix-bot service stopped")
}
