package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/warehouse-grant/internal/adapter/handler"
	"github.com/rl1809/warehouse-grant/internal/adapter/handler/rpc"
	"github.com/rl1809/warehouse-grant/internal/adapter/storage"
	"github.com/rl1809/warehouse-grant/internal/config"
	"github.com/rl1809/warehouse-grant/internal/core/service"
	"github.com/rl1809/warehouse-grant/internal/logging"
	"github.com/rl1809/warehouse-grant/internal/port"
	"github.com/rl1809/warehouse-grant/internal/telemetry"
)

const serviceName = "warehouse-grant"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer shutdownTracing(context.Background())

	// Initialize MySQL
	gameDB, err := openMySQL(ctx, cfg, cfg.GameDSN)
	if err != nil {
		return fmt.Errorf("game db: %w", err)
	}
	defer gameDB.Close()

	warehouseDB, err := openMySQL(ctx, cfg, cfg.WarehouseDSN)
	if err != nil {
		return fmt.Errorf("warehouse db: %w", err)
	}
	defer warehouseDB.Close()

	itemsDB, err := openMySQL(ctx, cfg, cfg.ItemsDSN)
	if err != nil {
		return fmt.Errorf("items db: %w", err)
	}
	defer itemsDB.Close()
	logger.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: cfg.RedisPoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	journal, err := storage.OpenSQLiteJournal(ctx, cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()
	logger.Info("opened grant journal", zap.String("path", cfg.JournalPath))

	// Initialize adapters
	redisAdapter := storage.NewRedisAdapter(rdb)
	warehouse := storage.NewMySQLWarehouse(warehouseDB)

	var slots port.SlotSequence = service.NewSlotRotator()
	if strings.EqualFold(cfg.SlotBackend, config.SlotBackendRedis) {
		slots = redisAdapter
	}
	logger.Info("slot backend selected", zap.String("backend", cfg.SlotBackend))

	grantService := service.NewGrantService(service.Dependencies{
		Directory: storage.NewMySQLDirectory(gameDB),
		Warehouse: warehouse,
		Goods:     warehouse,
		Items:     warehouse,
		Slots:     slots,
		Cache:     redisAdapter,
		Journal:   journal,
		Catalog:   storage.NewMySQLCatalog(itemsDB),
		Logger:    logger,
	}, service.Options{
		GoodsNumber:          cfg.GoodsNumber,
		AllocationMaxTries:   cfg.AllocationMaxTries,
		AllocationBackoff:    cfg.AllocationBackoff,
		RegistrationAttempts: cfg.RegistrationAttempts,
		RepairQueueSize:      cfg.RepairQueueSize,
	})

	// Start repair workers
	var wg sync.WaitGroup
	for i := 0; i < cfg.RepairWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			repairLoop(id, grantService, cfg.RequestTimeout, logger)
		}(i)
	}
	logger.Info("started repair workers", zap.Int("count", cfg.RepairWorkers))

	sweepCtx, stopSweep := context.WithCancel(ctx)
	var sweepWG sync.WaitGroup
	sweepWG.Add(1)
	go func() {
		defer sweepWG.Done()
		sweepLoop(sweepCtx, grantService, cfg.RepairInterval, cfg.RepairBatch, logger)
	}()

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	rpc.RegisterWarehouseServiceServer(grpcServer, handler.NewGRPCHandler(grantService, logger))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	mux := http.NewServeMux()
	handler.NewHTTPHandler(grantService, logger).Routes(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: http.TimeoutHandler(mux, cfg.RequestTimeout, "request timed out"),
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Stop the sweeper before closing the queue it feeds.
	stopSweep()
	sweepWG.Wait()
	grantService.Close()
	wg.Wait()
	logger.Info("repair workers stopped")

	return nil
}

func openMySQL(ctx context.Context, cfg config.Config, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func repairLoop(id int, svc *service.GrantService, timeout time.Duration, logger *zap.Logger) {
	for task := range svc.GetRepairQueue() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)

		if err := svc.Repair(ctx, task); err != nil {
			logger.Warn("repair failed",
				zap.Int("worker", id),
				zap.Int64("goods_id", task.GoodsID),
				zap.Stringer("entry_id", task.EntryID))
			logger.Debug("repair failure detail", zap.Error(err))
		}

		cancel()
	}
}

func sweepLoop(ctx context.Context, svc *service.GrantService, interval time.Duration, batch int, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweep := func() {
		n, err := svc.SweepJournal(ctx, time.Now().Add(-interval), batch)
		if err != nil {
			logger.Warn("journal sweep failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("requeued journal entries", zap.Int("count", n))
		}
	}

	sweep()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
