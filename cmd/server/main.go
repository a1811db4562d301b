package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/order-fulfillment/internal/adapter/event"
	"github.com/rl1809/order-fulfillment/internal/adapter/handler"
	"github.com/rl1809/order-fulfillment/internal/adapter/queue"
	"github.com/rl1809/order-fulfillment/internal/adapter/storage"
	"github.com/rl1809/order-fulfillment/internal/config"
	"github.com/rl1809/order-fulfillment/internal/core/service"
	"github.com/rl1809/order-fulfillment/internal/core/shard"
	"github.com/rl1809/order-fulfillment/internal/migrate"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	logger.Info("connected to mysql")

	if err := migrate.Up(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	logger.Info("connected to redis")

	// Adapters
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisLock := storage.NewRedisLock(rdb)
	taskQueue := queue.NewTaskQueue(cfg.KafkaBrokers, cfg.TaskTopic)
	publisher := event.NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventsTopic)

	// Core services
	router := shard.NewRouter(cfg.ShardCount)
	orderService := service.NewOrderService(mysqlAdapter, mysqlAdapter, taskQueue, publisher, router, logger)
	processor := service.NewOrderProcessor(redisLock, mysqlAdapter, publisher, cfg.LockTTL, logger)

	// Worker pool: independent consumers in one group share the task topic.
	var wg sync.WaitGroup
	consumers := make([]*queue.Consumer, cfg.WorkerCount)
	for i := 0; i < cfg.WorkerCount; i++ {
		consumer := queue.NewConsumer(cfg.KafkaBrokers, cfg.TaskTopic, cfg.GroupID, processor, taskQueue, logger)
		consumers[i] = consumer
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Run(ctx)
		}()
	}
	logger.Info("started workers", zap.Int("count", cfg.WorkerCount))

	// HTTP server
	httpHandler := handler.NewHTTPHandler(orderService, logger)
	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: httpHandler.Routes(),
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	cancel()
	wg.Wait()
	for _, c := range consumers {
		c.Close()
	}
	logger.Info("workers stopped")

	taskQueue.Close()
	publisher.Close()
	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}
