package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/rl1809/order-fulfillment/internal/adapter/queue"
	"github.com/rl1809/order-fulfillment/internal/config"
)

// The scheduler moves parked tasks from the delay topics back onto the
// processing topic once their delay has elapsed. One polling loop per tier.
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for _, tier := range queue.DelayTiers() {
		scheduler := queue.NewScheduler(cfg.KafkaBrokers, tier, "delay-scheduler-"+tier.Topic, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.Run(ctx, cfg.PollInterval)
		}()
	}
	logger.Info("all delay schedulers running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	wg.Wait()
	logger.Info("schedulers stopped")
}
