package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/flashmart/order-system/orders-service/config"
)

// The relay worker polls the outbox on a fixed interval and resolves every
// pending payment request it finds. It shares the service's dependency graph
// but exposes no HTTP surface of its own.
func main() {
	cfg, err := config.ReadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Printf("Starting outbox relay in %s environment (poll every %s)\n", cfg.Env, cfg.OutboxPollInterval())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := config.BuildDependencies(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build dependencies: %v", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			log.Printf("Error closing dependencies: %v", err)
		}
	}()

	ticker := time.NewTicker(cfg.OutboxPollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Outbox relay stopped")
			return
		case <-ticker.C:
			if err := deps.OutboxRelay.Run(ctx); err != nil {
				log.Printf("Outbox relay run failed: %v", err)
			}
		}
	}
}
