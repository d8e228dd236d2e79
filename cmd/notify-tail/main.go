// Command main prints every notification published to user channels.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"chirp/internal/cache"
	"chirp/internal/config"
	"chirp/internal/notifications"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rdb := cache.InitRedis(cfg.RedisURL)
	if rdb == nil {
		log.Fatal("redis is required to tail notifications")
	}
	defer func() { _ = rdb.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = notifications.NewNotifier(rdb).StartPatternSubscriber(ctx, func(channel, payload string) {
		log.Printf("%s %s", channel, payload)
	})
	if err != nil {
		log.Fatalf("Subscribe failed: %v", err)
	}
	log.Println("listening for notifications, ctrl-c to stop")
	<-ctx.Done()
}
