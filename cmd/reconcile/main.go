// Command main runs one like reconciliation sweep and prints the report.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"chirp/internal/bootstrap"
	"chirp/internal/config"
	"chirp/internal/service"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "Upper bound for the sweep")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipPostgres: true, SkipStorage: true})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer rt.Close(context.Background())

	report, err := service.NewLikeReconciler(rt.Posts, rt.Users).Run(ctx)
	if err != nil {
		log.Fatalf("Reconciliation failed: %v", err)
	}

	log.Printf("posts=%d users=%d mirror_added=%d mirror_removed=%d likes_pruned=%d",
		report.PostsScanned, report.UsersScanned, report.MirrorAdded, report.MirrorRemoved, report.LikesPruned)
	if report.Repairs() == 0 {
		log.Println("likes and liked posts already agree")
	}
}
