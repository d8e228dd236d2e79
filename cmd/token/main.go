// Command main issues a bearer token for an existing user. Login lives in a
// separate service; this is for local development and smoke tests.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"chirp/internal/bootstrap"
	"chirp/internal/config"
	"chirp/internal/middleware"
)

func main() {
	username := flag.String("user", "", "Username to issue the token for")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if *username == "" {
		log.Fatal("usage: go run ./cmd/token -user <username> [-ttl 24h]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipPostgres: true, SkipStorage: true})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer rt.Close(ctx)

	user, err := rt.Users.GetByUsername(ctx, *username)
	if err != nil {
		log.Fatalf("Lookup failed: %v", err)
	}

	token, err := middleware.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer).IssueToken(user.ID, *ttl)
	if err != nil {
		log.Fatalf("Issue token failed: %v", err)
	}
	fmt.Println(token)
}
