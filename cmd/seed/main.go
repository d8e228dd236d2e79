// Command main seeds the aggregate store with demo users, posts, comments
// and likes.
package main

import (
	"context"
	"flag"
	"log"

	"chirp/internal/bootstrap"
	"chirp/internal/config"
	"chirp/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	maxComments := flag.Int("comments", 4, "Maximum comments per post")
	likePercent := flag.Int("likes", 15, "Chance in percent that a user likes a post")
	followPercent := flag.Int("follows", 20, "Chance in percent that a user follows an earlier user")
	randSeed := flag.Int64("seed", 0, "Random seed, 0 for a random one")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	// Load configuration
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

	if *shouldClean {
		if err := seed.ClearAll(ctx, rt.MongoDB); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	f, err := seed.NewFactory(rt.Users, rt.Posts, *randSeed)
	if err != nil {
		log.Fatalf("Factory setup failed: %v", err)
	}

	summary, err := seed.Run(ctx, f, seed.Options{
		NumUsers:      *numUsers,
		NumPosts:      *numPosts,
		MaxComments:   *maxComments,
		LikePercent:   *likePercent,
		FollowPercent: *followPercent,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d comments, %d likes", summary.Users, summary.Posts, summary.Comments, summary.Likes)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
