package seed

import (
	"context"
	"fmt"
	"log/slog"

	"chirp/internal/database"
	"chirp/internal/middleware"
	"chirp/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Options configuration for the seeder
type Options struct {
	NumUsers int
	NumPosts int
	// MaxComments bounds the comments added to each post.
	MaxComments int
	// LikePercent is the chance, 0 to 100, that a given user likes a given post.
	LikePercent int
	// FollowPercent is the chance that a user follows an earlier user.
	FollowPercent int
}

// Summary counts what a seeding run created.
type Summary struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
}

// Run seeds users, posts, comments and likes through f.
func Run(ctx context.Context, f *Factory, opts Options) (Summary, error) {
	var summary Summary
	if opts.NumUsers <= 0 {
		return summary, fmt.Errorf("seed needs at least one user")
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		following := f.pickFollowing(users, opts.FollowPercent)
		user, err := f.CreateUser(ctx, func(u *models.User) { u.Following = following })
		if err != nil {
			return summary, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	summary.Users = len(users)

	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.faker.Number(0, len(users)-1)]
		post, err := f.CreatePost(ctx, author)
		if err != nil {
			return summary, fmt.Errorf("create post: %w", err)
		}
		summary.Posts++

		if opts.MaxComments > 0 {
			for n := f.faker.Number(0, opts.MaxComments); n > 0; n-- {
				commenter := users[f.faker.Number(0, len(users)-1)]
				if _, err := f.CreateComment(ctx, commenter, post); err != nil {
					return summary, fmt.Errorf("create comment: %w", err)
				}
				summary.Comments++
			}
		}

		for _, u := range users {
			if f.faker.Number(1, 100) > opts.LikePercent {
				continue
			}
			if err := f.CreateLike(ctx, u, post); err != nil {
				return summary, fmt.Errorf("create like: %w", err)
			}
			summary.Likes++
		}
	}

	middleware.Logger.Info("seed complete",
		slog.Int("users", summary.Users),
		slog.Int("posts", summary.Posts),
		slog.Int("comments", summary.Comments),
		slog.Int("likes", summary.Likes),
	)
	return summary, nil
}

func (f *Factory) pickFollowing(existing []*models.User, percent int) []primitive.ObjectID {
	following := []primitive.ObjectID{}
	for _, u := range existing {
		if f.faker.Number(1, 100) <= percent {
			following = append(following, u.ID)
		}
	}
	return following
}

// ClearAll drops the aggregate collections and recreates their indexes.
func ClearAll(ctx context.Context, db *mongo.Database) error {
	for _, name := range []string{database.PostsCollection, database.UsersCollection} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return database.EnsureIndexes(ctx, db)
}
