// Package seed provides helpers to create demo data for development and
// testing. These helpers are not used on any request path.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chirp/internal/models"
	"chirp/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password every seeded user gets.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	users  repository.UserRepository
	posts  repository.PostRepository
	faker  *gofakeit.Faker
	hashed string
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(users repository.UserRepository, posts repository.PostRepository, seed int64) (*Factory, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		users:  users,
		posts:  posts,
		faker:  gofakeit.New(seed),
		hashed: string(hash),
	}, nil
}

// CreateUser persists a user with fake profile data.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	user := &models.User{
		Username:   fmt.Sprintf("%s%d", strings.ToLower(f.faker.Username()), f.faker.Number(10, 9999)),
		FullName:   first + " " + last,
		Email:      strings.ToLower(first+"."+last) + "@example.com",
		Password:   f.hashed,
		ProfileImg: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	}
	for _, o := range overrides {
		o(user)
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a post by user. About one post in four carries a
// remote image.
func (f *Factory) CreatePost(ctx context.Context, user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		UserID: user.ID,
		Text:   f.faker.Sentence(f.faker.Number(4, 18)),
	}
	if f.faker.Number(1, 4) == 1 {
		post.Img = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}
	for _, o := range overrides {
		o(post)
	}
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment appends a comment by user to post.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post) (*models.Comment, error) {
	now := time.Now().UTC()
	comment := &models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    user.ID,
		Text:      f.faker.Sentence(f.faker.Number(3, 12)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.posts.AppendComment(ctx, post.ID, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike records a like on both sides of the mirror.
func (f *Factory) CreateLike(ctx context.Context, user *models.User, post *models.Post) error {
	if _, err := f.posts.AddLike(ctx, post.ID, user.ID); err != nil {
		return err
	}
	return f.users.AddLikedPost(ctx, user.ID, post.ID)
}
