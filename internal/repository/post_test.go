package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, "Post", "x"))
	assert.True(t, models.IsNotFound(translate(mongo.ErrNoDocuments, "Post", "x"), "Post"))
	assert.True(t, models.HasCode(translate(errors.New("boom"), "Post", "x"), models.CodeInternal))

	validation := models.NewValidationError("bad")
	assert.Same(t, validation, translate(validation, "Post", "x"))
}

func TestPostFilter(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	post := &models.Post{ID: a, UserID: b}

	tests := []struct {
		name    string
		filter  PostFilter
		ok      bool
		matches bool
	}{
		{"all", AllPosts(), true, true},
		{"by author hit", PostsByAuthors(b), true, true},
		{"by author miss", PostsByAuthors(a), true, false},
		{"no authors", PostsByAuthors(), false, false},
		{"by id hit", PostsByIDs(b, a), true, true},
		{"no ids", PostsByIDs(), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := tt.filter.Match()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.matches, tt.filter.Matches(post))
		})
	}
}

func TestPostRowPopulate(t *testing.T) {
	author := models.UserSummary{ID: primitive.NewObjectID(), Username: "ann"}
	commenter := models.UserSummary{ID: primitive.NewObjectID(), Username: "bob"}
	ghost := primitive.NewObjectID()

	row := postRow{
		Post: models.Post{
			ID:     primitive.NewObjectID(),
			UserID: author.ID,
			Comments: []models.Comment{
				{ID: primitive.NewObjectID(), UserID: commenter.ID, Text: "hi"},
				{ID: primitive.NewObjectID(), UserID: ghost, Text: "orphan"},
			},
		},
		AuthorDocs:     []models.UserSummary{author},
		CommentAuthors: []models.UserSummary{commenter},
	}

	post := row.populate()
	require.NotNil(t, post.Author)
	assert.Equal(t, "ann", post.Author.Username)
	require.NotNil(t, post.Comments[0].Author)
	assert.Equal(t, "bob", post.Comments[0].Author.Username)
	assert.Nil(t, post.Comments[1].Author)
	assert.NotNil(t, post.Likes)
}

func seedUser(t *testing.T, users UserRepository, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name + "_" + primitive.NewObjectID().Hex()[18:], FullName: name, Password: "hash"}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestPostRepository_Lifecycle(t *testing.T) {
	db := requireMongo(t)
	ctx := context.Background()
	posts := NewPostRepository(db)
	users := NewUserRepository(db)

	author := seedUser(t, users, "author")
	post := &models.Post{UserID: author.ID, Text: "hello"}
	require.NoError(t, posts.Create(ctx, post))
	assert.False(t, post.ID.IsZero())

	view, err := posts.GetView(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Author)
	assert.Equal(t, author.Username, view.Author.Username)

	text := "edited"
	updated, err := posts.UpdateContent(ctx, post.ID, PostContentUpdate{Text: &text})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)
	assert.True(t, !updated.UpdatedAt.Before(post.UpdatedAt))

	listed, err := posts.List(ctx, PostsByAuthors(author.ID))
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, posts.Delete(ctx, post.ID))
	_, err = posts.GetByID(ctx, post.ID)
	assert.True(t, models.IsNotFound(err, "Post"))
	assert.True(t, models.IsNotFound(posts.Delete(ctx, post.ID), "Post"))
}

func TestPostRepository_LikeSetSemantics(t *testing.T) {
	db := requireMongo(t)
	ctx := context.Background()
	posts := NewPostRepository(db)
	users := NewUserRepository(db)

	author := seedUser(t, users, "author")
	post := &models.Post{UserID: author.ID, Text: "likes"}
	require.NoError(t, posts.Create(ctx, post))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := posts.AddLike(ctx, post.ID, author.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{author.ID}, got.Likes)

	likes, err := posts.RemoveLike(ctx, post.ID, author.ID)
	require.NoError(t, err)
	assert.Empty(t, likes)

	_, err = posts.AddLike(ctx, primitive.NewObjectID(), author.ID)
	assert.True(t, models.IsNotFound(err, "Post"))
}

func TestPostRepository_Comments(t *testing.T) {
	db := requireMongo(t)
	ctx := context.Background()
	posts := NewPostRepository(db)
	users := NewUserRepository(db)

	author := seedUser(t, users, "author")
	post := &models.Post{UserID: author.ID, Text: "comments"}
	require.NoError(t, posts.Create(ctx, post))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := posts.AppendComment(ctx, post.ID, &models.Comment{UserID: author.ID, Text: "c"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 5)

	target := got.Comments[2].ID
	c, err := posts.UpdateCommentText(ctx, post.ID, target, "changed")
	require.NoError(t, err)
	assert.Equal(t, "changed", c.Text)

	_, err = posts.UpdateCommentText(ctx, post.ID, primitive.NewObjectID(), "x")
	assert.True(t, models.IsNotFound(err, "Comment"))
	_, err = posts.UpdateCommentText(ctx, primitive.NewObjectID(), target, "x")
	assert.True(t, models.IsNotFound(err, "Post"))

	require.NoError(t, posts.RemoveComment(ctx, post.ID, target))
	assert.True(t, models.IsNotFound(posts.RemoveComment(ctx, post.ID, target), "Comment"))

	got, err = posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, got.Comments, 4)
	_, found := got.FindComment(target)
	assert.False(t, found)
}
