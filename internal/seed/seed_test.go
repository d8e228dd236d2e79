package seed

import (
	"context"
	"testing"

	"chirp/internal/models"
	"chirp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func newFactory(t *testing.T) (*Factory, *testutil.UserStore, *testutil.PostStore) {
	t.Helper()
	users := testutil.NewUserStore()
	posts := testutil.NewPostStore(users)
	f, err := NewFactory(users, posts, 42)
	require.NoError(t, err)
	return f, users, posts
}

func TestCreateUserHashesPassword(t *testing.T) {
	f, users, _ := newFactory(t)
	ctx := context.Background()

	user, err := f.CreateUser(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, DefaultPassword, user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(DefaultPassword)))

	stored, err := users.GetByUsername(ctx, user.Username)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestCreatePostOverrides(t *testing.T) {
	f, _, posts := newFactory(t)
	ctx := context.Background()

	user, err := f.CreateUser(ctx)
	require.NoError(t, err)
	post, err := f.CreatePost(ctx, user, func(p *models.Post) {
		p.Text = "fixed"
		p.Img = ""
	})
	require.NoError(t, err)

	stored, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "fixed", stored.Text)
	assert.Equal(t, user.ID, stored.UserID)
}

func TestRunKeepsLikeMirror(t *testing.T) {
	f, users, posts := newFactory(t)
	ctx := context.Background()

	summary, err := Run(ctx, f, Options{
		NumUsers:      8,
		NumPosts:      20,
		MaxComments:   3,
		LikePercent:   40,
		FollowPercent: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, summary.Users)
	assert.Equal(t, 20, summary.Posts)
	assert.Equal(t, 20, posts.Len())

	likes := 0
	require.NoError(t, posts.EachLikeSet(ctx, func(postID primitive.ObjectID, likedBy []primitive.ObjectID) error {
		for _, userID := range likedBy {
			likes++
			user, err := users.GetByID(ctx, userID)
			require.NoError(t, err)
			assert.Contains(t, user.LikedPosts, postID)
		}
		return nil
	}))
	assert.Equal(t, summary.Likes, likes)
}

func TestRunNeedsUsers(t *testing.T) {
	f, _, _ := newFactory(t)
	_, err := Run(context.Background(), f, Options{NumPosts: 3})
	assert.Error(t, err)
}
