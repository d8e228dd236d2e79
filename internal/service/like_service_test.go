package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"chirp/internal/models"
	"chirp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// requireMirror checks U ∈ P.likes ⇔ P ∈ U.likedPosts for the given pair.
func requireMirror(t *testing.T, f *fixture, postID, userID primitive.ObjectID) {
	t.Helper()
	ctx := context.Background()
	post, err := f.posts.GetByID(ctx, postID)
	require.NoError(t, err)
	user, err := f.users.GetByID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, post.LikedBy(userID), models.ContainsID(user.LikedPosts, postID),
		"likes and likedPosts disagree for post %s user %s", postID.Hex(), userID.Hex())
}

func TestLikeService_ExampleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.users.AddUser("author")
	userA := f.users.AddUser("userA")
	userB := f.users.AddUser("userB")

	post, err := f.post.CreatePost(ctx, CreatePostInput{UserID: author.ID, Text: "hello"})
	require.NoError(t, err)
	assert.Empty(t, post.Img)
	assert.Empty(t, post.Likes)

	likes, err := f.likes.ToggleLike(ctx, post.ID, userA.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{userA.ID}, likes)
	assert.Equal(t, []testutil.Emitted{{From: userA.ID, To: author.ID, Type: models.NotificationLike}}, f.emitter.Events())

	likes, err = f.likes.ToggleLike(ctx, post.ID, userA.ID)
	require.NoError(t, err)
	assert.Empty(t, likes)
	assert.Len(t, f.emitter.Events(), 1)

	withComment, err := f.comments.AddComment(ctx, AddCommentInput{UserID: userB.ID, PostID: post.ID, Text: "nice!"})
	require.NoError(t, err)
	require.Len(t, withComment.Comments, 1)
	assert.Equal(t, userB.ID, withComment.Comments[0].UserID)
	assert.Equal(t, "nice!", withComment.Comments[0].Text)

	require.NoError(t, f.comments.DeleteComment(ctx, DeleteCommentInput{PostID: post.ID, CommentID: withComment.Comments[0].ID}))
	stored, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Comments)
}

func TestLikeService_ToggleParity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.users.AddUser("author")
	post, err := f.post.CreatePost(ctx, CreatePostInput{UserID: author.ID, Text: "p"})
	require.NoError(t, err)

	users := make([]*models.User, 4)
	for i := range users {
		users[i] = f.users.AddUser(string(rune('a' + i)))
	}

	rng := rand.New(rand.NewSource(7))
	counts := make(map[primitive.ObjectID]int)
	for i := 0; i < 200; i++ {
		u := users[rng.Intn(len(users))]
		_, err := f.likes.ToggleLike(ctx, post.ID, u.ID)
		require.NoError(t, err)
		counts[u.ID]++
		requireMirror(t, f, post.ID, u.ID)
	}

	stored, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	odd := 0
	for _, u := range users {
		liked := counts[u.ID]%2 == 1
		assert.Equal(t, liked, stored.LikedBy(u.ID))
		if liked {
			odd++
		}
	}
	assert.Len(t, stored.Likes, odd)
}

func TestLikeService_ConcurrentLikesNeverDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.users.AddUser("author")
	post, err := f.post.CreatePost(ctx, CreatePostInput{UserID: author.ID, Text: "p"})
	require.NoError(t, err)

	users := make([]*models.User, 20)
	for i := range users {
		users[i] = f.users.AddUser(primitive.NewObjectID().Hex())
	}

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(id primitive.ObjectID) {
			defer wg.Done()
			_, err := f.likes.ToggleLike(ctx, post.ID, id)
			assert.NoError(t, err)
		}(u.ID)
	}
	wg.Wait()

	stored, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Likes, len(users))
	for _, u := range users {
		requireMirror(t, f, post.ID, u.ID)
	}
	assert.Len(t, f.emitter.Events(), len(users))
}

func TestLikeService_PostNotFound(t *testing.T) {
	f := newFixture(t)
	u := f.users.AddUser("u")
	_, err := f.likes.ToggleLike(context.Background(), primitive.NewObjectID(), u.ID)
	requireNotFound(t, err, "Post")
	assert.Empty(t, f.emitter.Events())
}

func TestLikeService_UnknownUserIsReverted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.users.AddUser("author")
	post, err := f.post.CreatePost(ctx, CreatePostInput{UserID: author.ID, Text: "p"})
	require.NoError(t, err)

	_, err = f.likes.ToggleLike(ctx, post.ID, primitive.NewObjectID())
	requireNotFound(t, err, "User")

	stored, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Likes)
	assert.Empty(t, f.emitter.Events())
}

func TestLikeService_MirrorFailureIsInternalAndRepairable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.users.AddUser("author")
	liker := f.users.AddUser("liker")
	post, err := f.post.CreatePost(ctx, CreatePostInput{UserID: author.ID, Text: "p"})
	require.NoError(t, err)

	f.users.FailOn("AddLikedPost", errors.New("socket closed"))
	_, err = f.likes.ToggleLike(ctx, post.ID, liker.ID)
	requireCode(t, err, models.CodeInternal)
	assert.Empty(t, f.emitter.Events())

	stored, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, stored.LikedBy(liker.ID))

	f.users.FailOn("AddLikedPost", nil)
	report, err := NewLikeReconciler(f.posts, f.users).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.MirrorAdded)
	requireMirror(t, f, post.ID, liker.ID)
}

func TestLikeService_NotificationFailureDoesNotFailToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.users.AddUser("author")
	liker := f.users.AddUser("liker")
	post, err := f.post.CreatePost(ctx, CreatePostInput{UserID: author.ID, Text: "p"})
	require.NoError(t, err)

	f.emitter.Err = errors.New("postgres down")
	likes, err := f.likes.ToggleLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{liker.ID}, likes)
	requireMirror(t, f, post.ID, liker.ID)
}
