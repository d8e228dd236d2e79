package service

import (
	"context"
	"testing"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCommentService_AddComment_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.users.AddUser("author")
	post, err := f.post.CreatePost(ctx, CreatePostInput{UserID: author.ID, Text: "p"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		in    AddCommentInput
		check func(t *testing.T, err error)
	}{
		{
			name:  "empty text checked before post lookup",
			in:    AddCommentInput{UserID: author.ID, PostID: primitive.NewObjectID(), Text: "  "},
			check: func(t *testing.T, err error) { requireCode(t, err, models.CodeValidation) },
		},
		{
			name:  "missing post",
			in:    AddCommentInput{UserID: author.ID, PostID: primitive.NewObjectID(), Text: "hi"},
			check: func(t *testing.T, err error) { requireNotFound(t, err, "Post") },
		},
		{
			name:  "missing user",
			in:    AddCommentInput{UserID: primitive.NewObjectID(), PostID: post.ID, Text: "hi"},
			check: func(t *testing.T, err error) { requireNotFound(t, err, "User") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.comments.AddComment(ctx, tt.in)
			tt.check(t, err)
		})
	}

	stored, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Comments)
}

func TestCommentService_RemovePreservesOrderAndIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.users.AddUser("author")
	post, err := f.post.CreatePost(ctx, CreatePostInput{UserID: author.ID, Text: "p"})
	require.NoError(t, err)

	var last *models.Post
	for _, text := range []string{"one", "two", "three", "four"} {
		last, err = f.comments.AddComment(ctx, AddCommentInput{UserID: author.ID, PostID: post.ID, Text: text})
		require.NoError(t, err)
	}
	before := last.Comments
	require.Len(t, before, 4)

	require.NoError(t, f.comments.DeleteComment(ctx, DeleteCommentInput{PostID: post.ID, CommentID: before[1].ID}))

	stored, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, stored.Comments, 3)
	for i, want := range []models.Comment{before[0], before[2], before[3]} {
		assert.Equal(t, want.ID, stored.Comments[i].ID)
		assert.Equal(t, want.Text, stored.Comments[i].Text)
	}
}

func TestCommentService_DeleteComment_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.users.AddUser("author")
	post, err := f.post.CreatePost(ctx, CreatePostInput{UserID: author.ID, Text: "p"})
	require.NoError(t, err)

	err = f.comments.DeleteComment(ctx, DeleteCommentInput{PostID: primitive.NewObjectID(), CommentID: primitive.NewObjectID()})
	requireNotFound(t, err, "Post")

	err = f.comments.DeleteComment(ctx, DeleteCommentInput{PostID: post.ID, CommentID: primitive.NewObjectID()})
	requireNotFound(t, err, "Comment")
}

func TestCommentService_UpdateComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.users.AddUser("author")
	post, err := f.post.CreatePost(ctx, CreatePostInput{UserID: author.ID, Text: "p"})
	require.NoError(t, err)
	withComment, err := f.comments.AddComment(ctx, AddCommentInput{UserID: author.ID, PostID: post.ID, Text: "first"})
	require.NoError(t, err)
	commentID := withComment.Comments[0].ID

	_, err = f.comments.UpdateComment(ctx, UpdateCommentInput{PostID: primitive.NewObjectID(), CommentID: commentID, Text: "x"})
	requireNotFound(t, err, "Post")

	_, err = f.comments.UpdateComment(ctx, UpdateCommentInput{PostID: post.ID, CommentID: primitive.NewObjectID(), Text: "x"})
	requireNotFound(t, err, "Comment")

	_, err = f.comments.UpdateComment(ctx, UpdateCommentInput{PostID: post.ID, CommentID: commentID, Text: ""})
	requireCode(t, err, models.CodeValidation)

	updated, err := f.comments.UpdateComment(ctx, UpdateCommentInput{PostID: post.ID, CommentID: commentID, Text: "edited"})
	require.NoError(t, err)
	assert.Equal(t, commentID, updated.ID)
	assert.Equal(t, "edited", updated.Text)
	assert.Equal(t, author.ID, updated.UserID)
}
