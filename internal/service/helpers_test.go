package service

import (
	"testing"
	"time"

	"chirp/internal/models"
	"chirp/internal/storage"
	"chirp/internal/testutil"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	users    *testutil.UserStore
	posts    *testutil.PostStore
	objects  *testutil.ObjectStore
	emitter  *testutil.Emitter
	post     *PostService
	likes    *LikeService
	comments *CommentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := testutil.NewUserStore()
	posts := testutil.NewPostStore(users)
	objects := &testutil.ObjectStore{}
	emitter := &testutil.Emitter{}
	attachments := storage.NewAttachmentManager(objects, time.Second)

	return &fixture{
		users:    users,
		posts:    posts,
		objects:  objects,
		emitter:  emitter,
		post:     NewPostService(posts, users, attachments, nil),
		likes:    NewLikeService(posts, users, emitter, nil),
		comments: NewCommentService(posts, users, nil),
	}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := models.AsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code, appErr.Message)
}

func requireNotFound(t *testing.T, err error, resource string) {
	t.Helper()
	require.True(t, models.IsNotFound(err, resource), "expected NotFound(%s), got %v", resource, err)
}

func strPtr(s string) *string { return &s }
