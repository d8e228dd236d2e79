package service

import (
	"context"

	"chirp/internal/cache"
	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/notifications"
	"chirp/internal/observability"
	"chirp/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
)

// LikeService toggles likes. The post's like set is written first, then the
// user's likedPosts mirror, then the notification. There is no transaction
// across the two documents: a failed mirror write is counted and left for
// LikeReconciler.
type LikeService struct {
	posts   repository.PostRepository
	users   repository.UserRepository
	emitter notifications.Emitter
	cache   *cache.Store
}

func NewLikeService(
	posts repository.PostRepository,
	users repository.UserRepository,
	emitter notifications.Emitter,
	store *cache.Store,
) *LikeService {
	return &LikeService{posts: posts, users: users, emitter: emitter, cache: store}
}

// ToggleLike likes the post for userID, or unlikes it when already liked,
// and returns the post's resulting like list.
func (s *LikeService) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	span, ctx := observability.NewSpan(ctx, "LikeService.ToggleLike")
	defer span.End()
	span.AddAttributes(
		attribute.String("post.id", postID.Hex()),
		attribute.String("user.id", userID.Hex()),
	)

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	var likes []primitive.ObjectID
	if post.LikedBy(userID) {
		likes, err = s.unlike(ctx, post, userID)
	} else {
		likes, err = s.like(ctx, post, userID)
	}
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	s.cache.InvalidatePost(ctx, postID)
	return likes, nil
}

func (s *LikeService) like(ctx context.Context, post *models.Post, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	likes, err := s.posts.AddLike(ctx, post.ID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.AddLikedPost(ctx, userID, post.ID); err != nil {
		if models.IsNotFound(err, "User") {
			s.revertLike(ctx, post.ID, userID)
			return nil, err
		}
		return nil, s.mirrorFailed(ctx, "like", post.ID, userID, err)
	}
	observability.LikeToggles.WithLabelValues("like").Inc()

	if err := s.emitter.Emit(ctx, userID, post.UserID, models.NotificationLike); err != nil {
		middleware.Logger.WarnContext(ctx, "like notification dropped",
			"post_id", post.ID.Hex(), "from", userID.Hex(), "to", post.UserID.Hex(), "error", err)
	}
	return likes, nil
}

func (s *LikeService) unlike(ctx context.Context, post *models.Post, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	likes, err := s.posts.RemoveLike(ctx, post.ID, userID)
	if err != nil {
		return nil, err
	}
	// a missing user has no mirror to clean up
	if err := s.users.RemoveLikedPost(ctx, userID, post.ID); err != nil && !models.IsNotFound(err, "User") {
		return nil, s.mirrorFailed(ctx, "unlike", post.ID, userID, err)
	}
	observability.LikeToggles.WithLabelValues("unlike").Inc()
	return likes, nil
}

// revertLike undoes the post side of a like whose user does not exist.
func (s *LikeService) revertLike(ctx context.Context, postID, userID primitive.ObjectID) {
	if _, err := s.posts.RemoveLike(ctx, postID, userID); err != nil {
		observability.LikeMirrorFailures.WithLabelValues("like").Inc()
		middleware.Logger.ErrorContext(ctx, "like revert failed",
			"post_id", postID.Hex(), "user_id", userID.Hex(), "error", err)
	}
}

// mirrorFailed records a likedPosts write that failed after the post side
// was written. The post side stays in place for the reconciler.
func (s *LikeService) mirrorFailed(ctx context.Context, direction string, postID, userID primitive.ObjectID, err error) error {
	observability.LikeMirrorFailures.WithLabelValues(direction).Inc()
	middleware.Logger.ErrorContext(ctx, "likedPosts mirror write failed",
		"direction", direction, "post_id", postID.Hex(), "user_id", userID.Hex(), "error", err)
	if _, ok := models.AsAppError(err); ok {
		return err
	}
	return models.NewInternalError(err)
}
