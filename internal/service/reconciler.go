package service

import (
	"context"
	"log/slog"

	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReconcileReport summarises one sweep.
type ReconcileReport struct {
	PostsScanned  int `json:"postsScanned"`
	UsersScanned  int `json:"usersScanned"`
	MirrorAdded   int `json:"mirrorAdded"`
	MirrorRemoved int `json:"mirrorRemoved"`
	LikesPruned   int `json:"likesPruned"`
}

// Repairs is the total number of writes the sweep made.
func (r ReconcileReport) Repairs() int {
	return r.MirrorAdded + r.MirrorRemoved + r.LikesPruned
}

// LikeReconciler restores U ∈ P.likes ⇔ P ∈ U.likedPosts. post.likes is
// canonical: mirror entries are added or removed to match it, and likes by
// users that no longer exist are pruned from the post.
type LikeReconciler struct {
	posts repository.PostRepository
	users repository.UserRepository
}

func NewLikeReconciler(posts repository.PostRepository, users repository.UserRepository) *LikeReconciler {
	return &LikeReconciler{posts: posts, users: users}
}

type idSet map[primitive.ObjectID]struct{}

func (s idSet) add(id primitive.ObjectID) { s[id] = struct{}{} }

func (s idSet) has(id primitive.ObjectID) bool {
	_, ok := s[id]
	return ok
}

// Run performs one full sweep. Every candidate repair re-reads the post
// first, so likes toggled while the sweep runs are not undone.
func (r *LikeReconciler) Run(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	observability.LogAsyncOperationStart(ctx, "like_reconcile", nil)

	expected := make(map[primitive.ObjectID]idSet)
	err := r.posts.EachLikeSet(ctx, func(postID primitive.ObjectID, likes []primitive.ObjectID) error {
		report.PostsScanned++
		for _, userID := range likes {
			if expected[userID] == nil {
				expected[userID] = make(idSet)
			}
			expected[userID].add(postID)
		}
		return nil
	})
	if err != nil {
		observability.LogAsyncOperationError(ctx, "like_reconcile", err, nil)
		return report, err
	}

	seen := make(idSet)
	err = r.users.EachLikedPosts(ctx, func(userID primitive.ObjectID, liked []primitive.ObjectID) error {
		report.UsersScanned++
		seen.add(userID)
		want := expected[userID]

		have := make(idSet, len(liked))
		for _, postID := range liked {
			have.add(postID)
			if want.has(postID) {
				continue
			}
			if err := r.dropMirror(ctx, userID, postID, &report); err != nil {
				return err
			}
		}
		for postID := range want {
			if have.has(postID) {
				continue
			}
			if err := r.addMirror(ctx, userID, postID, &report); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		observability.LogAsyncOperationError(ctx, "like_reconcile", err, nil)
		return report, err
	}

	for userID, postIDs := range expected {
		if seen.has(userID) {
			continue
		}
		for postID := range postIDs {
			if err := r.pruneLike(ctx, userID, postID, &report); err != nil {
				observability.LogAsyncOperationError(ctx, "like_reconcile", err, nil)
				return report, err
			}
		}
	}

	observability.LogAsyncOperationEnd(ctx, "like_reconcile", map[string]interface{}{
		"posts":   report.PostsScanned,
		"users":   report.UsersScanned,
		"repairs": report.Repairs(),
	})
	if report.Repairs() > 0 {
		middleware.Logger.InfoContext(ctx, "like mirror repaired",
			slog.Int("mirror_added", report.MirrorAdded),
			slog.Int("mirror_removed", report.MirrorRemoved),
			slog.Int("likes_pruned", report.LikesPruned),
		)
	}
	return report, nil
}

// currentlyLiked re-reads the post. A missing post counts as not liked.
func (r *LikeReconciler) currentlyLiked(ctx context.Context, postID, userID primitive.ObjectID) (bool, error) {
	post, err := r.posts.GetByID(ctx, postID)
	if models.IsNotFound(err, "Post") {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return post.LikedBy(userID), nil
}

func (r *LikeReconciler) dropMirror(ctx context.Context, userID, postID primitive.ObjectID, report *ReconcileReport) error {
	liked, err := r.currentlyLiked(ctx, postID, userID)
	if err != nil || liked {
		return err
	}
	if err := r.users.RemoveLikedPost(ctx, userID, postID); err != nil && !models.IsNotFound(err, "User") {
		return err
	}
	report.MirrorRemoved++
	observability.ReconcileRepairs.WithLabelValues("mirror_removed").Inc()
	return nil
}

func (r *LikeReconciler) addMirror(ctx context.Context, userID, postID primitive.ObjectID, report *ReconcileReport) error {
	liked, err := r.currentlyLiked(ctx, postID, userID)
	if err != nil || !liked {
		return err
	}
	if err := r.users.AddLikedPost(ctx, userID, postID); err != nil && !models.IsNotFound(err, "User") {
		return err
	}
	report.MirrorAdded++
	observability.ReconcileRepairs.WithLabelValues("mirror_added").Inc()
	return nil
}

func (r *LikeReconciler) pruneLike(ctx context.Context, userID, postID primitive.ObjectID, report *ReconcileReport) error {
	if _, err := r.users.GetByID(ctx, userID); err == nil {
		// created after the user scan
		return nil
	} else if !models.IsNotFound(err, "User") {
		return err
	}
	if _, err := r.posts.RemoveLike(ctx, postID, userID); err != nil && !models.IsNotFound(err, "Post") {
		return err
	}
	report.LikesPruned++
	observability.ReconcileRepairs.WithLabelValues("like_pruned").Inc()
	return nil
}
