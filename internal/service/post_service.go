// Package service holds the post aggregate rules: content invariants,
// ownership checks, attachment lifecycle and the like/comment coordinators.
package service

import (
	"context"
	"strings"

	"chirp/internal/cache"
	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/repository"
	"chirp/internal/storage"
	"chirp/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attachments uploads and destroys post images.
type Attachments interface {
	Upload(ctx context.Context, payload string) (storage.UploadResult, error)
	Delete(ctx context.Context, url, assetID string) error
}

type PostService struct {
	posts       repository.PostRepository
	users       repository.UserRepository
	attachments Attachments
	cache       *cache.Store
}

type CreatePostInput struct {
	UserID primitive.ObjectID
	Text   string
	// Image is a raw payload or a URL already issued by the object store.
	Image string
}

type UpdatePostInput struct {
	UserID primitive.ObjectID
	PostID primitive.ObjectID
	Text   *string
	Image  *string
}

type DeletePostInput struct {
	UserID primitive.ObjectID
	PostID primitive.ObjectID
}

// UpdatePostResult carries the updated post and any non-fatal storage
// problems hit along the way.
type UpdatePostResult struct {
	Post     *models.Post
	Warnings []string
}

// DeletePostResult reports storage problems that did not block the delete.
type DeletePostResult struct {
	Warnings []string
}

// NewPostService wires the post rules. store may be nil to disable caching.
func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	attachments Attachments,
	store *cache.Store,
) *PostService {
	return &PostService{
		posts:       posts,
		users:       users,
		attachments: attachments,
		cache:       store,
	}
}

func errEmptyPost() error {
	return models.NewValidationError("Post must have text or image")
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Text) == "" && strings.TrimSpace(in.Image) == "" {
		return nil, errEmptyPost()
	}
	if err := validation.ValidatePostText(in.Text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post := &models.Post{UserID: in.UserID, Text: in.Text}
	if strings.TrimSpace(in.Image) != "" {
		res, err := s.attachments.Upload(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		post.Img, post.ImgAssetID = res.URL, res.AssetID
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if post.Img != "" {
			s.discard(ctx, post.Img, post.ImgAssetID)
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.PostListKey)
	return post, nil
}

// discard drops an asset nothing references any more.
func (s *PostService) discard(ctx context.Context, url, assetID string) {
	if err := s.attachments.Delete(ctx, url, assetID); err != nil {
		middleware.Logger.WarnContext(ctx, "orphaned image asset",
			"url", url, "asset_id", assetID, "error", err)
	}
}

func (s *PostService) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := s.cache.Aside(ctx, cache.PostKey(id), &post, func() error {
		p, err := s.posts.GetView(ctx, id)
		if err != nil {
			return err
		}
		post = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := s.cache.Aside(ctx, cache.PostListKey, &posts, func() error {
		var err error
		posts, err = s.posts.List(ctx, repository.AllPosts())
		return err
	})
	if err != nil {
		return nil, err
	}
	return nonNil(posts), nil
}

func (s *PostService) GetUserPosts(ctx context.Context, username string) ([]*models.Post, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.List(ctx, repository.PostsByAuthors(user.ID))
	return nonNil(posts), err
}

func (s *PostService) GetFeed(ctx context.Context, userID primitive.ObjectID) ([]*models.Post, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.List(ctx, repository.PostsByAuthors(user.Following...))
	return nonNil(posts), err
}

func (s *PostService) GetLikedPosts(ctx context.Context, userID primitive.ObjectID) ([]*models.Post, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.List(ctx, repository.PostsByIDs(user.LikedPosts...))
	return nonNil(posts), err
}

// UpdatePost applies text and image changes. The old image is destroyed
// before the new one is uploaded, and the post only points at the new image
// once the upload succeeded.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*UpdatePostResult, error) {
	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only update your own posts")
	}

	text, img := post.Text, post.Img
	if in.Text != nil {
		text = *in.Text
		if err := validation.ValidatePostText(text); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	newImage := in.Image != nil && strings.TrimSpace(*in.Image) != "" && *in.Image != post.Img
	if newImage {
		img = *in.Image
	}
	if strings.TrimSpace(text) == "" && img == "" {
		return nil, errEmptyPost()
	}

	result := &UpdatePostResult{}
	upd := repository.PostContentUpdate{Text: in.Text}
	if newImage {
		if post.Img != "" {
			if err := s.attachments.Delete(ctx, post.Img, post.ImgAssetID); err != nil {
				middleware.Logger.WarnContext(ctx, "old image delete failed",
					"post_id", post.ID.Hex(), "error", err)
				result.Warnings = append(result.Warnings, "previous image could not be deleted from storage")
			}
		}
		res, err := s.attachments.Upload(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		upd.Img, upd.ImgAssetID = &res.URL, &res.AssetID
	}

	updated, err := s.posts.UpdateContent(ctx, post.ID, upd)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidatePost(ctx, post.ID)
	result.Post = updated
	return result, nil
}

// DeletePost removes the post, then destroys its image. A storage failure
// never blocks the delete and comes back as a warning.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (*DeletePostResult, error) {
	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only delete your own posts")
	}

	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return nil, err
	}
	s.cache.InvalidatePost(ctx, post.ID)

	result := &DeletePostResult{}
	if post.Img != "" {
		if err := s.attachments.Delete(ctx, post.Img, post.ImgAssetID); err != nil {
			middleware.Logger.WarnContext(ctx, "image delete failed",
				"post_id", post.ID.Hex(), "error", err)
			result.Warnings = append(result.Warnings, "image could not be deleted from storage")
		}
	}
	return result, nil
}

func nonNil(posts []*models.Post) []*models.Post {
	if posts == nil {
		return []*models.Post{}
	}
	return posts
}
