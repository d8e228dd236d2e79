package service

import (
	"context"

	"chirp/internal/cache"
	"chirp/internal/models"
	"chirp/internal/repository"
	"chirp/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentService manages the ordered comment list embedded in a post.
// Comments are addressed by id only.
type CommentService struct {
	posts repository.PostRepository
	users repository.UserRepository
	cache *cache.Store
}

type AddCommentInput struct {
	UserID primitive.ObjectID
	PostID primitive.ObjectID
	Text   string
}

type UpdateCommentInput struct {
	PostID    primitive.ObjectID
	CommentID primitive.ObjectID
	Text      string
}

type DeleteCommentInput struct {
	PostID    primitive.ObjectID
	CommentID primitive.ObjectID
}

func NewCommentService(
	posts repository.PostRepository,
	users repository.UserRepository,
	store *cache.Store,
) *CommentService {
	return &CommentService{posts: posts, users: users, cache: store}
}

func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Post, error) {
	if err := validation.ValidateCommentText(in.Text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.posts.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}

	post, err := s.posts.AppendComment(ctx, in.PostID, &models.Comment{
		UserID: in.UserID,
		Text:   in.Text,
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidatePost(ctx, in.PostID)
	return post, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if _, ok := post.FindComment(in.CommentID); !ok {
		return nil, models.NewNotFoundError("Comment", in.CommentID.Hex())
	}
	if err := validation.ValidateCommentText(in.Text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	comment, err := s.posts.UpdateCommentText(ctx, in.PostID, in.CommentID, in.Text)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidatePost(ctx, in.PostID)
	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	if err := s.posts.RemoveComment(ctx, in.PostID, in.CommentID); err != nil {
		return err
	}
	s.cache.InvalidatePost(ctx, in.PostID)
	return nil
}
