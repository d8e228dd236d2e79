package server

import (
	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Text string `json:"text"`
}

// CommentOnPost handles POST /api/posts/comment/:id
// @Summary Add a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param request body commentRequest true "Comment"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/comment/{id} [post]
func (s *Server) CommentOnPost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	postID, err := parseObjectID(c, "id", "post")
	if err != nil {
		return nil
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		UserID: userID,
		PostID: postID,
		Text:   req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdateComment handles POST /api/posts/comment/update/:postId/:id
// @Summary Edit a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postId path string true "Post ID"
// @Param id path string true "Comment ID"
// @Param request body commentRequest true "New text"
// @Success 200 {object} object{message=string,updatedComment=models.Comment}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/comment/update/{postId}/{id} [post]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	postID, err := parseObjectID(c, "postId", "post")
	if err != nil {
		return nil
	}
	commentID, err := parseObjectID(c, "id", "comment")
	if err != nil {
		return nil
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		PostID:    postID,
		CommentID: commentID,
		Text:      req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":        "Comment updated successfully",
		"updatedComment": comment,
	})
}

// DeleteComment handles POST /api/posts/comment/delete/:postId/:id
// @Summary Remove a comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param postId path string true "Post ID"
// @Param id path string true "Comment ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/comment/delete/{postId}/{id} [post]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := parseObjectID(c, "postId", "post")
	if err != nil {
		return nil
	}
	commentID, err := parseObjectID(c, "id", "comment")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		PostID:    postID,
		CommentID: commentID,
	}); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted successfully"})
}
