package server

import (
	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Text string `json:"text"`
	Img  string `json:"img"`
}

type updatePostRequest struct {
	Text *string `json:"text"`
	Img  *string `json:"img"`
}

// GetAllPosts handles GET /api/posts/all
// @Summary List posts
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /posts/all [get]
func (s *Server) GetAllPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
// @Summary View a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseObjectID(c, "id", "post")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// GetFollowingPosts handles GET /api/posts/following
// @Summary Feed of followed authors
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Post
// @Router /posts/following [get]
func (s *Server) GetFollowingPosts(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	posts, err := s.postService.GetFeed(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetLikedPosts handles GET /api/posts/likes/:id
// @Summary Posts liked by a user
// @Tags posts
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {array} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/likes/{id} [get]
func (s *Server) GetLikedPosts(c *fiber.Ctx) error {
	userID, err := parseObjectID(c, "id", "user")
	if err != nil {
		return nil
	}
	posts, err := s.postService.GetLikedPosts(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetUserPosts handles GET /api/posts/user/:username
// @Summary Posts by a user
// @Tags posts
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/user/{username} [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	posts, err := s.postService.GetUserPosts(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts/create
// @Summary Create a post
// @Description Text, image or both. img may be a data URL or a URL already issued by the image store.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body postRequest true "Post content"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /posts/create [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID: userID,
		Text:   req.Text,
		Image:  req.Img,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles POST /api/posts/update/:id
// @Summary Update a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param request body updatePostRequest true "Fields to change"
// @Success 200 {object} object{message=string,updatedPost=models.Post,warnings=[]string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/update/{id} [post]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	postID, err := parseObjectID(c, "id", "post")
	if err != nil {
		return nil
	}

	var req updatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID: userID,
		PostID: postID,
		Text:   req.Text,
		Image:  req.Img,
	})
	if err != nil {
		return respondError(c, err)
	}

	body := fiber.Map{
		"message":     "Post updated successfully",
		"updatedPost": result.Post,
	}
	if len(result.Warnings) > 0 {
		body["warnings"] = result.Warnings
	}
	return c.JSON(body)
}

// DeletePost handles POST /api/posts/delete/:id
// @Summary Delete a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} object{message=string,warnings=[]string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/delete/{id} [post]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	postID, err := parseObjectID(c, "id", "post")
	if err != nil {
		return nil
	}

	result, err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: userID,
		PostID: postID,
	})
	if err != nil {
		return respondError(c, err)
	}

	body := fiber.Map{"message": "Post deleted successfully"}
	if len(result.Warnings) > 0 {
		body["warnings"] = result.Warnings
	}
	return c.JSON(body)
}

// LikePost handles POST /api/posts/like/:id
// @Summary Toggle like
// @Description Likes the post if the caller has not liked it, unlikes it otherwise. Returns the resulting like list.
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {array} string
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/like/{id} [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	postID, err := parseObjectID(c, "id", "post")
	if err != nil {
		return nil
	}

	likes, err := s.likeService.ToggleLike(c.UserContext(), postID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(likes)
}
