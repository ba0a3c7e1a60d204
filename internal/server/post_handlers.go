package server

import (
	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /api/posts with optional title, tag, author, and
// includePrivate query parameters. The route is public; a Bearer token only
// matters when includePrivate is set.
func (s *Server) ListPosts(c *fiber.Ctx) error {
	in := service.ListPostsInput{
		Title:          c.Query("title"),
		Tag:            c.Query("tag"),
		Author:         c.Query("author"),
		IncludePrivate: c.QueryBool("includePrivate"),
	}

	posts, err := s.postService.ListPosts(c.Context(), s.optionalRequester(c), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"posts": posts,
		"count": len(posts),
	})
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), s.optionalRequester(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title    string   `json:"title"`
		Body     string   `json:"body"`
		Tags     []string `json:"tags"`
		IsPublic *bool    `json:"isPublic"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.Context(), s.requester(c), service.CreatePostInput{
		Title:    req.Title,
		Body:     req.Body,
		Tags:     req.Tags,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id. Absent fields are left unchanged;
// an authorId in the body is ignored outright.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	var req struct {
		Title    *string   `json:"title"`
		Body     *string   `json:"body"`
		Tags     *[]string `json:"tags"`
		IsPublic *bool     `json:"isPublic"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.Context(), s.requester(c), id, service.UpdatePostInput{
		Title:    req.Title,
		Body:     req.Body,
		Tags:     req.Tags,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.Context(), s.requester(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Post deleted",
	})
}
