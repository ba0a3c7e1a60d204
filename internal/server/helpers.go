package server

import (
	"errors"
	"strings"

	"quill/internal/access"
	"quill/internal/middleware"
	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts the :id route parameter as a positive uint. On failure it
// writes a 400 JSON response and returns errResponseWritten; callers should
// check: if err != nil { return nil }.
func (s *Server) parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// requester resolves the identity for a protected route, where AuthRequired
// has already stored the user ID in locals.
func (s *Server) requester(c *fiber.Ctx) access.Requester {
	if userID, ok := c.Locals("userID").(uint); ok {
		return access.Authenticated(userID)
	}
	return access.Anonymous()
}

// optionalRequester resolves the identity for a public route: a valid Bearer
// token yields an authenticated requester, anything else is anonymous. A
// garbage token does not fail the request, it just reads as anonymous.
func (s *Server) optionalRequester(c *fiber.Ctx) access.Requester {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return access.Anonymous()
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return access.Anonymous()
	}

	userID, ok := middleware.ParseSubject(parts[1], s.config.JWTSecret)
	if !ok {
		return access.Anonymous()
	}
	return access.Authenticated(userID)
}
