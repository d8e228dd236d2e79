package server

import (
	"errors"

	"chirp/internal/middleware"
	"chirp/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseObjectID extracts a route parameter as a Mongo ObjectID.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseObjectID(c *fiber.Ctx, param, label string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Params(param))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+label+" ID"))
		return primitive.NilObjectID, errResponseWritten
	}
	return id, nil
}

// currentUser returns the id set by Authenticator.Required.
func currentUser(c *fiber.Ctx) (primitive.ObjectID, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Unauthorized"))
		return primitive.NilObjectID, errResponseWritten
	}
	return userID, nil
}

// respondError maps a service error onto its HTTP status.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(), "error", err)
	}
	return models.RespondWithError(c, status, err)
}
