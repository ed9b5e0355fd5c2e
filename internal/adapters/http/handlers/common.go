package handlers

import (
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/services"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// authedUser loads the authenticated user from the request locals
func authedUser(c *fiber.Ctx, authService *services.AuthService) (*models.User, error) {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return nil, response.Unauthorized(c, "Unauthorized")
	}
	user, err := authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return nil, response.Unauthorized(c, "Unauthorized")
	}
	return user, nil
}

// authedGymID resolves the caller's gym scope
func authedGymID(c *fiber.Ctx, authService *services.AuthService) (uint, error) {
	user, err := authedUser(c, authService)
	if err != nil {
		return 0, err
	}
	return user.GymID, nil
}
