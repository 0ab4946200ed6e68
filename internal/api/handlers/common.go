package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Zimnyaja/foodgram/domain"
	"github.com/Zimnyaja/foodgram/internal/utils"
)

// viewerID returns the authenticated caller's id, or zero for anonymous
// requests that passed through the optional auth middleware.
func viewerID(c *fiber.Ctx) int64 {
	if id, ok := c.Locals("user_id").(int64); ok {
		return id
	}
	return 0
}

func parseIDParam(c *fiber.Ctx, name string) (int64, error) {
	return strconv.ParseInt(c.Params(name), 10, 64)
}

// parsePagination reads page/limit query values, clamping limit to the
// configured maximum page size.
func parsePagination(c *fiber.Ctx) (page, limit int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", utils.PageSize())
	if limit < 1 {
		limit = utils.PageSize()
	}
	if max := utils.MaxPageSize(); limit > max {
		limit = max
	}
	return page, limit
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrRecipeNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrTagNotFound),
		errors.Is(err, domain.ErrIngredientNotFound),
		errors.Is(err, domain.ErrInvalidShortLink):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrNotRecipeAuthor):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrFiltersRequireAuth):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusBadRequest
	}
}
