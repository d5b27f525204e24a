package routes

import (
	"catalog/services"

	"github.com/gofiber/fiber/v2"
)

type envelope struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Data       any            `json:"data,omitempty"`
	Error      string         `json:"error,omitempty"`
	Pagination map[string]any `json:"pagination,omitempty"`
}

func ok(c *fiber.Ctx, message string, data any) error {
	return c.JSON(envelope{Success: true, Message: message, Data: data})
}

func created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(envelope{Success: true, Message: message, Data: data})
}

// paginated writes a list page. totalKey names the total field, e.g. "totalProducts".
func paginated[T any](c *fiber.Ctx, message, totalKey string, page services.Page[T]) error {
	return c.JSON(envelope{
		Success: true,
		Message: message,
		Data:    page.Items,
		Pagination: map[string]any{
			"currentPage": page.Page,
			"totalPages":  page.TotalPages,
			"limit":       page.Limit,
			totalKey:      page.Total,
		},
	})
}
