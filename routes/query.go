package routes

import (
	"strconv"

	"catalog/apperr"
	"catalog/services"

	"github.com/gofiber/fiber/v2"
)

func pageRequest(c *fiber.Ctx) services.PageRequest {
	return services.PageRequest{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", services.DefaultPageSize),
	}
}

func queryBool(c *fiber.Ctx, name string) (*bool, error) {
	s := c.Query(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, apperr.Validation("query parameter %s must be true or false", name)
	}
	return &v, nil
}

func queryID(c *fiber.Ctx, name string) (uint, error) {
	s := c.Query(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, apperr.Validation("query parameter %s must be a positive id", name)
	}
	return uint(v), nil
}
