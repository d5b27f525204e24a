package routes

import (
	"context"

	"catalog/services"

	"github.com/gofiber/fiber/v2"
)

type categoryHandler struct {
	categories *services.CategoryService
}

func (h *categoryHandler) list(c *fiber.Ctx) error {
	active, err := queryBool(c, "active")
	if err != nil {
		return err
	}
	page, err := h.categories.List(c.UserContext(), services.CategoryQuery{
		PageRequest: pageRequest(c),
		Search:      c.Query("search"),
		Active:      active,
	})
	if err != nil {
		return err
	}
	return paginated(c, "Categories retrieved successfully", "totalCategories", page)
}

func (h *categoryHandler) get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	category, err := h.categories.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "Category retrieved successfully", category)
}

func (h *categoryHandler) create(c *fiber.Ctx) error {
	f, err := readForm(c)
	if err != nil {
		return err
	}
	active, err := f.boolean("isActive")
	if err != nil {
		return err
	}
	image, err := f.upload("image")
	if err != nil {
		return err
	}
	in := services.CategoryInput{
		Name:        f.text("name"),
		Description: f.text("description"),
		IsActive:    active,
	}
	category, err := h.categories.Create(context.WithoutCancel(c.UserContext()), in, image)
	if err != nil {
		return err
	}
	return created(c, "Category created successfully", category)
}

func (h *categoryHandler) update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	f, err := readForm(c)
	if err != nil {
		return err
	}
	active, err := f.boolean("isActive")
	if err != nil {
		return err
	}
	image, err := f.upload("image")
	if err != nil {
		return err
	}
	patch := services.CategoryPatch{
		Name:        f.str("name"),
		Description: f.str("description"),
		IsActive:    active,
	}
	category, err := h.categories.Update(context.WithoutCancel(c.UserContext()), id, patch, image)
	if err != nil {
		return err
	}
	return ok(c, "Category updated successfully", category)
}

func (h *categoryHandler) delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.categories.Delete(context.WithoutCancel(c.UserContext()), id); err != nil {
		return err
	}
	return ok(c, "Category deleted successfully", nil)
}
