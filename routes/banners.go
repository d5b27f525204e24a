package routes

import (
	"context"

	"catalog/services"

	"github.com/gofiber/fiber/v2"
)

type bannerHandler struct {
	banners *services.BannerService
}

func (h *bannerHandler) list(c *fiber.Ctx) error {
	categoryID, err := queryID(c, "category")
	if err != nil {
		return err
	}
	active, err := queryBool(c, "active")
	if err != nil {
		return err
	}
	page, err := h.banners.List(c.UserContext(), services.BannerQuery{
		PageRequest: pageRequest(c),
		CategoryID:  categoryID,
		Active:      active,
	})
	if err != nil {
		return err
	}
	return paginated(c, "Banners retrieved successfully", "totalBanners", page)
}

func (h *bannerHandler) get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	banner, err := h.banners.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "Banner retrieved successfully", banner)
}

func (h *bannerHandler) create(c *fiber.Ctx) error {
	f, err := readForm(c)
	if err != nil {
		return err
	}
	active, err := f.boolean("isActive")
	if err != nil {
		return err
	}
	category, err := f.id("category")
	if err != nil {
		return err
	}
	image, err := f.upload("image")
	if err != nil {
		return err
	}
	in := services.BannerInput{
		Title:       f.text("title"),
		Subtitle:    f.text("subtitle"),
		Description: f.text("description"),
		CategoryID:  deref(category),
		IsActive:    active,
	}
	banner, err := h.banners.Create(context.WithoutCancel(c.UserContext()), in, image)
	if err != nil {
		return err
	}
	return created(c, "Banner created successfully", banner)
}

func (h *bannerHandler) update(c *fiber.Ctx) error {
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
	category, err := f.id("category")
	if err != nil {
		return err
	}
	image, err := f.upload("image")
	if err != nil {
		return err
	}
	patch := services.BannerPatch{
		Title:       f.str("title"),
		Subtitle:    f.str("subtitle"),
		Description: f.str("description"),
		CategoryID:  category,
		IsActive:    active,
	}
	banner, err := h.banners.Update(context.WithoutCancel(c.UserContext()), id, patch, image)
	if err != nil {
		return err
	}
	return ok(c, "Banner updated successfully", banner)
}

func (h *bannerHandler) delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.banners.Delete(context.WithoutCancel(c.UserContext()), id); err != nil {
		return err
	}
	return ok(c, "Banner deleted successfully", nil)
}
