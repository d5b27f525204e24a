package routes

import (
	"context"

	"catalog/models"
	"catalog/services"

	"github.com/gofiber/fiber/v2"
)

type productHandler struct {
	products *services.ProductService
}

func (h *productHandler) list(c *fiber.Ctx) error {
	categoryID, err := queryID(c, "category")
	if err != nil {
		return err
	}
	available, err := queryBool(c, "available")
	if err != nil {
		return err
	}
	page, err := h.products.List(c.UserContext(), services.ProductQuery{
		PageRequest: pageRequest(c),
		Search:      c.Query("search"),
		CategoryID:  categoryID,
		Available:   available,
	})
	if err != nil {
		return err
	}
	return paginated(c, "Products retrieved successfully", "totalProducts", page)
}

func (h *productHandler) get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	product, err := h.products.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "Product retrieved successfully", product)
}

// productFields is the form representation shared by create and update.
type productFields struct {
	price, discountedPrice, rating *float64
	isAvailable                    *bool
	category                       *uint
	specifications                 []models.Specification
	instructions                   []models.Instruction
	hasSpecs, hasInstructions      bool
}

// parseProductFields turns the embedded JSON fields into typed values before
// anything is uploaded.
func parseProductFields(f *form) (productFields, error) {
	var p productFields
	var err error
	if p.price, err = f.float("price"); err != nil {
		return p, err
	}
	if p.discountedPrice, err = f.float("discountedPrice"); err != nil {
		return p, err
	}
	if p.rating, err = f.float("rating"); err != nil {
		return p, err
	}
	if p.isAvailable, err = f.boolean("isAvailable"); err != nil {
		return p, err
	}
	if p.category, err = f.id("category"); err != nil {
		return p, err
	}
	if p.hasSpecs, err = f.jsonField("specifications", &p.specifications); err != nil {
		return p, err
	}
	if p.hasInstructions, err = f.jsonField("instructions", &p.instructions); err != nil {
		return p, err
	}
	return p, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (h *productHandler) create(c *fiber.Ctx) error {
	f, err := readForm(c)
	if err != nil {
		return err
	}
	fields, err := parseProductFields(f)
	if err != nil {
		return err
	}
	images, err := f.uploads("images")
	if err != nil {
		return err
	}
	in := services.ProductInput{
		Title:           f.text("title"),
		Description:     f.text("description"),
		Price:           deref(fields.price),
		DiscountedPrice: deref(fields.discountedPrice),
		IsAvailable:     fields.isAvailable,
		Rating:          deref(fields.rating),
		CategoryID:      deref(fields.category),
		Specifications:  fields.specifications,
		Instructions:    fields.instructions,
	}
	product, err := h.products.Create(context.WithoutCancel(c.UserContext()), in, images)
	if err != nil {
		return err
	}
	return created(c, "Product created successfully", product)
}

func (h *productHandler) update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	f, err := readForm(c)
	if err != nil {
		return err
	}
	fields, err := parseProductFields(f)
	if err != nil {
		return err
	}
	images, err := f.uploads("images")
	if err != nil {
		return err
	}
	remove, err := f.list("removeImages")
	if err != nil {
		return err
	}
	patch := services.ProductPatch{
		Title:           f.str("title"),
		Description:     f.str("description"),
		Price:           fields.price,
		DiscountedPrice: fields.discountedPrice,
		IsAvailable:     fields.isAvailable,
		Rating:          fields.rating,
		CategoryID:      fields.category,
		RemoveImages:    remove,
	}
	if fields.hasSpecs {
		patch.Specifications = nonNil(fields.specifications)
	}
	if fields.hasInstructions {
		patch.Instructions = nonNil(fields.instructions)
	}
	product, err := h.products.Update(context.WithoutCancel(c.UserContext()), id, patch, images)
	if err != nil {
		return err
	}
	return ok(c, "Product updated successfully", product)
}

func (h *productHandler) delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.products.Delete(context.WithoutCancel(c.UserContext()), id); err != nil {
		return err
	}
	return ok(c, "Product deleted successfully", nil)
}

// nonNil keeps an explicit empty list distinguishable from "not sent".
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
