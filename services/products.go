package services

import (
	"context"
	"sort"
	"strings"

	"catalog/apperr"
	"catalog/logging"
	"catalog/models"
	"catalog/storage"
	"catalog/upload"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type ProductInput struct {
	Title           string                 `json:"title" validate:"required,max=200"`
	Description     string                 `json:"description" validate:"max=5000"`
	Price           float64                `json:"price" validate:"gt=0"`
	DiscountedPrice float64                `json:"discountedPrice" validate:"gte=0"`
	IsAvailable     *bool                  `json:"isAvailable"`
	Rating          float64                `json:"rating" validate:"gte=0,lte=5"`
	CategoryID      uint                   `json:"category" validate:"required"`
	Specifications  []models.Specification `json:"specifications" validate:"dive"`
	Instructions    []models.Instruction   `json:"instructions" validate:"dive"`
}

// ProductPatch changes only the fields that are set. A non-nil slice replaces
// the stored one, even when empty.
type ProductPatch struct {
	Title           *string                `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string                `json:"description" validate:"omitempty,max=5000"`
	Price           *float64               `json:"price" validate:"omitempty,gt=0"`
	DiscountedPrice *float64               `json:"discountedPrice" validate:"omitempty,gte=0"`
	IsAvailable     *bool                  `json:"isAvailable"`
	Rating          *float64               `json:"rating" validate:"omitempty,gte=0,lte=5"`
	CategoryID      *uint                  `json:"category" validate:"omitempty,gt=0"`
	Specifications  []models.Specification `json:"specifications" validate:"omitempty,dive"`
	Instructions    []models.Instruction   `json:"instructions" validate:"omitempty,dive"`
	// RemoveImages lists storage keys of images to drop when no new files are sent.
	RemoveImages []string `json:"removeImages"`
}

type ProductQuery struct {
	PageRequest
	Search     string
	CategoryID uint
	Available  *bool
}

type ProductService struct {
	db       *gorm.DB
	uploader Uploader
	logger   zerolog.Logger
}

func NewProductService(db *gorm.DB, uploader Uploader) *ProductService {
	return &ProductService{db: db, uploader: uploader, logger: logging.Component("products")}
}

// Create stores images and then the product that references them. If the
// product cannot be written the images are deleted again.
func (s *ProductService) Create(ctx context.Context, in ProductInput, images []upload.File) (*models.Product, error) {
	t := track(s.logger, "create product")
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := checkPrices(in.Price, in.DiscountedPrice); err != nil {
		return nil, err
	}
	if _, err := s.uploader.Validate(images); err != nil {
		return nil, err
	}
	if err := ensureCategory(ctx, s.db, in.CategoryID); err != nil {
		return nil, err
	}

	t.to(stageUploading)
	assets, err := s.uploader.Upload(ctx, storage.NamespaceProducts, images)
	if err != nil {
		t.fail(err)
		return nil, err
	}

	t.to(stagePersisting)
	product := models.Product{
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Price:           in.Price,
		DiscountedPrice: in.DiscountedPrice,
		IsAvailable:     in.IsAvailable == nil || *in.IsAvailable,
		Rating:          in.Rating,
		Images:          assets,
		Specifications:  in.Specifications,
		Instructions:    in.Instructions,
		CategoryID:      in.CategoryID,
	}
	if err := s.db.WithContext(ctx).Omit("Category").Create(&product).Error; err != nil {
		t.to(stageRollingBack)
		s.uploader.Rollback(ctx, assets)
		t.fail(err)
		return nil, apperr.Internal(err, "create product")
	}
	t.to(stageDone)
	return s.Get(ctx, product.ID)
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Preload("Category").First(&product, id).Error; err != nil {
		return nil, notFoundOr(err, "product", id)
	}
	return &product, nil
}

func (s *ProductService) List(ctx context.Context, q ProductQuery) (Page[models.Product], error) {
	req := q.PageRequest.normalize()
	query := s.db.WithContext(ctx).Model(&models.Product{})
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if q.CategoryID != 0 {
		query = query.Where("category_id = ?", q.CategoryID)
	}
	if q.Available != nil {
		query = query.Where("is_available = ?", *q.Available)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page[models.Product]{}, apperr.Internal(err, "count products")
	}
	var items []models.Product
	if err := req.scope(query).Preload("Category").Order("id desc").Find(&items).Error; err != nil {
		return Page[models.Product]{}, apperr.Internal(err, "list products")
	}
	return newPage(items, total, req), nil
}

// Update applies patch. New images replace the whole image list; otherwise
// RemoveImages drops individual images. Images that leave the product are
// deleted from storage only after the write succeeds; if the write fails the
// old images stay and the new ones are rolled back.
func (s *ProductService) Update(ctx context.Context, id uint, patch ProductPatch, images []upload.File) (*models.Product, error) {
	t := track(s.logger, "update product")
	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	if _, err := s.uploader.Validate(images); err != nil {
		return nil, err
	}

	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, notFoundOr(err, "product", id)
	}
	old := product.Images

	if err := s.apply(ctx, &product, patch); err != nil {
		return nil, err
	}
	kept, err := withoutKeys(old, patch.RemoveImages)
	if err != nil {
		return nil, err
	}

	t.to(stageUploading)
	assets, err := s.uploader.Upload(ctx, storage.NamespaceProducts, images)
	if err != nil {
		t.fail(err)
		return nil, err
	}
	if len(assets) > 0 {
		product.Images = assets
	} else {
		product.Images = kept
	}

	t.to(stagePersisting)
	if err := s.db.WithContext(ctx).Omit("Category").Save(&product).Error; err != nil {
		t.to(stageRollingBack)
		s.uploader.Rollback(ctx, assets)
		t.fail(err)
		return nil, apperr.Internal(err, "update product")
	}
	s.uploader.Discard(ctx, dropped(old, product.Images))
	t.to(stageDone)
	return s.Get(ctx, product.ID)
}

func (s *ProductService) apply(ctx context.Context, p *models.Product, patch ProductPatch) error {
	if patch.Title != nil {
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.DiscountedPrice != nil {
		p.DiscountedPrice = *patch.DiscountedPrice
	}
	if patch.IsAvailable != nil {
		p.IsAvailable = *patch.IsAvailable
	}
	if patch.Rating != nil {
		p.Rating = *patch.Rating
	}
	if patch.Specifications != nil {
		p.Specifications = patch.Specifications
	}
	if patch.Instructions != nil {
		p.Instructions = patch.Instructions
	}
	if err := checkPrices(p.Price, p.DiscountedPrice); err != nil {
		return err
	}
	if patch.CategoryID != nil && *patch.CategoryID != p.CategoryID {
		if err := ensureCategory(ctx, s.db, *patch.CategoryID); err != nil {
			return err
		}
		p.CategoryID = *patch.CategoryID
	}
	return nil
}

// Delete removes the product and then its images.
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return notFoundOr(err, "product", id)
	}
	if err := s.db.WithContext(ctx).Delete(&product).Error; err != nil {
		return apperr.Internal(err, "delete product")
	}
	s.uploader.Discard(ctx, product.Images)
	return nil
}

func withoutKeys(images []models.ImageAsset, keys []string) ([]models.ImageAsset, error) {
	if len(keys) == 0 {
		return images, nil
	}
	remove := make(map[string]bool, len(keys))
	for _, k := range keys {
		remove[k] = true
	}
	kept := make([]models.ImageAsset, 0, len(images))
	for _, img := range images {
		if remove[img.StorageKey] {
			delete(remove, img.StorageKey)
			continue
		}
		kept = append(kept, img)
	}
	if len(remove) > 0 {
		missing := make([]string, 0, len(remove))
		for k := range remove {
			missing = append(missing, k)
		}
		sort.Strings(missing)
		return nil, apperr.Validation("image %q does not belong to this product", missing[0])
	}
	return kept, nil
}

// dropped returns the assets in before that are not in after.
func dropped(before, after []models.ImageAsset) []models.ImageAsset {
	keep := make(map[string]bool, len(after))
	for _, a := range after {
		keep[a.StorageKey] = true
	}
	var out []models.ImageAsset
	for _, b := range before {
		if !keep[b.StorageKey] {
			out = append(out, b)
		}
	}
	return out
}
