package services

import (
	"context"
	"strings"

	"catalog/apperr"
	"catalog/logging"
	"catalog/models"
	"catalog/storage"
	"catalog/upload"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	IsActive    *bool  `json:"isActive"`
}

type CategoryPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsActive    *bool   `json:"isActive"`
}

type CategoryQuery struct {
	PageRequest
	Search string
	Active *bool
}

type CategoryService struct {
	db       *gorm.DB
	uploader Uploader
	logger   zerolog.Logger
}

func NewCategoryService(db *gorm.DB, uploader Uploader) *CategoryService {
	return &CategoryService{db: db, uploader: uploader, logger: logging.Component("categories")}
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput, image *upload.File) (*models.Category, error) {
	t := track(s.logger, "create category")
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.uploader.Validate(single(image)); err != nil {
		return nil, err
	}

	t.to(stageUploading)
	assets, err := s.uploader.Upload(ctx, storage.NamespaceCategories, single(image))
	if err != nil {
		t.fail(err)
		return nil, err
	}

	t.to(stagePersisting)
	category := models.Category{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if len(assets) > 0 {
		category.SetImage(assets[0])
	}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		t.to(stageRollingBack)
		s.uploader.Rollback(ctx, assets)
		t.fail(err)
		return nil, apperr.Internal(err, "create category")
	}
	t.to(stageDone)
	return &category, nil
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFoundOr(err, "category", id)
	}
	return &category, nil
}

func (s *CategoryService) List(ctx context.Context, q CategoryQuery) (Page[models.Category], error) {
	req := q.PageRequest.normalize()
	query := s.db.WithContext(ctx).Model(&models.Category{})
	if q.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
	}
	if q.Active != nil {
		query = query.Where("is_active = ?", *q.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page[models.Category]{}, apperr.Internal(err, "count categories")
	}
	var items []models.Category
	if err := req.scope(query).Order("id desc").Find(&items).Error; err != nil {
		return Page[models.Category]{}, apperr.Internal(err, "list categories")
	}
	return newPage(items, total, req), nil
}

// Update applies patch and, when image is set, replaces the category image.
// The old image is deleted only after the record write succeeds.
func (s *CategoryService) Update(ctx context.Context, id uint, patch CategoryPatch, image *upload.File) (*models.Category, error) {
	t := track(s.logger, "update category")
	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	if _, err := s.uploader.Validate(single(image)); err != nil {
		return nil, err
	}
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	old := category.Image()

	if patch.Name != nil {
		category.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		category.Description = *patch.Description
	}
	if patch.IsActive != nil {
		category.IsActive = *patch.IsActive
	}

	t.to(stageUploading)
	assets, err := s.uploader.Upload(ctx, storage.NamespaceCategories, single(image))
	if err != nil {
		t.fail(err)
		return nil, err
	}
	if len(assets) > 0 {
		category.SetImage(assets[0])
	}

	t.to(stagePersisting)
	if err := s.db.WithContext(ctx).Save(category).Error; err != nil {
		t.to(stageRollingBack)
		s.uploader.Rollback(ctx, assets)
		t.fail(err)
		return nil, apperr.Internal(err, "update category")
	}
	if len(assets) > 0 && !old.IsZero() {
		s.uploader.Discard(ctx, []models.ImageAsset{old})
	}
	t.to(stageDone)
	return category, nil
}

// Delete removes the category and then its image. Products and banners that
// reference the category are left as they are.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	category, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(category).Error; err != nil {
		return apperr.Internal(err, "delete category")
	}
	if img := category.Image(); !img.IsZero() {
		s.uploader.Discard(ctx, []models.ImageAsset{img})
	}
	return nil
}
