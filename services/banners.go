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

type BannerInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Subtitle    string `json:"subtitle" validate:"max=200"`
	Description string `json:"description" validate:"max=2000"`
	CategoryID  uint   `json:"category" validate:"required"`
	IsActive    *bool  `json:"isActive"`
}

type BannerPatch struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Subtitle    *string `json:"subtitle" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	CategoryID  *uint   `json:"category" validate:"omitempty,gt=0"`
	IsActive    *bool   `json:"isActive"`
}

type BannerQuery struct {
	PageRequest
	CategoryID uint
	Active     *bool
}

type BannerService struct {
	db       *gorm.DB
	uploader Uploader
	logger   zerolog.Logger
}

func NewBannerService(db *gorm.DB, uploader Uploader) *BannerService {
	return &BannerService{db: db, uploader: uploader, logger: logging.Component("banners")}
}

// Create requires exactly one image.
func (s *BannerService) Create(ctx context.Context, in BannerInput, image *upload.File) (*models.Banner, error) {
	t := track(s.logger, "create banner")
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if image == nil {
		return nil, apperr.Validation("image is required")
	}
	if _, err := s.uploader.Validate(single(image)); err != nil {
		return nil, err
	}
	if err := ensureCategory(ctx, s.db, in.CategoryID); err != nil {
		return nil, err
	}

	t.to(stageUploading)
	assets, err := s.uploader.Upload(ctx, storage.NamespaceBanners, single(image))
	if err != nil {
		t.fail(err)
		return nil, err
	}

	t.to(stagePersisting)
	banner := models.Banner{
		Title:       strings.TrimSpace(in.Title),
		Subtitle:    in.Subtitle,
		Description: in.Description,
		Image:       assets[0],
		IsActive:    in.IsActive == nil || *in.IsActive,
		CategoryID:  in.CategoryID,
	}
	if err := s.db.WithContext(ctx).Omit("Category").Create(&banner).Error; err != nil {
		t.to(stageRollingBack)
		s.uploader.Rollback(ctx, assets)
		t.fail(err)
		return nil, apperr.Internal(err, "create banner")
	}
	t.to(stageDone)
	return s.Get(ctx, banner.ID)
}

func (s *BannerService) Get(ctx context.Context, id uint) (*models.Banner, error) {
	var banner models.Banner
	if err := s.db.WithContext(ctx).Preload("Category").First(&banner, id).Error; err != nil {
		return nil, notFoundOr(err, "banner", id)
	}
	return &banner, nil
}

func (s *BannerService) List(ctx context.Context, q BannerQuery) (Page[models.Banner], error) {
	req := q.PageRequest.normalize()
	query := s.db.WithContext(ctx).Model(&models.Banner{})
	if q.CategoryID != 0 {
		query = query.Where("category_id = ?", q.CategoryID)
	}
	if q.Active != nil {
		query = query.Where("is_active = ?", *q.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page[models.Banner]{}, apperr.Internal(err, "count banners")
	}
	var items []models.Banner
	if err := req.scope(query).Preload("Category").Order("id desc").Find(&items).Error; err != nil {
		return Page[models.Banner]{}, apperr.Internal(err, "list banners")
	}
	return newPage(items, total, req), nil
}

// Update applies patch and, when image is set, swaps the banner image. The old
// image is deleted only after the write succeeds.
func (s *BannerService) Update(ctx context.Context, id uint, patch BannerPatch, image *upload.File) (*models.Banner, error) {
	t := track(s.logger, "update banner")
	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	if _, err := s.uploader.Validate(single(image)); err != nil {
		return nil, err
	}

	var banner models.Banner
	if err := s.db.WithContext(ctx).First(&banner, id).Error; err != nil {
		return nil, notFoundOr(err, "banner", id)
	}
	old := banner.Image

	if patch.Title != nil {
		banner.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Subtitle != nil {
		banner.Subtitle = *patch.Subtitle
	}
	if patch.Description != nil {
		banner.Description = *patch.Description
	}
	if patch.IsActive != nil {
		banner.IsActive = *patch.IsActive
	}
	if patch.CategoryID != nil && *patch.CategoryID != banner.CategoryID {
		if err := ensureCategory(ctx, s.db, *patch.CategoryID); err != nil {
			return nil, err
		}
		banner.CategoryID = *patch.CategoryID
	}

	t.to(stageUploading)
	assets, err := s.uploader.Upload(ctx, storage.NamespaceBanners, single(image))
	if err != nil {
		t.fail(err)
		return nil, err
	}
	if len(assets) > 0 {
		banner.Image = assets[0]
	}

	t.to(stagePersisting)
	if err := s.db.WithContext(ctx).Omit("Category").Save(&banner).Error; err != nil {
		t.to(stageRollingBack)
		s.uploader.Rollback(ctx, assets)
		t.fail(err)
		return nil, apperr.Internal(err, "update banner")
	}
	if len(assets) > 0 {
		s.uploader.Discard(ctx, []models.ImageAsset{old})
	}
	t.to(stageDone)
	return s.Get(ctx, banner.ID)
}

func (s *BannerService) Delete(ctx context.Context, id uint) error {
	var banner models.Banner
	if err := s.db.WithContext(ctx).First(&banner, id).Error; err != nil {
		return notFoundOr(err, "banner", id)
	}
	if err := s.db.WithContext(ctx).Delete(&banner).Error; err != nil {
		return apperr.Internal(err, "delete banner")
	}
	s.uploader.Discard(ctx, []models.ImageAsset{banner.Image})
	return nil
}
