// Package services writes catalog records together with their images and keeps
// the two consistent by deleting uploaded images when a record write fails.
package services

import (
	"context"
	"errors"
	"fmt"

	"catalog/apperr"
	"catalog/models"
	"catalog/storage"
	"catalog/upload"

	"gorm.io/gorm"
)

// Uploader is the part of *upload.Pipeline the services depend on.
type Uploader interface {
	Validate(files []upload.File) ([]upload.File, error)
	Upload(ctx context.Context, ns storage.Namespace, files []upload.File) ([]models.ImageAsset, error)
	Rollback(ctx context.Context, assets []models.ImageAsset)
	Discard(ctx context.Context, assets []models.ImageAsset)
}

var _ Uploader = (*upload.Pipeline)(nil)

func ensureCategory(ctx context.Context, db *gorm.DB, id uint) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperr.Internal(err, "look up category")
	}
	if count == 0 {
		return apperr.Validation("category %d not found", id)
	}
	return nil
}

func notFoundOr(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	return apperr.Internal(err, fmt.Sprintf("load %s %d", what, id))
}

func checkPrices(price, discounted float64) error {
	if discounted > price {
		return apperr.Validation("discountedPrice must not exceed price")
	}
	return nil
}

func single(f *upload.File) []upload.File {
	if f == nil {
		return nil
	}
	return []upload.File{*f}
}
