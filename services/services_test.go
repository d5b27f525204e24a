package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"catalog/db/dbtest"
	"catalog/imaging"
	"catalog/imaging/imagingtest"
	"catalog/models"
	"catalog/storage/storagetest"
	"catalog/upload"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errWrite = errors.New("database is read-only")

type fixture struct {
	db         *gorm.DB
	store      *storagetest.Recorder
	categories *CategoryService
	products   *ProductService
	banners    *BannerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.New(t)
	store := storagetest.NewRecorder()
	pipeline := upload.New(store, imaging.NewCompressor(imaging.DefaultQuality), upload.WithLogger(zerolog.Nop()))
	return &fixture{
		db:         conn,
		store:      store,
		categories: NewCategoryService(conn, pipeline),
		products:   NewProductService(conn, pipeline),
		banners:    NewBannerService(conn, pipeline),
	}
}

func (f *fixture) category(t *testing.T, name string) *models.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), CategoryInput{Name: name}, nil)
	require.NoError(t, err)
	return c
}

func images(n int) []upload.File {
	files := make([]upload.File, n)
	for i := range files {
		files[i] = upload.File{Name: fmt.Sprintf("photo-%d.jpg", i), ContentType: "image/jpeg", Data: imagingtest.JPEG(16, 16)}
	}
	return files
}

func productCount(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&n).Error)
	return n
}
