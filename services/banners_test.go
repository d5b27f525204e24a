package services

import (
	"context"
	"testing"

	"catalog/apperr"
	"catalog/db/dbtest"
	"catalog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBannerCreate(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "Curtains")
	img := images(1)[0]

	b, err := f.banners.Create(context.Background(), BannerInput{Title: "Summer sale", Subtitle: "-30%", CategoryID: cat.ID}, &img)
	require.NoError(t, err)
	assert.Equal(t, "Curtains", b.Category.Name)
	assert.True(t, b.IsActive)
	assert.True(t, f.store.Has(b.Image.StorageKey))
	assert.Contains(t, b.Image.StorageKey, "banners/")
}

func TestBannerCreate_RequiresImage(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "Curtains")

	_, err := f.banners.Create(context.Background(), BannerInput{Title: "Sale", CategoryID: cat.ID}, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestBannerCreate_WriteFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "Curtains")
	dbtest.FailWrites(t, f.db, "banners", errWrite)
	img := images(1)[0]

	_, err := f.banners.Create(context.Background(), BannerInput{Title: "Sale", CategoryID: cat.ID}, &img)
	require.Error(t, err)
	assert.Len(t, f.store.Deletes(), 1)
	assert.Zero(t, f.store.Len())

	var n int64
	require.NoError(t, f.db.Model(&models.Banner{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestBannerUpdate_SwapsImage(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "Curtains")
	ctx := context.Background()
	img := images(1)[0]
	b, err := f.banners.Create(ctx, BannerInput{Title: "Sale", CategoryID: cat.ID}, &img)
	require.NoError(t, err)

	inactive := false
	next := images(1)[0]
	updated, err := f.banners.Update(ctx, b.ID, BannerPatch{IsActive: &inactive}, &next)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.NotEqual(t, b.Image.StorageKey, updated.Image.StorageKey)
	assert.False(t, f.store.Has(b.Image.StorageKey))
	assert.True(t, f.store.Has(updated.Image.StorageKey))
}

func TestBannerUpdate_WriteFailureKeepsOldImage(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "Curtains")
	ctx := context.Background()
	img := images(1)[0]
	b, err := f.banners.Create(ctx, BannerInput{Title: "Sale", CategoryID: cat.ID}, &img)
	require.NoError(t, err)

	dbtest.FailWrites(t, f.db, "banners", errWrite)
	next := images(1)[0]
	_, err = f.banners.Update(ctx, b.ID, BannerPatch{}, &next)
	require.Error(t, err)

	assert.True(t, f.store.Has(b.Image.StorageKey))
	assert.Equal(t, 1, f.store.Len())
}

func TestBannerDelete(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "Curtains")
	ctx := context.Background()
	img := images(1)[0]
	b, err := f.banners.Create(ctx, BannerInput{Title: "Sale", CategoryID: cat.ID}, &img)
	require.NoError(t, err)

	require.NoError(t, f.banners.Delete(ctx, b.ID))
	assert.Zero(t, f.store.Len())
	_, err = f.banners.Get(ctx, b.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestBannerList_ActiveFilter(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "Curtains")
	ctx := context.Background()
	inactive := false
	for i, active := range []*bool{nil, &inactive, nil} {
		img := images(1)[0]
		_, err := f.banners.Create(ctx, BannerInput{Title: "Banner", CategoryID: cat.ID, IsActive: active}, &img)
		require.NoError(t, err, "banner %d", i)
	}

	yes := true
	page, err := f.banners.List(ctx, BannerQuery{Active: &yes})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}
