package models

import "time"

type Category struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"not null;index" json:"name"`
	Description     string    `json:"description"`
	ImageURL        string    `json:"imageUrl"`
	ImageStorageKey string    `json:"-"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (c *Category) Image() ImageAsset {
	return ImageAsset{URL: c.ImageURL, StorageKey: c.ImageStorageKey}
}

func (c *Category) SetImage(a ImageAsset) {
	c.ImageURL = a.URL
	c.ImageStorageKey = a.StorageKey
}
