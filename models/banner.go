package models

import "time"

type Banner struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Subtitle    string     `json:"subtitle"`
	Description string     `json:"description"`
	Image       ImageAsset `gorm:"embedded;embeddedPrefix:image_" json:"image"`
	IsActive    bool       `json:"isActive"`
	CategoryID  uint       `gorm:"not null;index" json:"categoryId"`
	Category    Category   `gorm:"foreignKey:CategoryID" json:"category"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}
