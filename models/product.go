package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Product struct {
	ID              uint                               `gorm:"primaryKey" json:"id"`
	Title           string                             `gorm:"not null;index" json:"title"`
	Description     string                             `json:"description"`
	Price           float64                            `gorm:"not null" json:"price"`
	DiscountedPrice float64                            `json:"discountedPrice"`
	IsAvailable     bool                               `json:"isAvailable"`
	Rating          float64                            `json:"rating"`
	Images          []ImageAsset                       `gorm:"type:text;serializer:json" json:"images"`
	Specifications  datatypes.JSONSlice[Specification] `json:"specifications"`
	Instructions    datatypes.JSONSlice[Instruction]   `json:"instructions"`
	CategoryID      uint                               `gorm:"not null;index" json:"categoryId"`
	Category        Category                           `gorm:"foreignKey:CategoryID" json:"category"` // Belongs to one Category
	CreatedAt       time.Time                          `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time                          `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Specification is a selectable product attribute, e.g. {"title": "Color", "options": ["red", "blue"]}.
// Options behave as a set: duplicates are rejected on input.
type Specification struct {
	Title   string   `json:"title" validate:"required"`
	Options []string `json:"options" validate:"required,min=1,unique,dive,required"`
}

type Instruction struct {
	Title string   `json:"title" validate:"required"`
	Value []string `json:"value" validate:"required,min=1,dive,required"`
}

// StorageKeys lists the keys of every image the product owns.
func (p *Product) StorageKeys() []string {
	keys := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		keys = append(keys, img.StorageKey)
	}
	return keys
}

// AfterFind keeps empty lists as [] rather than null in API output.
func (p *Product) AfterFind(tx *gorm.DB) error {
	if p.Images == nil {
		p.Images = []ImageAsset{}
	}
	if p.Specifications == nil {
		p.Specifications = datatypes.JSONSlice[Specification]{}
	}
	if p.Instructions == nil {
		p.Instructions = datatypes.JSONSlice[Instruction]{}
	}
	return nil
}
