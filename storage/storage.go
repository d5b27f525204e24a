// Package storage puts image bytes into object storage and removes them again.
package storage

import (
	"context"
	"strings"

	"catalog/models"

	"github.com/google/uuid"
)

// Storage is implemented by every object-storage backend.
type Storage interface {
	// Put stores data under key and returns the asset that references it.
	Put(ctx context.Context, key string, data []byte, contentType string) (models.ImageAsset, error)
	// Delete removes the object under key. Deleting a key that does not exist is not an error.
	Delete(ctx context.Context, key string) error
}

// Namespace is the key prefix for one entity type.
type Namespace string

const (
	NamespaceProducts   Namespace = "products"
	NamespaceBanners    Namespace = "banners"
	NamespaceCategories Namespace = "categories"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// NewKey returns a fresh, collision-free key such as "products/6f1c...e2.jpg".
func NewKey(ns Namespace, contentType string) string {
	return string(ns) + "/" + uuid.New().String() + extensions[strings.ToLower(contentType)]
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
