package models

// ImageAsset is a stored image: its public URL and the key it lives under in object storage.
type ImageAsset struct {
	URL        string `json:"url"`
	StorageKey string `json:"storageKey"`
}

func (a ImageAsset) IsZero() bool {
	return a.StorageKey == "" && a.URL == ""
}
