// Package imaging shrinks uploaded images before they go to object storage.
package imaging

import (
	"bytes"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"catalog/apperr"

	"golang.org/x/image/webp"
)

const DefaultQuality = 60

// Compressor re-encodes images in their own format. It holds no state besides
// its settings and is safe for concurrent use.
type Compressor struct {
	quality int
}

func NewCompressor(quality int) *Compressor {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Compressor{quality: quality}
}

func (c *Compressor) Quality() int {
	return c.quality
}

// Compress returns data re-encoded as contentType. JPEG is re-encoded at the
// configured quality, PNG at best compression and GIF frame by frame. WebP is
// only decoded as a check since there is no pure-Go encoder. When re-encoding
// does not make the image smaller the original bytes are returned.
func (c *Compressor) Compress(data []byte, contentType string) ([]byte, error) {
	var out bytes.Buffer

	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, apperr.Compression(err, "decode jpeg")
		}
		if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: c.quality}); err != nil {
			return nil, apperr.Compression(err, "encode jpeg")
		}
	case "image/png":
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, apperr.Compression(err, "decode png")
		}
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&out, img); err != nil {
			return nil, apperr.Compression(err, "encode png")
		}
	case "image/gif":
		anim, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, apperr.Compression(err, "decode gif")
		}
		if err := gif.EncodeAll(&out, anim); err != nil {
			return nil, apperr.Compression(err, "encode gif")
		}
	case "image/webp":
		if _, err := webp.Decode(bytes.NewReader(data)); err != nil {
			return nil, apperr.Compression(err, "decode webp")
		}
		return data, nil
	default:
		return nil, apperr.Compression(nil, "unsupported content type %q", contentType)
	}

	if out.Len() >= len(data) {
		return data, nil
	}
	return out.Bytes(), nil
}
