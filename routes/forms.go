package routes

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"catalog/apperr"
	"catalog/upload"

	"github.com/gofiber/fiber/v2"
)

// form holds the fields and files of a multipart or url-encoded request body.
// Field accessors return nil when the field was not sent, so callers can tell
// "absent" from "empty".
type form struct {
	values map[string][]string
	files  map[string][]*multipart.FileHeader
}

func readForm(c *fiber.Ctx) (*form, error) {
	f := &form{values: map[string][]string{}, files: map[string][]*multipart.FileHeader{}}
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))
	switch {
	case strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		mf, err := c.MultipartForm()
		if err != nil {
			return nil, apperr.Validation("malformed multipart body: %v", err)
		}
		f.values = mf.Value
		f.files = mf.File
	case strings.HasPrefix(ct, fiber.MIMEApplicationForm):
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			key := string(k)
			f.values[key] = append(f.values[key], string(v))
		})
	case ct == "" && len(c.Body()) == 0:
	default:
		return nil, apperr.Validation("content type must be %s or %s", fiber.MIMEMultipartForm, fiber.MIMEApplicationForm)
	}
	return f, nil
}

func (f *form) str(name string) *string {
	v, found := f.values[name]
	if !found || len(v) == 0 {
		return nil
	}
	s := v[0]
	return &s
}

func (f *form) text(name string) string {
	if s := f.str(name); s != nil {
		return *s
	}
	return ""
}

func (f *form) float(name string) (*float64, error) {
	s := f.str(name)
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil {
		return nil, apperr.Validation("%s must be a number", name)
	}
	return &v, nil
}

func (f *form) boolean(name string) (*bool, error) {
	s := f.str(name)
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(*s))
	if err != nil {
		return nil, apperr.Validation("%s must be true or false", name)
	}
	return &v, nil
}

func (f *form) id(name string) (*uint, error) {
	s := f.str(name)
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(strings.TrimSpace(*s), 10, 64)
	if err != nil || v == 0 {
		return nil, apperr.Validation("%s must be a positive id", name)
	}
	id := uint(v)
	return &id, nil
}

// jsonField decodes a field carrying embedded JSON into dst. It reports whether
// the field was present.
func (f *form) jsonField(name string, dst any) (bool, error) {
	s := f.str(name)
	if s == nil || strings.TrimSpace(*s) == "" {
		return false, nil
	}
	dec := json.NewDecoder(strings.NewReader(*s))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return true, apperr.Validation("%s must be valid JSON: %v", name, err)
	}
	return true, nil
}

// list returns every value of a repeated field, also accepting a single
// comma-separated value or a JSON array.
func (f *form) list(name string) ([]string, error) {
	values := f.values[name]
	if len(values) == 1 {
		v := strings.TrimSpace(values[0])
		if strings.HasPrefix(v, "[") {
			var out []string
			if err := json.Unmarshal([]byte(v), &out); err != nil {
				return nil, apperr.Validation("%s must be a JSON array of strings", name)
			}
			return out, nil
		}
		values = strings.Split(v, ",")
	}
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

// uploads reads every file sent under name.
func (f *form) uploads(name string) ([]upload.File, error) {
	headers := f.files[name]
	files := make([]upload.File, 0, len(headers))
	for _, h := range headers {
		data, err := readFile(h)
		if err != nil {
			return nil, err
		}
		files = append(files, upload.File{Name: h.Filename, ContentType: h.Header.Get(fiber.HeaderContentType), Data: data})
	}
	return files, nil
}

// upload reads the single file sent under name, or returns nil.
func (f *form) upload(name string) (*upload.File, error) {
	files, err := f.uploads(name)
	if err != nil {
		return nil, err
	}
	switch len(files) {
	case 0:
		return nil, nil
	case 1:
		return &files[0], nil
	default:
		return nil, apperr.Validation("%s accepts a single file, got %d", name, len(files))
	}
}

func readFile(h *multipart.FileHeader) ([]byte, error) {
	src, err := h.Open()
	if err != nil {
		return nil, apperr.Validation("cannot read file %q: %v", h.Filename, err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, apperr.Validation("cannot read file %q: %v", h.Filename, err)
	}
	return data, nil
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid id %q", c.Params("id"))
	}
	return uint(id), nil
}
