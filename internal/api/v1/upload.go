package v1

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/stacklok/opendata-catalog-server/internal/ingest"
)

const (
	// multipartMemory is how much of a multipart body is held in memory before spilling to disk
	multipartMemory = 8 << 20
	// formOverhead allows for the non-file fields and part headers of an upload
	formOverhead = 1 << 20
)

// uploadForm is a parsed multipart (or url-encoded) upload request
type uploadForm struct {
	r      *http.Request
	file   multipart.File
	Source ingest.Source
}

// parseUploadForm reads the "file" part and "url" field of r into an ingest.Source.
// Exclusivity of the two is enforced by the service, not here.
func (routes *Routes) parseUploadForm(w http.ResponseWriter, r *http.Request) (*uploadForm, error) {
	if routes.maxUploadSize > 0 {
		limit := routes.maxUploadSize + formOverhead
		if r.ContentLength > limit {
			return nil, fmt.Errorf("%w: request body exceeds %d bytes", ingest.ErrPayloadTooLarge, limit)
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: request body exceeds %d bytes", ingest.ErrPayloadTooLarge, maxErr.Limit)
		}
		return nil, fmt.Errorf("invalid form data: %w", err)
	}

	form := &uploadForm{r: r}
	form.Source.URL = strings.TrimSpace(r.FormValue("url"))

	if r.MultipartForm != nil {
		file, header, err := r.FormFile("file")
		switch {
		case err == nil:
			form.file = file
			form.Source.File = file
			form.Source.FileName = header.Filename
		case errors.Is(err, http.ErrMissingFile):
		default:
			return nil, fmt.Errorf("invalid file part: %w", err)
		}
	}

	return form, nil
}

// Value returns a trimmed form field
func (f *uploadForm) Value(key string) string {
	return strings.TrimSpace(f.r.FormValue(key))
}

// Bool parses an optional boolean field. ok is false when the field is absent.
func (f *uploadForm) Bool(key string) (value, ok bool, err error) {
	raw := f.Value(key)
	if raw == "" {
		return false, false, nil
	}
	value, err = strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("invalid %s parameter: must be a boolean", key)
	}
	return value, true, nil
}

// Close releases the uploaded file and any temporary files of the form
func (f *uploadForm) Close() {
	if f.file != nil {
		_ = f.file.Close()
	}
	if f.r.MultipartForm != nil {
		_ = f.r.MultipartForm.RemoveAll()
	}
}
