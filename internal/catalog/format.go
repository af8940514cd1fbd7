package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a supported catalog serialization
type Format string

const (
	// FormatJSON is a data.json catalog
	FormatJSON Format = "json"

	// FormatXLSX is a spreadsheet catalog with catalog, dataset and distribution sheets
	FormatXLSX Format = "xlsx"
)

// ErrUnknownFormat is returned when a value does not name a supported format
var ErrUnknownFormat = errors.New("unknown catalog format")

// SupportedFormats lists every accepted format
var SupportedFormats = []Format{FormatJSON, FormatXLSX}

// ParseFormat converts a user supplied value into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath infers the format from a file name extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Other returns the complementary format
func (f Format) Other() Format {
	if f == FormatJSON {
		return FormatXLSX
	}
	return FormatJSON
}

func (f Format) String() string {
	return string(f)
}

// ContentType returns the media type served for files of this format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json"
}
