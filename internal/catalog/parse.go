package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrMalformed is returned when a document cannot be read as a catalog
var ErrMalformed = errors.New("malformed catalog")

// Parse reads a catalog in the given format.
func Parse(r io.Reader, format Format) (*Document, error) {
	switch format {
	case FormatJSON:
		return ParseJSON(r)
	case FormatXLSX:
		return ParseXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ParseFile reads a catalog from disk, inferring the format from the extension.
func ParseFile(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return Parse(f, format)
}

// ParseJSON decodes a data.json catalog. The top level must be an object whose
// dataset member, when present, is an array of objects.
func ParseJSON(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	// Tolerate a UTF-8 byte order mark
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	raw, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value must be an object", ErrMalformed)
	}

	if err := checkDatasets(raw); err != nil {
		return nil, err
	}

	return NewDocument(raw), nil
}

func checkDatasets(raw map[string]any) error {
	value, ok := raw["dataset"]
	if !ok {
		return fmt.Errorf("%w: missing dataset list", ErrMalformed)
	}
	items, ok := value.([]any)
	if !ok {
		return fmt.Errorf("%w: dataset must be an array", ErrMalformed)
	}
	for i, item := range items {
		if _, ok := item.(map[string]any); !ok {
			return fmt.Errorf("%w: dataset[%d] must be an object", ErrMalformed, i)
		}
	}
	return nil
}
