// Package ingest reconciles catalog and distribution submissions into a single
// in-memory payload. A submission carries exactly one of an uploaded file or a
// remote URL; remote content is fetched here, and for catalogs the format is
// decided here. Schema validation is not performed by this package.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/stacklok/opendata-catalog-server/internal/catalog"
	"github.com/stacklok/opendata-catalog-server/internal/httpclient"
)

var (
	// ErrInputConflict is returned when a submission carries both or neither of a file and a URL
	ErrInputConflict = errors.New("exactly one of file or url must be provided")
	// ErrFetch is returned when remote content could not be retrieved
	ErrFetch = errors.New("failed to fetch remote content")
	// ErrUnsupportedFormat is returned when the catalog format is unsupported or cannot be determined
	ErrUnsupportedFormat = errors.New("unsupported catalog format")
	// ErrPayloadTooLarge is returned when content exceeds the configured upload limit
	ErrPayloadTooLarge = errors.New("payload too large")
)

// DefaultMaxUploadSize caps uploaded files when no limit is configured (100MB)
const DefaultMaxUploadSize = 100 * 1024 * 1024

var zipMagic = []byte("PK\x03\x04")

// Source is where submitted content comes from. Exactly one of File and URL must be set.
type Source struct {
	File     io.Reader
	FileName string
	URL      string
}

// Submission is a catalog submission as received from a client
type Submission struct {
	// Format is the explicitly requested format. Empty means infer it.
	Format string
	Source Source
}

// Content is the raw material obtained from a Source
type Content struct {
	Data        []byte
	FileName    string
	ContentType string
	// URL is set when the content was fetched remotely
	URL string
}

// Payload is a resolved catalog submission
type Payload struct {
	Format      catalog.Format
	Data        []byte
	FileName    string
	ContentType string
	URL         string
}

// Reader returns a fresh reader positioned at the start of the payload
func (p *Payload) Reader() *bytes.Reader {
	return bytes.NewReader(p.Data)
}

// InputValidator turns submissions into payloads
type InputValidator struct {
	client        httpclient.Client
	maxUploadSize int64
}

// Option configures an InputValidator
type Option func(*InputValidator)

// WithMaxUploadSize caps the size of uploaded files
func WithMaxUploadSize(n int64) Option {
	return func(v *InputValidator) {
		if n > 0 {
			v.maxUploadSize = n
		}
	}
}

// NewInputValidator creates an InputValidator that fetches URLs through client
func NewInputValidator(client httpclient.Client, opts ...Option) *InputValidator {
	v := &InputValidator{
		client:        client,
		maxUploadSize: DefaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Obtain enforces file/URL exclusivity and returns the content, fetching it if needed.
func (v *InputValidator) Obtain(ctx context.Context, src Source) (*Content, error) {
	hasFile := src.File != nil
	hasURL := strings.TrimSpace(src.URL) != ""
	if hasFile == hasURL {
		return nil, ErrInputConflict
	}

	if hasFile {
		return v.readUpload(src)
	}
	return v.fetch(ctx, strings.TrimSpace(src.URL))
}

func (v *InputValidator) readUpload(src Source) (*Content, error) {
	data, err := io.ReadAll(io.LimitReader(src.File, v.maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(data)) > v.maxUploadSize {
		return nil, fmt.Errorf("%w: upload exceeds %d bytes", ErrPayloadTooLarge, v.maxUploadSize)
	}
	content := &Content{Data: data}
	if src.FileName != "" {
		content.FileName = path.Base(strings.ReplaceAll(src.FileName, "\\", "/"))
	}
	return content, nil
}

func (v *InputValidator) fetch(ctx context.Context, rawURL string) (*Content, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s: not an http(s) url", ErrFetch, rawURL)
	}

	resp, err := v.client.Get(ctx, rawURL)
	if err != nil {
		if errors.Is(err, httpclient.ErrResponseTooLarge) {
			return nil, fmt.Errorf("%w: %s: %w", ErrPayloadTooLarge, rawURL, err)
		}
		slog.DebugContext(ctx, "Remote fetch failed", "url", rawURL, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
	}

	return &Content{
		Data:        resp.Body,
		FileName:    lastSegment(u),
		ContentType: resp.ContentType,
		URL:         rawURL,
	}, nil
}

// Resolve obtains the submission content and decides its catalog format.
func (v *InputValidator) Resolve(ctx context.Context, sub Submission) (*Payload, error) {
	content, err := v.Obtain(ctx, sub.Source)
	if err != nil {
		return nil, err
	}

	format, err := decideFormat(sub.Format, content)
	if err != nil {
		return nil, err
	}

	return &Payload{
		Format:      format,
		Data:        content.Data,
		FileName:    content.FileName,
		ContentType: content.ContentType,
		URL:         content.URL,
	}, nil
}

func decideFormat(explicit string, content *Content) (catalog.Format, error) {
	if strings.TrimSpace(explicit) != "" {
		format, err := catalog.ParseFormat(explicit)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, explicit)
		}
		if sniffed, ok := sniff(content.Data); ok && sniffed != format {
			return "", fmt.Errorf("%w: content is %s, not %s", ErrUnsupportedFormat, sniffed, format)
		}
		return format, nil
	}

	if content.URL != "" {
		u, err := url.Parse(content.URL)
		if err == nil {
			if q := u.Query().Get("format"); q != "" {
				format, err := catalog.ParseFormat(q)
				if err != nil {
					return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, q)
				}
				return format, nil
			}
			if format, err := catalog.FormatFromPath(u.Path); err == nil {
				return format, nil
			}
		}
	}

	if format, ok := fromContentType(content.ContentType); ok {
		return format, nil
	}

	if content.FileName != "" {
		if format, err := catalog.FormatFromPath(content.FileName); err == nil {
			return format, nil
		}
	}

	if format, ok := sniff(content.Data); ok {
		return format, nil
	}

	return "", fmt.Errorf("%w: cannot determine format", ErrUnsupportedFormat)
}

func fromContentType(contentType string) (catalog.Format, bool) {
	if contentType == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	switch {
	case mediaType == "application/json", strings.HasSuffix(mediaType, "+json"):
		return catalog.FormatJSON, true
	case mediaType == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return catalog.FormatXLSX, true
	}
	return "", false
}

// sniff recognizes content that is unambiguously one of the supported formats
func sniff(data []byte) (catalog.Format, bool) {
	if bytes.HasPrefix(data, zipMagic) {
		return catalog.FormatXLSX, true
	}
	trimmed := bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(trimmed)) > 0 && gjson.ValidBytes(trimmed) {
		return catalog.FormatJSON, true
	}
	return "", false
}

func lastSegment(u *url.URL) string {
	seg := path.Base(u.Path)
	if seg == "/" || seg == "." {
		return ""
	}
	return seg
}
