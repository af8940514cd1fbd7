package ingest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/opendata-catalog-server/internal/catalog"
	"github.com/stacklok/opendata-catalog-server/internal/httpclient"
)

const catalogJSON = `{"title": "c", "dataset": []}`

func newTestValidator(opts ...Option) *InputValidator {
	client := httpclient.NewDefaultClient(2*time.Second,
		httpclient.WithMaxRetries(1),
		httpclient.WithInitialBackoff(10*time.Millisecond))
	return NewInputValidator(client, opts...)
}

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/data.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(catalogJSON))
	})
	mux.HandleFunc("/export", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(catalogJSON))
	})
	mux.HandleFunc("/opaque", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte(catalogJSON))
	})
	mux.HandleFunc("/missing.json", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestObtainExclusivity(t *testing.T) {
	t.Parallel()

	v := newTestValidator()
	ctx := context.Background()

	_, err := v.Obtain(ctx, Source{})
	require.ErrorIs(t, err, ErrInputConflict)

	_, err = v.Obtain(ctx, Source{File: strings.NewReader("x"), URL: "https://example.org/data.json"})
	require.ErrorIs(t, err, ErrInputConflict)

	_, err = v.Obtain(ctx, Source{URL: "   "})
	require.ErrorIs(t, err, ErrInputConflict)
}

func TestObtainUpload(t *testing.T) {
	t.Parallel()

	v := newTestValidator(WithMaxUploadSize(8))

	content, err := v.Obtain(context.Background(), Source{File: strings.NewReader("a,b\n1,2"), FileName: `C:\tmp\datos.csv`})
	require.NoError(t, err)
	assert.Equal(t, []byte("a,b\n1,2"), content.Data)
	assert.Equal(t, "datos.csv", content.FileName)
	assert.Empty(t, content.URL)

	_, err = v.Obtain(context.Background(), Source{File: strings.NewReader("123456789")})
	require.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestObtainFetch(t *testing.T) {
	t.Parallel()

	server := newCatalogServer(t)
	v := newTestValidator()
	ctx := context.Background()

	content, err := v.Obtain(ctx, Source{URL: server.URL + "/data.json"})
	require.NoError(t, err)
	assert.Equal(t, catalogJSON, string(content.Data))
	assert.Equal(t, "data.json", content.FileName)

	_, err = v.Obtain(ctx, Source{URL: server.URL + "/missing.json"})
	require.ErrorIs(t, err, ErrFetch)

	_, err = v.Obtain(ctx, Source{URL: "ftp://example.org/data.json"})
	require.ErrorIs(t, err, ErrFetch)

	_, err = v.Obtain(ctx, Source{URL: "http://127.0.0.1:1/data.json"})
	require.ErrorIs(t, err, ErrFetch)
}

func TestObtainFetchTooLarge(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("a"), 64))
	}))
	t.Cleanup(server.Close)

	client := httpclient.NewDefaultClient(time.Second, httpclient.WithMaxResponseSize(16))
	v := NewInputValidator(client)

	_, err := v.Obtain(context.Background(), Source{URL: server.URL + "/big.csv"})
	require.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestResolveFormat(t *testing.T) {
	t.Parallel()

	server := newCatalogServer(t)
	v := newTestValidator()

	tests := []struct {
		name    string
		sub     Submission
		want    catalog.Format
		wantErr error
	}{
		{
			name: "explicit format on upload",
			sub:  Submission{Format: "json", Source: Source{File: strings.NewReader(catalogJSON), FileName: "upload.bin"}},
			want: catalog.FormatJSON,
		},
		{
			name:    "explicit format unsupported",
			sub:     Submission{Format: "csv", Source: Source{File: strings.NewReader(catalogJSON)}},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "explicit format contradicted by content",
			sub:     Submission{Format: "xlsx", Source: Source{File: strings.NewReader(catalogJSON)}},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name: "url path extension",
			sub:  Submission{Source: Source{URL: server.URL + "/data.json"}},
			want: catalog.FormatJSON,
		},
		{
			name: "url format parameter",
			sub:  Submission{Source: Source{URL: server.URL + "/opaque?format=json"}},
			want: catalog.FormatJSON,
		},
		{
			name:    "url format parameter unsupported",
			sub:     Submission{Source: Source{URL: server.URL + "/opaque?format=rdf"}},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name: "content type",
			sub:  Submission{Source: Source{URL: server.URL + "/export"}},
			want: catalog.FormatJSON,
		},
		{
			name: "uploaded file name",
			sub:  Submission{Source: Source{File: strings.NewReader("not really a spreadsheet"), FileName: "catalogo.xlsx"}},
			want: catalog.FormatXLSX,
		},
		{
			name: "sniffed json",
			sub:  Submission{Source: Source{URL: server.URL + "/opaque"}},
			want: catalog.FormatJSON,
		},
		{
			name: "sniffed zip",
			sub:  Submission{Source: Source{File: bytes.NewReader(append([]byte("PK\x03\x04"), 0, 0))}},
			want: catalog.FormatXLSX,
		},
		{
			name:    "undeterminable",
			sub:     Submission{Source: Source{File: strings.NewReader("title;dataset")}},
			wantErr: ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			payload, err := v.Resolve(context.Background(), tt.sub)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, payload.Format)
		})
	}
}

func TestResolveURLMatchesUpload(t *testing.T) {
	t.Parallel()

	server := newCatalogServer(t)
	v := newTestValidator()
	ctx := context.Background()

	fromURL, err := v.Resolve(ctx, Submission{Format: "json", Source: Source{URL: server.URL + "/data.json"}})
	require.NoError(t, err)
	fromFile, err := v.Resolve(ctx, Submission{Format: "json", Source: Source{File: strings.NewReader(catalogJSON), FileName: "data.json"}})
	require.NoError(t, err)

	assert.Equal(t, fromFile.Format, fromURL.Format)
	assert.Equal(t, fromFile.Data, fromURL.Data)

	r := fromURL.Reader()
	assert.Equal(t, int64(len(catalogJSON)), r.Size())
	assert.Equal(t, len(catalogJSON), r.Len())
}
