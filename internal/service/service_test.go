package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/opendata-catalog-server/internal/catalog"
	"github.com/stacklok/opendata-catalog-server/internal/httpclient"
	"github.com/stacklok/opendata-catalog-server/internal/ingest"
	"github.com/stacklok/opendata-catalog-server/internal/service"
	"github.com/stacklok/opendata-catalog-server/internal/service/inmemory"
	"github.com/stacklok/opendata-catalog-server/internal/service/mocks"
	"github.com/stacklok/opendata-catalog-server/internal/storage"
)

const testNode = "modernizacion"

type fixture struct {
	svc   service.Service
	repo  service.Repository
	store *storage.Storage
	now   *time.Time
}

func (f *fixture) advance(d time.Duration) {
	*f.now = f.now.Add(d)
}

func newFixture(t *testing.T, opts ...service.ServiceOption) *fixture {
	t.Helper()

	now := time.Date(2019, 3, 14, 9, 30, 0, 0, time.UTC)
	clock := &now

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	validator, err := catalog.NewSchemaValidator()
	require.NoError(t, err)
	repo := inmemory.New()
	inputs := ingest.NewInputValidator(httpclient.NewDefaultClient(5*time.Second, httpclient.WithMaxRetries(1)))

	opts = append([]service.ServiceOption{service.WithClock(func() time.Time { return *clock })}, opts...)
	svc, err := service.New(repo, store, inputs, validator, opts...)
	require.NoError(t, err)

	_, err = svc.RegisterNode(context.Background(), &service.Node{Identifier: testNode, Admins: []string{"alice"}})
	require.NoError(t, err)

	return &fixture{svc: svc, repo: repo, store: store, now: clock}
}

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "catalog", "testdata", name))
	require.NoError(t, err)
	return data
}

func fileSubmission(data []byte, name string) ingest.Submission {
	return ingest.Submission{Source: ingest.Source{File: bytes.NewReader(data), FileName: name}}
}

func submit(t *testing.T, f *fixture, name string) *service.Record {
	t.Helper()
	record, err := f.svc.SubmitCatalog(context.Background(), testNode, fileSubmission(readTestdata(t, name), name))
	require.NoError(t, err)
	return record
}

func TestNew(t *testing.T) {
	t.Parallel()

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	validator, err := catalog.NewSchemaValidator()
	require.NoError(t, err)
	inputs := ingest.NewInputValidator(httpclient.NewDefaultClient(0))

	_, err = service.New(nil, store, inputs, validator)
	require.Error(t, err)
	_, err = service.New(inmemory.New(), nil, inputs, validator)
	require.Error(t, err)
	_, err = service.New(inmemory.New(), store, inputs, validator, service.WithClock(nil))
	require.Error(t, err)
	_, err = service.New(inmemory.New(), store, inputs, validator, service.WithLocation(nil))
	require.Error(t, err)
}

func TestRegisterNode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		identifier string
		wantErr    error
	}{
		{name: "valid", identifier: "justicia_2"},
		{name: "empty", identifier: "", wantErr: service.ErrInvalidNodeIdentifier},
		{name: "too long", identifier: "abcdefghijklmnopqrstu", wantErr: service.ErrInvalidNodeIdentifier},
		{name: "path separator", identifier: "a/b", wantErr: service.ErrInvalidNodeIdentifier},
		{name: "dot dot", identifier: "..", wantErr: service.ErrInvalidNodeIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := f.svc.RegisterNode(ctx, &service.Node{Identifier: tt.identifier})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.identifier, node.Identifier)
		})
	}

	nodes, err := f.svc.ListNodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	node, err := f.svc.GetNode(ctx, testNode)
	require.NoError(t, err)
	assert.Contains(t, node.AdminPrincipals(), "alice")
	assert.NotContains(t, node.AdminPrincipals(), "mallory")
}

func TestSubmitCatalogOnePerDay(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	first := submit(t, f, "invalid.json")
	f.advance(time.Hour)
	second := submit(t, f, "valid.json")
	assert.Equal(t, first.ID, second.ID)

	records, err := f.svc.ListCatalogs(ctx, testNode)
	require.NoError(t, err)
	require.Len(t, records, 1)

	canonical, err := f.store.ReadFile("catalog/modernizacion/data.json")
	require.NoError(t, err)
	assert.Equal(t, readTestdata(t, "valid.json"), canonical)

	archived, err := f.store.ReadFile("catalog/modernizacion/2019-03-14/data.json")
	require.NoError(t, err)
	assert.Equal(t, readTestdata(t, "valid.json"), archived)

	// The complementary rendition is written too
	_, err = f.store.ReadFile("catalog/modernizacion/data.xlsx")
	require.NoError(t, err)

	f.advance(24 * time.Hour)
	third := submit(t, f, "two_datasets.json")
	assert.NotEqual(t, second.ID, third.ID)

	records, err = f.svc.ListCatalogs(ctx, testNode)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, third.ID, records[0].ID)

	latest, err := f.svc.LatestCatalog(ctx, testNode)
	require.NoError(t, err)
	assert.True(t, latest.UploadedOn.Equal(time.Date(2019, 3, 15, 0, 0, 0, 0, time.UTC)))

	// Older records keep reading their own archived content
	datasets, err := records[1].ListDatasets()
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, "125", datasets[0].Identifier)
}

func TestSubmitCatalogDayFollowsLocation(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	require.NoError(t, err)
	f := newFixture(t, service.WithLocation(loc))

	// 01:00 UTC is still the previous day in Buenos Aires
	*f.now = time.Date(2019, 3, 15, 1, 0, 0, 0, time.UTC)
	record := submit(t, f, "valid.json")
	assert.Equal(t, "2019-03-14", record.UploadedOn.Format(time.DateOnly))
	assert.Equal(t, "catalog/modernizacion/2019-03-14/data.json", record.FilePath)
}

func TestSubmitCatalogURLMatchesUpload(t *testing.T) {
	t.Parallel()

	data := readTestdata(t, "valid.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)

	byFile := newFixture(t)
	byURL := newFixture(t)
	ctx := context.Background()

	fromFile, err := byFile.svc.SubmitCatalog(ctx, testNode, fileSubmission(data, "data.json"))
	require.NoError(t, err)
	fromURL, err := byURL.svc.SubmitCatalog(ctx, testNode, ingest.Submission{Source: ingest.Source{URL: srv.URL + "/data.json"}})
	require.NoError(t, err)

	assert.Equal(t, fromFile.Format, fromURL.Format)
	assert.Equal(t, fromFile.FilePath, fromURL.FilePath)
	assert.True(t, fromFile.UploadedOn.Equal(fromURL.UploadedOn))

	fileDatasets, err := fromFile.ListDatasets()
	require.NoError(t, err)
	urlDatasets, err := fromURL.ListDatasets()
	require.NoError(t, err)
	assert.Equal(t, fileDatasets, urlDatasets)

	fileBytes, err := byFile.store.ReadFile(fromFile.FilePath)
	require.NoError(t, err)
	urlBytes, err := byURL.store.ReadFile(fromURL.FilePath)
	require.NoError(t, err)
	assert.Equal(t, fileBytes, urlBytes)
}

func TestSubmitCatalogErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	data := readTestdata(t, "valid.json")

	tests := []struct {
		name       string
		node       string
		submission ingest.Submission
		wantErr    error
	}{
		{
			name:       "unknown node",
			node:       "missing",
			submission: fileSubmission(data, "data.json"),
			wantErr:    service.ErrNodeNotFound,
		},
		{
			name:       "neither file nor url",
			node:       testNode,
			submission: ingest.Submission{Format: "json"},
			wantErr:    ingest.ErrInputConflict,
		},
		{
			name: "both file and url",
			node: testNode,
			submission: ingest.Submission{Source: ingest.Source{
				File: bytes.NewReader(data), FileName: "data.json", URL: "https://example.org/data.json",
			}},
			wantErr: ingest.ErrInputConflict,
		},
		{
			name:       "unsupported format",
			node:       testNode,
			submission: ingest.Submission{Format: "csv", Source: ingest.Source{File: bytes.NewReader(data)}},
			wantErr:    ingest.ErrUnsupportedFormat,
		},
		{
			name:       "not a catalog",
			node:       testNode,
			submission: fileSubmission(readTestdata(t, "not_a_catalog.json"), "data.json"),
			wantErr:    service.ErrMalformedCatalog,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SubmitCatalog(ctx, tt.node, tt.submission)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := f.svc.LatestCatalog(ctx, testNode)
	require.ErrorIs(t, err, service.ErrNoCatalogUploaded)
	_, _, err = f.svc.OpenCatalog(ctx, testNode)
	require.ErrorIs(t, err, service.ErrNoCatalogUploaded)
}

func TestSubmitCatalogStrict(t *testing.T) {
	t.Parallel()

	f := newFixture(t, service.WithStrictValidation(true))
	ctx := context.Background()

	_, err := f.svc.SubmitCatalog(ctx, testNode, fileSubmission(readTestdata(t, "invalid.json"), "data.json"))
	require.ErrorIs(t, err, service.ErrSchemaInvalid)

	var schemaErr *service.SchemaInvalidError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Messages, "'publisher' is a required property")

	_, err = f.svc.LatestCatalog(ctx, testNode)
	require.ErrorIs(t, err, service.ErrNoCatalogUploaded)

	// A per-submission override accepts it
	record, err := f.svc.SubmitCatalog(ctx, testNode,
		fileSubmission(readTestdata(t, "invalid.json"), "data.json"), service.WithStrict(false))
	require.NoError(t, err)
	assert.NotEmpty(t, record.Validate())

	_, err = f.svc.SubmitCatalog(ctx, testNode, fileSubmission(readTestdata(t, "valid.json"), "data.json"))
	require.NoError(t, err)
}

func TestRecordValidate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	record := submit(t, f, "invalid.json")
	messages := record.Validate()
	for _, want := range []string{
		"'publisher' is a required property",
		"'title' is a required property",
		"'superThemeTaxonomy' is a required property",
		"'description' is a required property",
	} {
		assert.Contains(t, messages, want)
	}
	report, err := record.Report()
	require.NoError(t, err)
	require.Len(t, report.DatasetErrors, 1)
	assert.Equal(t, "125", report.DatasetErrors[0].DatasetID)

	// A freshly loaded record parses its file lazily and agrees
	latest, err := f.svc.LatestCatalog(ctx, testNode)
	require.NoError(t, err)
	assert.Equal(t, messages, latest.Validate())

	valid := submit(t, f, "valid.json")
	assert.Empty(t, valid.Validate())
}

func TestRecordValidateUnreadableFile(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	record := submit(t, f, "valid.json")

	require.NoError(t, os.WriteFile(f.store.LocalPath(record.FilePath), []byte("{broken"), 0o600))

	latest, err := f.svc.LatestCatalog(ctx, testNode)
	require.NoError(t, err)
	assert.Equal(t, []string{service.GenericValidationMessage}, latest.Validate())

	_, err = latest.ListDatasets()
	require.ErrorIs(t, err, service.ErrMalformedCatalog)

	// The parse result is memoized on the instance
	_, err = latest.ParsedDocument()
	require.ErrorIs(t, err, service.ErrMalformedCatalog)
}

func TestListDatasets(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	record := submit(t, f, "valid.json")

	datasets, err := record.ListDatasets()
	require.NoError(t, err)
	assert.Equal(t, []service.DatasetSummary{
		{Identifier: "125", Title: "Sistema de Precios Mayoristas"},
	}, datasets)

	f.advance(24 * time.Hour)
	record = submit(t, f, "two_datasets.json")
	datasets, err = record.ListDatasets()
	require.NoError(t, err)
	assert.Equal(t, []service.DatasetSummary{
		{Identifier: "1", Title: "Válido"},
		{Identifier: "2", Title: ""},
	}, datasets, "datasets keep their declared order")
}

func TestSubmitCatalogConcurrentFormats(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	jsonData := readTestdata(t, "valid.json")
	doc, err := catalog.Parse(bytes.NewReader(readTestdata(t, "two_datasets.json")), catalog.FormatJSON)
	require.NoError(t, err)
	var xlsxData bytes.Buffer
	require.NoError(t, catalog.RenderXLSX(doc, &xlsxData))

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := fileSubmission(jsonData, "data.json")
			if i%2 == 1 {
				sub = fileSubmission(xlsxData.Bytes(), "data.xlsx")
			}
			_, err := f.svc.SubmitCatalog(ctx, testNode, sub)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	records, err := f.svc.ListCatalogs(ctx, testNode)
	require.NoError(t, err)
	require.Len(t, records, 1)

	latest, err := f.svc.LatestCatalog(ctx, testNode)
	require.NoError(t, err)
	want, err := latest.ListDatasets()
	require.NoError(t, err)

	// Both canonical slots hold the catalog of the record that won
	for _, format := range []catalog.Format{catalog.FormatJSON, catalog.FormatXLSX} {
		rel, err := storage.CatalogPath(testNode, format)
		require.NoError(t, err)
		data, err := f.store.ReadFile(rel)
		require.NoError(t, err)
		parsed, err := catalog.Parse(bytes.NewReader(data), format)
		require.NoError(t, err)

		got := make([]string, 0, len(parsed.Datasets()))
		for _, ds := range parsed.Datasets() {
			got = append(got, ds.Identifier)
		}
		wantIDs := make([]string, 0, len(want))
		for _, ds := range want {
			wantIDs = append(wantIDs, ds.Identifier)
		}
		assert.Equal(t, wantIDs, got, "canonical %s", format)
	}
}

func TestOpenCatalogRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	data := readTestdata(t, "valid.json")
	submit(t, f, "valid.json")

	rc, record, err := f.svc.OpenCatalog(context.Background(), testNode)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	assert.Equal(t, catalog.FormatJSON, record.Format)

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestUpsertDistributionVersions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	submit(t, f, "valid.json")

	upload := func(content string) *service.Distribution {
		t.Helper()
		dist, err := f.svc.UpsertDistribution(ctx, testNode, service.DistributionUpload{
			DatasetIdentifier: "125",
			Identifier:        "125.1",
			Source:            ingest.Source{File: bytes.NewBufferString(content), FileName: "precios-anual.csv"},
		})
		require.NoError(t, err)
		return dist
	}

	first := upload("anio,valor\n2018,1\n")
	f.advance(time.Minute)
	second := upload("anio,valor\n2018,1\n2019,2\n")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "precios-anual.csv", second.FileName)
	require.Len(t, second.Versions, 1)

	result, err := f.svc.ListDistributions(ctx, testNode)
	require.NoError(t, err)
	require.Len(t, result.Distributions, 1)
	versions := result.Distributions[0].Versions
	require.Len(t, versions, 2)
	assert.True(t, versions[0].UploadedAt.After(versions[1].UploadedAt))
	assert.Equal(t, second.Versions[0].FilePath, versions[0].FilePath)

	latest, err := f.svc.LastNVersions(ctx, testNode, 1)
	require.NoError(t, err)
	require.Len(t, latest["125.1"], 1)
	assert.Equal(t, versions[0].ID, latest["125.1"][0].ID)

	rc, version, err := f.svc.OpenLatestVersion(ctx, testNode, "125.1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "anio,valor\n2018,1\n2019,2\n", string(body))
	assert.Equal(t, versions[0].ID, version.ID)

	_, err = f.svc.LastNVersions(ctx, testNode, 0)
	require.Error(t, err)
}

func TestAddVersion(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	submit(t, f, "valid.json")

	_, err := f.svc.AddVersion(ctx, testNode, "125.1", service.VersionUpload{
		Source: ingest.Source{File: bytes.NewBufferString("x")},
	})
	require.ErrorIs(t, err, service.ErrDistributionNotFound)

	_, err = f.svc.UpsertDistribution(ctx, testNode, service.DistributionUpload{
		DatasetIdentifier: "125",
		Identifier:        "125.1",
		FileName:          "precios.csv",
		Source:            ingest.Source{File: bytes.NewBufferString("a")},
	})
	require.NoError(t, err)

	f.advance(time.Second)
	dist, err := f.svc.AddVersion(ctx, testNode, "125.1", service.VersionUpload{
		Source: ingest.Source{File: bytes.NewBufferString("b")},
	})
	require.NoError(t, err)
	assert.Equal(t, "125", dist.DatasetIdentifier)
	assert.Equal(t, "precios.csv", dist.Versions[0].FileName)
}

func TestAddVersionDatasetDropped(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	submit(t, f, "valid.json")

	first, err := f.svc.UpsertDistribution(ctx, testNode, service.DistributionUpload{
		DatasetIdentifier: "125",
		Identifier:        "125.1",
		Source:            ingest.Source{File: bytes.NewBufferString("a"), FileName: "precios.csv"},
	})
	require.NoError(t, err)

	// The next day's catalog no longer declares dataset 125
	f.advance(24 * time.Hour)
	submit(t, f, "two_datasets.json")

	_, err = f.svc.AddVersion(ctx, testNode, "125.1", service.VersionUpload{
		Source: ingest.Source{File: bytes.NewBufferString("b")},
	})
	require.ErrorIs(t, err, service.ErrUnknownDataset)

	result, err := f.svc.ListDistributions(ctx, testNode)
	require.NoError(t, err)
	require.Len(t, result.Distributions, 1)
	require.Len(t, result.Distributions[0].Versions, 1)
	assert.Equal(t, first.Versions[0].ID, result.Distributions[0].Versions[0].ID)

	entries, err := os.ReadDir(filepath.Join(f.store.Root(), "distributions", testNode, "125.1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no version file may be written")
}

func TestUpsertDistributionReusesCurrentRecord(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	stale := submit(t, f, "valid.json")

	f.advance(24 * time.Hour)
	current := submit(t, f, "two_datasets.json")

	upload := service.DistributionUpload{
		DatasetIdentifier: "125",
		Identifier:        "125.1",
		Source:            ingest.Source{File: bytes.NewBufferString("a"), FileName: "precios.csv"},
		Catalog:           stale,
	}
	// A record that is no longer the latest is ignored
	_, err := f.svc.UpsertDistribution(ctx, testNode, upload)
	require.ErrorIs(t, err, service.ErrUnknownDataset)

	upload.DatasetIdentifier = "1"
	upload.Identifier = "1.1"
	upload.Source = ingest.Source{File: bytes.NewBufferString("a"), FileName: "uno.csv"}
	upload.Catalog = current
	dist, err := f.svc.UpsertDistribution(ctx, testNode, upload)
	require.NoError(t, err)
	assert.Equal(t, "1", dist.DatasetIdentifier)
}

func TestUpsertDistributionRejections(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	upload := service.DistributionUpload{
		DatasetIdentifier: "125",
		Identifier:        "125.1",
		Source:            ingest.Source{File: bytes.NewBufferString("a"), FileName: "a.csv"},
	}

	_, err := f.svc.UpsertDistribution(ctx, testNode, upload)
	require.ErrorIs(t, err, service.ErrNoCatalogUploaded)

	submit(t, f, "valid.json")

	unknown := upload
	unknown.DatasetIdentifier = "999"
	_, err = f.svc.UpsertDistribution(ctx, testNode, unknown)
	require.ErrorIs(t, err, service.ErrUnknownDataset)

	incomplete := upload
	incomplete.Identifier = ""
	_, err = f.svc.UpsertDistribution(ctx, testNode, incomplete)
	require.ErrorIs(t, err, service.ErrInvalidDistribution)

	conflict := upload
	conflict.Source.URL = "https://example.org/a.csv"
	_, err = f.svc.UpsertDistribution(ctx, testNode, conflict)
	require.ErrorIs(t, err, ingest.ErrInputConflict)

	result, err := f.svc.ListDistributions(ctx, testNode)
	require.NoError(t, err)
	assert.Empty(t, result.Distributions)

	_, err = os.Stat(filepath.Join(f.store.Root(), "distributions"))
	assert.True(t, os.IsNotExist(err), "no version file may be written")
}

func TestDeleteDistribution(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	submit(t, f, "valid.json")

	dist, err := f.svc.UpsertDistribution(ctx, testNode, service.DistributionUpload{
		DatasetIdentifier: "125",
		Identifier:        "125.1",
		Source:            ingest.Source{File: bytes.NewBufferString("a"), FileName: "a.csv"},
	})
	require.NoError(t, err)
	path := dist.Versions[0].FilePath

	require.NoError(t, f.svc.DeleteDistribution(ctx, testNode, "125.1"))

	result, err := f.svc.ListDistributions(ctx, testNode)
	require.NoError(t, err)
	assert.Empty(t, result.Distributions)

	versions, err := f.svc.LastNVersions(ctx, testNode, 5)
	require.NoError(t, err)
	assert.Empty(t, versions)

	_, err = f.store.ReadFile(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.ErrorIs(t, f.svc.DeleteDistribution(ctx, testNode, "125.1"), service.ErrDistributionNotFound)
	_, _, err = f.svc.OpenLatestVersion(ctx, testNode, "125.1")
	require.ErrorIs(t, err, service.ErrDistributionNotFound)
}

func TestListDistributionsPagination(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	submit(t, f, "valid.json")

	for _, id := range []string{"125.1", "125.2", "125.3"} {
		_, err := f.svc.UpsertDistribution(ctx, testNode, service.DistributionUpload{
			DatasetIdentifier: "125",
			Identifier:        id,
			Source:            ingest.Source{File: bytes.NewBufferString(id), FileName: id + ".csv"},
		})
		require.NoError(t, err)
	}

	page, err := f.svc.ListDistributions(ctx, testNode, service.WithLimit(2), service.WithVersions(0))
	require.NoError(t, err)
	require.Len(t, page.Distributions, 2)
	assert.Empty(t, page.Distributions[0].Versions)
	require.NotEmpty(t, page.NextCursor)

	next, err := f.svc.ListDistributions(ctx, testNode, service.WithLimit(2), service.WithCursor(page.NextCursor))
	require.NoError(t, err)
	require.Len(t, next.Distributions, 1)
	assert.Equal(t, "125.3", next.Distributions[0].Identifier)
	assert.Empty(t, next.NextCursor)

	_, err = f.svc.ListDistributions(ctx, testNode, service.WithCursor("!!not-base64!!"))
	require.Error(t, err)

	_, err = f.svc.ListDistributions(ctx, "missing")
	require.ErrorIs(t, err, service.ErrNodeNotFound)
}

func TestRowFailuresLeaveNoFiles(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	validator, err := catalog.NewSchemaValidator()
	require.NoError(t, err)
	svc, err := service.New(repo, store, ingest.NewInputValidator(httpclient.NewDefaultClient(0)), validator)
	require.NoError(t, err)

	ctx := context.Background()
	errRow := errors.New("connection reset")

	repo.EXPECT().GetNode(gomock.Any(), testNode).Return(&service.Node{Identifier: testNode}, nil)
	repo.EXPECT().SaveCatalog(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errRow)

	_, err = svc.SubmitCatalog(ctx, testNode, fileSubmission(readTestdata(t, "valid.json"), "data.json"))
	require.ErrorIs(t, err, errRow)

	entries, err := os.ReadDir(filepath.Join(store.Root(), "catalog", testNode))
	require.NoError(t, err)
	for _, e := range entries {
		if e.IsDir() {
			inner, err := os.ReadDir(filepath.Join(store.Root(), "catalog", testNode, e.Name()))
			require.NoError(t, err)
			assert.Empty(t, inner, "staged archive must be discarded")
			continue
		}
		t.Errorf("unexpected file %s", e.Name())
	}

	rel, err := store.Store(ctx, testNode, catalog.FormatJSON, readTestdata(t, "valid.json"))
	require.NoError(t, err)
	repo.EXPECT().GetNode(gomock.Any(), testNode).Return(&service.Node{Identifier: testNode}, nil)
	repo.EXPECT().LatestCatalog(gomock.Any(), testNode).
		Return(&service.Record{ID: 1, Node: testNode, Format: catalog.FormatJSON, FilePath: rel}, nil)

	var written string
	repo.EXPECT().GetDistribution(gomock.Any(), testNode, "125.1").
		Return(&service.Distribution{Node: testNode, DatasetIdentifier: "125", Identifier: "125.1", FileName: "a.csv"}, nil)
	repo.EXPECT().AppendVersion(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, v service.NewVersion) (*service.Distribution, *service.DistributionVersion, error) {
			written = v.FilePath
			_, statErr := store.ReadFile(v.FilePath)
			require.NoError(t, statErr)
			return nil, nil, errRow
		})

	_, err = svc.AddVersion(ctx, testNode, "125.1", service.VersionUpload{
		Source: ingest.Source{File: bytes.NewBufferString("a,b\n")},
	})
	require.ErrorIs(t, err, errRow)
	require.NotEmpty(t, written)
	_, err = store.ReadFile(written)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
