package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/opendata-catalog-server/internal/catalog"
	"github.com/stacklok/opendata-catalog-server/internal/service"
)

func newTestRepository(t *testing.T) service.Repository {
	t.Helper()

	now := time.Date(2019, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := New(WithClock(func() time.Time { return now }))
	_, err := repo.UpsertNode(context.Background(), &service.Node{Identifier: "modernizacion"})
	require.NoError(t, err)
	return repo
}

func TestUpsertNode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := New()

	first, err := repo.UpsertNode(ctx, &service.Node{
		Identifier: "justicia",
		Admins:     []string{"bob", "alice", "bob"},
		Source:     &service.NodeSource{URL: "https://example.org/data.json"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, first.Admins)

	second, err := repo.UpsertNode(ctx, &service.Node{Identifier: "justicia"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, second.Admins)
	assert.Nil(t, second.Source)

	_, err = repo.GetNode(ctx, "missing")
	require.ErrorIs(t, err, service.ErrNodeNotFound)

	_, err = repo.UpsertNode(ctx, &service.Node{Identifier: "ambiente"})
	require.NoError(t, err)
	nodes, err := repo.ListNodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "ambiente", nodes[0].Identifier)
}

func TestSaveCatalogOnePerDay(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepository(t)
	day := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := repo.SaveCatalog(ctx, service.CatalogUpload{
		Node: "modernizacion", Format: catalog.FormatJSON, UploadedOn: day, FilePath: "a",
	}, nil)
	require.NoError(t, err)

	second, err := repo.SaveCatalog(ctx, service.CatalogUpload{
		Node: "modernizacion", Format: catalog.FormatXLSX, UploadedOn: day, FilePath: "b",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = repo.SaveCatalog(ctx, service.CatalogUpload{
		Node: "modernizacion", Format: catalog.FormatJSON, UploadedOn: day.AddDate(0, 0, 1), FilePath: "c",
	}, nil)
	require.NoError(t, err)

	records, err := repo.ListCatalogs(ctx, "modernizacion")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0].FilePath)
	assert.Equal(t, "b", records[1].FilePath)

	latest, err := repo.LatestCatalog(ctx, "modernizacion")
	require.NoError(t, err)
	assert.Equal(t, "c", latest.FilePath)
}

func TestSaveCatalogPromoteFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepository(t)
	errPromote := errors.New("rename failed")

	_, err := repo.SaveCatalog(ctx, service.CatalogUpload{
		Node: "modernizacion", Format: catalog.FormatJSON, UploadedOn: time.Now(), FilePath: "a",
	}, func(context.Context) error { return errPromote })
	require.ErrorIs(t, err, errPromote)

	_, err = repo.LatestCatalog(ctx, "modernizacion")
	require.ErrorIs(t, err, service.ErrNoCatalogUploaded)
}

func TestDistributionVersions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepository(t)
	base := time.Date(2019, 1, 1, 10, 0, 0, 0, time.UTC)

	// Same timestamp on purpose; the later id must sort first
	for _, path := range []string{"v1", "v2"} {
		_, _, err := repo.AppendVersion(ctx, service.NewVersion{
			Node: "modernizacion", DatasetIdentifier: "125", Identifier: "125.1",
			FileName: "data.csv", UploadedAt: base, FilePath: path,
		})
		require.NoError(t, err)
	}
	_, _, err := repo.AppendVersion(ctx, service.NewVersion{
		Node: "modernizacion", DatasetIdentifier: "125", Identifier: "125.2",
		FileName: "other.csv", UploadedAt: base.Add(-time.Hour), FilePath: "w1",
	})
	require.NoError(t, err)

	dists, err := repo.ListDistributions(ctx, "modernizacion", "", 10, 5)
	require.NoError(t, err)
	require.Len(t, dists, 2)
	require.Len(t, dists[0].Versions, 2)
	assert.Equal(t, "v2", dists[0].Versions[0].FilePath)

	page, err := repo.ListDistributions(ctx, "modernizacion", "", 1, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "125.1", page[0].Identifier)
	assert.Empty(t, page[0].Versions)

	recent, err := repo.RecentVersions(ctx, "modernizacion", 1)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
	assert.Equal(t, "v2", recent["125.1"][0].FilePath)

	latest, err := repo.LatestVersion(ctx, "modernizacion", "125.2")
	require.NoError(t, err)
	assert.Equal(t, "w1", latest.FilePath)

	paths, err := repo.DeleteDistribution(ctx, "modernizacion", "125.1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"v1", "v2"}, paths)

	_, err = repo.GetDistribution(ctx, "modernizacion", "125.1")
	require.ErrorIs(t, err, service.ErrDistributionNotFound)
}
