// Package inmemory provides an in-memory implementation of the service Repository.
// State is lost on restart; it backs servers configured without a database and tests.
package inmemory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/opendata-catalog-server/internal/service"
)

type nodeState struct {
	node          service.Node
	catalogs      map[string]*catalogRow // keyed by YYYY-MM-DD
	distributions map[string]*distributionRow
}

type catalogRow struct {
	upload    service.CatalogUpload
	id        int64
	createdAt time.Time
}

type distributionRow struct {
	dist     service.Distribution
	versions []service.DistributionVersion
}

// repository implements service.Repository
type repository struct {
	mu     sync.Mutex
	nodes  map[string]*nodeState
	nextID int64
	now    func() time.Time
}

var _ service.Repository = (*repository)(nil)

// Option is a functional option for configuring the repository
type Option func(*repository)

// WithClock sets the clock used for row timestamps
func WithClock(now func() time.Time) Option {
	return func(r *repository) {
		r.now = now
	}
}

// New creates an empty in-memory repository
func New(opts ...Option) service.Repository {
	r := &repository{
		nodes: make(map[string]*nodeState),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *repository) id() int64 {
	r.nextID++
	return r.nextID
}

// CheckReadiness always succeeds
func (*repository) CheckReadiness(_ context.Context) error {
	return nil
}

// UpsertNode creates or updates a node and replaces its admin list
func (r *repository) UpsertNode(_ context.Context, node *service.Node) (*service.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	state, ok := r.nodes[node.Identifier]
	if !ok {
		state = &nodeState{
			node: service.Node{
				ID:         uuid.New(),
				Identifier: node.Identifier,
				CreatedAt:  now,
			},
			catalogs:      make(map[string]*catalogRow),
			distributions: make(map[string]*distributionRow),
		}
		r.nodes[node.Identifier] = state
	}

	admins := slices.Clone(node.Admins)
	slices.Sort(admins)
	state.node.Admins = slices.Compact(admins)
	state.node.Source = nil
	if node.Source != nil {
		src := *node.Source
		state.node.Source = &src
	}
	state.node.UpdatedAt = now

	return cloneNode(&state.node), nil
}

func cloneNode(n *service.Node) *service.Node {
	out := *n
	out.Admins = slices.Clone(n.Admins)
	if n.Source != nil {
		src := *n.Source
		out.Source = &src
	}
	return &out
}

func (r *repository) lookup(identifier string) (*nodeState, error) {
	state, ok := r.nodes[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrNodeNotFound, identifier)
	}
	return state, nil
}

// GetNode returns a node by identifier
func (r *repository) GetNode(_ context.Context, identifier string) (*service.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.lookup(identifier)
	if err != nil {
		return nil, err
	}
	return cloneNode(&state.node), nil
}

// ListNodes returns every node ordered by identifier
func (r *repository) ListNodes(_ context.Context) ([]*service.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*service.Node, 0, len(r.nodes))
	for _, state := range r.nodes {
		out = append(out, cloneNode(&state.node))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out, nil
}

// SaveCatalog inserts or replaces the node's record for the day. The repository
// lock stands in for the node row lock while promote runs.
func (r *repository) SaveCatalog(
	ctx context.Context,
	upload service.CatalogUpload,
	promote func(context.Context) error,
) (*service.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.lookup(upload.Node)
	if err != nil {
		return nil, err
	}

	key := upload.UploadedOn.Format(time.DateOnly)
	row := &catalogRow{upload: upload, createdAt: r.now()}
	if prev, ok := state.catalogs[key]; ok {
		row.id = prev.id
	} else {
		row.id = r.id()
	}

	if promote != nil {
		if err := promote(ctx); err != nil {
			return nil, err
		}
	}
	state.catalogs[key] = row
	return row.record(), nil
}

func (c *catalogRow) record() *service.Record {
	return &service.Record{
		ID:         c.id,
		Node:       c.upload.Node,
		Format:     c.upload.Format,
		UploadedOn: c.upload.UploadedOn,
		FilePath:   c.upload.FilePath,
		CreatedAt:  c.createdAt,
	}
}

func (s *nodeState) sortedCatalogs() []*catalogRow {
	rows := make([]*catalogRow, 0, len(s.catalogs))
	for _, row := range s.catalogs {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].upload.UploadedOn.After(rows[j].upload.UploadedOn)
	})
	return rows
}

// LatestCatalog returns the record with the most recent submission date
func (r *repository) LatestCatalog(_ context.Context, node string) (*service.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.lookup(node)
	if err != nil {
		return nil, err
	}
	rows := state.sortedCatalogs()
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: node %s", service.ErrNoCatalogUploaded, node)
	}
	return rows[0].record(), nil
}

// ListCatalogs returns every record of the node, newest first
func (r *repository) ListCatalogs(_ context.Context, node string) ([]*service.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.lookup(node)
	if err != nil {
		return nil, err
	}
	rows := state.sortedCatalogs()
	out := make([]*service.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

// AppendVersion creates or updates the distribution and records a new version of it
func (r *repository) AppendVersion(
	_ context.Context,
	v service.NewVersion,
) (*service.Distribution, *service.DistributionVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.lookup(v.Node)
	if err != nil {
		return nil, nil, err
	}

	row, ok := state.distributions[v.Identifier]
	if !ok {
		row = &distributionRow{dist: service.Distribution{
			ID:         r.id(),
			Node:       v.Node,
			Identifier: v.Identifier,
			CreatedAt:  r.now(),
		}}
		state.distributions[v.Identifier] = row
	}
	row.dist.DatasetIdentifier = v.DatasetIdentifier
	row.dist.FileName = v.FileName

	version := service.DistributionVersion{
		ID:                     r.id(),
		DistributionIdentifier: v.Identifier,
		UploadedAt:             v.UploadedAt,
		FilePath:               v.FilePath,
		FileName:               v.FileName,
	}
	row.versions = append(row.versions, version)

	dist := row.dist
	dist.Versions = nil
	return &dist, &version, nil
}

func (r *repository) distribution(node, identifier string) (*distributionRow, error) {
	state, err := r.lookup(node)
	if err != nil {
		return nil, err
	}
	row, ok := state.distributions[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrDistributionNotFound, identifier)
	}
	return row, nil
}

// GetDistribution returns a distribution without versions
func (r *repository) GetDistribution(_ context.Context, node, identifier string) (*service.Distribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, err := r.distribution(node, identifier)
	if err != nil {
		return nil, err
	}
	dist := row.dist
	return &dist, nil
}

func (d *distributionRow) newest(n int) []service.DistributionVersion {
	versions := slices.Clone(d.versions)
	service.SortVersions(versions)
	if len(versions) > n {
		versions = versions[:n]
	}
	return versions
}

// ListDistributions returns up to limit distributions with identifiers after the given one
func (r *repository) ListDistributions(
	_ context.Context,
	node, after string,
	limit, versions int,
) ([]*service.Distribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.lookup(node)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(state.distributions))
	for id := range state.distributions {
		if strings.Compare(id, after) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]*service.Distribution, 0, len(ids))
	for _, id := range ids {
		row := state.distributions[id]
		dist := row.dist
		dist.Versions = row.newest(versions)
		out = append(out, &dist)
	}
	return out, nil
}

// RecentVersions returns the n newest versions of each of the node's distributions
func (r *repository) RecentVersions(_ context.Context, node string, n int) (map[string][]service.DistributionVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.lookup(node)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]service.DistributionVersion, len(state.distributions))
	for id, row := range state.distributions {
		if len(row.versions) > 0 {
			out[id] = row.newest(n)
		}
	}
	return out, nil
}

// LatestVersion returns the newest version of a distribution
func (r *repository) LatestVersion(_ context.Context, node, identifier string) (*service.DistributionVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, err := r.distribution(node, identifier)
	if err != nil {
		return nil, err
	}
	newest := row.newest(1)
	if len(newest) == 0 {
		return nil, fmt.Errorf("%w: %s", service.ErrVersionNotFound, identifier)
	}
	return &newest[0], nil
}

// DeleteDistribution removes a distribution with its versions and returns the version file paths
func (r *repository) DeleteDistribution(_ context.Context, node, identifier string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, err := r.distribution(node, identifier)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(row.versions))
	for _, v := range row.versions {
		paths = append(paths, v.FilePath)
	}
	delete(r.nodes[node].distributions, identifier)
	return paths, nil
}
