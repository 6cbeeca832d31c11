package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"estate_reviews/internal/domain"
	"estate_reviews/internal/places"
	"estate_reviews/internal/selector"
	"estate_reviews/internal/shared"
)

// Catalog owns the live Place Index. Readers see an immutable snapshot; writers
// copy, modify and swap it under the lock.
type Catalog struct {
	mu    sync.RWMutex
	ix    *places.Index
	ids   map[string]string // canonical triple key -> places.id
	repo  domain.PlaceRepository
	files []string
}

func NewCatalog(repo domain.PlaceRepository, files ...string) *Catalog {
	return &Catalog{ix: places.NewIndex(), ids: map[string]string{}, repo: repo, files: files}
}

// NewCatalogFromIndex wraps an already built index. Used by tests and the enricher.
func NewCatalogFromIndex(ix *places.Index, repo domain.PlaceRepository) *Catalog {
	return &Catalog{ix: ix, ids: map[string]string{}, repo: repo}
}

// Reload rebuilds the index from the configured files and the places table.
func (c *Catalog) Reload(ctx context.Context) error {
	ix, err := places.LoadFiles(c.files...)
	if err != nil {
		return err
	}
	ids := map[string]string{}
	if c.repo != nil {
		rows, err := c.repo.ListPlaces(ctx)
		if err != nil {
			return fmt.Errorf("list places: %w", err)
		}
		ix.Merge(places.FromRows(rows))
		for _, p := range rows {
			ids[tripleKey(p.Triple())] = p.ID
		}
	}
	c.mu.Lock()
	c.ix, c.ids = ix, ids
	c.mu.Unlock()
	log.Info().Int("estates", ix.Len()).Int("files", len(c.files)).Msg("place index loaded")
	return nil
}

func (c *Catalog) index() *places.Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ix
}

// Snapshot returns a private copy of the current index.
func (c *Catalog) Snapshot() *places.Index { return c.index().Clone() }

func (c *Catalog) Len() int { return c.index().Len() }

func (c *Catalog) Resolve(t domain.Triple) (domain.Triple, bool) { return c.index().Resolve(t) }

func (c *Catalog) ResolveSlugs(county, town, estate string) (domain.Triple, error) {
	return c.index().ResolveSlugs(county, town, estate)
}

func (c *Catalog) LookupTown(county, town string) (string, string, bool) {
	return c.index().LookupTown(county, town)
}

// Counties lists counties ranked against q.
func (c *Catalog) Counties(q string) []string {
	return selector.Filter(q, c.index().Counties())
}

func (c *Catalog) Towns(county, q string) ([]string, error) {
	ix := c.index()
	if !ix.HasCounty(county) {
		return nil, domain.ErrNotFound
	}
	return selector.Filter(q, ix.Towns(county)), nil
}

func (c *Catalog) Estates(county, town, q string) ([]string, error) {
	ix := c.index()
	if !ix.HasTown(county, town) {
		return nil, domain.ErrNotFound
	}
	return selector.Filter(q, ix.Estates(county, town)), nil
}

// Places lists every estate sorted by county, town and name. Rows that only
// exist in static files get a stable id derived from their slug path.
func (c *Catalog) Places() []domain.Place {
	c.mu.RLock()
	ix, ids := c.ix, c.ids
	c.mu.RUnlock()
	out := ix.Places()
	for i := range out {
		if id, ok := ids[tripleKey(out[i].Triple())]; ok {
			out[i].ID = id
			continue
		}
		out[i].ID = strings.TrimPrefix(selector.Path(out[i].Triple()), "/")
	}
	return out
}

// AddPlace persists p and adds it to the live index. It returns the display
// triple, which keeps an existing spelling when the estate is already known.
func (c *Catalog) AddPlace(ctx context.Context, p domain.Place) (domain.Triple, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if strings.TrimSpace(p.Estate) == "" {
		p.Estate = domain.AllAreas
	}
	if c.repo != nil {
		if err := c.repo.UpsertPlaces(ctx, []domain.Place{p}); err != nil {
			return domain.Triple{}, fmt.Errorf("upsert place: %w", err)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.ix.Clone()
	next.Add(p.County, p.Town, p.Estate)
	t, ok := next.Resolve(p.Triple())
	if !ok {
		return domain.Triple{}, domain.ErrNotFound
	}
	ids := make(map[string]string, len(c.ids)+1)
	for k, v := range c.ids {
		ids[k] = v
	}
	if _, ok := ids[tripleKey(t)]; !ok {
		ids[tripleKey(t)] = p.ID
	}
	c.ix, c.ids = next, ids
	return t, nil
}

func tripleKey(t domain.Triple) string {
	return shared.Key(t.County) + "|" + shared.Key(t.Town) + "|" + shared.Key(t.Estate)
}
