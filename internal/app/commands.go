package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"estate_reviews/internal/domain"
	"estate_reviews/internal/places"
	"estate_reviews/internal/shared"
)

// EnrichmentService expands a county/town list into estates using OSM data.
type EnrichmentService struct {
	osm     domain.OverpassClient
	workers int
}

// NewEnrichmentService accepts a nil client, in which case Run only
// normalises and deduplicates the base rows.
func NewEnrichmentService(osm domain.OverpassClient, workers int) *EnrichmentService {
	if workers <= 0 {
		workers = 1
	}
	return &EnrichmentService{osm: osm, workers: workers}
}

// EnrichReport counts what a run did.
type EnrichReport struct {
	Towns   int
	Queried int
	Failed  int
	Added   int
}

// Run merges base rows with OSM areas per town. Towns that end up with no
// estate keep an "All Areas" row. The result is deduplicated and sorted.
func (s *EnrichmentService) Run(ctx context.Context, base []places.Row) ([]domain.Place, EnrichReport, error) {
	set := newPlaceSet()
	type town struct{ county, name string }
	var towns []town
	seenTown := map[string]bool{}

	for _, r := range base {
		county, tname := strings.TrimSpace(r.County), strings.TrimSpace(r.Town)
		if county == "" || tname == "" {
			continue
		}
		if k := shared.Key(county) + "|" + shared.Key(tname); !seenTown[k] {
			seenTown[k] = true
			towns = append(towns, town{county, tname})
		}
		if e := strings.TrimSpace(r.Estate); e != "" && e != domain.AllAreas {
			set.add(domain.Place{County: county, Town: tname, Estate: e, Lat: parseCoord(r.Lat), Lng: parseCoord(r.Lng), Source: "base"})
		}
	}
	rep := EnrichReport{Towns: len(towns)}

	if s.osm != nil {
		sem := semaphore.NewWeighted(int64(s.workers))
		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for _, t := range towns {
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			wg.Add(1)
			go func(t town) {
				defer wg.Done()
				defer sem.Release(1)

				els, err := s.osm.AreasInTown(ctx, t.county, t.name)
				mu.Lock()
				defer mu.Unlock()
				rep.Queried++
				if err != nil {
					rep.Failed++
					log.Warn().Err(err).Str("county", t.county).Str("town", t.name).Msg("overpass query failed")
					return
				}
				n := 0
				for _, el := range els {
					if p, ok := mapElement(t.county, t.name, el); ok && set.add(p) {
						n++
					}
				}
				rep.Added += n
				log.Info().Str("county", t.county).Str("town", t.name).Int("estates", n).Msg("town enriched")
			}(t)
		}
		wg.Wait()
		if err := ctx.Err(); err != nil {
			return nil, rep, err
		}
	}

	for _, t := range towns {
		if !set.hasTown(t.county, t.name) {
			set.add(domain.Place{County: t.county, Town: t.name, Estate: domain.AllAreas, Source: "base"})
		}
	}
	return set.sorted(), rep, nil
}

// placeSet deduplicates rows by lowercase (county, town, estate).
type placeSet struct {
	rows  map[string]domain.Place
	towns map[string]bool
}

func newPlaceSet() *placeSet {
	return &placeSet{rows: map[string]domain.Place{}, towns: map[string]bool{}}
}

func (ps *placeSet) add(p domain.Place) bool {
	k := tripleKey(p.Triple())
	if _, ok := ps.rows[k]; ok {
		return false
	}
	ps.rows[k] = p
	ps.towns[shared.Key(p.County)+"|"+shared.Key(p.Town)] = true
	return true
}

func (ps *placeSet) hasTown(county, town string) bool {
	return ps.towns[shared.Key(county)+"|"+shared.Key(town)]
}

func (ps *placeSet) sorted() []domain.Place {
	out := make([]domain.Place, 0, len(ps.rows))
	for _, p := range ps.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if x, y := shared.Fold(a.County), shared.Fold(b.County); x != y {
			return x < y
		}
		if x, y := shared.Fold(a.Town), shared.Fold(b.Town); x != y {
			return x < y
		}
		return shared.Fold(a.Estate) < shared.Fold(b.Estate)
	})
	return out
}

// EnrichHeader is the column order of the enriched CSV.
var EnrichHeader = []string{"county", "town", "estate", "lat", "lng", "source", "notes"}

func WritePlacesCSV(w io.Writer, ps []domain.Place) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EnrichHeader); err != nil {
		return err
	}
	for _, p := range ps {
		if err := cw.Write([]string{p.County, p.Town, p.Estate, coord(p.Lat), coord(p.Lng), p.Source, p.Notes}); err != nil {
			return fmt.Errorf("write %s/%s/%s: %w", p.County, p.Town, p.Estate, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func coord(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', 6, 64)
}

func parseCoord(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}
