// Package places holds the in-memory County → Town → Estate index and its loaders.
package places

import (
	"sort"
	"strings"

	"estate_reviews/internal/domain"
	"estate_reviews/internal/shared"
)

type townNode struct {
	name    string
	estates map[string]string // key -> display
}

type countyNode struct {
	name  string
	towns map[string]*townNode
}

// Index maps County → Town → set of Estate. Keys are canonical (shared.Key);
// the first spelling seen is kept for display.
type Index struct {
	counties map[string]*countyNode
}

func NewIndex() *Index {
	return &Index{counties: make(map[string]*countyNode)}
}

// Add inserts one row. Rows without county or town are dropped; an empty
// estate stands for the whole town.
func (ix *Index) Add(county, town, estate string) bool {
	county, town, estate = clean(county), clean(town), clean(estate)
	if county == "" || town == "" {
		return false
	}
	if estate == "" {
		estate = domain.AllAreas
	}
	ck, tk, ek := shared.Key(county), shared.Key(town), shared.Key(estate)

	c, ok := ix.counties[ck]
	if !ok {
		c = &countyNode{name: county, towns: make(map[string]*townNode)}
		ix.counties[ck] = c
	}
	t, ok := c.towns[tk]
	if !ok {
		t = &townNode{name: town, estates: make(map[string]string)}
		c.towns[tk] = t
	}
	if _, ok := t.estates[ek]; ok {
		return false
	}
	t.estates[ek] = estate
	return true
}

// Merge unions other into ix.
func (ix *Index) Merge(other *Index) {
	if other == nil {
		return
	}
	for _, c := range other.counties {
		for _, t := range c.towns {
			for _, e := range t.estates {
				ix.Add(c.name, t.name, e)
			}
		}
	}
}

func (ix *Index) Clone() *Index {
	out := NewIndex()
	out.Merge(ix)
	return out
}

// Len is the number of estates across the index.
func (ix *Index) Len() int {
	n := 0
	for _, c := range ix.counties {
		for _, t := range c.towns {
			n += len(t.estates)
		}
	}
	return n
}

func (ix *Index) Counties() []string {
	out := make([]string, 0, len(ix.counties))
	for _, c := range ix.counties {
		out = append(out, c.name)
	}
	return SortNames(out)
}

func (ix *Index) Towns(county string) []string {
	c := ix.county(county)
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.towns))
	for _, t := range c.towns {
		out = append(out, t.name)
	}
	return SortNames(out)
}

func (ix *Index) Estates(county, town string) []string {
	t := ix.town(county, town)
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.estates))
	for _, e := range t.estates {
		out = append(out, e)
	}
	return SortNames(out)
}

// HasDistinctEstates reports whether the town has any estate other than the
// whole-town sentinel.
func (ix *Index) HasDistinctEstates(county, town string) bool {
	t := ix.town(county, town)
	if t == nil {
		return false
	}
	for k := range t.estates {
		if k != shared.Key(domain.AllAreas) {
			return true
		}
	}
	return false
}

func (ix *Index) HasCounty(county string) bool { return ix.county(county) != nil }

func (ix *Index) HasTown(county, town string) bool { return ix.town(county, town) != nil }

func (ix *Index) HasEstate(county, town, estate string) bool {
	_, ok := ix.Resolve(domain.Triple{County: county, Town: town, Estate: estate})
	return ok
}

// Resolve maps a case-insensitive triple onto the index's display spelling.
func (ix *Index) Resolve(in domain.Triple) (domain.Triple, bool) {
	c := ix.county(in.County)
	if c == nil {
		return domain.Triple{}, false
	}
	t, ok := c.towns[shared.Key(in.Town)]
	if !ok {
		return domain.Triple{}, false
	}
	e, ok := t.estates[shared.Key(in.Estate)]
	if !ok {
		return domain.Triple{}, false
	}
	return domain.Triple{County: c.name, Town: t.name, Estate: e}, true
}

// ResolveSlugs finds the triple addressed by /{county}/{town}/{estate}.
// Names that share a slug resolve to the first in sorted order.
func (ix *Index) ResolveSlugs(countySlug, townSlug, estateSlug string) (domain.Triple, error) {
	countySlug, townSlug, estateSlug = strings.ToLower(countySlug), strings.ToLower(townSlug), strings.ToLower(estateSlug)
	for _, c := range ix.Counties() {
		if shared.Slugify(c) != countySlug {
			continue
		}
		for _, t := range ix.Towns(c) {
			if shared.Slugify(t) != townSlug {
				continue
			}
			for _, e := range ix.Estates(c, t) {
				if shared.Slugify(e) == estateSlug {
					return domain.Triple{County: c, Town: t, Estate: e}, nil
				}
			}
		}
	}
	return domain.Triple{}, domain.ErrNotFound
}

// Places flattens the index sorted by county, town, estate.
func (ix *Index) Places() []domain.Place {
	var out []domain.Place
	for _, c := range ix.Counties() {
		for _, t := range ix.Towns(c) {
			for _, e := range ix.Estates(c, t) {
				out = append(out, domain.Place{County: c, Town: t, Estate: e})
			}
		}
	}
	return out
}

// Equal compares two indexes by canonical keys.
func (ix *Index) Equal(other *Index) bool {
	if other == nil || len(ix.counties) != len(other.counties) {
		return false
	}
	for ck, c := range ix.counties {
		oc, ok := other.counties[ck]
		if !ok || len(c.towns) != len(oc.towns) {
			return false
		}
		for tk, t := range c.towns {
			ot, ok := oc.towns[tk]
			if !ok || len(t.estates) != len(ot.estates) {
				return false
			}
			for ek := range t.estates {
				if _, ok := ot.estates[ek]; !ok {
					return false
				}
			}
		}
	}
	return true
}

// LookupCounty returns the display spelling of county.
func (ix *Index) LookupCounty(county string) (string, bool) {
	if c := ix.county(county); c != nil {
		return c.name, true
	}
	return "", false
}

// LookupTown returns the display spelling of county and town.
func (ix *Index) LookupTown(county, town string) (string, string, bool) {
	c := ix.county(county)
	if c == nil {
		return "", "", false
	}
	t, ok := c.towns[shared.Key(town)]
	if !ok {
		return "", "", false
	}
	return c.name, t.name, true
}

func (ix *Index) county(name string) *countyNode {
	return ix.counties[shared.Key(name)]
}

func (ix *Index) town(county, town string) *townNode {
	c := ix.county(county)
	if c == nil {
		return nil
	}
	return c.towns[shared.Key(town)]
}

// SortNames sorts display names alphabetically, ignoring case and diacritics.
func SortNames(names []string) []string {
	sort.Slice(names, func(i, j int) bool {
		fi, fj := shared.Fold(names[i]), shared.Fold(names[j])
		if fi != fj {
			return fi < fj
		}
		return names[i] < names[j]
	})
	return names
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
