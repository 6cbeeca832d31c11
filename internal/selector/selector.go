// Package selector implements the County → Town → Estate cascading picker.
// It never performs I/O; navigation is reported through a callback.
package selector

import (
	"errors"

	"estate_reviews/internal/domain"
	"estate_reviews/internal/places"
	"estate_reviews/internal/shared"
)

var (
	ErrParentUnset   = errors.New("selector: parent level is not set")
	ErrUnknownOption = errors.New("selector: unknown option")
	ErrIncomplete    = errors.New("selector: selection incomplete")
)

type Level string

const (
	LevelCounty Level = "county"
	LevelTown   Level = "town"
	LevelEstate Level = "estate"
)

// NavigateFunc receives the estate page path once a triple is resolved.
type NavigateFunc func(path string, t domain.Triple)

type Selector struct {
	ix       *places.Index
	navigate NavigateFunc

	county string
	town   string
	estate string
}

func New(ix *places.Index, navigate NavigateFunc) *Selector {
	if ix == nil {
		ix = places.NewIndex()
	}
	return &Selector{ix: ix, navigate: navigate}
}

func (s *Selector) County() string { return s.county }
func (s *Selector) Town() string   { return s.town }
func (s *Selector) Estate() string { return s.estate }

func (s *Selector) TownEnabled() bool   { return s.county != "" }
func (s *Selector) EstateEnabled() bool { return s.town != "" }

// SetCounty selects a county and clears town and estate. An empty name
// clears the whole selection.
func (s *Selector) SetCounty(name string) error {
	if name == "" {
		s.county, s.town, s.estate = "", "", ""
		return nil
	}
	t, ok := s.lookupCounty(name)
	if !ok {
		return ErrUnknownOption
	}
	s.county, s.town, s.estate = t, "", ""
	return nil
}

// SetTown selects a town of the current county and clears the estate.
func (s *Selector) SetTown(name string) error {
	if s.county == "" {
		return ErrParentUnset
	}
	if name == "" {
		s.town, s.estate = "", ""
		return nil
	}
	for _, t := range s.ix.Towns(s.county) {
		if shared.Key(t) == shared.Key(name) {
			s.town, s.estate = t, ""
			return nil
		}
	}
	return ErrUnknownOption
}

func (s *Selector) SetEstate(name string) error {
	if s.town == "" {
		return ErrParentUnset
	}
	if name == "" {
		s.estate = ""
		return nil
	}
	t, ok := s.ix.Resolve(domain.Triple{County: s.county, Town: s.town, Estate: name})
	if !ok {
		return ErrUnknownOption
	}
	s.estate = t.Estate
	return nil
}

func (s *Selector) CountyOptions() []string { return s.ix.Counties() }

func (s *Selector) TownOptions() []string {
	if s.county == "" {
		return nil
	}
	return s.ix.Towns(s.county)
}

func (s *Selector) EstateOptions() []string {
	if s.town == "" {
		return nil
	}
	return s.ix.Estates(s.county, s.town)
}

// Options returns the option list for a level, ranked against query.
func (s *Selector) Options(level Level, query string) []string {
	switch level {
	case LevelCounty:
		return Filter(query, s.CountyOptions())
	case LevelTown:
		return Filter(query, s.TownOptions())
	case LevelEstate:
		return Filter(query, s.EstateOptions())
	}
	return nil
}

// Triple returns the current selection. When the town has no distinct
// estates the estate defaults to the whole-town sentinel.
func (s *Selector) Triple() (domain.Triple, bool) {
	if s.county == "" || s.town == "" {
		return domain.Triple{}, false
	}
	estate := s.estate
	if estate == "" {
		if s.ix.HasDistinctEstates(s.county, s.town) {
			return domain.Triple{}, false
		}
		estate = domain.AllAreas
	}
	return domain.Triple{County: s.county, Town: s.town, Estate: estate}, true
}

// Resolve emits the navigation target for a complete selection.
func (s *Selector) Resolve() (string, error) {
	t, ok := s.Triple()
	if !ok {
		return "", ErrIncomplete
	}
	p := Path(t)
	if s.navigate != nil {
		s.navigate(p, t)
	}
	return p, nil
}

// Path builds /{county}/{town}/{estate} from slugs.
func Path(t domain.Triple) string {
	return "/" + shared.Slugify(t.County) + "/" + shared.Slugify(t.Town) + "/" + shared.Slugify(t.Estate)
}

func (s *Selector) lookupCounty(name string) (string, bool) {
	for _, c := range s.ix.Counties() {
		if shared.Key(c) == shared.Key(name) {
			return c, true
		}
	}
	return "", false
}
