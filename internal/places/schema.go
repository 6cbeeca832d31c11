package places

import (
	"regexp"
	"strings"
)

const (
	FieldCounty = "county"
	FieldTown   = "town"
	FieldEstate = "estate"
	FieldLat    = "lat"
	FieldLng    = "lng"
)

type fieldRule struct {
	field    string
	patterns []*regexp.Regexp
}

// Schema is a prioritized list of header rules, evaluated once per source.
type Schema []fieldRule

func rule(field string, patterns ...string) fieldRule {
	r := fieldRule{field: field}
	for _, p := range patterns {
		r.patterns = append(r.patterns, regexp.MustCompile("(?i)"+p))
	}
	return r
}

// DefaultSchema covers the simple county,town,estate table and census-style
// exports (COUNTY_NAME, SETTLEMENT, LOCAL_AUTHORITY ...).
var DefaultSchema = Schema{
	rule(FieldCounty, `^COUNTY$|COUNTY_NAME|COUNTY_OR_CITY|LOCAL_AUTHORITY`),
	rule(FieldTown, `^TOWN$|TOWN_NAME|SETTLEMENT|LOCALITY|^PLACE$|URBAN_AREA`),
	rule(FieldEstate, `^ESTATE$|ESTATE_NAME|DEVELOPMENT|NEIGHBOURHOOD|^AREA$`),
	rule(FieldLat, `^LAT$|^LATITUDE$`),
	rule(FieldLng, `^LNG$|^LON$|^LONG$|^LONGITUDE$`),
}

// Match returns column indexes per field. For each field the first column
// matching any of its patterns wins; a column is claimed by at most one field.
func (s Schema) Match(header []string) map[string]int {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = normalizeHeader(h)
	}
	out := make(map[string]int, len(s))
	claimed := make(map[int]bool, len(header))
	for _, r := range s {
	cols:
		for i, h := range norm {
			if claimed[i] {
				continue
			}
			for _, p := range r.patterns {
				if p.MatchString(h) {
					out[r.field] = i
					claimed[i] = true
					break cols
				}
			}
		}
	}
	return out
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(h)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '.' {
			return '_'
		}
		return r
	}, h)
}
