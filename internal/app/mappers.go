package app

import (
	"fmt"
	"strings"

	"estate_reviews/internal/domain"
)

/********** OSM tag registries **********/

// nameAliases lists the tags tried, in order, for an area's display name.
var nameAliases = []string{"name:en", "name", "official_name", "alt_name"}

// estateTags maps a tag key to the values that mark a residential area.
var estateTags = map[string][]string{
	"place":   {"neighbourhood", "suburb", "quarter"},
	"landuse": {"residential"},
}

func lookupName(tags map[string]string) string {
	for _, k := range nameAliases {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return ""
}

// estateKind returns the first matching "key=value" tag, or "".
func estateKind(tags map[string]string) string {
	for _, k := range []string{"place", "landuse"} {
		v := tags[k]
		for _, want := range estateTags[k] {
			if v == want {
				return k + "=" + v
			}
		}
	}
	return ""
}

// mapElement turns one Overpass element into a place row under county/town.
// Unnamed elements, other feature kinds and the town itself are skipped.
func mapElement(county, town string, el domain.OSMElement) (domain.Place, bool) {
	kind := estateKind(el.Tags)
	name := lookupName(el.Tags)
	if kind == "" || name == "" || sameKey(name, town) {
		return domain.Place{}, false
	}
	return domain.Place{
		ID:     fmt.Sprintf("osm:%s/%d", el.Type, el.ID),
		County: county,
		Town:   town,
		Estate: name,
		Lat:    el.Lat,
		Lng:    el.Lng,
		Source: "osm",
		Notes:  kind,
	}, true
}

func sameKey(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}
