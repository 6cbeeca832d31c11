package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"estate_reviews/internal/adapters/outbound"
	"estate_reviews/internal/domain"
)

const DefaultURL = "https://overpass-api.de/api/interpreter"

type Client struct {
	base string
	ua   string
	call *outbound.Caller
}

// New builds a client limited to rps requests per second; the public Overpass
// instances ask for well under one.
func New(base string, rps float64) *Client {
	if base == "" {
		base = DefaultURL
	}
	if rps <= 0 {
		rps = 0.5
	}
	return &Client{
		base: base,
		ua:   "estate-reviews-enricher/1.0",
		call: outbound.NewCaller("overpass", 90*time.Second, rps, 1),
	}
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *center           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type response struct {
	Elements []element `json:"elements"`
}

// AreasInTown returns named neighbourhoods and residential areas inside town.
func (c *Client) AreasInTown(ctx context.Context, county, town string) ([]domain.OSMElement, error) {
	q := Query(county, town)
	body, err := c.call.Do(ctx, "interpreter", func(ctx context.Context) (*http.Request, error) {
		form := url.Values{"data": {q}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.ua)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("overpass: decode: %w", err)
	}
	els := make([]domain.OSMElement, 0, len(out.Elements))
	for _, e := range out.Elements {
		el := domain.OSMElement{Type: e.Type, ID: e.ID, Lat: e.Lat, Lng: e.Lon, Tags: e.Tags}
		if e.Center != nil && el.Lat == nil {
			lat, lng := e.Center.Lat, e.Center.Lon
			el.Lat, el.Lng = &lat, &lng
		}
		els = append(els, el)
	}
	return els, nil
}

// Query renders the Overpass QL used for one town. Names are matched case
// insensitively and the county may carry a "County " prefix in OSM.
func Query(county, town string) string {
	return fmt.Sprintf(`[out:json][timeout:60];
area["name"~"^(County )?%s$",i]["boundary"="administrative"]->.c;
area["name"~"^%s$",i](area.c)->.t;
(
  nwr["place"~"^(neighbourhood|suburb|quarter)$"]["name"](area.t);
  nwr["landuse"="residential"]["name"](area.t);
);
out center tags;`, quote(county), quote(town))
}

// quote makes s a literal regex inside a double-quoted QL string. The QL
// string unescapes once, so regex backslashes are doubled.
func quote(s string) string {
	s = regexp.QuoteMeta(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
