package app_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"estate_reviews/internal/app"
	"estate_reviews/internal/domain"
	"estate_reviews/internal/places"
)

func TestEnrich_MergesDedupesAndFallsBack(t *testing.T) {
	lat, lng := 53.34, -6.54
	osm := &fakeOverpass{
		byTown: map[string][]domain.OSMElement{
			"Celbridge": {
				{Type: "node", ID: 1, Lat: &lat, Lng: &lng, Tags: map[string]string{"place": "neighbourhood", "name": "The Grove"}},
				{Type: "way", ID: 2, Tags: map[string]string{"landuse": "residential", "name": "Oldtown Mill"}},
				{Type: "way", ID: 3, Tags: map[string]string{"landuse": "residential", "name": "oldtown mill"}},
				{Type: "way", ID: 4, Tags: map[string]string{"amenity": "school", "name": "Scoil"}},
				{Type: "node", ID: 5, Tags: map[string]string{"place": "suburb"}},
				{Type: "node", ID: 6, Tags: map[string]string{"place": "suburb", "name": "Celbridge"}},
			},
		},
		fail: map[string]bool{"Naas": true},
	}
	base := []places.Row{
		{County: "Kildare", Town: "Celbridge", Estate: "The Grove"},
		{County: "Kildare", Town: "Naas"},
		{County: "Dublin", Town: "Lucan"},
		{County: "", Town: "Orphan"},
	}

	out, rep, err := app.NewEnrichmentService(osm, 2).Run(context.Background(), base)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	var got []string
	for _, p := range out {
		got = append(got, p.County+"/"+p.Town+"/"+p.Estate+"/"+p.Source)
	}
	want := []string{
		"Dublin/Lucan/All Areas/base",
		"Kildare/Celbridge/Oldtown Mill/osm",
		"Kildare/Celbridge/The Grove/base",
		"Kildare/Naas/All Areas/base",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("rows:\n got %v\nwant %v", got, want)
	}
	if rep.Towns != 3 || rep.Queried != 3 || rep.Failed != 1 || rep.Added != 1 {
		t.Fatalf("report: %+v", rep)
	}
	if out[1].Notes != "landuse=residential" {
		t.Fatalf("notes: %q", out[1].Notes)
	}
}

func TestEnrich_WithoutClientKeepsBase(t *testing.T) {
	out, rep, err := app.NewEnrichmentService(nil, 1).Run(context.Background(), []places.Row{
		{County: "Cork", Town: "Cobh", Lat: "51.85", Lng: "-8.29"},
		{County: "cork", Town: "COBH", Estate: "Rushbrooke"},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if rep.Queried != 0 || len(out) != 1 || out[0].Estate != "Rushbrooke" {
		t.Fatalf("out=%+v rep=%+v", out, rep)
	}
}

func TestWritePlacesCSV(t *testing.T) {
	lat := 53.3
	var buf bytes.Buffer
	err := app.WritePlacesCSV(&buf, []domain.Place{
		{County: "Kildare", Town: "Celbridge", Estate: "The Grove", Lat: &lat, Source: "osm", Notes: "place=neighbourhood"},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	want := "county,town,estate,lat,lng,source,notes\nKildare,Celbridge,The Grove,53.300000,,osm,place=neighbourhood\n"
	if buf.String() != want {
		t.Fatalf("csv:\n%s", buf.String())
	}

	ix, err := places.LoadCSV(&buf)
	if err != nil || !ix.HasEstate("Kildare", "Celbridge", "The Grove") {
		t.Fatalf("enriched csv not loadable: %v", err)
	}
}

func TestCatalog_ReloadAndOptions(t *testing.T) {
	pl := &fakePlaces{rows: []domain.Place{{ID: "p1", County: "Kildare", Town: "Celbridge", Estate: "Oldtown Mill"}}}
	cat := app.NewCatalog(pl)
	if err := cat.Reload(context.Background()); err != nil {
		t.Fatalf("err: %v", err)
	}
	if cat.Len() != 1 {
		t.Fatalf("Len = %d", cat.Len())
	}
	if got := cat.Counties("kil"); len(got) != 1 || got[0] != "Kildare" {
		t.Fatalf("Counties = %v", got)
	}
	if _, err := cat.Towns("Cork", ""); err == nil {
		t.Fatal("expected not found for unknown county")
	}
	ps := cat.Places()
	if len(ps) != 1 || ps[0].ID != "p1" {
		t.Fatalf("Places = %+v", ps)
	}

	if _, err := cat.AddPlace(context.Background(), domain.Place{County: "Kildare", Town: "Naas"}); err != nil {
		t.Fatalf("AddPlace: %v", err)
	}
	ps = cat.Places()
	if len(ps) != 2 || ps[1].Estate != domain.AllAreas || ps[1].ID == "" {
		t.Fatalf("Places after add = %+v", ps)
	}
}
