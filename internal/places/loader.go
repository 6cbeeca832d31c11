package places

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"estate_reviews/internal/domain"
)

// Row is one normalized source row.
type Row struct {
	County string
	Town   string
	Estate string
	Lat    string
	Lng    string
}

// ReadCSVRows parses a table using schema. A source with no county or no
// town column yields no rows and no error.
func ReadCSVRows(r io.Reader, schema Schema) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := schema.Match(header)
	ci, okC := cols[FieldCounty]
	ti, okT := cols[FieldTown]
	if !okC || !okT {
		log.Warn().Strs("header", header).Msg("places: no county/town column found")
		return nil, nil
	}
	at := func(rec []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if ci >= len(rec) || ti >= len(rec) {
			continue
		}
		row := Row{
			County: at(rec, FieldCounty),
			Town:   at(rec, FieldTown),
			Estate: at(rec, FieldEstate),
			Lat:    at(rec, FieldLat),
			Lng:    at(rec, FieldLng),
		}
		if row.County == "" || row.Town == "" {
			continue
		}
		if row.Estate == "" {
			row.Estate = domain.AllAreas
		}
		out = append(out, row)
	}
	return out, nil
}

func LoadCSV(r io.Reader) (*Index, error) {
	rows, err := ReadCSVRows(r, DefaultSchema)
	if err != nil {
		return NewIndex(), err
	}
	ix := NewIndex()
	for _, row := range rows {
		ix.Add(row.County, row.Town, row.Estate)
	}
	return ix, nil
}

type jsonRow struct {
	County string `json:"county"`
	Town   string `json:"town"`
	Estate string `json:"estate"`
}

// LoadJSON accepts {county: {town: [estate...]}} or [{county, town, estate}].
func LoadJSON(r io.Reader) (*Index, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return NewIndex(), err
	}
	raw = bytes.TrimSpace(raw)
	ix := NewIndex()
	if len(raw) == 0 {
		return ix, nil
	}
	switch raw[0] {
	case '{':
		var nested map[string]map[string][]string
		if err := json.Unmarshal(raw, &nested); err != nil {
			return ix, fmt.Errorf("decode nested places: %w", err)
		}
		for county, towns := range nested {
			for town, estates := range towns {
				if len(estates) == 0 {
					ix.Add(county, town, "")
					continue
				}
				for _, e := range estates {
					ix.Add(county, town, e)
				}
			}
		}
	case '[':
		var rows []jsonRow
		if err := json.Unmarshal(raw, &rows); err != nil {
			return ix, fmt.Errorf("decode place rows: %w", err)
		}
		for _, row := range rows {
			ix.Add(row.County, row.Town, row.Estate)
		}
	default:
		return ix, fmt.Errorf("unsupported places json")
	}
	return ix, nil
}

// LoadFiles merges every source in order; .json files use LoadJSON, anything
// else is read as CSV.
func LoadFiles(paths ...string) (*Index, error) {
	ix := NewIndex()
	for _, p := range paths {
		part, err := loadFile(p)
		if err != nil {
			return ix, fmt.Errorf("load %s: %w", p, err)
		}
		log.Info().Str("file", p).Int("estates", part.Len()).Msg("places source loaded")
		ix.Merge(part)
	}
	return ix, nil
}

func loadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(f)
	}
	return LoadCSV(f)
}

// FromRows builds an index from the places table.
func FromRows(ps []domain.Place) *Index {
	ix := NewIndex()
	for _, p := range ps {
		ix.Add(p.County, p.Town, p.Estate)
	}
	return ix
}
