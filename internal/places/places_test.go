package places_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate_reviews/internal/domain"
	"estate_reviews/internal/places"
)

const simpleCSV = `county,town,estate
Kildare,Celbridge,The Grove
Kildare,Celbridge,Castletown
Kildare,Naas,
Dublin,Lucan,Finnstown
`

func load(t *testing.T, src string) *places.Index {
	t.Helper()
	ix, err := places.LoadCSV(strings.NewReader(src))
	require.NoError(t, err)
	return ix
}

func TestLoadCSV_Simple(t *testing.T) {
	ix := load(t, simpleCSV)

	assert.Equal(t, []string{"Dublin", "Kildare"}, ix.Counties())
	assert.Equal(t, []string{"Celbridge", "Naas"}, ix.Towns("Kildare"))
	assert.Equal(t, []string{"Castletown", "The Grove"}, ix.Estates("Kildare", "Celbridge"))
	assert.Equal(t, []string{domain.AllAreas}, ix.Estates("Kildare", "Naas"))
	assert.Equal(t, 4, ix.Len())
}

func TestLoadCSV_CensusHeaders(t *testing.T) {
	src := "OBJECTID,SETTLEMENT_NAME,COUNTY_NAME,POP\n1, Maynooth ,Kildare,14000\n2,Leixlip,Kildare,16000\n"
	ix := load(t, src)

	assert.Equal(t, []string{"Kildare"}, ix.Counties())
	assert.Equal(t, []string{"Leixlip", "Maynooth"}, ix.Towns("kildare"))
	assert.Equal(t, []string{domain.AllAreas}, ix.Estates("Kildare", "Maynooth"))
}

func TestLoadCSV_NoCountyColumnIsEmpty(t *testing.T) {
	ix := load(t, "region,town\nLeinster,Naas\n")
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.Counties())
}

func TestLoadCSV_DropsRowsMissingCountyOrTown(t *testing.T) {
	ix := load(t, "county,town,estate\n,Naas,X\nKildare,,Y\nKildare,Naas,Z\n")
	assert.Equal(t, 1, ix.Len())
	assert.True(t, ix.HasEstate("kildare", "NAAS", "z"))
}

func TestMerge_IsIdempotent(t *testing.T) {
	once := load(t, simpleCSV)

	twice := places.NewIndex()
	twice.Merge(load(t, simpleCSV))
	twice.Merge(load(t, simpleCSV))

	assert.True(t, once.Equal(twice))
	assert.Equal(t, once.Len(), twice.Len())
}

func TestMerge_UnionsTownsAndEstates(t *testing.T) {
	a := load(t, "county,town,estate\nKildare,Celbridge,The Grove\n")
	b := load(t, "county,town,estate\nKildare,Celbridge,Oldtown Mill\nKildare,Clane,\n")
	a.Merge(b)

	assert.Equal(t, []string{"Celbridge", "Clane"}, a.Towns("Kildare"))
	assert.Equal(t, []string{"Oldtown Mill", "The Grove"}, a.Estates("Kildare", "Celbridge"))
}

func TestCanonicalKeysKeepFirstSpelling(t *testing.T) {
	ix := load(t, "county,town,estate\nDerry,Limavady,\nderry,LIMAVADY,Roe Park\nDún Laoghaire-Rathdown,Dún Laoghaire,\n")

	assert.Equal(t, []string{"Derry", "Dún Laoghaire-Rathdown"}, ix.Counties())
	assert.Equal(t, []string{"Limavady"}, ix.Towns("DERRY"))
	assert.Equal(t, []string{domain.AllAreas, "Roe Park"}, ix.Estates("derry", "limavady"))
	assert.True(t, ix.HasTown("dun laoghaire-rathdown", "Dun Laoghaire"))
}

func TestLoadJSON_Nested(t *testing.T) {
	ix, err := places.LoadJSON(strings.NewReader(`{"Kildare":{"Celbridge":["The Grove"],"Naas":[]}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Celbridge", "Naas"}, ix.Towns("Kildare"))
	assert.Equal(t, []string{domain.AllAreas}, ix.Estates("Kildare", "Naas"))
}

func TestLoadJSON_Rows(t *testing.T) {
	ix, err := places.LoadJSON(strings.NewReader(`[{"county":"Cork","town":"Cobh","estate":"Rushbrooke"}]`))
	require.NoError(t, err)
	got, ok := ix.Resolve(domain.Triple{County: "cork", Town: "COBH", Estate: "rushbrooke"})
	require.True(t, ok)
	assert.Equal(t, domain.Triple{County: "Cork", Town: "Cobh", Estate: "Rushbrooke"}, got)
}

func TestLoadFiles_MergesSources(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "a.csv")
	jsonPath := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(csvPath, []byte(simpleCSV), 0o644))
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"Kildare":{"Celbridge":["Hazelhatch"]}}`), 0o644))

	ix, err := places.LoadFiles(csvPath, jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Castletown", "Hazelhatch", "The Grove"}, ix.Estates("Kildare", "Celbridge"))
}

func TestResolveSlugs(t *testing.T) {
	ix := load(t, "county,town,estate\nDún Laoghaire-Rathdown,Dún Laoghaire,St. Michael's Park\n")

	got, err := ix.ResolveSlugs("dun-laoghaire-rathdown", "dun-laoghaire", "st-michael-s-park")
	require.NoError(t, err)
	assert.Equal(t, "St. Michael's Park", got.Estate)

	_, err = ix.ResolveSlugs("dun-laoghaire-rathdown", "dun-laoghaire", "nowhere")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSchemaMatch_FirstColumnWins(t *testing.T) {
	cols := places.DefaultSchema.Match([]string{"Local Authority", "County", "Town Name", "Estate"})
	assert.Equal(t, 0, cols[places.FieldCounty])
	assert.Equal(t, 2, cols[places.FieldTown])
	assert.Equal(t, 3, cols[places.FieldEstate])
}

func TestFromRows(t *testing.T) {
	ix := places.FromRows([]domain.Place{
		{County: "Meath", Town: "Ratoath", Estate: "Fairyhouse Road"},
		{County: "meath", Town: "ratoath", Estate: "fairyhouse road"},
	})
	assert.Equal(t, 1, ix.Len())
	assert.Len(t, ix.Places(), 1)
}

func TestIndex_LookupDisplaySpelling(t *testing.T) {
	ix := places.NewIndex()
	ix.Add("Kildare", "Celbridge", "The Grove")

	c, ok := ix.LookupCounty("  KILDARE ")
	assert.True(t, ok)
	assert.Equal(t, "Kildare", c)

	c, tw, ok := ix.LookupTown("kildare", "celbridge")
	assert.True(t, ok)
	assert.Equal(t, "Kildare", c)
	assert.Equal(t, "Celbridge", tw)

	_, _, ok = ix.LookupTown("kildare", "naas")
	assert.False(t, ok)
}

func TestResolveSlugs_SharedSlugIsStable(t *testing.T) {
	ix := places.NewIndex()
	ix.Add("Kildare", "Celbridge", "Oak-Park")
	ix.Add("Kildare", "Celbridge", "Oak Park")
	ix.Add("Kildare", "Celbridge", "Oakley")
	require.Len(t, ix.Estates("Kildare", "Celbridge"), 3)

	for i := 0; i < 50; i++ {
		got, err := ix.ResolveSlugs("kildare", "celbridge", "oak-park")
		require.NoError(t, err)
		assert.Equal(t, "Oak Park", got.Estate)
	}
}
