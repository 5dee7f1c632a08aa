package query_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/empd2/empd-admin/pkg/query"
	"github.com/empd2/empd-admin/pkg/schema"
	"github.com/empd2/empd-admin/pkg/store"
	"github.com/empd2/empd-admin/pkg/types"
)

const querySchema = `
key: SampleName
columns:
  - name: SampleName
    kind: text
    required: true
  - name: Country
    kind: reference
    required: true
    lookup: countries
  - name: Latitude
    kind: numeric
    range: {min: -90, max: 90}
  - name: Longitude
    kind: numeric
    range: {min: -180, max: 180}
`

const queryTSV = "SampleName\tCountry\tLatitude\tLongitude\tWorker\n" +
	"test_a1\tGermany\t52.52\t13.40\tanna\n" +
	"test_a2\tFrance\t48.85\t2.35\tbruno\n" +
	"test_a3\tGermany\t9.5\t11.58\tanna\n" +
	"test_a4\tNorway\t\t10.75\tcarla\n"

func querySetup(t *testing.T) (*store.Store, *schema.Schema) {
	t.Helper()
	lookups := schema.LookupTables{
		"countries": schema.LookupTable{"Germany": {}, "France": {}, "Norway": {}},
	}
	sch, err := schema.Parse([]byte(querySchema), lookups)
	require.NoError(t, err)
	st, err := store.Parse([]byte(queryTSV), "SampleName")
	require.NoError(t, err)
	return st, sch
}

func matchedKeys(t *testing.T, predicate string) []string {
	t.Helper()
	st, sch := querySetup(t)
	keys, err := query.Matches(st, sch, predicate)
	require.NoError(t, err)
	return keys
}

func TestEvaluateEquality(t *testing.T) {
	require.Equal(t, []string{"test_a1", "test_a3"},
		matchedKeys(t, `Country = "Germany"`))
}

func TestEvaluateNumericComparison(t *testing.T) {
	// Lexically "9.5" > "48.85"; Latitude is a numeric column so the
	// comparison must go through float parsing instead.
	require.Equal(t, []string{"test_a1", "test_a2"},
		matchedKeys(t, `Latitude > 40`))
	require.Equal(t, []string{"test_a3"},
		matchedKeys(t, `Latitude <= 40`))
}

func TestEvaluateUnparsableNumericNeverMatches(t *testing.T) {
	// test_a4 has an empty Latitude: it matches neither side of the split.
	require.NotContains(t, matchedKeys(t, `Latitude > 40`), "test_a4")
	require.NotContains(t, matchedKeys(t, `Latitude <= 40`), "test_a4")
	require.NotContains(t, matchedKeys(t, `Latitude != 40`), "test_a4")
}

func TestEvaluateLexicalComparison(t *testing.T) {
	// Worker is not declared in the schema, so it compares lexically.
	require.Equal(t, []string{"test_a2", "test_a4"},
		matchedKeys(t, `Worker > "anna"`))
}

func TestEvaluateAndOrPrecedence(t *testing.T) {
	// AND binds tighter than OR.
	require.Equal(t, []string{"test_a1", "test_a4"},
		matchedKeys(t, `Country = "Norway" OR Country = "Germany" AND Latitude > 40`))
	require.Equal(t, []string{"test_a1"},
		matchedKeys(t, `(Country = "Norway" OR Country = "Germany") AND Latitude > 40`))
}

func TestEvaluateLike(t *testing.T) {
	require.Equal(t, []string{"test_a1", "test_a3"},
		matchedKeys(t, `Country LIKE "germ%"`))
	require.Equal(t, []string{"test_a2"},
		matchedKeys(t, `Country LIKE "F_ance"`))
	require.Empty(t, matchedKeys(t, `Country LIKE "Germ"`))
}

func TestEvaluateStringEscape(t *testing.T) {
	st, sch := querySetup(t)
	require.NoError(t, st.Set("test_a1", "Worker", `anna "the fixer"`))
	keys, err := query.Matches(st, sch, `Worker = "anna ""the fixer"""`)
	require.NoError(t, err)
	require.Equal(t, []string{"test_a1"}, keys)
}

func TestEvaluateProjection(t *testing.T) {
	st, sch := querySetup(t)
	res, err := query.Evaluate(st, sch, query.Query{
		Predicate: `Country = "Germany"`,
		Columns:   []string{"Worker", "SampleName"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Worker", "SampleName"}, res.Columns)
	require.Equal(t, [][]string{
		{"anna", "test_a1"},
		{"anna", "test_a3"},
	}, res.Rows)
}

func TestEvaluateEmptyProjectionSelectsAll(t *testing.T) {
	st, sch := querySetup(t)
	res, err := query.Evaluate(st, sch, query.Query{Predicate: `SampleName = "test_a2"`})
	require.NoError(t, err)
	require.Equal(t, st.Columns(), res.Columns)
	require.Equal(t, [][]string{{"test_a2", "France", "48.85", "2.35", "bruno"}}, res.Rows)
}

func TestEvaluateUnknownColumn(t *testing.T) {
	st, sch := querySetup(t)

	_, err := query.Evaluate(st, sch, query.Query{Predicate: `Elevation > 100`})
	var unknown *types.UnknownColumnError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "Elevation", unknown.Column)

	_, err = query.Evaluate(st, sch, query.Query{
		Predicate: `Country = "Germany"`,
		Columns:   []string{"Elevation"},
	})
	require.ErrorAs(t, err, &unknown)
}

func TestEvaluateSchemaColumnAbsentFromStore(t *testing.T) {
	// Longitude-less sheets may still be queried on Longitude: declared
	// columns are known even before any row carries them.
	st, err := store.Parse([]byte("SampleName\tCountry\ntest_a1\tGermany\n"), "SampleName")
	require.NoError(t, err)
	lookups := schema.LookupTables{"countries": schema.LookupTable{"Germany": {}}}
	sch, err := schema.Parse([]byte(querySchema), lookups)
	require.NoError(t, err)

	res, err := query.Evaluate(st, sch, query.Query{Predicate: `Longitude > 0`})
	require.NoError(t, err)
	require.Empty(t, res.Rows)
}

func TestParseErrors(t *testing.T) {
	for _, predicate := range []string{
		"",
		"   ",
		`Country =`,
		`Country "Germany"`,
		`= "Germany"`,
		`(Country = "Germany"`,
		`Country = "Germany") `,
		`Country LIKE 42`,
		`Country = "unterminated`,
		`Country ! "Germany"`,
	} {
		_, err := query.Parse(predicate)
		require.Error(t, err, "predicate %q", predicate)
	}
}

func TestParseCaseInsensitiveKeywords(t *testing.T) {
	require.Equal(t, []string{"test_a1"},
		matchedKeys(t, `Country = "Germany" and Latitude > 40 or SampleName like "nope%"`))
}

func TestResultTSV(t *testing.T) {
	res := &query.Result{
		Columns: []string{"SampleName", "Country"},
		Rows:    [][]string{{"test_a1", "Germany"}},
	}
	require.Equal(t, "SampleName\tCountry\ntest_a1\tGermany\n", string(res.TSV()))
}
