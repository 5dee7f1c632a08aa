package validator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/empd2/empd-admin/pkg/rules"
	"github.com/empd2/empd-admin/pkg/schema"
	"github.com/empd2/empd-admin/pkg/store"
	"github.com/empd2/empd-admin/pkg/types"
	"github.com/empd2/empd-admin/pkg/validator"
)

const testSchema = `
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
  - name: Temperature
    kind: categorical
    values: [cold, temperate, warm]
checks: [coordinates, okexcept]
`

func testLookups() schema.LookupTables {
	return schema.LookupTables{
		"countries": schema.LookupTable{"Germany": {}, "France": {}},
	}
}

func testSetup(t *testing.T, tsv string) (*store.Store, *schema.Schema, schema.LookupTables) {
	t.Helper()
	lookups := testLookups()
	sch, err := schema.Parse([]byte(testSchema), lookups)
	require.NoError(t, err)
	st, err := store.Parse([]byte(tsv), "SampleName")
	require.NoError(t, err)
	return st, sch, lookups
}

func findingsByCell(rep *types.Report) map[types.Cell]types.Finding {
	out := make(map[types.Cell]types.Finding)
	for _, f := range rep.Findings() {
		out[f.Cell()] = f
	}
	return out
}

func TestValidateCleanTable(t *testing.T) {
	st, sch, lookups := testSetup(t,
		"SampleName\tCountry\tLatitude\tLongitude\n"+
			"test_a1\tGermany\t52.52\t13.40\n")
	rep := validator.Validate(st, sch, lookups, nil)
	require.True(t, rep.Empty())
}

func TestValidateReferenceFinding(t *testing.T) {
	st, sch, lookups := testSetup(t,
		"SampleName\tCountry\tLatitude\tLongitude\n"+
			"test_a1\tGermnay\t52.52\t13.40\n")
	rep := validator.Validate(st, sch, lookups, nil)
	require.Equal(t, 1, rep.Len())

	f := rep.Findings()[0]
	require.Equal(t, "test_a1", f.RowKey)
	require.Equal(t, "Country", f.Column)
	require.Equal(t, types.RuleReference, f.Rule)
}

func TestValidateFailFastOrdering(t *testing.T) {
	// A missing required value could also be seen as a reference failure;
	// only the required finding may surface.
	st, sch, lookups := testSetup(t,
		"SampleName\tCountry\tLatitude\tLongitude\n"+
			"test_a1\t\t52.52\t13.40\n")
	rep := validator.Validate(st, sch, lookups, nil)
	require.Equal(t, 1, rep.Len())
	require.Equal(t, types.RuleRequired, rep.Findings()[0].Rule)
}

func TestValidateFormatBeforeRange(t *testing.T) {
	st, sch, lookups := testSetup(t,
		"SampleName\tCountry\tLatitude\tLongitude\n"+
			"test_a1\tGermany\tnorth\t13.40\n"+
			"test_a2\tGermany\t95\t13.40\n")
	byCell := findingsByCell(validator.Validate(st, sch, lookups, nil))

	require.Equal(t, types.RuleFormat,
		byCell[types.Cell{RowKey: "test_a1", Column: "Latitude"}].Rule)
	require.Equal(t, types.RuleRange,
		byCell[types.Cell{RowKey: "test_a2", Column: "Latitude"}].Rule)
}

func TestValidateCategorical(t *testing.T) {
	st, sch, lookups := testSetup(t,
		"SampleName\tCountry\tLatitude\tLongitude\tTemperature\n"+
			"test_a1\tGermany\t52.52\t13.40\thot\n")
	rep := validator.Validate(st, sch, lookups, nil)
	require.Equal(t, 1, rep.Len())
	require.Equal(t, types.RuleReference, rep.Findings()[0].Rule)
	require.Equal(t, "Temperature", rep.Findings()[0].Column)
}

func TestValidateMissingOptionalIsClean(t *testing.T) {
	// Temperature and the coordinates are optional and absent entirely.
	st, sch, lookups := testSetup(t,
		"SampleName\tCountry\n"+
			"test_a1\tGermany\n")
	rep := validator.Validate(st, sch, lookups, nil)
	require.True(t, rep.Empty())
}

func TestValidateCrossColumnCoordinates(t *testing.T) {
	st, sch, lookups := testSetup(t,
		"SampleName\tCountry\tLatitude\tLongitude\n"+
			"test_a1\tGermany\t52.52\t\n")
	rep := validator.Validate(st, sch, lookups, nil)
	require.Equal(t, 1, rep.Len())

	f := rep.Findings()[0]
	require.Equal(t, types.RuleConsistency, f.Rule)
	require.Equal(t, "Longitude", f.Column)
}

func TestValidateCrossAndCellFindingsCoexist(t *testing.T) {
	// A malformed Latitude is still "present" for the coordinates check,
	// so the row reports both the format failure and the missing Longitude.
	st, sch, lookups := testSetup(t,
		"SampleName\tCountry\tLatitude\tLongitude\n"+
			"test_a1\tGermany\tnorth\t\n")
	byCell := findingsByCell(validator.Validate(st, sch, lookups, nil))
	require.Len(t, byCell, 2)
	require.Equal(t, types.RuleFormat,
		byCell[types.Cell{RowKey: "test_a1", Column: "Latitude"}].Rule)
	require.Equal(t, types.RuleConsistency,
		byCell[types.Cell{RowKey: "test_a1", Column: "Longitude"}].Rule)
}

func TestValidateOkExceptSuppression(t *testing.T) {
	st, sch, lookups := testSetup(t,
		"SampleName\tCountry\tLatitude\tLongitude\tokexcept\n"+
			"test_a1\tGermnay\t52.52\t13.40\tCountry\n"+
			"test_a2\tGermnay\t48.85\t2.35\t\n")
	rep := validator.Validate(st, sch, lookups, nil)
	require.Equal(t, 1, rep.Len())
	require.Equal(t, "test_a2", rep.Findings()[0].RowKey)
}

func TestValidateOkExceptUnknownColumn(t *testing.T) {
	st, sch, lookups := testSetup(t,
		"SampleName\tCountry\tLatitude\tLongitude\tokexcept\n"+
			"test_a1\tGermany\t52.52\t13.40\tCuontry\n")
	rep := validator.Validate(st, sch, lookups, nil)
	require.Equal(t, 1, rep.Len())

	f := rep.Findings()[0]
	require.Equal(t, schema.OkExceptColumn, f.Column)
	require.Equal(t, types.RuleConsistency, f.Rule)
}

func TestValidateDeterminism(t *testing.T) {
	st, sch, lookups := testSetup(t,
		"SampleName\tCountry\tLatitude\tLongitude\n"+
			"test_a1\tGermnay\t95\t13.40\n"+
			"test_a2\t\t48.85\t2.35\n")
	first := findingsByCell(validator.Validate(st, sch, lookups, nil))
	for i := 0; i < 5; i++ {
		require.Equal(t, first, findingsByCell(validator.Validate(st, sch, lookups, nil)))
	}
}

func TestValidateIncrementalEqualsFull(t *testing.T) {
	st, sch, lookups := testSetup(t,
		"SampleName\tCountry\tLatitude\tLongitude\n"+
			"test_a1\tGermnay\t95\t\n"+
			"test_a2\tFrance\t48.85\t2.35\n"+
			"test_a3\t\tnorth\t11.58\n")
	full := findingsByCell(validator.Validate(st, sch, lookups, nil))

	for _, scope := range []map[types.Cell]struct{}{
		{{RowKey: "test_a1", Column: "Country"}: {}},
		{{RowKey: "test_a1", Column: "Latitude"}: {}, {RowKey: "test_a1", Column: "Longitude"}: {}},
		{{RowKey: "test_a3", Column: "Country"}: {}, {RowKey: "test_a2", Column: "Country"}: {}},
	} {
		scoped := validator.Validate(st, sch, lookups, scope)
		for _, f := range scoped.Findings() {
			require.Contains(t, scope, f.Cell())
			require.Equal(t, full[f.Cell()], f)
		}
		// No finding a full pass reports for a scoped cell may be missing.
		got := findingsByCell(scoped)
		for cell, f := range full {
			if _, ok := scope[cell]; ok {
				require.Equal(t, f, got[cell])
			}
		}
	}
}

func TestValidateScopedFixCycle(t *testing.T) {
	st, sch, lookups := testSetup(t,
		"SampleName\tCountry\tLatitude\tLongitude\n"+
			"test_a1\tGermnay\t52.52\t13.40\n")
	rep := validator.Validate(st, sch, lookups, nil)
	require.Equal(t, 1, rep.Len())

	require.NoError(t, st.Set("test_a1", "Country", "Germany"))
	scope := st.TakeDirty()

	partial := validator.Validate(st, sch, lookups, scope)
	rep.Replace(scope, partial.Findings())
	require.True(t, rep.Empty())
}
