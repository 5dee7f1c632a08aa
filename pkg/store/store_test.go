package store

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/empd2/empd-admin/pkg/types"
)

const sampleTSV = "SampleName\tCountry\tLatitude\tLongitude\n" +
	"test_a1\tGermnay\t52.52\t13.40\n" +
	"test_a2\tFrance\t48.85\t2.35\n" +
	"test_a3\tGermany\t48.13\t11.58\n"

func TestLoadRoundTrip(t *testing.T) {
	st, err := Parse([]byte(sampleTSV), "SampleName")
	require.NoError(t, err)
	require.Equal(t, 3, st.Len())
	require.Equal(t, []string{"SampleName", "Country", "Latitude", "Longitude"}, st.Columns())
	require.Equal(t, []byte(sampleTSV), st.Bytes())
}

func TestLoadRoundTripWithoutFinalNewline(t *testing.T) {
	src := "SampleName\tCountry\ntest_a1\tGermany"
	st, err := Parse([]byte(src), "SampleName")
	require.NoError(t, err)
	require.Equal(t, []byte(src), st.Bytes())
}

func TestLoadDuplicateKey(t *testing.T) {
	src := "SampleName\tCountry\ntest_a1\tGermany\ntest_a2\tFrance\ntest_a1\tSpain\n"
	_, err := Parse([]byte(src), "SampleName")
	require.Error(t, err)

	var dup *DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "test_a1", dup.Key)
	require.Equal(t, 0, dup.First)
	require.Equal(t, 2, dup.Second)
}

func TestLoadMissingKeyColumn(t *testing.T) {
	_, err := Parse([]byte("Country\nGermany\n"), "SampleName")
	require.Error(t, err)
	require.Contains(t, err.Error(), "SampleName")
}

func TestGetSet(t *testing.T) {
	st, err := Parse([]byte(sampleTSV), "SampleName")
	require.NoError(t, err)

	v, err := st.Get("test_a1", "Country")
	require.NoError(t, err)
	require.Equal(t, "Germnay", v)

	require.NoError(t, st.Set("test_a1", "Country", "Germany"))
	v, err = st.Get("test_a1", "Country")
	require.NoError(t, err)
	require.Equal(t, "Germany", v)

	// Unrelated rows are untouched.
	v, err = st.Get("test_a2", "Country")
	require.NoError(t, err)
	require.Equal(t, "France", v)
}

func TestGetSetNotFound(t *testing.T) {
	st, err := Parse([]byte(sampleTSV), "SampleName")
	require.NoError(t, err)

	var notFound *NotFoundError

	_, err = st.Get("nope", "Country")
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "nope", notFound.Key)

	_, err = st.Get("test_a1", "Nope")
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "Nope", notFound.Column)

	require.ErrorAs(t, st.Set("nope", "Country", "x"), &notFound)
	require.ErrorAs(t, st.Set("test_a1", "Nope", "x"), &notFound)
}

func TestSetRefusesKeyColumn(t *testing.T) {
	st, err := Parse([]byte(sampleTSV), "SampleName")
	require.NoError(t, err)
	require.Error(t, st.Set("test_a1", "SampleName", "other"))
}

func TestDirtyTracking(t *testing.T) {
	st, err := Parse([]byte(sampleTSV), "SampleName")
	require.NoError(t, err)
	require.Empty(t, st.TakeDirty())

	require.NoError(t, st.Set("test_a1", "Country", "Germany"))
	require.NoError(t, st.Set("test_a2", "Latitude", "48.86"))

	dirty := st.TakeDirty()
	require.Len(t, dirty, 2)
	require.Contains(t, dirty, types.Cell{RowKey: "test_a1", Column: "Country"})
	require.Contains(t, dirty, types.Cell{RowKey: "test_a2", Column: "Latitude"})

	// Drained after taking.
	require.Empty(t, st.TakeDirty())
}

func TestEnsureColumn(t *testing.T) {
	st, err := Parse([]byte(sampleTSV), "SampleName")
	require.NoError(t, err)

	st.EnsureColumn("okexcept")
	require.True(t, st.HasColumn("okexcept"))

	v, err := st.Get("test_a1", "okexcept")
	require.NoError(t, err)
	require.Equal(t, "", v)

	require.NoError(t, st.Set("test_a1", "okexcept", "Country"))
	v, err = st.Get("test_a1", "okexcept")
	require.NoError(t, err)
	require.Equal(t, "Country", v)

	// Ensuring an existing column is a no-op.
	st.EnsureColumn("Country")
	require.Equal(t, []string{"SampleName", "Country", "Latitude", "Longitude", "okexcept"}, st.Columns())
}

func TestSubset(t *testing.T) {
	st, err := Parse([]byte(sampleTSV), "SampleName")
	require.NoError(t, err)

	sub := st.Subset([]string{"test_a3", "test_a1"})
	require.Equal(t, []string{"test_a1", "test_a3"}, sub.Keys(), "subset preserves table order")
	require.Equal(t, st.Columns(), sub.Columns())

	// The subset is independent of the source.
	require.NoError(t, sub.Set("test_a1", "Country", "Germany"))
	v, err := st.Get("test_a1", "Country")
	require.NoError(t, err)
	require.Equal(t, "Germnay", v)
}

func TestAppend(t *testing.T) {
	st, err := Parse([]byte(sampleTSV), "SampleName")
	require.NoError(t, err)

	values := map[string]string{"Country": "Spain", "Latitude": "40.42", "Longitude": "-3.70"}
	require.NoError(t, st.Append("test_b1", func(col string) string { return values[col] }))
	require.Equal(t, 4, st.Len())

	v, err := st.Get("test_b1", "Country")
	require.NoError(t, err)
	require.Equal(t, "Spain", v)

	var dup *DuplicateKeyError
	require.ErrorAs(t, st.Append("test_a1", func(string) string { return "" }), &dup)
}

func TestSerializeWriter(t *testing.T) {
	st, err := Parse([]byte(sampleTSV), "SampleName")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, st.Serialize(&buf))
	require.Equal(t, sampleTSV, buf.String())
}

func TestRowView(t *testing.T) {
	st, err := Parse([]byte(sampleTSV), "SampleName")
	require.NoError(t, err)

	row, ok := st.RowByKey("test_a2")
	require.True(t, ok)
	require.Equal(t, "test_a2", row.Key())
	require.Equal(t, "France", row.Value("Country"))
	require.Equal(t, "", row.Value("Missing"))

	_, ok = st.RowByKey("nope")
	require.False(t, ok)
}
