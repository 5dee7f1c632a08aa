package rules

import (
	"fmt"
	"strings"

	"github.com/empd2/empd-admin/pkg/schema"
	"github.com/empd2/empd-admin/pkg/store"
	"github.com/empd2/empd-admin/pkg/types"
)

// Cross-column check names, enabled per schema via its checks list.
const (
	CheckCoordinates = "coordinates"
	CheckOkExcept    = "okexcept"
)

// Coordinate column names in the metadata sheet.
const (
	latitudeColumn  = "Latitude"
	longitudeColumn = "Longitude"
)

// CoordinatesRule requires Latitude and Longitude to be jointly present:
// a sample with only one of the two is flagged on the missing side.
type CoordinatesRule struct{}

// Check implements validator.CrossRule.
func (*CoordinatesRule) Check(row store.Row, sch *schema.Schema, _ schema.LookupTables) []types.Finding {
	if sch.Column(latitudeColumn) == nil || sch.Column(longitudeColumn) == nil {
		return nil
	}
	lat := row.Value(latitudeColumn)
	lon := row.Value(longitudeColumn)
	if (lat == "") == (lon == "") {
		return nil
	}
	missing, present := latitudeColumn, longitudeColumn
	if lon == "" {
		missing, present = longitudeColumn, latitudeColumn
	}
	return []types.Finding{{
		RowKey:  row.Key(),
		Column:  missing,
		Rule:    types.RuleConsistency,
		Message: fmt.Sprintf("%s is set but %s is missing", present, missing),
	}}
}

// OkExceptRule requires every entry of the okexcept column to name a
// declared schema column, so a typo does not silently accept nothing.
type OkExceptRule struct{}

// Check implements validator.CrossRule.
func (*OkExceptRule) Check(row store.Row, sch *schema.Schema, _ schema.LookupTables) []types.Finding {
	raw := row.Value(schema.OkExceptColumn)
	if raw == "" {
		return nil
	}
	var findings []types.Finding
	for _, col := range strings.Split(raw, ",") {
		col = strings.TrimSpace(col)
		if col == "" || sch.Column(col) != nil {
			continue
		}
		findings = append(findings, types.Finding{
			RowKey:  row.Key(),
			Column:  schema.OkExceptColumn,
			Rule:    types.RuleConsistency,
			Message: fmt.Sprintf("okexcept names unknown column %q", col),
		})
	}
	return findings
}
