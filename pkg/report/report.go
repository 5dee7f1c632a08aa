// Package report renders validation findings and query results as
// markdown tables for the contributor-facing command output.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/empd2/empd-admin/pkg/query"
	"github.com/empd2/empd-admin/pkg/types"
)

// Table renders columns and rows as a markdown table, truncated to maxRows
// for display (maxRows <= 0 disables truncation). When the table is
// truncated, a `Displaying N of M rows` footer is appended.
func Table(columns []string, rows [][]string, maxRows int) string {
	total := len(rows)
	if maxRows > 0 && total > maxRows {
		rows = rows[:maxRows]
	}

	var sb strings.Builder
	writeHeader(&sb, columns)
	for _, row := range rows {
		writeRow(&sb, row)
	}
	if len(rows) < total {
		fmt.Fprintf(&sb, "\nDisplaying %d of %d rows\n", len(rows), total)
	}
	return sb.String()
}

// QueryTable renders a query result as a markdown table. Truncation happens
// only here; the query engine always returns full results.
func QueryTable(res *query.Result, maxRows int) string {
	return Table(res.Columns, res.Rows, maxRows)
}

// FindingsTable renders a report's findings as a markdown table sorted by
// row key, then column, for stable display.
func FindingsTable(r *types.Report) string {
	if r.Empty() {
		return "No issues found.\n"
	}
	findings := r.Findings()
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].RowKey != findings[j].RowKey {
			return findings[i].RowKey < findings[j].RowKey
		}
		if findings[i].Column != findings[j].Column {
			return findings[i].Column < findings[j].Column
		}
		return findings[i].Rule < findings[j].Rule
	})

	var sb strings.Builder
	writeHeader(&sb, []string{"Sample", "Column", "Rule", "Message"})
	for _, f := range findings {
		writeRow(&sb, []string{f.RowKey, f.Column, string(f.Rule), f.Message})
	}
	fmt.Fprintf(&sb, "\n%d issue(s) found\n", len(findings))
	return sb.String()
}

func writeHeader(sb *strings.Builder, columns []string) {
	writeRow(sb, columns)
	cells := make([]string, len(columns))
	for i := range cells {
		cells[i] = "---"
	}
	writeRow(sb, cells)
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("|")
	for _, c := range cells {
		sb.WriteString(" ")
		sb.WriteString(escapeCell(c))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
