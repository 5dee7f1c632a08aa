// Package schema loads and indexes the declarative column definitions the
// validator runs against, together with the controlled-vocabulary lookup
// tables they reference. Both are immutable after load and safe to share
// across concurrent sessions.
package schema

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// OkExceptColumn is the reserved passthrough column holding the
// comma-separated list of accepted (suppressed) failing columns per row.
const OkExceptColumn = "okexcept"

// ColumnKind is the declared type of a metadata column.
type ColumnKind string

const (
	KindCategorical ColumnKind = "categorical"
	KindNumeric     ColumnKind = "numeric"
	KindText        ColumnKind = "text"
	KindReference   ColumnKind = "reference"
)

// UnmarshalYAML implements yaml.Unmarshaler for ColumnKind.
func (k *ColumnKind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch ColumnKind(s) {
	case KindCategorical, KindNumeric, KindText, KindReference:
		*k = ColumnKind(s)
		return nil
	}
	return &Error{Message: fmt.Sprintf("unrecognized column kind %q", s)}
}

// NumericRange bounds a numeric column. Either bound may be omitted.
type NumericRange struct {
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
}

// Contains reports whether v lies within the range.
func (r *NumericRange) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func (r *NumericRange) String() string {
	lo, hi := "-inf", "+inf"
	if r.Min != nil {
		lo = fmt.Sprintf("%g", *r.Min)
	}
	if r.Max != nil {
		hi = fmt.Sprintf("%g", *r.Max)
	}
	return fmt.Sprintf("[%s, %s]", lo, hi)
}

// ColumnSpec is the declarative definition of one metadata column.
type ColumnSpec struct {
	Name     string        `yaml:"name"`
	Kind     ColumnKind    `yaml:"kind"`
	Required bool          `yaml:"required"`
	Values   []string      `yaml:"values,omitempty"`
	Lookup   string        `yaml:"lookup,omitempty"`
	Range    *NumericRange `yaml:"range,omitempty"`
	Pattern  string        `yaml:"pattern,omitempty"`

	valueSet map[string]struct{}
	re       *regexp.Regexp
}

// AllowsValue reports whether v is one of the declared categorical values.
// Always false for columns without a values list.
func (c *ColumnSpec) AllowsValue(v string) bool {
	_, ok := c.valueSet[v]
	return ok
}

// MatchesPattern reports whether v matches the declared pattern.
// Columns without a pattern match everything.
func (c *ColumnSpec) MatchesPattern(v string) bool {
	if c.re == nil {
		return true
	}
	return c.re.MatchString(v)
}

// Schema is the ordered set of column specs plus the designated key column.
// Immutable after Load.
type Schema struct {
	KeyColumn string        `yaml:"key"`
	Columns   []*ColumnSpec `yaml:"columns"`
	Checks    []string      `yaml:"checks,omitempty"`

	byName map[string]*ColumnSpec
}

// Column returns the spec for the named column, or nil if undeclared.
func (s *Schema) Column(name string) *ColumnSpec {
	return s.byName[name]
}

// ColumnNames returns the declared column names in schema order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// HasCheck reports whether the named cross-column check is enabled.
func (s *Schema) HasCheck(name string) bool {
	for _, c := range s.Checks {
		if c == name {
			return true
		}
	}
	return false
}

// Error is a fatal schema configuration problem: malformed definitions,
// unrecognized kinds, or unresolved lookup references. It aborts the
// session before any validation runs.
type Error struct {
	Column  string
	Message string
}

func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema: column %q: %s", e.Column, e.Message)
	}
	return "schema: " + e.Message
}

// Load reads a schema definition from a YAML file and resolves every
// lookup reference against the given tables.
func Load(filename string, lookups LookupTables) (*Schema, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to read %s: %v", filename, err)}
	}
	return Parse(data, lookups)
}

// Parse builds a schema from raw YAML. Fails with *Error if a column
// declares an unrecognized kind, an invalid pattern or range, or a lookup
// table that has not been loaded.
func Parse(data []byte, lookups LookupTables) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to parse schema: %v", err)}
	}
	if s.KeyColumn == "" {
		return nil, &Error{Message: "missing key column declaration"}
	}
	if len(s.Columns) == 0 {
		return nil, &Error{Message: "schema declares no columns"}
	}

	s.byName = make(map[string]*ColumnSpec, len(s.Columns))
	for _, col := range s.Columns {
		if col.Name == "" {
			return nil, &Error{Message: "column with empty name"}
		}
		if _, dup := s.byName[col.Name]; dup {
			return nil, &Error{Column: col.Name, Message: "declared twice"}
		}
		if col.Kind == "" {
			return nil, &Error{Column: col.Name, Message: "missing kind"}
		}
		if col.Kind == KindReference && col.Lookup == "" {
			return nil, &Error{Column: col.Name, Message: "reference column without lookup table"}
		}
		if col.Lookup != "" {
			if _, ok := lookups[col.Lookup]; !ok {
				return nil, &Error{Column: col.Name, Message: fmt.Sprintf("lookup table %q is not loaded", col.Lookup)}
			}
		}
		if col.Range != nil && col.Range.Min != nil && col.Range.Max != nil && *col.Range.Min > *col.Range.Max {
			return nil, &Error{Column: col.Name, Message: fmt.Sprintf("empty range %s", col.Range)}
		}
		if col.Pattern != "" {
			re, err := regexp.Compile(col.Pattern)
			if err != nil {
				return nil, &Error{Column: col.Name, Message: fmt.Sprintf("invalid pattern: %v", err)}
			}
			col.re = re
		}
		if len(col.Values) > 0 {
			col.valueSet = make(map[string]struct{}, len(col.Values))
			for _, v := range col.Values {
				col.valueSet[v] = struct{}{}
			}
		}
		s.byName[col.Name] = col
	}

	if s.byName[s.KeyColumn] == nil {
		return nil, &Error{Message: fmt.Sprintf("key column %q is not declared", s.KeyColumn)}
	}
	return &s, nil
}
