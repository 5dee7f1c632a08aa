// Package store holds the in-memory representation of one metadata table:
// ordered rows keyed by a designated identifying column, loaded from and
// serialized back to the tab-separated canonical format.
//
// A loaded, unmutated store serializes back to the exact bytes it was
// loaded from. Cell values stay raw text until the validator types them;
// columns not declared in the schema pass through untouched.
package store

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/empd2/empd-admin/pkg/types"
)

// DuplicateKeyError is a fatal load error: two rows share the same key.
// The contribution cannot be processed until the contributor deduplicates.
type DuplicateKeyError struct {
	Key    string
	First  int // zero-based row index of the first occurrence
	Second int // zero-based row index of the collision
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate row key %q in rows %d and %d", e.Key, e.First, e.Second)
}

// NotFoundError reports an access to a row key or column that does not
// exist in the store.
type NotFoundError struct {
	Key    string
	Column string
}

func (e *NotFoundError) Error() string {
	if e.Key != "" && e.Column != "" {
		return fmt.Sprintf("row %q has no column %q", e.Key, e.Column)
	}
	if e.Key != "" {
		return fmt.Sprintf("no row with key %q", e.Key)
	}
	return fmt.Sprintf("no column %q", e.Column)
}

type row struct {
	key    string
	fields []string
}

// Store is an ordered sequence of rows plus the column header.
// Not safe for concurrent mutation; each session owns its own instance.
type Store struct {
	keyColumn string
	keyIndex  int
	columns   []string
	colIndex  map[string]int
	rows      []*row
	index     map[string]int

	dirty map[types.Cell]struct{}

	// finalNewline records whether the source ended with a newline so an
	// unmutated store round-trips byte for byte.
	finalNewline bool
}

// Load parses a tab-separated table whose first line is the column header.
// Row keys are taken from keyColumn; duplicate keys fail with
// *DuplicateKeyError, a missing key column with an error naming it.
func Load(r io.Reader, keyColumn string) (*Store, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read table")
	}
	return Parse(data, keyColumn)
}

// LoadFile is Load on the named file.
func LoadFile(path, keyColumn string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	return Load(f, keyColumn)
}

// Parse builds a store from raw table bytes.
func Parse(data []byte, keyColumn string) (*Store, error) {
	text := string(data)
	finalNewline := strings.HasSuffix(text, "\n")
	if finalNewline {
		text = text[:len(text)-1]
	}
	if text == "" {
		return nil, errors.New("empty table: missing header line")
	}

	lines := strings.Split(text, "\n")
	columns := strings.Split(lines[0], "\t")

	s := &Store{
		keyColumn:    keyColumn,
		keyIndex:     -1,
		columns:      columns,
		colIndex:     make(map[string]int, len(columns)),
		index:        make(map[string]int),
		dirty:        make(map[types.Cell]struct{}),
		finalNewline: finalNewline,
	}
	for i, c := range columns {
		if _, dup := s.colIndex[c]; dup {
			return nil, errors.Errorf("duplicate column %q in header", c)
		}
		s.colIndex[c] = i
	}
	ki, ok := s.colIndex[keyColumn]
	if !ok {
		return nil, errors.Errorf("key column %q not found in header", keyColumn)
	}
	s.keyIndex = ki

	for n, line := range lines[1:] {
		fields := strings.Split(line, "\t")
		key := ""
		if ki < len(fields) {
			key = fields[ki]
		}
		if key == "" {
			return nil, errors.Errorf("row %d has an empty %s", n, keyColumn)
		}
		if prev, dup := s.index[key]; dup {
			return nil, &DuplicateKeyError{Key: key, First: prev, Second: n}
		}
		s.index[key] = len(s.rows)
		s.rows = append(s.rows, &row{key: key, fields: fields})
	}
	return s, nil
}

// KeyColumn returns the name of the identifying column.
func (s *Store) KeyColumn() string {
	return s.keyColumn
}

// Columns returns the column names in serialization order.
func (s *Store) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// HasColumn reports whether the named column exists in the store.
func (s *Store) HasColumn(name string) bool {
	_, ok := s.colIndex[name]
	return ok
}

// Len returns the number of rows.
func (s *Store) Len() int {
	return len(s.rows)
}

// Keys returns the row keys in table order.
func (s *Store) Keys() []string {
	keys := make([]string, len(s.rows))
	for i, r := range s.rows {
		keys[i] = r.key
	}
	return keys
}

// Has reports whether a row with the given key exists.
func (s *Store) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Get returns the raw cell value at (key, column). Cells shorter than the
// header read as empty. Fails with *NotFoundError for unknown keys or
// columns.
func (s *Store) Get(key, column string) (string, error) {
	i, ok := s.index[key]
	if !ok {
		return "", &NotFoundError{Key: key}
	}
	ci, ok := s.colIndex[column]
	if !ok {
		return "", &NotFoundError{Key: key, Column: column}
	}
	r := s.rows[i]
	if ci >= len(r.fields) {
		return "", nil
	}
	return r.fields[ci], nil
}

// Set replaces the cell value at (key, column) in place and marks the cell
// dirty for incremental re-validation. Fails with *NotFoundError under the
// same conditions as Get.
func (s *Store) Set(key, column, value string) error {
	i, ok := s.index[key]
	if !ok {
		return &NotFoundError{Key: key}
	}
	ci, ok := s.colIndex[column]
	if !ok {
		return &NotFoundError{Key: key, Column: column}
	}
	if column == s.keyColumn {
		return errors.Errorf("cannot overwrite key column %q", column)
	}
	r := s.rows[i]
	for ci >= len(r.fields) {
		r.fields = append(r.fields, "")
	}
	r.fields[ci] = value
	s.dirty[types.Cell{RowKey: key, Column: column}] = struct{}{}
	return nil
}

// EnsureColumn appends a passthrough column to the table if absent.
// Existing rows read as empty in the new column.
func (s *Store) EnsureColumn(name string) {
	if _, ok := s.colIndex[name]; ok {
		return
	}
	s.colIndex[name] = len(s.columns)
	s.columns = append(s.columns, name)
}

// TakeDirty returns the cells mutated since the last call and resets the
// dirty set.
func (s *Store) TakeDirty() map[types.Cell]struct{} {
	d := s.dirty
	s.dirty = make(map[types.Cell]struct{})
	return d
}

// Subset returns a new store holding only the rows with the given keys, in
// the receiver's row order, sharing no mutable state with the receiver.
func (s *Store) Subset(keys []string) *Store {
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	sub := s.emptyCopy()
	for _, r := range s.rows {
		if _, ok := want[r.key]; !ok {
			continue
		}
		fields := make([]string, len(r.fields))
		copy(fields, r.fields)
		sub.index[r.key] = len(sub.rows)
		sub.rows = append(sub.rows, &row{key: r.key, fields: fields})
	}
	return sub
}

// Clone returns a deep copy of the store with an empty dirty set.
func (s *Store) Clone() *Store {
	return s.Subset(s.Keys())
}

func (s *Store) emptyCopy() *Store {
	c := &Store{
		keyColumn:    s.keyColumn,
		keyIndex:     s.keyIndex,
		columns:      make([]string, len(s.columns)),
		colIndex:     make(map[string]int, len(s.colIndex)),
		index:        make(map[string]int),
		dirty:        make(map[types.Cell]struct{}),
		finalNewline: s.finalNewline,
	}
	copy(c.columns, s.columns)
	for k, v := range s.colIndex {
		c.colIndex[k] = v
	}
	return c
}

// Append adds a new row at the end of the table. The value function is
// called once per column; it must return key for the key column.
func (s *Store) Append(key string, value func(column string) string) error {
	if key == "" {
		return errors.New("cannot append a row with an empty key")
	}
	if prev, dup := s.index[key]; dup {
		return &DuplicateKeyError{Key: key, First: prev, Second: len(s.rows)}
	}
	fields := make([]string, len(s.columns))
	for i, c := range s.columns {
		if i == s.keyIndex {
			fields[i] = key
		} else {
			fields[i] = value(c)
		}
	}
	s.index[key] = len(s.rows)
	s.rows = append(s.rows, &row{key: key, fields: fields})
	return nil
}

// Serialize writes the table back to its tab-separated text form.
func (s *Store) Serialize(w io.Writer) error {
	bw := &bytes.Buffer{}
	bw.WriteString(strings.Join(s.columns, "\t"))
	for _, r := range s.rows {
		bw.WriteByte('\n')
		bw.WriteString(strings.Join(r.fields, "\t"))
	}
	if s.finalNewline {
		bw.WriteByte('\n')
	}
	_, err := w.Write(bw.Bytes())
	return errors.Wrap(err, "failed to write table")
}

// Bytes returns the serialized table.
func (s *Store) Bytes() []byte {
	var buf bytes.Buffer
	_ = s.Serialize(&buf)
	return buf.Bytes()
}

// WriteFile serializes the table to the named file.
func (s *Store) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()
	return s.Serialize(f)
}
