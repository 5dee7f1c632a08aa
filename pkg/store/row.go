package store

// Row is a read-only view of one table row. It stays valid across cell
// mutations but not across Merge.
type Row struct {
	s *Store
	i int
}

// RowAt returns the row at the given table position.
func (s *Store) RowAt(i int) Row {
	return Row{s: s, i: i}
}

// RowByKey returns the row with the given key.
func (s *Store) RowByKey(key string) (Row, bool) {
	i, ok := s.index[key]
	if !ok {
		return Row{}, false
	}
	return Row{s: s, i: i}, true
}

// Key returns the row's identifying value.
func (r Row) Key() string {
	return r.s.rows[r.i].key
}

// Value returns the raw cell value for the named column, or the empty
// string if the column is absent or the row is shorter than the header.
func (r Row) Value(column string) string {
	ci, ok := r.s.colIndex[column]
	if !ok {
		return ""
	}
	fields := r.s.rows[r.i].fields
	if ci >= len(fields) {
		return ""
	}
	return fields[ci]
}
