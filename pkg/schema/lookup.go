package schema

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// LookupTable is one controlled vocabulary: the set of valid string values
// for the columns that reference it. Immutable after load; reloaded
// wholesale, never patched.
type LookupTable map[string]struct{}

// Contains reports whether v is a valid value of the vocabulary.
func (t LookupTable) Contains(v string) bool {
	_, ok := t[v]
	return ok
}

// LookupTables maps table names to their vocabularies.
type LookupTables map[string]LookupTable

// LoadLookupTables reads every *.txt and *.tsv file in dir into a lookup
// table named after the file. For tab-separated files only the first field
// of each line is taken; blank lines and lines starting with '#' are
// skipped.
func LoadLookupTables(dir string) (LookupTables, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read lookup directory %s", dir)
	}

	tables := make(LookupTables)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".txt" && ext != ".tsv" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		table, err := loadLookupFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		tables[name] = table
	}
	return tables, nil
}

func loadLookupFile(path string) (LookupTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read lookup table %s", path)
	}

	table := make(LookupTable)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '\t'); i >= 0 {
			line = line[:i]
		}
		table[line] = struct{}{}
	}
	return table, nil
}
