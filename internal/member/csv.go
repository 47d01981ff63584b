// Package member manages the church member roster used for autocomplete in
// the ledger forms. The roster is maintained by bulk CSV upload.
package member

import (
	"encoding/csv"
	"errors"
	"io"
	"sort"
	"strings"
)

var ErrNoNames = errors.New("no member names found in file")

// ParseCSV extracts member names from an uploaded CSV file.
//
// Single-column files are treated as one name per line. Multi-column files
// are joined with spaces, which handles "First,Last" exports. A first row
// that looks like a header (contains "name", "first" or "last") is skipped.
// The result is deduplicated and sorted.
func ParseCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var names []string
	for i, record := range records {
		if i == 0 && looksLikeHeader(record) {
			continue
		}
		name := joinColumns(record)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, ErrNoNames
	}
	sort.Strings(names)
	return names, nil
}

func looksLikeHeader(record []string) bool {
	for _, field := range record {
		lower := strings.ToLower(strings.TrimSpace(field))
		if strings.Contains(lower, "name") ||
			strings.Contains(lower, "first") ||
			strings.Contains(lower, "last") {
			return true
		}
	}
	return false
}

func joinColumns(record []string) string {
	var parts []string
	for _, field := range record {
		field = strings.TrimSpace(strings.Trim(strings.TrimSpace(field), `"`))
		if field != "" {
			parts = append(parts, field)
		}
	}
	return strings.Join(parts, " ")
}
