package query

import (
	"strings"

	"github.com/npri-watch/npri-api/internal/constants"
)

// Clause is one key=value pair from the filter string.
type Clause struct {
	Key   string
	Value string
}

// ParseClauses splits a filter string such as "ids=1,15;near=43.5,-80.25".
// Blank segments are skipped. Keys are trimmed and lower cased; values are
// only trimmed. Each segment is split on its first '='.
func ParseClauses(params string) ([]Clause, error) {
	var clauses []Clause

	for _, segment := range strings.Split(params, constants.ClauseSeparator) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		key, value, found := strings.Cut(segment, constants.KeyValueSeparator)
		key = strings.ToLower(strings.TrimSpace(key))
		if !found || key == "" {
			return nil, &FilterError{Key: key, Value: segment, Err: ErrMalformedClause, Reason: "expected key=value"}
		}

		clauses = append(clauses, Clause{Key: key, Value: strings.TrimSpace(value)})
	}

	return clauses, nil
}

// splitList splits a comma separated value, trimming each item.
// Empty items are rejected.
func splitList(value string) ([]string, error) {
	if strings.TrimSpace(value) == "" {
		return nil, invalid("empty value")
	}

	items := strings.Split(value, constants.ListSeparator)
	for i, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, invalid("empty item at position %d", i+1)
		}
		items[i] = item
	}
	return items, nil
}
