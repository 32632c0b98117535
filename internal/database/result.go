package database

import (
	"bytes"
	"database/sql"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// ResultSet is a materialized query result. Row values keep column order.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ScanRows reads every row and closes rows. Byte slices are converted to
// strings so results serialize as text.
func ScanRows(rows *sql.Rows) (*ResultSet, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	rs := &ResultSet{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return rs, nil
}

// recordKeys returns the JSON object keys for the columns. A repeated column
// name gets a numeric suffix so that every key in a record is distinct:
// a, a, a becomes a, a_2, a_3.
func (rs *ResultSet) recordKeys() ([][]byte, error) {
	seen := make(map[string]bool, len(rs.Columns))
	for _, col := range rs.Columns {
		seen[col] = true
	}

	used := make(map[string]bool, len(rs.Columns))
	keys := make([][]byte, len(rs.Columns))
	for i, col := range rs.Columns {
		name := col
		for n := 2; used[name] || (name != col && seen[name]); n++ {
			name = fmt.Sprintf("%s_%d", col, n)
		}
		used[name] = true

		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}

// MarshalRecords encodes the rows as a JSON array of objects whose keys
// follow column order. NaN and infinite floats are written as null.
func (rs *ResultSet) MarshalRecords() ([]byte, error) {
	keys, err := rs.recordKeys()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range rs.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, v := range row {
			if j > 0 {
				buf.WriteByte(',')
			}
			val, err := json.Marshal(finite(v))
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", rs.Columns[j], err)
			}
			buf.Write(keys[j])
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')

	return buf.Bytes(), nil
}

// finite maps values JSON cannot represent to nil.
func finite(v any) any {
	switch f := v.(type) {
	case float64:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
	case float32:
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return nil
		}
	}
	return v
}

// Encode serializes the result set for the result cache.
func (rs *ResultSet) Encode() ([]byte, error) {
	return json.Marshal(rs)
}

// DecodeResultSet reverses Encode. Numbers are kept as json.Number so that
// large integers survive the round trip.
func DecodeResultSet(data []byte) (*ResultSet, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rs ResultSet
	if err := dec.Decode(&rs); err != nil {
		return nil, fmt.Errorf("failed to decode result set: %w", err)
	}
	if rs.Rows == nil {
		rs.Rows = [][]any{}
	}
	return &rs, nil
}
