// Package query turns a view name and a semicolon separated filter string into a
// parameterized PostgreSQL SELECT.
//
// Only identifiers owned by the registry (table and column names) are written
// into the statement text. Every user supplied value becomes a positional
// argument ($1, $2, ...).
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	// ErrUnknownView is returned when the view is not registered.
	ErrUnknownView = errors.New("unknown view")

	// ErrUnknownFilter is returned for a clause key with no registered filter.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrInvalidValue is returned when a filter value has the wrong shape.
	ErrInvalidValue = errors.New("invalid filter value")

	// ErrMalformedClause is returned for a clause without a key=value pair.
	ErrMalformedClause = errors.New("malformed filter clause")

	// ErrNoFilters is returned when the filter string holds no clauses.
	ErrNoFilters = errors.New("no filters")

	// ErrUnsupportedForView is returned when a filter cannot apply to the view.
	ErrUnsupportedForView = errors.New("filter not supported for view")
)

// FilterError describes the clause that failed to render.
type FilterError struct {
	Key    string
	Value  string
	Err    error
	Reason string
}

func (e *FilterError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("filter %q: %v: %s", e.Key, e.Err, e.Reason)
	}
	return fmt.Sprintf("filter %q: %v", e.Key, e.Err)
}

func (e *FilterError) Unwrap() error {
	return e.Err
}

// invalid is a shorthand for value shape errors raised inside Render.
func invalid(reason string, args ...any) error {
	return &FilterError{Err: ErrInvalidValue, Reason: fmt.Sprintf(reason, args...)}
}

// Query is a built statement ready to be executed.
type Query struct {
	ID   string
	View string
	SQL  string
	Args []any
}

// Args collects positional arguments while predicates are rendered.
type Args struct {
	values []any
}

// Add appends v and returns its placeholder.
func (a *Args) Add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// Len returns the number of arguments collected so far.
func (a *Args) Len() int {
	return len(a.values)
}

// Values returns the collected arguments in placeholder order.
func (a *Args) Values() []any {
	return a.values
}

// Builder renders queries against a registry.
type Builder struct {
	registry *Registry
	newID    func() string
}

// NewBuilder creates a builder over reg.
func NewBuilder(reg *Registry) *Builder {
	return &Builder{
		registry: reg,
		newID:    uuid.NewString,
	}
}

// Registry returns the registry the builder renders against.
func (b *Builder) Registry() *Registry {
	return b.registry
}

// Build renders params against the named view. Predicates appear in the order
// the clauses were given and are joined with AND.
func (b *Builder) Build(viewName, params string) (*Query, error) {
	view, ok := b.registry.View(viewName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, viewName)
	}

	clauses, err := ParseClauses(params)
	if err != nil {
		return nil, err
	}
	if len(clauses) == 0 {
		return nil, ErrNoFilters
	}

	args := &Args{}
	predicates := make([]string, 0, len(clauses))
	for _, c := range clauses {
		filter, ok := b.registry.Filter(c.Key)
		if !ok {
			return nil, &FilterError{Key: c.Key, Value: c.Value, Err: ErrUnknownFilter}
		}

		predicate, err := filter.Render(view, c.Value, args)
		if err != nil {
			return nil, withClause(err, c)
		}
		predicates = append(predicates, predicate)
	}

	sql := "SELECT * FROM " + pq.QuoteIdentifier(view.Table) +
		" WHERE " + strings.Join(predicates, " AND ")

	return &Query{
		ID:   b.newID(),
		View: view.Name,
		SQL:  sql,
		Args: args.Values(),
	}, nil
}

// withClause fills in the clause a render error came from.
func withClause(err error, c Clause) error {
	var fe *FilterError
	if errors.As(err, &fe) {
		if fe.Key == "" {
			fe.Key = c.Key
		}
		if fe.Value == "" {
			fe.Value = c.Value
		}
		return fe
	}
	return &FilterError{Key: c.Key, Value: c.Value, Err: ErrInvalidValue, Reason: err.Error()}
}
