package query

import (
	"fmt"
	"strings"
	"sync"

	"github.com/npri-watch/npri-api/internal/constants"
)

// Registry holds the views and filters a Builder can use. New filter kinds are
// added with Register.
type Registry struct {
	mu      sync.RWMutex
	views   map[string]View
	filters map[string]Filter
	viewSeq []string
	keySeq  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		views:   make(map[string]View),
		filters: make(map[string]Filter),
	}
}

// RegisterView adds a view. Names are case insensitive.
func (r *Registry) RegisterView(v View) error {
	name := strings.ToLower(v.Name)
	if name == "" || v.Table == "" || v.PrimaryKey == "" {
		return fmt.Errorf("view %q: name, table and primary key are required", v.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.views[name]; exists {
		return fmt.Errorf("view %q already registered", name)
	}
	v.Name = name
	r.views[name] = v
	r.viewSeq = append(r.viewSeq, name)
	return nil
}

// Register adds a filter under its key. Keys are case insensitive.
func (r *Registry) Register(f Filter) error {
	key := strings.ToLower(f.Key())
	if key == "" {
		return fmt.Errorf("filter has an empty key")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.filters[key]; exists {
		return fmt.Errorf("filter %q already registered", key)
	}
	r.filters[key] = f
	r.keySeq = append(r.keySeq, key)
	return nil
}

// View looks up a view by name.
func (r *Registry) View(name string) (View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.views[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

// Filter looks up a filter by key.
func (r *Registry) Filter(key string) (Filter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.filters[strings.ToLower(key)]
	return f, ok
}

// Views returns the registered views in registration order.
func (r *Registry) Views() []View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]View, 0, len(r.viewSeq))
	for _, name := range r.viewSeq {
		out = append(out, r.views[name])
	}
	return out
}

// Filters returns the registered filters in registration order.
func (r *Registry) Filters() []Filter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Filter, 0, len(r.keySeq))
	for _, key := range r.keySeq {
		out = append(out, r.filters[key])
	}
	return out
}

// DefaultFilters returns the twelve built in filter keys.
func DefaultFilters() []Filter {
	return []Filter{
		TextMatch{Name: "substances", Column: constants.ColumnSubstances, Fold: true,
			Help: "substance names, comma separated, substring match"},
		TextMatch{Name: "companies", Column: constants.ColumnCompanyName, Fold: true,
			Help: "company names, comma separated, substring match"},
		TextMatch{Name: "pollutants", Column: constants.ColumnSubstance, Fold: true,
			Help: "pollutant names, comma separated, substring match"},
		TextMatch{Name: "industries", Column: constants.ColumnNAICSTitle, Fold: true,
			Help: "industry titles, comma separated, substring match"},
		TextMatch{Name: "place", Column: constants.ColumnForwardSortationArea,
			Help: "forward sortation areas, comma separated, case sensitive"},
		TextMatch{Name: "naics", Column: constants.ColumnNAICS, Cast: true,
			Help: "NAICS code prefixes or fragments, comma separated"},
		Membership{Name: "ids",
			Help: "primary key values of the view, comma separated"},
		Membership{Name: "within", Column: constants.ColumnDAUID,
			Help: "dissemination area ids, comma separated"},
		Range{Name: "years", Column: constants.ColumnReportYear,
			Help: "from,to report years, inclusive"},
		Buffer{Name: "near", Radius: constants.NearRadiusMeters,
			Help: "lat,lon; matches within 10 km"},
		Envelope{Name: "bounds",
			Help: "minLon,minLat,maxLon,maxLat bounding box"},
		ProvinceLookup{Name: "across", Column: constants.ColumnProvinceID,
			Help: "province abbreviation such as ON or BC"},
	}
}

// DefaultRegistry returns a registry with the preset views and filters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, v := range DefaultViews() {
		if err := r.RegisterView(v); err != nil {
			panic(err)
		}
	}
	for _, f := range DefaultFilters() {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
	return r
}
