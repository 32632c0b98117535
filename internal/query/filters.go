package query

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/npri-watch/npri-api/internal/constants"
	"github.com/npri-watch/npri-api/internal/utils"
)

// Filter renders one clause into a SQL predicate. Values must be added to args;
// only identifiers known to the filter may appear in the returned text.
type Filter interface {
	Key() string
	Render(view View, value string, args *Args) (string, error)
}

// Documented filters describe their value syntax on the home page.
type Documented interface {
	Usage() string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func ident(name string) string {
	return pq.QuoteIdentifier(name)
}

// TextMatch matches a column against any of a list of substrings.
type TextMatch struct {
	Name   string
	Column string
	// Fold lower cases both the column and the patterns.
	Fold bool
	// Cast renders the column as CAST(col AS text) for non text columns.
	Cast bool
	Help string
}

func (f TextMatch) Key() string   { return f.Name }
func (f TextMatch) Usage() string { return f.Help }

func (f TextMatch) Render(_ View, value string, args *Args) (string, error) {
	items, err := splitList(value)
	if err != nil {
		return "", err
	}

	patterns := make(pq.StringArray, len(items))
	for i, item := range items {
		if f.Fold {
			item = strings.ToLower(item)
		}
		patterns[i] = "%" + likeEscaper.Replace(item) + "%"
	}

	column := ident(f.Column)
	switch {
	case f.Cast:
		column = "CAST(" + column + " AS text)"
	case f.Fold:
		column = "lower(" + column + ")"
	}

	return fmt.Sprintf("%s LIKE ANY (%s::text[])", column, args.Add(patterns)), nil
}

// Membership matches a column against a list of exact values. An empty Column
// selects the view's primary key.
type Membership struct {
	Name   string
	Column string
	Help   string
}

func (f Membership) Key() string   { return f.Name }
func (f Membership) Usage() string { return f.Help }

func (f Membership) Render(view View, value string, args *Args) (string, error) {
	items, err := splitList(value)
	if err != nil {
		return "", err
	}

	column := f.Column
	if column == "" {
		column = view.PrimaryKey
	}

	placeholders := make([]string, len(items))
	for i, item := range items {
		placeholders[i] = args.Add(item)
	}

	return fmt.Sprintf("%s IN (%s)", ident(column), strings.Join(placeholders, ", ")), nil
}

// Range bounds an integer column by an inclusive from,to pair.
type Range struct {
	Name   string
	Column string
	Help   string
}

func (f Range) Key() string   { return f.Name }
func (f Range) Usage() string { return f.Help }

func (f Range) Render(_ View, value string, args *Args) (string, error) {
	items, err := splitList(value)
	if err != nil {
		return "", err
	}
	if len(items) != 2 {
		return "", invalid("expected from,to but got %d values", len(items))
	}

	from, err := strconv.Atoi(items[0])
	if err != nil {
		return "", invalid("%q is not an integer", items[0])
	}
	to, err := strconv.Atoi(items[1])
	if err != nil {
		return "", invalid("%q is not an integer", items[1])
	}
	if from > to {
		return "", invalid("range start %d is after end %d", from, to)
	}

	column := ident(f.Column)
	return fmt.Sprintf("%s >= %s AND %s <= %s", column, args.Add(from), column, args.Add(to)), nil
}

type point struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

type envelope struct {
	MinLon float64 `json:"minLon" validate:"longitude"`
	MinLat float64 `json:"minLat" validate:"latitude"`
	MaxLon float64 `json:"maxLon" validate:"longitude,gtefield=MinLon"`
	MaxLat float64 `json:"maxLat" validate:"latitude,gtefield=MinLat"`
}

func parseFloats(items []string) ([]float64, error) {
	out := make([]float64, len(items))
	for i, item := range items {
		f, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, invalid("%q is not a number", item)
		}
		out[i] = f
	}
	return out, nil
}

// validationReason turns a utils.ValidateStruct failure into a filter value
// error naming the first offending coordinate.
func validationReason(err error) error {
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		return invalid("%v", err)
	}
	if appErr.Field == "" && len(appErr.Details) > 0 {
		keys := make([]string, 0, len(appErr.Details))
		for k := range appErr.Details {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		field := keys[0]
		return invalid("%s: %v", field, appErr.Details[field])
	}
	return invalid("%s", appErr.Error())
}

// Buffer matches geometries within a fixed radius of a lat,lon point.
type Buffer struct {
	Name   string
	Radius int
	Help   string
}

func (f Buffer) Key() string   { return f.Name }
func (f Buffer) Usage() string { return f.Help }

func (f Buffer) Render(_ View, value string, args *Args) (string, error) {
	items, err := splitList(value)
	if err != nil {
		return "", err
	}
	if len(items) != 2 {
		return "", invalid("expected lat,lon but got %d values", len(items))
	}
	coords, err := parseFloats(items)
	if err != nil {
		return "", err
	}

	p := point{Lat: coords[0], Lon: coords[1]}
	if err := utils.ValidateStruct(p); err != nil {
		return "", validationReason(err)
	}

	// PostGIS points are (x, y), so longitude comes first.
	lon := args.Add(p.Lon)
	lat := args.Add(p.Lat)

	return fmt.Sprintf(
		"ST_Intersects(%s, ST_Buffer(ST_Transform(ST_SetSRID(ST_MakePoint(%s::float8, %s::float8), %d), %d), %d))",
		ident(constants.ColumnGeometry), lon, lat,
		constants.SRIDWGS84, constants.SRIDStatCanLambert, f.Radius,
	), nil
}

// Envelope matches geometries intersecting a minLon,minLat,maxLon,maxLat box.
type Envelope struct {
	Name string
	Help string
}

func (f Envelope) Key() string   { return f.Name }
func (f Envelope) Usage() string { return f.Help }

func (f Envelope) Render(_ View, value string, args *Args) (string, error) {
	items, err := splitList(value)
	if err != nil {
		return "", err
	}
	if len(items) != 4 {
		return "", invalid("expected minLon,minLat,maxLon,maxLat but got %d values", len(items))
	}
	coords, err := parseFloats(items)
	if err != nil {
		return "", err
	}

	box := envelope{MinLon: coords[0], MinLat: coords[1], MaxLon: coords[2], MaxLat: coords[3]}
	if err := utils.ValidateStruct(box); err != nil {
		return "", validationReason(err)
	}

	placeholders := make([]string, len(coords))
	for i, c := range coords {
		placeholders[i] = args.Add(c) + "::float8"
	}

	return fmt.Sprintf(
		"ST_Intersects(%s, ST_Transform(ST_SetSRID(ST_MakeEnvelope(%s), %d), %d))",
		ident(constants.ColumnGeometry), strings.Join(placeholders, ", "),
		constants.SRIDWGS84, constants.SRIDStatCanLambert,
	), nil
}

// ProvinceLookup translates a province abbreviation through the view's own
// code table.
type ProvinceLookup struct {
	Name   string
	Column string
	Help   string
}

func (f ProvinceLookup) Key() string   { return f.Name }
func (f ProvinceLookup) Usage() string { return f.Help }

func (f ProvinceLookup) Render(view View, value string, args *Args) (string, error) {
	if len(view.Provinces) == 0 {
		return "", &FilterError{Err: ErrUnsupportedForView, Reason: fmt.Sprintf("view %q has no province column", view.Name)}
	}

	code := strings.ToUpper(strings.TrimSpace(value))
	if code == "" {
		return "", invalid("empty value")
	}
	id, ok := view.Provinces[code]
	if !ok {
		return "", invalid("unknown province %q", code)
	}

	return fmt.Sprintf("%s = %s", ident(f.Column), args.Add(id)), nil
}
