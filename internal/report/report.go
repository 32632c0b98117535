// Package report renders query results and the home page as HTML.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/npri-watch/npri-api/internal/constants"
	"github.com/npri-watch/npri-api/internal/query"
	"github.com/npri-watch/npri-api/internal/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// ViewInfo describes a view on the home page.
type ViewInfo struct {
	Name      string
	Title     string
	Table     string
	Provinces bool
}

// FilterInfo describes a filter key on the home page.
type FilterInfo struct {
	Key   string
	Usage string
}

// HomeData is the model of the home page.
type HomeData struct {
	AppName     string
	Version     string
	Views       []ViewInfo
	Filters     []FilterInfo
	Passthrough bool
}

// ReportData is the model of a report page.
type ReportData struct {
	View        query.View
	Params      string
	QueryID     string
	Cached      bool
	Columns     []string
	Rows        [][]any
	GeneratedAt time.Time
}

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("report").Funcs(funcs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Home renders the index page.
func (r *Renderer) Home(data HomeData) ([]byte, error) {
	return r.execute("index.html", data)
}

// Report renders a result table for a view.
func (r *Renderer) Report(data ReportData) ([]byte, error) {
	if data.GeneratedAt.IsZero() {
		data.GeneratedAt = time.Now().UTC()
	}
	return r.execute("report.html", data)
}

// execute renders into memory so that a failing template never produces a
// partial page.
func (r *Renderer) execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// HomeFromRegistry lists the registered views and filters.
func HomeFromRegistry(reg *query.Registry, appName, version string, passthrough bool) HomeData {
	data := HomeData{
		AppName:     appName,
		Version:     version,
		Passthrough: passthrough,
	}
	for _, v := range reg.Views() {
		data.Views = append(data.Views, ViewInfo{
			Name:      v.Name,
			Title:     v.Title,
			Table:     v.Table,
			Provinces: len(v.Provinces) > 0,
		})
	}
	for _, f := range reg.Filters() {
		info := FilterInfo{Key: f.Key()}
		if d, ok := f.(query.Documented); ok {
			info.Usage = d.Usage()
		}
		data.Filters = append(data.Filters, info)
	}
	return data
}

// Static serves the embedded stylesheet under prefix.
func Static(prefix string) http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix(prefix, http.FileServer(http.FS(sub)))
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"cell":   cell,
		"plural": utils.Plural,
		"static": func(name string) string {
			return constants.StaticPath + "/" + name
		},
		"timestamp": func(t time.Time) string {
			return t.Format(time.RFC3339)
		},
	}
}

// cell formats a column value for display.
func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case time.Time:
		return t.Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}
