// Package constants provides shared constant values used throughout the application.
//
// The database_const.go file names the NPRI tables, views and columns that the
// query builder is allowed to reference. Only identifiers declared here ever
// reach SQL text; user supplied values always travel as bind parameters.
package constants

// Table Names define the backing tables for each API view.
const (
	// TableFacilities holds one row per reporting facility.
	TableFacilities = "npri_exporter_table"

	// TablePlaces holds screening results per dissemination area.
	TablePlaces = "npri_screen_table"

	// TableIndustries aggregates releases by primary NAICS code.
	TableIndustries = "npri_industry_table"

	// TableCompanies aggregates releases by parent company.
	TableCompanies = "npri_companies_table"

	// TableSubstances holds the substance catalogue.
	TableSubstances = "npri_tri_table"

	// TableCompanyHistory is the per company time series.
	TableCompanyHistory = "history_company_table"

	// TablePlaceHistory is the per dissemination area time series.
	TablePlaceHistory = "history_da_table"

	// TableSubstanceHistory is the per substance time series.
	TableSubstanceHistory = "history_substance_table"
)

// View Names are the values accepted in the {view} path segment.
const (
	ViewFacilities    = "facilities"
	ViewPlaces        = "places"
	ViewIndustry      = "industry"
	ViewCompany       = "company"
	ViewSubstance     = "substance"
	ViewTimeCompany   = "time_company"
	ViewTimePlace     = "time_place"
	ViewTimeSubstance = "time_substance"
)

// Column Names define the columns referenced by filter predicates.
const (
	// ColumnNpriID is the facility primary key.
	ColumnNpriID = "NpriID"

	// ColumnDAUID is the dissemination area identifier.
	ColumnDAUID = "dauid"

	// ColumnNAICSPrimary is the industry view primary key.
	ColumnNAICSPrimary = "NAICSPrimary"

	ColumnCompanyIDLower = "CompanyId"
	ColumnCompanyID      = "CompanyID"
	ColumnSubstanceID    = "SubstanceID"
	ColumnDA             = "DA"
	ColumnSubstance      = "Substance"

	// ColumnSubstances is the aggregated substance list on facility rows.
	ColumnSubstances = "Substances"

	ColumnCompanyName          = "CompanyName"
	ColumnNAICSTitle           = "NAICSTitleEn"
	ColumnNAICS                = "NAICS"
	ColumnForwardSortationArea = "ForwardSortationArea"
	ColumnProvinceID           = "ProvinceID"
	ColumnReportYear           = "ReportYear"

	// ColumnGeometry is the PostGIS geometry column, stored in EPSG:3347.
	ColumnGeometry = "geom"
)

// Spatial Reference Systems used by the spatial filters.
const (
	// SRIDWGS84 is the SRID of incoming latitude/longitude values.
	SRIDWGS84 = 4326

	// SRIDStatCanLambert is the projection the geometry columns are stored in.
	SRIDStatCanLambert = 3347

	// NearRadiusMeters is the buffer radius applied by the near filter.
	NearRadiusMeters = 10000
)

// PostgreSQL SQLSTATE codes and classes recognised by the error classifier.
// Class 42 and 22 failures (syntax, undefined table or column, bad casts)
// are attributed to the caller.
const (
	PGErrorInsufficientPriv   = "42501"
	PGErrorReadOnlyTx         = "25006"
	PGErrorQueryCanceled      = "57014"
	PGErrorClassSyntaxOrRule  = "42"
	PGErrorClassDataException = "22"
)

// BreakerStateDisabled is reported when no circuit breaker guards the database.
const BreakerStateDisabled = "disabled"
