package query

import "github.com/npri-watch/npri-api/internal/constants"

// View is a preset table the API can be queried against.
type View struct {
	Name       string
	Title      string
	Table      string
	PrimaryKey string

	// Provinces maps province abbreviations to the ProvinceID values used by
	// the view's table. Views without a province column leave it nil.
	Provinces map[string]int
}

// facilityProvinces are the NPRI province identifiers.
var facilityProvinces = map[string]int{
	"AB": 1, "BC": 2, "MB": 3, "NB": 4, "NL": 5, "NT": 6, "NS": 7,
	"NU": 8, "ON": 9, "PE": 10, "QC": 11, "SK": 12, "YT": 13,
}

// placeProvinces are Statistics Canada PRUID codes.
var placeProvinces = map[string]int{
	"AB": 48, "BC": 59, "MB": 46, "NB": 13, "NL": 10, "NT": 61, "NS": 12,
	"NU": 62, "ON": 35, "PE": 11, "QC": 24, "SK": 47, "YT": 60,
}

// DefaultViews returns the eight preset views.
func DefaultViews() []View {
	return []View{
		{
			Name:       constants.ViewFacilities,
			Title:      "Facilities",
			Table:      constants.TableFacilities,
			PrimaryKey: constants.ColumnNpriID,
			Provinces:  facilityProvinces,
		},
		{
			Name:       constants.ViewPlaces,
			Title:      "Places",
			Table:      constants.TablePlaces,
			PrimaryKey: constants.ColumnDAUID,
			Provinces:  placeProvinces,
		},
		{
			Name:       constants.ViewIndustry,
			Title:      "Industries",
			Table:      constants.TableIndustries,
			PrimaryKey: constants.ColumnNAICSPrimary,
		},
		{
			Name:       constants.ViewCompany,
			Title:      "Companies",
			Table:      constants.TableCompanies,
			PrimaryKey: constants.ColumnCompanyIDLower,
		},
		{
			Name:       constants.ViewSubstance,
			Title:      "Substances",
			Table:      constants.TableSubstances,
			PrimaryKey: constants.ColumnSubstanceID,
		},
		{
			Name:       constants.ViewTimeCompany,
			Title:      "Company history",
			Table:      constants.TableCompanyHistory,
			PrimaryKey: constants.ColumnCompanyID,
		},
		{
			Name:       constants.ViewTimePlace,
			Title:      "Place history",
			Table:      constants.TablePlaceHistory,
			PrimaryKey: constants.ColumnDA,
		},
		{
			Name:       constants.ViewTimeSubstance,
			Title:      "Substance history",
			Table:      constants.TableSubstanceHistory,
			PrimaryKey: constants.ColumnSubstance,
		},
	}
}
