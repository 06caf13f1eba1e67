package db

// CountryTotal is a country with the number of universities that reference it
type CountryTotal struct {
	CountryID int64  `db:"id" json:"country_id"`
	Country   string `db:"name" json:"country"`
	Total     int64  `db:"total" json:"total"`
}

// UniversityMatch is a university name with its owning country
type UniversityMatch struct {
	ID            int64   `db:"id" json:"id"`
	Name          string  `db:"name" json:"name"`
	Country       string  `db:"country" json:"country"`
	StateProvince *string `db:"state_province" json:"state_province,omitempty"`
}

// RowCounts holds the total number of rows per table
type RowCounts struct {
	Countries    int64 `json:"countries"`
	Universities int64 `json:"universities"`
}

// DefaultReportLimit caps report queries when the caller passes no limit
const DefaultReportLimit = 20
