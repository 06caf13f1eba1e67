package etl

import "time"

// CountryResult holds the counts for a single country of a run
type CountryResult struct {
	Country       string `json:"country"`
	Fetched       int    `json:"fetched"`
	Inserted      int    `json:"inserted"`
	Duplicates    int    `json:"duplicates"`
	Malformed     int    `json:"malformed"`
	StorageErrors int    `json:"storage_errors"`
	FetchErr      error  `json:"-"`
	Error         string `json:"error,omitempty"`
}

// Failed reports whether the country could not be fetched
func (r CountryResult) Failed() bool {
	return r.FetchErr != nil
}

// Summary aggregates a pipeline run
type Summary struct {
	RunID           string          `json:"run_id"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`
	Countries       []CountryResult `json:"countries"`
	Fetched         int             `json:"fetched"`
	Inserted        int             `json:"inserted"`
	Duplicates      int             `json:"duplicates"`
	Malformed       int             `json:"malformed"`
	StorageErrors   int             `json:"storage_errors"`
	FailedCountries int             `json:"failed_countries"`
}

func (s *Summary) add(r CountryResult) {
	s.Countries = append(s.Countries, r)
	s.Fetched += r.Fetched
	s.Inserted += r.Inserted
	s.Duplicates += r.Duplicates
	s.Malformed += r.Malformed
	s.StorageErrors += r.StorageErrors
	if r.Failed() {
		s.FailedCountries++
	}
}

// Result returns the entry for country, if it was processed
func (s Summary) Result(country string) (CountryResult, bool) {
	for _, r := range s.Countries {
		if r.Country == country {
			return r, true
		}
	}
	return CountryResult{}, false
}

func (s Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
