// Package normalize maps directory records onto the persisted university shape.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shaibs3/uniload/internal/source"
)

// ListSeparator joins multi-valued fields into a single column
const ListSeparator = ";"

// ErrMalformedRecord is returned for records missing a required field
var ErrMalformedRecord = errors.New("malformed record")

// Record is a university ready to be loaded, still keyed by country name
type Record struct {
	Name          string
	Country       string
	AlphaTwoCode  *string
	StateProvince *string
	Domains       string
	WebPages      string
}

// ResolveCountry returns the country a raw record belongs to
func ResolveCountry(raw source.RawRecord) string {
	return strings.TrimSpace(raw.Country)
}

// Normalize converts raw into a Record owned by country. It does not modify raw.
func Normalize(raw source.RawRecord, country string) (Record, error) {
	if raw.DecodeErr != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrMalformedRecord, raw.DecodeErr)
	}
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return Record{}, fmt.Errorf("%w: missing name", ErrMalformedRecord)
	}
	country = strings.TrimSpace(country)
	if country == "" {
		return Record{}, fmt.Errorf("%w: missing country for %q", ErrMalformedRecord, name)
	}

	state := raw.StateProvince
	if optional(state) == nil {
		state = raw.StateProvinceAlt
	}

	return Record{
		Name:          name,
		Country:       country,
		AlphaTwoCode:  optional(raw.AlphaTwoCode),
		StateProvince: optional(state),
		Domains:       JoinList(raw.Domains),
		WebPages:      JoinList(raw.WebPages),
	}, nil
}

// JoinList joins values with ListSeparator
func JoinList(values []string) string {
	return strings.Join(values, ListSeparator)
}

// SplitList is the inverse of JoinList; the empty string yields no values
func SplitList(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ListSeparator)
}

// optional returns a trimmed copy of s, or nil when it is blank
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
