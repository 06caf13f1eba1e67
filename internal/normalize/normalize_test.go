package normalize

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shaibs3/uniload/internal/source"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     source.RawRecord
		country string
		want    Record
	}{
		{
			name: "full record",
			raw: source.RawRecord{
				Name:          "  Universidade de SaoPaulo ",
				Country:       "Brazil",
				AlphaTwoCode:  strPtr("BR"),
				StateProvince: strPtr("SP"),
				Domains:       []string{"usp.br", "usp.edu.br"},
				WebPages:      []string{"http://www.usp.br/"},
			},
			country: "Brazil",
			want: Record{
				Name:          "Universidade de SaoPaulo",
				Country:       "Brazil",
				AlphaTwoCode:  strPtr("BR"),
				StateProvince: strPtr("SP"),
				Domains:       "usp.br;usp.edu.br",
				WebPages:      "http://www.usp.br/",
			},
		},
		{
			name: "blank optionals become nil",
			raw: source.RawRecord{
				Name:          "Universidad de Chile",
				AlphaTwoCode:  strPtr(" "),
				StateProvince: strPtr(""),
			},
			country: " Chile ",
			want: Record{
				Name:    "Universidad de Chile",
				Country: "Chile",
			},
		},
		{
			name: "underscore state spelling is a fallback",
			raw: source.RawRecord{
				Name:             "McGill University",
				StateProvince:    nil,
				StateProvinceAlt: strPtr("Quebec"),
			},
			country: "Canada",
			want: Record{
				Name:          "McGill University",
				Country:       "Canada",
				StateProvince: strPtr("Quebec"),
			},
		},
		{
			name: "hyphenated state spelling wins",
			raw: source.RawRecord{
				Name:             "University of Toronto",
				StateProvince:    strPtr("Ontario"),
				StateProvinceAlt: strPtr("ON"),
			},
			country: "Canada",
			want: Record{
				Name:          "University of Toronto",
				Country:       "Canada",
				StateProvince: strPtr("Ontario"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.country)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalize_Malformed(t *testing.T) {
	_, err := Normalize(source.RawRecord{Name: "   ", Country: "Brazil"}, "Brazil")
	require.True(t, errors.Is(err, ErrMalformedRecord))

	_, err = Normalize(source.RawRecord{Name: "Orphan University"}, "")
	require.True(t, errors.Is(err, ErrMalformedRecord))
	require.Contains(t, err.Error(), "Orphan University")
}

func TestNormalize_RejectsUndecodableRecord(t *testing.T) {
	decodeErr := errors.New("record 1: json: cannot unmarshal string into Go struct field RawRecord.domains of type []string")
	_, err := Normalize(source.RawRecord{Name: "Odd", Country: "Brazil", DecodeErr: decodeErr}, "Brazil")
	require.ErrorIs(t, err, ErrMalformedRecord)
	require.ErrorIs(t, err, decodeErr)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	raw := source.RawRecord{
		Name:          " Name ",
		Country:       " Brazil ",
		StateProvince: strPtr(" SP "),
		Domains:       []string{"a.edu", "b.edu"},
	}
	before := raw
	beforeState := *raw.StateProvince

	rec, err := Normalize(raw, ResolveCountry(raw))
	require.NoError(t, err)
	require.Equal(t, "SP", *rec.StateProvince)

	require.Equal(t, before.Name, raw.Name)
	require.Equal(t, beforeState, *raw.StateProvince)
	require.Equal(t, []string{"a.edu", "b.edu"}, raw.Domains)
	require.NotSame(t, raw.StateProvince, rec.StateProvince)
}

func TestJoinSplitRoundTrip(t *testing.T) {
	joined := JoinList([]string{"a.edu", "b.edu"})
	require.Equal(t, "a.edu;b.edu", joined)
	require.Equal(t, []string{"a.edu", "b.edu"}, SplitList(joined))

	require.Equal(t, "", JoinList(nil))
	require.Empty(t, SplitList(""))
	require.Equal(t, []string{"only.edu"}, SplitList(JoinList([]string{"only.edu"})))
}

func TestResolveCountry(t *testing.T) {
	require.Equal(t, "Brazil", ResolveCountry(source.RawRecord{Country: " Brazil "}))
	require.Equal(t, "", ResolveCountry(source.RawRecord{}))
}
