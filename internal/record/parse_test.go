package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLabel(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Java (12)", "Java"},
		{"  SAP / ERP  ", "SAP / ERP"},
		{"SQL", "SQL"},
		{"Consulting (1.234) extra", "Consulting"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ParseLabel(tc.raw), "raw=%q", tc.raw)
	}
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"(12)", 12},
		{"[1.234]", 1234},
		{"5,678", 5678},
		{" 42 ", 42},
		{"abc", 0},
		{"", 0},
		{"()", 0},
		{"-3", 0},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ParseCount(tc.raw), "raw=%q", tc.raw)
	}
}
