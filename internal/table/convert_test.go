package table

import (
	"math"
	"testing"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{name: "positive integer", input: "123", want: 123, wantOK: true},
		{name: "negative integer", input: "-456", want: -456, wantOK: true},
		{name: "leading decimal point", input: ".99", want: 0.99, wantOK: true},
		{name: "trailing decimal point", input: "99.", want: 99, wantOK: true},
		{name: "dollar sign", input: "$1,234.56", want: 1234.56, wantOK: true},
		{name: "euro sign", input: "€42", want: 42, wantOK: true},
		{name: "accounting negative", input: "(123.45)", want: -123.45, wantOK: true},
		{name: "scientific notation", input: "1.5e3", want: 1500, wantOK: true},
		{name: "excel formula prefix", input: `="42"`, want: 42, wantOK: true},
		{name: "surrounding whitespace", input: "  7  ", want: 7, wantOK: true},

		{name: "empty", input: "", wantOK: false},
		{name: "letters", input: "abc", wantOK: false},
		{name: "mixed", input: "12abc", wantOK: false},
		{name: "two dots", input: "1.2.3", wantOK: false},
		{name: "lone sign", input: "-", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsMissing(t *testing.T) {
	for _, s := range []string{"", "  ", "NA", "n/a", "NaN", "null", "None", "#N/A", "nan"} {
		if !IsMissing(s) {
			t.Errorf("IsMissing(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"0", "x", "NAN!", "-"} {
		if IsMissing(s) {
			t.Errorf("IsMissing(%q) = true, want false", s)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{2.5, "2.5"},
		{-0.125, "-0.125"},
		{0, "0"},
		{1e-7, "1e-07"},
		{123456789, "123456789"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello ", "hello"},
		{`="007"`, "007"},
		{"=SUM", "SUM"},
		{`"quoted"`, "quoted"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
