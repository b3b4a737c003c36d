package core

import (
	"math"
	"testing"
)

// ----------------------------------------------------------------------------
// ToFloat Tests
// ----------------------------------------------------------------------------

func TestToFloat(t *testing.T) {
	tests := []struct {
		name   string
		input  Value
		want   float64
		wantOK bool
	}{
		{name: "int64", input: int64(42), want: 42, wantOK: true},
		{name: "int", input: 7, want: 7, wantOK: true},
		{name: "float64", input: 1.5, want: 1.5, wantOK: true},
		{name: "float32", input: float32(2.5), want: 2.5, wantOK: true},
		{name: "uint8", input: uint8(3), want: 3, wantOK: true},
		{name: "numeric string", input: " 12.5 ", want: 12.5, wantOK: true},
		{name: "scientific string", input: "1e3", want: 1000, wantOK: true},
		{name: "negative string", input: "-4", want: -4, wantOK: true},
		{name: "nil", input: nil, wantOK: false},
		{name: "NaN", input: math.NaN(), wantOK: false},
		{name: "empty string", input: "", wantOK: false},
		{name: "dash", input: "-", wantOK: false},
		{name: "thousands separated", input: "1.234.567", wantOK: false},
		{name: "text", input: "abc", wantOK: false},
		{name: "bool", input: true, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ToFloat(%#v) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ToFloat(%#v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestToInt(t *testing.T) {
	tests := []struct {
		name   string
		input  Value
		want   int64
		wantOK bool
	}{
		{name: "int64", input: int64(2021), want: 2021, wantOK: true},
		{name: "integral float", input: 2021.0, want: 2021, wantOK: true},
		{name: "year string", input: "2021", want: 2021, wantOK: true},
		{name: "fractional", input: 2021.5, wantOK: false},
		{name: "infinity", input: math.Inf(1), wantOK: false},
		{name: "text", input: "ano", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt(tt.input)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("ToInt(%#v) = %d, %v, want %d, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		input Value
		want  string
	}{
		{nil, ""},
		{"Escola", "Escola"},
		{int64(-12), "-12"},
		{25.0, "25"},
		{0.125, "0.125"},
		{math.NaN(), ""},
		{true, "true"},
	}

	for _, tt := range tests {
		if got := ToString(tt.input); got != tt.want {
			t.Errorf("ToString(%#v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// NormalizeValue Tests
// ----------------------------------------------------------------------------

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  Value
	}{
		{name: "nil", input: nil, want: nil},
		{name: "int32", input: int32(5), want: int64(5)},
		{name: "uint16", input: uint16(5), want: int64(5)},
		{name: "float32", input: float32(0.5), want: 0.5},
		{name: "NaN becomes nil", input: math.NaN(), want: nil},
		{name: "bool", input: false, want: "false"},
		{name: "bytes", input: []byte("abc"), want: "abc"},
		{name: "huge uint64", input: uint64(math.MaxUint64), want: float64(math.MaxUint64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeValue(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeValue(%#v) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseCell Tests
// ----------------------------------------------------------------------------

func TestParseCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{name: "empty", input: "", want: nil},
		{name: "whitespace", input: "   ", want: nil},
		{name: "integer", input: "2021", want: int64(2021)},
		{name: "negative integer", input: "-3", want: int64(-3)},
		{name: "decimal", input: "12.5", want: 12.5},
		{name: "excel formula", input: `="123"`, want: int64(123)},
		{name: "leading zeros stay text", input: "0012", want: "0012"},
		{name: "quoted code keeps zeros", input: `="00123"`, want: "00123"},
		{name: "signed leading zero", input: "-012", want: "-012"},
		{name: "zero", input: "0", want: int64(0)},
		{name: "zero decimal", input: "0.5", want: 0.5},
		{name: "quoted text", input: `"Rede Municipal"`, want: "Rede Municipal"},
		{name: "text", input: "São Paulo", want: "São Paulo"},
		{name: "huge integer becomes float", input: "99999999999999999999", want: 1e20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCell(tt.input)
			if got != tt.want {
				t.Errorf("ParseCell(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// Basic cleaning
		{
			name:  "simple string unchanged",
			input: "hello",
			want:  "hello",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},

		// Whitespace trimming
		{
			name:  "surrounded by whitespace",
			input: "  hello  ",
			want:  "hello",
		},

		// Excel formula prefix
		{
			name:  "excel formula with quotes",
			input: `="12345"`,
			want:  "12345",
		},
		{
			name:  "formula prefix without quotes",
			input: "=12345",
			want:  "12345",
		},

		// Quote removal
		{
			name:  "double quotes",
			input: `"hello"`,
			want:  "hello",
		},
		{
			name:  "single quotes",
			input: `'hello'`,
			want:  "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanCell(tt.input)
			if got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
