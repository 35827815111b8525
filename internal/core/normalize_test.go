package core

import "testing"

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue string
	}{
		{"positive integer", "123", true, "123"},
		{"negative integer", "-456", true, "-456"},
		{"leading decimal point", ".99", true, "0.99"},
		{"thousands separator", "1,234,567.89", true, "1234567.89"},
		{"dollar sign", "$1,200.50", true, "1200.5"},
		{"euro sign", "€99", true, "99"},
		{"accounting negative", "(123.45)", true, "-123.45"},
		{"scientific notation", "1.5e3", true, "1500"},
		{"surrounding whitespace", "  42  ", true, "42"},
		{"empty", "", false, ""},
		{"letters", "abc", false, ""},
		{"two points", "1.2.3", false, ""},
		{"bare currency", "$", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumeric(tt.input)
			if ok != tt.wantValid {
				t.Fatalf("ParseNumeric(%q) ok = %v, want %v", tt.input, ok, tt.wantValid)
			}
			if ok && got.String() != tt.wantValue {
				t.Errorf("ParseNumeric(%q) = %s, want %s", tt.input, got.String(), tt.wantValue)
			}
		})
	}
}

func TestCompareOptionsEqual(t *testing.T) {
	tests := []struct {
		name string
		opts CompareOptions
		a, b string
		want bool
	}{
		{"exact match", CompareOptions{}, "x", "x", true},
		{"exact differs on space", CompareOptions{}, "x ", "x", false},
		{"trim spaces", CompareOptions{TrimSpaces: true}, " x ", "x", true},
		{"case differs", CompareOptions{}, "ABC", "abc", false},
		{"case insensitive", CompareOptions{CaseInsensitive: true}, "ABC", "abc", true},
		{"numeric off", CompareOptions{}, "1.0", "1", false},
		{"numeric on", CompareOptions{Numeric: true}, "1.0", "1", true},
		{"numeric currency", CompareOptions{Numeric: true}, "$1,000", "1000.00", true},
		{"numeric unequal", CompareOptions{Numeric: true}, "1.01", "1", false},
		{"numeric needs both sides", CompareOptions{Numeric: true}, "1", "one", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
