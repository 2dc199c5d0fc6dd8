package language

import (
	"testing"
)

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// 2-letter codes pass through
		{"zh", "zh"},
		{"EN", "en"},
		// 3-letter codes convert
		{"zho", "zh"},
		{"chi", "zh"},
		{"eng", "en"},
		{"fre", "fr"},
		{"jpn", "ja"},
		// Word forms
		{"chinese", "zh"},
		{"Mandarin", "zh"},
		{"ENGLISH", "en"},
		// Unknown 2-letter passes through
		{"xy", "xy"},
		// Unknown 3-letter returns empty
		{"xyz", ""},
		// Empty
		{"", ""},
		{" ", ""},
	}
	for _, tt := range tests {
		if got := ToISO2(tt.input); got != tt.expected {
			t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"zh", "zh"},
		{"zh-TW", "zh"},
		{"zh-Hant", "zh"},
		{"zh_CN", "zh"},
		{"en-US", "en"},
		{"pt-BR", "pt"},
		{"chinese", "zh"},
		{"", ""},
		{"not a language", ""},
	}
	for _, tt := range tests {
		if got := Canonical(tt.input); got != tt.expected {
			t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"zh", "Chinese"},
		{"zh-TW", "Chinese"},
		{"eng", "English"},
		{"", "Unknown"},
		{"qq", "QQ"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
