package sanitizer

import (
	"reflect"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  user 42  ", want: "user 42"},
		{name: "collapse inner whitespace", input: "user\t\n 42", want: "user 42"},
		{name: "empty string", input: "", want: ""},
		{name: "only whitespace", input: "   \t\n  ", want: ""},
		{name: "unicode preserved", input: " Лада ", want: "Лада"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeSourceID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already normal", input: "yandex", want: "yandex"},
		{name: "uppercase", input: "CityDrive", want: "citydrive"},
		{name: "surrounding spaces", input: "  delimobil ", want: "delimobil"},
		{name: "keeps dash and underscore", input: "car-share_2", want: "car-share_2"},
		{name: "drops url characters", input: "evil/host?x=1", want: "evilhostx1"},
		{name: "only punctuation", input: "/?:", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSourceID(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeSourceID(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizeSourceID(got); again != got {
				t.Errorf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeBrand_KeepsCase(t *testing.T) {
	if got := NormalizeBrand("  Kia  "); got != "Kia" {
		t.Errorf("NormalizeBrand() = %q, want %q", got, "Kia")
	}
}

func TestNormalizeSources(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "nil", input: nil, want: []string{}},
		{name: "dedupe after normalization", input: []string{"yandex", " Yandex ", "citydrive"}, want: []string{"yandex", "citydrive"}},
		{name: "drop empty", input: []string{"", "  ", "delimobil"}, want: []string{"delimobil"}},
		{name: "order preserved", input: []string{"c", "a", "b", "a"}, want: []string{"c", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSources(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeSources(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
