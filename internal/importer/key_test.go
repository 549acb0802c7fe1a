package importer

import "testing"

func TestNaturalKey(t *testing.T) {
	year := 1990
	tests := []struct {
		name  string
		last  string
		first string
		year  *int
		want  string
	}{
		{"basic", "Smith", "John", &year, "smith_john_1990"},
		{"unknown year", "Smith", "John", nil, "smith_john_unknown"},
		{"punctuation", "O'Brien", "Mary Ann", &year, "o_brien_mary_ann_1990"},
		{"trimmed", "  Smith ", " John", &year, "smith_john_1990"},
		{"accents kept", "Müller", "José", nil, "müller_josé_unknown"},
		{"cyrillic", "Петров", "Иван", &year, "петров_иван_1990"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NaturalKey(tt.last, tt.first, tt.year); got != tt.want {
				t.Fatalf("NaturalKey(%q, %q) = %q, want %q", tt.last, tt.first, got, tt.want)
			}
		})
	}
}

func TestNaturalKeyKeepsDistinctNamesApart(t *testing.T) {
	year := 1990
	pairs := [][2][2]string{
		{{"Петров", "Иван"}, {"Иванов", "Пётр"}},
		{{"Smith", "José"}, {"Smith", "Josè"}},
		{{"Smith", "José"}, {"Smith", "Jose"}},
		{{"王", "伟"}, {"李", "伟"}},
	}
	for _, p := range pairs {
		a := NaturalKey(p[0][0], p[0][1], &year)
		b := NaturalKey(p[1][0], p[1][1], &year)
		if a == b {
			t.Fatalf("%v and %v share natural key %q", p[0], p[1], a)
		}
	}
}
