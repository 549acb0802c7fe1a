package main

import (
	"strings"
	"testing"
)

func TestNumericColumnDetection(t *testing.T) {
	rows := [][]string{
		{"smith_john_1990", "1990", "-", "97.5"},
		{"brown_alice_1985", "1985", "123456", "x"},
		{"short"},
	}
	tests := []struct {
		col  int
		want bool
	}{
		{0, false},
		{1, true},
		{2, true},
		{3, false},
	}
	for _, tt := range tests {
		if got := numericColumn(rows, tt.col); got != tt.want {
			t.Errorf("numericColumn(col %d) = %v, want %v", tt.col, got, tt.want)
		}
	}
	if numericColumn([][]string{{"-"}, {""}}, 0) {
		t.Fatal("a column of placeholders should not count as numeric")
	}
}

func TestResolveAlignmentPrefersExplicit(t *testing.T) {
	rows := [][]string{{"1990", "1990"}}
	aligns := []columnAlignment{alignLeft}
	if got := resolveAlignment(aligns, rows, 0); got != alignLeft {
		t.Fatalf("explicit alignment ignored: %v", got)
	}
	if got := resolveAlignment(aligns, rows, 1); got != alignRight {
		t.Fatalf("numeric column not right-aligned: %v", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"ID", "Born"}, [][]string{{"smith_john_1990"}, {"brown_alice_1985", "1985"}}, nil)
	for _, want := range []string{"ID", "Born", "smith_john_1990", "1985"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}
