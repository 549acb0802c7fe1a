package main

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignAuto columnAlignment = iota
	alignLeft
	alignRight
)

// renderTable draws rows under headers with rounded borders. Columns without
// an explicit alignment are right-aligned when every filled cell is a number
// (birth years, card numbers, scores) and left-aligned otherwise. Missing
// cells render blank.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(headers, len(headers)))
	for _, row := range rows {
		tw.AppendRow(toRow(row, len(headers)))
	}

	configs := make([]table.ColumnConfig, len(headers))
	for col := range headers {
		align := text.AlignLeft
		if resolveAlignment(aligns, rows, col) == alignRight {
			align = text.AlignRight
		}
		configs[col] = table.ColumnConfig{Number: col + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func toRow(cells []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range row {
		row[i] = ""
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	return row
}

func resolveAlignment(aligns []columnAlignment, rows [][]string, col int) columnAlignment {
	if col < len(aligns) && aligns[col] != alignAuto {
		return aligns[col]
	}
	if numericColumn(rows, col) {
		return alignRight
	}
	return alignLeft
}

// numericColumn reports whether column col holds at least one number and
// nothing else besides blanks and "-" placeholders.
func numericColumn(rows [][]string, col int) bool {
	seen := false
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[col])
		if cell == "" || cell == "-" {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}
