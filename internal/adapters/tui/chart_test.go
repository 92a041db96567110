package tui

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

var plain = []lipgloss.Style{lipgloss.NewStyle()}

// plotted strips the label gutter from a plain-styled chart row.
func plotted(row string) []rune {
	return []rune(row)[axisLabelWidth:]
}

func TestLineChartEmpty(t *testing.T) {
	lines := lineChart(nil, nil, nil, 20, 5)
	if len(lines) != 1 {
		t.Fatalf("expected a single placeholder row, got %d", len(lines))
	}
}

func TestLineChartShape(t *testing.T) {
	lines := lineChart([]int64{1, 2, 3}, [][]float64{{0, 5, 10}}, plain, 20, 5)
	if len(lines) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "10.00") {
		t.Errorf("expected max label on first row, got %q", lines[0])
	}
	if !strings.Contains(lines[4], "0.00") {
		t.Errorf("expected min label on last row, got %q", lines[4])
	}
	if !strings.Contains(lines[0], "●") || !strings.Contains(lines[4], "●") {
		t.Error("expected points on the top and bottom rows")
	}
}

func TestLineChartFlatSeries(t *testing.T) {
	lines := lineChart([]int64{7, 8, 9}, [][]float64{{3, 3, 3}}, plain, 10, 5)
	if !strings.HasPrefix(string(plotted(lines[2])), "●●●") {
		t.Errorf("expected a flat series on the center row, got %q", lines[2])
	}
}

func TestLineChartPlacesPointsBySecond(t *testing.T) {
	// Seconds 1, 2 and 6: a four-second gap before the last point.
	lines := lineChart([]int64{1, 2, 6}, [][]float64{{3, 3, 3}}, plain, 20, 5)
	row := plotted(lines[2])

	var at []int
	for i, r := range row {
		if r == '●' {
			at = append(at, i)
		}
	}
	if len(at) != 3 || at[0] != 0 || at[1] != 1 || at[2] != 5 {
		t.Errorf("expected points at columns 0, 1 and 5, got %v in %q", at, string(row))
	}
}

func TestLineChartCompressesLongSpans(t *testing.T) {
	lines := lineChart([]int64{0, 50, 100}, [][]float64{{1, 1, 1}}, plain, 11, 3)
	row := plotted(lines[1])
	if len(row) != 11 {
		t.Fatalf("expected 11 plotted columns, got %d", len(row))
	}
	if row[0] != '●' || row[5] != '●' || row[10] != '●' {
		t.Errorf("expected points at both edges and the middle, got %q", string(row))
	}
}

func TestColumnsSingleSecond(t *testing.T) {
	got := columns([]int64{4, 4}, 10)
	if got[0] != 0 || got[1] != 0 {
		t.Errorf("expected every point in column 0, got %v", got)
	}
}

func TestAxisLabelFitsGutter(t *testing.T) {
	for _, v := range []float64{0, 3.14159, -99999.99, 123456.7, -1e7, 98765432.1, 1e12, -1e100, math.Inf(1), math.NaN()} {
		label := axisLabel(v)
		if n := utf8.RuneCountInString(label); n != axisLabelWidth {
			t.Errorf("label for %v is %d columns wide: %q", v, n, label)
		}
	}
	if got := axisLabel(12.5); got != "   12.50 ┤" {
		t.Errorf("expected two decimals for small values, got %q", got)
	}
}

func TestLineChartLargeValuesKeepRowWidth(t *testing.T) {
	lines := lineChart([]int64{1, 2}, [][]float64{{-250000, 1.5e6}}, plain, 12, 4)
	for i, l := range lines {
		if n := utf8.RuneCountInString(l); n != axisLabelWidth+12 {
			t.Errorf("row %d is %d columns wide: %q", i, n, l)
		}
	}
}

func TestTimeAxis(t *testing.T) {
	axis := timeAxis(5, 64, 30)
	if !strings.Contains(axis, "5s") || !strings.HasSuffix(axis, "64s") {
		t.Errorf("unexpected axis %q", axis)
	}
}

func TestTimeAxisMatchesPlottedSpan(t *testing.T) {
	axis := timeAxis(1, 12, 40)
	if n := utf8.RuneCountInString(axis); n != axisLabelWidth+12 {
		t.Errorf("expected the axis to cover 12 columns, got %d: %q", n, axis)
	}
}
