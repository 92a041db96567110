package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	minChartWidth  = 8
	minChartHeight = 3
	axisLabelWidth = 10 // 8-column value, space, tick
)

type cell struct {
	r      rune
	series int // -1 for empty
}

// plotWidth is the number of columns a window spanning first..last seconds
// occupies: one per second, compressed to fit width.
func plotWidth(first, last int64, width int) int {
	span := last - first + 1
	if span < 1 || span > int64(width) {
		return width
	}
	return int(span)
}

// columns maps each device second onto a chart column. Points sharing a
// column overwrite one another in order, so the newest wins.
func columns(seconds []int64, width int) []int {
	out := make([]int, len(seconds))
	if len(seconds) == 0 {
		return out
	}
	first, last := seconds[0], seconds[len(seconds)-1]
	used := plotWidth(first, last, width)
	if last <= first || used <= 1 {
		return out
	}
	scale := float64(used-1) / float64(last-first)
	for i, sec := range seconds {
		c := int(math.Round(float64(sec-first) * scale))
		out[i] = min(max(c, 0), used-1)
	}
	return out
}

// axisLabel formats v into the fixed gutter, trading precision for width.
func axisLabel(v float64) string {
	for _, f := range []string{"%8.2f", "%8.0f", "%8.1e"} {
		if s := fmt.Sprintf(f, v); len(s) <= axisLabelWidth-2 {
			return s + " ┤"
		}
	}
	return fmt.Sprintf("%8.0e ┤", v)
}

// bounds returns the min and max over every series.
func bounds(series [][]float64) (lo, hi float64, ok bool) {
	for _, s := range series {
		for _, v := range s {
			if !ok {
				lo, hi, ok = v, v, true
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi, ok
}

// lineChart rasterizes one or more series on a shared y-axis, placing each
// point at its device second. Later series draw over earlier ones where
// they meet. styles[i] colors series i.
func lineChart(seconds []int64, series [][]float64, styles []lipgloss.Style, width, height int) []string {
	width = max(width, minChartWidth)
	height = max(height, minChartHeight)

	lo, hi, ok := bounds(series)
	if !ok {
		return []string{strings.Repeat(" ", axisLabelWidth) + DimStyle.Render(strings.Repeat(".", width))}
	}
	cols := columns(seconds, width)

	grid := make([][]cell, height)
	for r := range grid {
		grid[r] = make([]cell, width)
		for c := range grid[r] {
			grid[r][c] = cell{r: ' ', series: -1}
		}
	}

	center := height / 2
	for si, s := range series {
		lastRow, lastCol := center, -1
		for i, v := range s {
			if i >= len(cols) {
				break
			}
			x := cols[i]
			row := center
			if hi > lo {
				ratio := (v - lo) / (hi - lo)
				row = height - 1 - int(math.Round(ratio*float64(height-1)))
			}
			row = min(max(row, 0), height-1)
			grid[row][x] = cell{r: '●', series: si}
			if lastCol >= 0 {
				// Join to the previous point with a vertical stroke in its column.
				from, to := min(row, lastRow), max(row, lastRow)
				for rr := from + 1; rr < to; rr++ {
					if grid[rr][lastCol].series == -1 {
						grid[rr][lastCol] = cell{r: '│', series: si}
					}
				}
			}
			lastRow, lastCol = row, x
		}
	}

	lines := make([]string, 0, height)
	for r := 0; r < height; r++ {
		label := strings.Repeat(" ", axisLabelWidth-1) + "│"
		switch r {
		case 0:
			label = axisLabel(hi)
		case height - 1:
			label = axisLabel(lo)
		}
		var b strings.Builder
		b.WriteString(DimStyle.Render(label))
		for _, c := range grid[r] {
			if c.series < 0 || c.series >= len(styles) {
				b.WriteRune(c.r)
				continue
			}
			b.WriteString(styles[c.series].Render(string(c.r)))
		}
		lines = append(lines, b.String())
	}
	return lines
}

// timeAxis labels the first and last device second under a chart of width cells.
func timeAxis(first, last int64, width int) string {
	width = max(plotWidth(first, last, max(width, minChartWidth)), minChartWidth)
	left := fmt.Sprintf("%ds", first)
	right := fmt.Sprintf("%ds", last)
	gap := max(1, width-len(left)-len(right))
	return strings.Repeat(" ", axisLabelWidth) + left + strings.Repeat("─", gap) + right
}

func seriesStats(series []float64) (latest, lo, hi float64, ok bool) {
	if len(series) == 0 {
		return 0, 0, 0, false
	}
	lo, hi, _ = bounds([][]float64{series})
	return series[len(series)-1], lo, hi, true
}
