package barcode

import (
	"fmt"
	"strings"
)

// Bar is one bar or gap of a rendered barcode, in left-to-right order
type Bar struct {
	Width int  `json:"width"`
	Black bool `json:"black"`
}

// patterns maps digit mod 12 to six alternating bar widths
var patterns = [12][6]int{
	{2, 1, 2, 2, 2, 1}, {2, 2, 2, 1, 2, 1}, {2, 2, 2, 1, 1, 2}, {1, 2, 1, 2, 2, 2},
	{1, 2, 2, 2, 2, 1}, {1, 1, 2, 2, 2, 2}, {2, 1, 2, 1, 2, 2}, {2, 1, 2, 2, 1, 2},
	{2, 2, 2, 2, 1, 1}, {1, 1, 1, 3, 2, 2}, {1, 1, 2, 3, 1, 2}, {1, 2, 1, 3, 1, 2},
}

var (
	startGuard = []Bar{{2, true}, {1, false}, {1, true}, {1, false}}
	endGuard   = []Bar{{2, true}, {1, false}, {1, true}, {2, false}, {1, true}}
)

// BaseCode returns the number printed beneath the barcode: year, zero-padded
// month and the day count of that month.
func BaseCode(year, month, daysInMonth int) string {
	return fmt.Sprintf("%d%02d%d", year, month, daysInMonth)
}

// Code returns the full string encoded by the barcode
func Code(year, month, daysInMonth int) string {
	base := BaseCode(year, month, daysInMonth)
	return base + reverse(base) + "0123456789"
}

// Generate returns the bar sequence for a displayed month.
// daysInMonth is trusted as given; calendar correctness is the caller's job.
func Generate(year, month, daysInMonth int) []Bar {
	code := Code(year, month, daysInMonth)

	bars := make([]Bar, 0, Len(code))
	bars = append(bars, startGuard...)
	for _, c := range code {
		pattern := patterns[digitValue(c)%len(patterns)]
		for i, width := range pattern {
			bars = append(bars, Bar{Width: width, Black: i%2 == 0})
		}
	}
	bars = append(bars, endGuard...)

	return bars
}

// Len returns the number of bars produced for an encoded string
func Len(code string) int {
	return len(startGuard) + 6*len(code) + len(endGuard)
}

// TotalUnits sums the widths of all bars
func TotalUnits(bars []Bar) int {
	total := 0
	for _, b := range bars {
		total += b.Width
	}
	return total
}

// digitValue maps anything that is not an ASCII digit to pattern 0
func digitValue(c rune) int {
	if c < '0' || c > '9' {
		return 0
	}
	return int(c - '0')
}

func reverse(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := len(s) - 1; i >= 0; i-- {
		b.WriteByte(s[i])
	}
	return b.String()
}
