package barcode

import (
	"bufio"
	"fmt"
	"io"
)

const (
	viewWidth     = 292
	viewHeight    = 50
	drawableWidth = 280.0
	marginLeft    = 6.0
	barTop        = 5
	barHeight     = 40
	inkRatio      = 0.65
	barFill       = "#1a1a1a"
)

// WriteSVG renders the black bars of a sequence, scaled to a fixed drawable width
func WriteSVG(w io.Writer, bars []Bar) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="100%%" height="%d" viewBox="0 0 %d %d" preserveAspectRatio="none">`,
		viewHeight, viewWidth, viewHeight)

	total := TotalUnits(bars)
	if total > 0 {
		unit := drawableWidth / float64(total)
		x := marginLeft
		for _, bar := range bars {
			width := float64(bar.Width) * unit
			if bar.Black {
				fmt.Fprintf(bw, `<rect x="%.3f" y="%d" width="%.3f" height="%d" fill="%s"/>`,
					x, barTop, width*inkRatio, barHeight, barFill)
			}
			x += width
		}
	}

	bw.WriteString("</svg>")
	return bw.Flush()
}
