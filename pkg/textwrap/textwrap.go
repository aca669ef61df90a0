// Package textwrap breaks labels into lines that fit a pixel width.
//
// Wrapping is greedy: words are appended to the current line until the
// next one would make the measured line wider than the budget, at which
// point the line is committed and the word starts a new one. A word that is
// wider than the budget on its own is never split; it gets a line to itself.
//
//	m, _ := textwrap.NewFontMeasurer(14)
//	lines := textwrap.Wrap("Check whether it is raining", 140, m)
//	shift := lines.CenterShift(1.1) // em, for the enclosing <text>
package textwrap

import (
	"strings"
)

// Measurer returns the rendered width of a line of text in pixels.
type Measurer interface {
	Measure(s string) float64
}

// MeasureFunc adapts a function to [Measurer].
type MeasureFunc func(s string) float64

// Measure calls f(s).
func (f MeasureFunc) Measure(s string) float64 { return f(s) }

// Lines is the result of [Wrap].
type Lines struct {
	Lines []string
}

// Count returns the number of lines.
func (l Lines) Count() int { return len(l.Lines) }

// CenterShift returns the vertical offset, in the unit of lineHeight, that
// centers the block of lines on the anchor point: -(n-1)*lineHeight/2.
func (l Lines) CenterShift(lineHeight float64) float64 {
	if len(l.Lines) <= 1 {
		return 0
	}
	return -float64(len(l.Lines)-1) * lineHeight / 2
}

// Offsets returns the dy of each line relative to the previous one: the
// first line carries the center shift, every later line one lineHeight.
func (l Lines) Offsets(lineHeight float64) []float64 {
	out := make([]float64, len(l.Lines))
	for i := range out {
		if i == 0 {
			out[i] = l.CenterShift(lineHeight)
		} else {
			out[i] = lineHeight
		}
	}
	return out
}

// Wrap greedily packs the whitespace-delimited words of text into lines no
// wider than maxWidth as measured by m. Empty or blank text yields no lines.
func Wrap(text string, maxWidth float64, m Measurer) Lines {
	words := strings.Fields(text)
	if len(words) == 0 {
		return Lines{}
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		candidate := line + " " + w
		if m.Measure(candidate) > maxWidth {
			lines = append(lines, line)
			line = w
			continue
		}
		line = candidate
	}
	lines = append(lines, line)
	return Lines{Lines: lines}
}
