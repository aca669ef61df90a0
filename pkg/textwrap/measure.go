package textwrap

import (
	"unicode/utf8"

	"golang.org/x/image/font"

	"github.com/matzehuels/mindgraph/pkg/fonts"
)

// FontMeasurer measures text with an opentype face.
// It is not safe for concurrent use.
type FontMeasurer struct {
	face font.Face
}

// NewFontMeasurer returns a measurer using Go Regular at size pixels.
func NewFontMeasurer(size float64) (*FontMeasurer, error) {
	face, err := fonts.Face(size)
	if err != nil {
		return nil, err
	}
	return &FontMeasurer{face: face}, nil
}

// Measure returns the advance width of s in pixels.
func (m *FontMeasurer) Measure(s string) float64 {
	adv := font.MeasureString(m.face, s)
	return float64(adv) / 64
}

// Close releases the face.
func (m *FontMeasurer) Close() error {
	return m.face.Close()
}

// FixedMeasurer gives every rune the same width. It is used in tests and
// wherever a font is unavailable.
type FixedMeasurer float64

// Measure returns the rune count of s times the per-rune width.
func (m FixedMeasurer) Measure(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * float64(m)
}
