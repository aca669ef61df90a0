// Package fonts provides the font used to measure and draw diagram labels.
//
// Labels are measured with Go Regular (golang.org/x/image/font/gofont),
// which ships inside the binary, so wrapping is identical on every machine.
// The SVG output names the same family first in its font stack.
package fonts

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontFamily is the CSS font-family stack written into SVG styles.
const FontFamily = `'Go', 'Helvetica Neue', Helvetica, Arial, sans-serif`

// DefaultSize is the label font size in pixels.
const DefaultSize = 14.0

// Parsed font is shared (computed once on first access).
var (
	regular     *opentype.Font
	regularErr  error
	regularOnce sync.Once
)

// Regular returns the parsed Go Regular font.
func Regular() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = opentype.Parse(goregular.TTF)
		if regularErr != nil {
			regularErr = fmt.Errorf("parse go regular: %w", regularErr)
		}
	})
	return regular, regularErr
}

// Face returns a Go Regular face at size pixels (72 DPI, no hinting).
// The caller owns the face and should Close it.
func Face(size float64) (font.Face, error) {
	f, err := Regular()
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	return face, nil
}
