package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
)

// Escape escapes s for use in XML text and attribute values.
func Escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// Num formats f with at most two decimals and no trailing zeros.
func Num(f float64) string {
	r := math.Round(f*100) / 100
	if r == 0 {
		r = 0 // normalise -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// Transform is a uniform scale followed by a translation, the form used by
// the viewport group.
type Transform struct {
	X, Y float64 // translation
	K    float64 // scale
}

// Identity is the transform that leaves coordinates unchanged.
var Identity = Transform{K: 1}

// String renders t as an SVG transform attribute value.
func (t Transform) String() string {
	return fmt.Sprintf("translate(%s,%s) scale(%s)", Num(t.X), Num(t.Y), Num(t.K))
}

// Apply maps a point through t.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// ZoomRange bounds the scale the user can reach with the wheel.
type ZoomRange struct {
	Min, Max float64
}

// Clamp limits k to the range.
func (z ZoomRange) Clamp(k float64) float64 {
	return math.Max(z.Min, math.Min(z.Max, k))
}

// OpenDocument writes the root element of an interactive document.
// class is added to the svg element so a host page can style each kind.
func OpenDocument(buf *bytes.Buffer, width, height float64, class string, zoom ZoomRange) {
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" class="%s" viewBox="0 0 %s %s" width="%s" height="%s" data-zoom-min="%s" data-zoom-max="%s">`+"\n",
		Escape(class), Num(width), Num(height), Num(width), Num(height), Num(zoom.Min), Num(zoom.Max))
}

// OpenViewport writes the single transformable group that wraps a diagram.
func OpenViewport(buf *bytes.Buffer, t Transform) {
	fmt.Fprintf(buf, `  <g class="viewport" transform="%s" data-tx="%s" data-ty="%s" data-k="%s">`+"\n",
		t.String(), Num(t.X), Num(t.Y), Num(t.K))
}

// CloseDocument closes the viewport group, appends the pan/zoom script and
// closes the root element.
func CloseDocument(buf *bytes.Buffer) {
	buf.WriteString("  </g>\n")
	buf.WriteString("  <script><![CDATA[")
	buf.WriteString(ZoomScript)
	buf.WriteString("]]></script>\n")
	buf.WriteString("</svg>\n")
}
