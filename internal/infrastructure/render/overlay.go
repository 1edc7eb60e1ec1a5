package render

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var markupEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeText escapes characters that would otherwise be read as markup.
func EscapeText(s string) string {
	return markupEscaper.Replace(s)
}

// stripControls removes C0 control characters, which XML cannot carry, keeping
// newlines and turning tabs into spaces. Invalid UTF-8 is left untouched.
func stripControls(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		switch {
		case r == '\t':
			b.WriteByte(' ')
		case r == '\n' || r >= 0x20 || (r == utf8.RuneError && size == 1):
			b.WriteString(s[:size])
		}
		s = s[size:]
	}
	return b.String()
}

// overlayLine is one laid-out line of text in canvas coordinates.
type overlayLine struct {
	Text string
	X, Y float64
}

type overlayLayout struct {
	Width, Height int
	FontSize      float64
	Lines         []overlayLine
}

// markup renders the layout as an SVG text layer. Every line is escaped and
// placed in its own tspan, which is how newlines become line breaks.
func (l overlayLayout) markup() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, l.Width, l.Height, l.Width, l.Height)
	b.WriteString(`<defs><filter id="glow" x="-50%" y="-50%" width="200%" height="200%">`)
	b.WriteString(`<feGaussianBlur stdDeviation="8" result="blur"/>`)
	b.WriteString(`<feFlood flood-color="#a855f7" flood-opacity="0.8"/><feComposite in2="blur" operator="in"/>`)
	b.WriteString(`<feMerge><feMergeNode/><feMergeNode in="SourceGraphic"/></feMerge></filter></defs>`)
	fmt.Fprintf(&b, `<text font-family="Go, sans-serif" font-size="%s" fill="#ffffff" text-anchor="middle" filter="url(#glow)">`, formatFloat(l.FontSize))
	for _, line := range l.Lines {
		fmt.Fprintf(&b, `<tspan x="%s" y="%s">%s</tspan>`, formatFloat(line.X), formatFloat(line.Y), EscapeText(line.Text))
	}
	b.WriteString(`</text></svg>`)
	return b.String()
}

type svgDocument struct {
	XMLName xml.Name `xml:"svg"`
	Text    svgText  `xml:"text"`
}

type svgText struct {
	FontSize float64   `xml:"font-size,attr"`
	Spans    []svgSpan `xml:"tspan"`
}

type svgSpan struct {
	X     float64 `xml:"x,attr"`
	Y     float64 `xml:"y,attr"`
	Value string  `xml:",chardata"`
}

// parseOverlay decodes the text layer back into drawable lines.
func parseOverlay(src string) (float64, []overlayLine, error) {
	var doc svgDocument
	if err := xml.Unmarshal([]byte(src), &doc); err != nil {
		return 0, nil, fmt.Errorf("decode overlay: %w", err)
	}
	lines := make([]overlayLine, 0, len(doc.Text.Spans))
	for _, s := range doc.Text.Spans {
		lines = append(lines, overlayLine{Text: s.Value, X: s.X, Y: s.Y})
	}
	return doc.Text.FontSize, lines, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
