package render

import (
	"bufio"
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
)

const (
	canvasSize  = 1080
	jpegQuality = 90
	marginX     = 110
	lineSpacing = 1.4
)

// Background is the near-black canvas color.
var Background = [3]int{10, 5, 20}

// Config holds renderer settings
type Config struct {
	// Dir receives rendered files; defaults to os.TempDir().
	Dir string
}

// Renderer draws confession text onto a square JPEG.
type Renderer struct {
	dir    string
	faces  map[float64]font.Face
	logger *logrus.Logger
}

// NewRenderer parses the embedded Go font once and prepares faces for every size step.
func NewRenderer(cfg *Config, logger *logrus.Logger) (*Renderer, error) {
	dir := os.TempDir()
	if cfg != nil && cfg.Dir != "" {
		dir = cfg.Dir
	}
	f, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	faces := make(map[float64]font.Face)
	for _, size := range []float64{64, 52, 42, 34} {
		faces[size] = truetype.NewFace(f, &truetype.Options{Size: size})
	}
	return &Renderer{dir: dir, faces: faces, logger: logger}, nil
}

// Dir returns the directory rendered images are written to.
func (r *Renderer) Dir() string { return r.dir }

// fontSize shrinks the type as the confession grows.
func fontSize(text string) float64 {
	switch n := confession.TextLength(text); {
	case n <= 80:
		return 64
	case n <= 200:
		return 52
	case n <= 350:
		return 42
	default:
		return 34
	}
}

func (r *Renderer) layout(text string) overlayLayout {
	size := fontSize(text)
	dc := gg.NewContext(canvasSize, canvasSize)
	dc.SetFontFace(r.faces[size])

	var lines []string
	text = stripControls(strings.ReplaceAll(text, "\r\n", "\n"))
	for _, para := range strings.Split(text, "\n") {
		if strings.TrimSpace(para) == "" {
			lines = append(lines, "")
			continue
		}
		for _, l := range dc.WordWrap(para, canvasSize-2*marginX) {
			lines = append(lines, breakLong(dc, l, canvasSize-2*marginX)...)
		}
	}

	lh := size * lineSpacing
	top := canvasSize/2 - float64(len(lines)-1)*lh/2
	out := overlayLayout{Width: canvasSize, Height: canvasSize, FontSize: size}
	for i, l := range lines {
		out.Lines = append(out.Lines, overlayLine{Text: l, X: canvasSize / 2, Y: top + float64(i)*lh})
	}
	return out
}

// breakLong splits a single unbreakable word that is wider than max.
func breakLong(dc *gg.Context, line string, max float64) []string {
	if w, _ := dc.MeasureString(line); w <= max {
		return []string{line}
	}
	var out []string
	var cur []rune
	for _, r := range line {
		if w, _ := dc.MeasureString(string(append(cur, r))); w > max && len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

// Overlay returns the escaped SVG text layer for text.
func (r *Renderer) Overlay(text string) string {
	return r.layout(text).markup()
}

// Render composes the overlay onto the background and writes a JPEG named after a
// fresh id. The caller owns the returned file.
func (r *Renderer) Render(ctx context.Context, text string) (*confession.RenderedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, confession.NewError(confession.KindTimeout, "render abandoned after deadline", err)
	}

	size, lines, err := parseOverlay(r.Overlay(text))
	if err != nil {
		return nil, confession.NewError(confession.KindRender, "failed to compose overlay", err)
	}
	face, ok := r.faces[size]
	if !ok {
		return nil, confession.NewError(confession.KindRender, "unsupported font size", fmt.Errorf("size %v", size))
	}

	dc := gg.NewContext(canvasSize, canvasSize)
	dc.SetRGB255(Background[0], Background[1], Background[2])
	dc.Clear()
	dc.SetFontFace(face)
	drawGlow(dc, lines)
	dc.SetRGB(1, 1, 1)
	for _, l := range lines {
		dc.DrawStringAnchored(l.Text, l.X, l.Y, 0.5, 0.5)
	}

	id := uuid.New()
	path := filepath.Join(r.dir, "confession-"+id.String()+".jpg")
	if err := writeJPEG(dc, path); err != nil {
		_ = os.Remove(path)
		return nil, confession.NewError(confession.KindRender, "failed to encode image", err)
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"image_id": id, "lines": len(lines), "font_size": size}).Debug("confession rendered")
	}
	return &confession.RenderedImage{ID: id, Path: path}, nil
}

// drawGlow paints translucent purple copies of the text around each line.
func drawGlow(dc *gg.Context, lines []overlayLine) {
	offsets := []float64{-6, -3, 3, 6}
	dc.SetRGBA255(168, 85, 247, 40)
	for _, l := range lines {
		for _, dx := range offsets {
			for _, dy := range offsets {
				dc.DrawStringAnchored(l.Text, l.X+dx, l.Y+dy, 0.5, 0.5)
			}
		}
	}
}

func writeJPEG(dc *gg.Context, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := jpeg.Encode(w, dc.Image(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
