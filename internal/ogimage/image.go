// Package ogimage draws the 1200×630 card shown in every frame.
package ogimage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/semaphore"
)

const (
	Width  = 1200
	Height = 630

	DefaultText   = "EIP Explainer"
	FooterText    = "Understand Ethereum Improvement Proposals"
	bodySize      = 34
	footerSize    = 24
	lineHeight    = 46
	outerPadding  = 40
	panelPadding  = 40
	footerReserve = 64
	ellipsis      = "…"
)

var (
	gradientFrom = color.NRGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}
	gradientTo   = color.NRGBA{R: 0x2d, G: 0x1c, B: 0x4f, A: 0xff}
	footerColor  = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xb3}
)

// Renderer draws cards. Parsed fonts are shared; faces are created per call
// because font.Face is not safe for concurrent use.
type Renderer struct {
	bold    *opentype.Font
	regular *opentype.Font
	budget  int
	sem     *semaphore.Weighted
}

// New returns a Renderer that draws at most concurrency cards at once.
func New(concurrency int64) (*Renderer, error) {
	if concurrency <= 0 {
		return nil, errors.New("ogimage: concurrency must be positive")
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("ogimage: parse bold font: %w", err)
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("ogimage: parse regular font: %w", err)
	}
	return &Renderer{
		bold:    bold,
		regular: regular,
		budget:  DefaultLineBudget,
		sem:     semaphore.NewWeighted(concurrency),
	}, nil
}

// Render returns text drawn on the card as PNG bytes.
func (r *Renderer) Render(ctx context.Context, text string) ([]byte, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("ogimage: wait for render slot: %w", err)
	}
	defer r.sem.Release(1)

	img, err := r.draw(text)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("ogimage: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) draw(text string) (*image.NRGBA, error) {
	body, err := opentype.NewFace(r.bold, &opentype.FaceOptions{Size: bodySize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("ogimage: body face: %w", err)
	}
	defer body.Close()
	footer, err := opentype.NewFace(r.regular, &opentype.FaceOptions{Size: footerSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("ogimage: footer face: %w", err)
	}
	defer footer.Close()

	lines := WrapLines(text, r.budget)
	if len(lines) == 0 {
		lines = []string{DefaultText}
	}
	lines = fitLines(lines, maxLines())

	canvas := gradient(Width, Height)

	textWidth := 0
	for _, line := range lines {
		if w := font.MeasureString(body, line).Ceil(); w > textWidth {
			textWidth = w
		}
	}
	panelW := min(textWidth+2*panelPadding, Width-2*outerPadding)
	panelH := len(lines)*lineHeight + 2*panelPadding
	panelX := (Width - panelW) / 2
	panelY := (Height - footerReserve - panelH) / 2
	if panelY < outerPadding/2 {
		panelY = outerPadding / 2
	}

	panel := imaging.New(panelW, panelH, color.NRGBA{A: 0xff})
	canvas = imaging.Overlay(canvas, panel, image.Pt(panelX, panelY), 0.4)
	canvas = drawBorder(canvas, image.Rect(panelX, panelY, panelX+panelW, panelY+panelH), 2)

	ascent := body.Metrics().Ascent.Ceil()
	for i, line := range lines {
		w := font.MeasureString(body, line).Ceil()
		baseline := panelY + panelPadding + i*lineHeight + ascent
		drawString(canvas, body, image.White, line, (Width-w)/2, baseline)
	}

	fw := font.MeasureString(footer, FooterText).Ceil()
	drawString(canvas, footer, image.NewUniform(footerColor), FooterText, (Width-fw)/2, Height-20-footer.Metrics().Descent.Ceil())

	return canvas, nil
}

func maxLines() int {
	return (Height - footerReserve - outerPadding - 2*panelPadding) / lineHeight
}

// fitLines keeps the first n lines and marks the cut with an ellipsis.
func fitLines(lines []string, n int) []string {
	if n <= 0 || len(lines) <= n {
		return lines
	}
	out := append([]string(nil), lines[:n]...)
	out[n-1] += " " + ellipsis
	return out
}

func gradient(w, h int) *image.NRGBA {
	img := imaging.New(w, h, gradientFrom)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := (float64(x)/float64(w) + float64(y)/float64(h)) / 2
			img.SetNRGBA(x, y, lerp(gradientFrom, gradientTo, t))
		}
	}
	return img
}

func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 0xff}
}

func drawBorder(canvas *image.NRGBA, r image.Rectangle, thickness int) *image.NRGBA {
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		edge := imaging.New(e.Dx(), e.Dy(), color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
		canvas = imaging.Overlay(canvas, edge, e.Min, 0.1)
	}
	return canvas
}

func drawString(dst *image.NRGBA, face font.Face, src image.Image, s string, x, baseline int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  src,
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}
