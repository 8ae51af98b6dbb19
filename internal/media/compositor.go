package media

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/inkfall/studio-backend/internal/logger"
)

/*
Compositor renders local preview cards for visualization configs: a titled
panel with an optional color palette strip. Previews are rendered in-process
so the UI gets immediate feedback without burning a provider call.
*/
type Compositor struct {
	log       *logger.Logger
	titleFont *truetype.Font
	bodyFont  *truetype.Font
}

type CardSpec struct {
	Title    string
	Subtitle string
	// Layout: card (default), banner or grid. Banner is wide, grid is square.
	Layout string
	// Palette is a list of hex colors rendered as swatches along the bottom.
	Palette    []string
	Background string // hex, defaults to a dark slate
	Accent     string // hex, defaults to warm amber
}

func NewCompositor(log *logger.Logger) (*Compositor, error) {
	titleFont, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse title font: %w", err)
	}
	bodyFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse body font: %w", err)
	}
	return &Compositor{
		log:       log.With("component", "Compositor"),
		titleFont: titleFont,
		bodyFont:  bodyFont,
	}, nil
}

func (c *Compositor) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size})
}

// RenderCard produces a PNG preview for the given spec.
func (c *Compositor) RenderCard(spec CardSpec) ([]byte, error) {
	w, h := 800, 450
	switch strings.ToLower(spec.Layout) {
	case "banner":
		w, h = 1200, 300
	case "grid":
		w, h = 600, 600
	}

	dc := gg.NewContext(w, h)

	bg := spec.Background
	if bg == "" {
		bg = "#1e2430"
	}
	accent := spec.Accent
	if accent == "" {
		accent = "#e8a23d"
	}
	dc.SetHexColor(bg)
	dc.Clear()

	// Accent bar down the left edge.
	dc.SetHexColor(accent)
	dc.DrawRectangle(0, 0, 10, float64(h))
	dc.Fill()

	margin := 40.0
	dc.SetHexColor("#f4f4f2")
	dc.SetFontFace(c.face(c.titleFont, 42))
	dc.DrawStringWrapped(spec.Title, margin, margin, 0, 0, float64(w)-2*margin, 1.3, gg.AlignLeft)

	if spec.Subtitle != "" {
		dc.SetHexColor("#aab2c0")
		dc.SetFontFace(c.face(c.bodyFont, 22))
		dc.DrawStringWrapped(spec.Subtitle, margin, margin+70, 0, 0, float64(w)-2*margin, 1.4, gg.AlignLeft)
	}

	if len(spec.Palette) > 0 {
		swatch := 48.0
		y := float64(h) - margin - swatch
		for i, hex := range spec.Palette {
			if hex == "" {
				continue
			}
			x := margin + float64(i)*(swatch+12)
			if x+swatch > float64(w)-margin {
				break
			}
			dc.SetHexColor(hex)
			dc.DrawRoundedRectangle(x, y, swatch, swatch, 8)
			dc.Fill()
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode preview png: %w", err)
	}
	return buf.Bytes(), nil
}
