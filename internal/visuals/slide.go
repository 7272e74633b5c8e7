package visuals

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"

	"trend-shorts-agent/internal/types"
)

// Layout constants are for a 1080 px wide canvas and scale with the width
const (
	baseWidth         = 1080.0
	badgeTop          = 120.0
	badgeHeight       = 120.0
	badgeRadius       = 30.0
	badgeStroke       = 4.0
	badgePadX         = 30.0
	headlineSize      = 48.0
	captionSize       = 54.0
	captionLineHeight = 64.0
	captionBottom     = 180.0
	captionPadX       = 60.0
	captionPadY       = 40.0
)

var (
	badgeFill   = color.NRGBA{R: 255, G: 255, B: 255, A: 230}
	badgeBorder = color.NRGBA{A: 51}
	captionFill = color.NRGBA{A: 140}
	gradientTop = color.NRGBA{}
	gradientEnd = color.NRGBA{A: 191}
)

// Compositor draws headline and caption over a background image
type Compositor struct {
	width, height int
	scale         float64
	headlineFace  font.Face
	captionFace   font.Face
}

func NewCompositor(width, height int) (*Compositor, error) {
	scale := float64(width) / baseWidth
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	headline, err := opentype.NewFace(bold, &opentype.FaceOptions{Size: headlineSize * scale, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("headline face: %w", err)
	}
	caption, err := opentype.NewFace(bold, &opentype.FaceOptions{Size: captionSize * scale, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("caption face: %w", err)
	}
	return &Compositor{
		width:        width,
		height:       height,
		scale:        scale,
		headlineFace: headline,
		captionFace:  caption,
	}, nil
}

// Compose renders one slide to outPath as PNG
func (c *Compositor) Compose(background string, scene types.VideoScene, outPath string) error {
	bg, err := gg.LoadImage(background)
	if err != nil {
		return fmt.Errorf("load background %s: %w", background, err)
	}

	W, H := float64(c.width), float64(c.height)
	dc := gg.NewContext(c.width, c.height)
	dc.SetColor(color.Black)
	dc.Clear()

	// cover-fit, centred
	b := bg.Bounds()
	bw, bh := float64(b.Dx()), float64(b.Dy())
	fit := math.Max(W/bw, H/bh)
	dc.Push()
	dc.Translate((W-bw*fit)/2, (H-bh*fit)/2)
	dc.Scale(fit, fit)
	dc.DrawImage(bg, -b.Min.X, -b.Min.Y)
	dc.Pop()

	grad := gg.NewLinearGradient(0, H*0.55, 0, H)
	grad.AddColorStop(0, gradientTop)
	grad.AddColorStop(1, gradientEnd)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, H*0.45, W, H*0.55)
	dc.Fill()

	c.drawBadge(dc, scene.Headline)
	c.drawCaption(dc, scene.OnScreenText)

	if err := dc.SavePNG(outPath); err != nil {
		return fmt.Errorf("save slide %s: %w", outPath, err)
	}
	return nil
}

func (c *Compositor) drawBadge(dc *gg.Context, headline string) {
	W := float64(c.width)
	x, y := W*0.08, badgeTop*c.scale
	w, h := W*0.84, badgeHeight*c.scale

	dc.DrawRoundedRectangle(x, y, w, h, badgeRadius*c.scale)
	dc.SetColor(badgeFill)
	dc.FillPreserve()
	dc.SetColor(badgeBorder)
	dc.SetLineWidth(badgeStroke * c.scale)
	dc.Stroke()

	dc.SetFontFace(c.headlineFace)
	dc.SetHexColor("#111111")
	text := fitText(dc, headline, w-2*badgePadX*c.scale)
	dc.DrawStringAnchored(text, W/2, y+h/2, 0.5, 0.5)
}

func (c *Compositor) drawCaption(dc *gg.Context, caption string) {
	W, H := float64(c.width), float64(c.height)
	dc.SetFontFace(c.captionFace)
	lines := WrapText(dc, caption, W*0.7)
	if len(lines) == 0 {
		return
	}

	lineHeight := captionLineHeight * c.scale
	total := float64(len(lines)) * lineHeight
	top := H - total - captionBottom*c.scale
	padX, padY := captionPadX*c.scale, captionPadY*c.scale

	dc.SetColor(captionFill)
	dc.DrawRectangle(padX, top-padY, W-2*padX, total+2*padY)
	dc.Fill()

	dc.SetColor(color.White)
	for i, line := range lines {
		dc.DrawStringAnchored(line, W/2, top+float64(i)*lineHeight+lineHeight/2, 0.5, 0.5)
	}
}
