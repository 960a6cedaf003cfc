package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/park285/oh-my-chess/internal/rules"
)

// Glyph bodies drawn on a 45x45 viewBox. {{F}} and {{S}} are replaced by fill and stroke colors.
var glyphs = map[rules.Piece]string{
	rules.Pawn: `<circle cx="22.5" cy="14" r="5.5" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<path d="M 16 36 L 18.5 21 L 26.5 21 L 29 36 Z" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<rect x="12" y="35" width="21" height="4" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>`,
	rules.Knight: `<path d="M 14 38 L 15 30 C 15 25 20 23 21 18 L 13 21 L 11 17 L 20 9 L 23 6 L 25 9 C 31 10 34 17 33 26 L 32 38 Z" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<circle cx="21" cy="12" r="1.2" fill="{{S}}"/>`,
	rules.Bishop: `<circle cx="22.5" cy="8" r="2.5" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<path d="M 22.5 10.5 C 15 16 15 24 18 29 L 27 29 C 30 24 30 16 22.5 10.5 Z" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<rect x="12" y="31" width="21" height="6" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>`,
	rules.Rook: `<path d="M 12 9 L 16 9 L 16 12 L 20 12 L 20 9 L 25 9 L 25 12 L 29 12 L 29 9 L 33 9 L 33 15 L 30 17 L 30 30 L 33 32 L 33 38 L 12 38 L 12 32 L 15 30 L 15 17 L 12 15 Z" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>`,
	rules.Queen: `<path d="M 9 14 L 14 30 L 31 30 L 36 14 L 29 24 L 27 10 L 22.5 23 L 18 10 L 16 24 Z" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<rect x="12" y="31" width="21" height="6" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<circle cx="9" cy="13" r="2" fill="{{F}}" stroke="{{S}}" stroke-width="1"/>
<circle cx="36" cy="13" r="2" fill="{{F}}" stroke="{{S}}" stroke-width="1"/>
<circle cx="22.5" cy="9" r="2" fill="{{F}}" stroke="{{S}}" stroke-width="1"/>`,
	rules.King: `<path d="M 21 4 L 24 4 L 24 7 L 27 7 L 27 10 L 24 10 L 24 14 L 21 14 L 21 10 L 18 10 L 18 7 L 21 7 Z" fill="{{F}}" stroke="{{S}}" stroke-width="1.2"/>
<path d="M 11 22 C 11 15 20 14 22.5 19 C 25 14 34 15 34 22 C 34 27 30 29 30 31 L 15 31 C 15 29 11 27 11 22 Z" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>
<rect x="12" y="31" width="21" height="6" fill="{{F}}" stroke="{{S}}" stroke-width="1.5"/>`,
}

var (
	whitePieceFill   = "#f7f4ee"
	whitePieceStroke = "#1e1e1e"
	blackPieceFill   = "#26231f"
	blackPieceStroke = "#d9d4c7"
)

func pieceSVG(c rules.Cell) (string, error) {
	body, ok := glyphs[c.Kind]
	if !ok {
		return "", fmt.Errorf("no glyph for %v", c.Kind)
	}
	fill, stroke := whitePieceFill, whitePieceStroke
	if c.Owner == rules.Black {
		fill, stroke = blackPieceFill, blackPieceStroke
	}
	body = strings.NewReplacer("{{F}}", fill, "{{S}}", stroke).Replace(body)
	return `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">` + body + `</svg>`, nil
}

type pieceCacheKey struct {
	cell rules.Cell
	size int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func renderPieceImage(c rules.Cell, size int) (image.Image, error) {
	key := pieceCacheKey{cell: c, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	src, err := pieceSVG(c)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}
