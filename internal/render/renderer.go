package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/oh-my-chess/internal/rules"
)

// Highlight marks the last move on the board.
type Highlight struct {
	From rules.Square
	To   rules.Square
}

type Options struct {
	Highlight *Highlight
	// Flip draws the board from Black's side (rank 1 at the top).
	Flip   bool
	Header string
	Turn   string
	// Check marks the king of this side; nil when nobody is in check.
	Check *rules.Player
}

// Renderer draws a rules.Board as a PNG image.
type Renderer struct {
	squareSize int
}

func New() *Renderer { return &Renderer{squareSize: 64} }

// WithSquareSize returns a copy drawing squares of n pixels.
func (r *Renderer) WithSquareSize(n int) *Renderer {
	if n < 16 {
		n = 16
	}
	return &Renderer{squareSize: n}
}

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	backgroundColor     = color.RGBA{28, 31, 46, 255}
	moveHighlightFill   = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	checkHighlightFill  = color.NRGBA{R: 230, G: 60, B: 60, A: 150}
	headerTextColor     = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	turnTextColor       = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

func (r *Renderer) RenderPNG(ctx context.Context, board *rules.Board, opts Options) ([]byte, error) {
	if board == nil {
		return nil, errors.New("board is nil")
	}

	squareSize := r.squareSize
	const (
		sideMargin   = 28
		topMargin    = 56
		bottomMargin = 28
	)
	boardSize := squareSize * 8
	origin := image.Point{X: sideMargin, Y: topMargin}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	drawSquares(img, squareSize, origin, opts.Flip)
	if h := opts.Highlight; h != nil && h.From.OnBoard() && h.To.OnBoard() {
		drawSquareOverlay(img, h.From, squareSize, origin, opts.Flip, moveHighlightFill)
		drawSquareOverlay(img, h.To, squareSize, origin, opts.Flip, moveHighlightFill)
	}
	if opts.Check != nil {
		if king, ok := board.KingSquare(*opts.Check); ok {
			drawSquareOverlay(img, king, squareSize, origin, opts.Flip, checkHighlightFill)
		}
	}
	if err := drawPieces(ctx, img, board, squareSize, origin, opts.Flip); err != nil {
		return nil, err
	}

	face := basicfont.Face7x13
	drawCoordinates(img, face, squareSize, origin, sideMargin, opts.Flip)
	drawHeader(img, face, opts, origin, boardSize)

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point, flip bool) {
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			sq := rules.Sq(rank, file)
			imagedraw.Draw(dst, squareRect(sq, squareSize, origin, flip), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(ctx context.Context, dst imagedraw.Image, board *rules.Board, squareSize int, origin image.Point, flip bool) error {
	for rank := 0; rank < 8; rank++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for file := 0; file < 8; file++ {
			sq := rules.Sq(rank, file)
			cell := board.At(sq)
			if cell.Empty() {
				continue
			}
			pimg, err := renderPieceImage(cell, squareSize)
			if err != nil {
				return err
			}
			imagedraw.Draw(dst, squareRect(sq, squareSize, origin, flip), pimg, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawSquareOverlay(img *image.RGBA, sq rules.Square, squareSize int, origin image.Point, flip bool, clr color.Color) {
	imagedraw.Draw(img, squareRect(sq, squareSize, origin, flip), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawCoordinates(dst imagedraw.Image, face font.Face, squareSize int, origin image.Point, margin int, flip bool) {
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(coordinateTextColor)}
	ascent := face.Metrics().Ascent.Ceil()
	boardEndY := origin.Y + 8*squareSize
	for i := 0; i < 8; i++ {
		rect := squareRect(rules.Sq(i, i), squareSize, origin, flip)
		rankLabel := string(rune('1' + i))
		fileLabel := string(rune('a' + i))
		drawCenteredText(drawer, rankLabel, origin.X-margin/2, rect.Min.Y+squareSize/2+ascent/2)
		drawCenteredText(drawer, fileLabel, rect.Min.X+squareSize/2, boardEndY+ascent+4)
	}
}

func drawHeader(dst imagedraw.Image, face font.Face, opts Options, origin image.Point, boardSize int) {
	header := strings.TrimSpace(opts.Header)
	turn := strings.TrimSpace(opts.Turn)
	drawer := &font.Drawer{Dst: dst, Face: face}
	centerX := origin.X + boardSize/2
	if header != "" {
		drawer.Src = image.NewUniform(headerTextColor)
		drawCenteredText(drawer, header, centerX, origin.Y-30)
	}
	if turn != "" {
		drawer.Src = image.NewUniform(turnTextColor)
		drawCenteredText(drawer, turn, centerX, origin.Y-12)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

// squareRect maps a board square to pixels. Rank 8 is the top row unless flipped.
func squareRect(sq rules.Square, squareSize int, origin image.Point, flip bool) image.Rectangle {
	row, col := 7-sq.Rank, sq.File
	if flip {
		row, col = sq.Rank, 7-sq.File
	}
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func squareColor(sq rules.Square) color.Color {
	if (sq.File+sq.Rank)%2 == 0 {
		return darkSquare
	}
	return lightSquare
}
