package book

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"log/slog"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	coverWidth   = 600
	coverHeight  = 800
	bannerHeight = 80
)

var (
	coverBackground = color.RGBA{R: 0x1f, G: 0x2d, B: 0x3d, A: 0xff}
	bannerColor     = color.RGBA{R: 0x00, G: 0x55, B: 0xa5, A: 0xff}
)

// ComposeCover builds the bundle cover: up to four lead images arranged in a
// 2x2 grid with a title banner at the bottom. With no usable images the cover
// degrades to a solid background with the same banner. It never fails short
// of a JPEG encoding error.
func ComposeCover(images [][]byte, title string) ([]byte, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, coverWidth, coverHeight))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(coverBackground), image.Point{}, draw.Src)

	cellW := coverWidth / 2
	cellH := (coverHeight - bannerHeight) / 2

	cell := 0
	for _, data := range images {
		if cell >= 4 {
			break
		}

		src, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			slog.Debug("Skipping undecodable cover image", "error", err)
			continue
		}

		col := cell % 2
		row := cell / 2
		rect := image.Rect(col*cellW, row*cellH, (col+1)*cellW, (row+1)*cellH)
		xdraw.ApproxBiLinear.Scale(canvas, rect, src, src.Bounds(), xdraw.Src, nil)
		cell++
	}

	banner := image.Rect(0, coverHeight-bannerHeight, coverWidth, coverHeight)
	draw.Draw(canvas, banner, image.NewUniform(bannerColor), image.Point{}, draw.Src)

	drawBannerTitle(canvas, title)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func drawBannerTitle(canvas *image.RGBA, title string) {
	face := basicfont.Face7x13

	width := font.MeasureString(face, title).Ceil()
	x := (coverWidth - width) / 2
	if x < 10 {
		x = 10
	}

	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(x, coverHeight-bannerHeight/2+face.Height/2),
	}
	d.DrawString(title)
}
