package branding

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Normalize strips a data-URL prefix from a base64 image payload. Clients may
// send either bare base64 or "data:image/jpeg;base64,...".
func Normalize(s string) string {
	if idx := strings.IndexByte(s, ','); idx >= 0 && strings.HasPrefix(s, "data:") {
		return s[idx+1:]
	}
	return s
}

// Stamp draws the watermark text into the bottom-right corner of a
// base64-encoded JPEG and returns the branded image. Stamping is a
// best-effort post-process: any failure returns the input unchanged.
func Stamp(b64, text string) string {
	if text == "" {
		text = "Everyday Mirror"
	}
	raw, err := base64.StdEncoding.DecodeString(Normalize(b64))
	if err != nil {
		return b64
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return b64
	}

	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Src)

	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	padding := bounds.Dx() / 20
	if padding < 16 {
		padding = 16
	}
	x := bounds.Max.X - padding - width
	y := bounds.Max.Y - padding
	if x < bounds.Min.X || y < bounds.Min.Y {
		return b64
	}

	drawer := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 102}),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, canvas, &jpeg.Options{Quality: 90}); err != nil {
		return b64
	}
	return base64.StdEncoding.EncodeToString(out.Bytes())
}
