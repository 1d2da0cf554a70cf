package imagecache

import (
	"image"
	"image/color"
	"image/draw"
)

// Template extracts the alpha channel of img. Icons are drawn as templates:
// the shape comes from alpha and the color is supplied at render time.
func Template(img image.Image) *image.Alpha {
	b := img.Bounds()
	mask := image.NewAlpha(b)
	draw.Draw(mask, b, img, b.Min, draw.Src)
	return mask
}

// Tint paints c through mask, producing a recolored icon.
func Tint(mask *image.Alpha, c color.Color) *image.NRGBA {
	b := mask.Bounds()
	out := image.NewNRGBA(b)
	draw.DrawMask(out, b, image.NewUniform(c), image.Point{}, mask, b.Min, draw.Over)
	return out
}
