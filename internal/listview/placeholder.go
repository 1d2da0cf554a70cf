package listview

import (
	"image"
	"image/color"
)

// Placeholder is the icon shown while a venue icon loads or when it cannot
// be fetched: a filled circle mask, tinted like any other icon.
func Placeholder(size int) *image.Alpha {
	img := image.NewAlpha(image.Rect(0, 0, size, size))
	r := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - r
			dy := float64(y) + 0.5 - r
			if dx*dx+dy*dy <= r*r {
				img.SetAlpha(x, y, color.Alpha{A: 0xff})
			}
		}
	}
	return img
}
