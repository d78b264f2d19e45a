package detection

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var boxColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

const boxThickness = 3

// cloneImage copies the source frame into a mutable RGBA image so the
// original bytes are never drawn on.
func cloneImage(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}

// drawBox burns the detection's bounding box and a confidence label into
// the annotated frame.
func drawBox(img *image.RGBA, det RawDetection) {
	rect := image.Rect(det.X1, det.Y1, det.X2, det.Y2).Intersect(img.Bounds())
	if rect.Empty() {
		return
	}

	for t := 0; t < boxThickness; t++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			setIfInside(img, x, rect.Min.Y+t)
			setIfInside(img, x, rect.Max.Y-1-t)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			setIfInside(img, rect.Min.X+t, y)
			setIfInside(img, rect.Max.X-1-t, y)
		}
	}

	drawLabel(img, fmt.Sprintf("confidence:%.2f", det.Confidence), rect.Min.X, rect.Min.Y-10)
}

func setIfInside(img *image.RGBA, x, y int) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, boxColor)
	}
}

// drawLabel renders text at the given position using the fixed basicfont
// face. Labels that would start above the frame are pushed inside it.
func drawLabel(img *image.RGBA, text string, x, y int) {
	if y < img.Bounds().Min.Y+basicfont.Face7x13.Height {
		y = img.Bounds().Min.Y + basicfont.Face7x13.Height
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(boxColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
