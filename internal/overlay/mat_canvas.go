package overlay

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// MatCanvas draws with OpenCV onto a BGR Mat.
type MatCanvas struct {
	mat    gocv.Mat
	width  int
	height int
	font   gocv.HersheyFont
}

// NewMatCanvas creates a blank canvas.
func NewMatCanvas(width, height int) *MatCanvas {
	c := &MatCanvas{font: gocv.FontHersheySimplex}
	c.mat = gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	c.width, c.height = width, height
	return c
}

func (c *MatCanvas) Resize(width, height int) {
	if width == c.width && height == c.height {
		return
	}
	c.mat.Close()
	c.mat = gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	c.width, c.height = width, height
}

func (c *MatCanvas) Size() (int, int) {
	return c.width, c.height
}

func (c *MatCanvas) Clear() {
	c.mat.SetTo(gocv.NewScalar(0, 0, 0, 0))
}

func (c *MatCanvas) DrawImage(img *gocv.Mat) {
	if img == nil || img.Empty() {
		return
	}

	src := *img
	switch img.Channels() {
	case 1:
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(*img, &bgr, gocv.ColorGrayToBGR)
		src = bgr
	case 4:
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(*img, &bgr, gocv.ColorBGRAToBGR)
		src = bgr
	}

	gocv.Resize(src, &c.mat, image.Pt(c.width, c.height), 0, 0, gocv.InterpolationLinear)
}

func (c *MatCanvas) Line(from, to image.Point, col color.RGBA, thickness int) {
	gocv.Line(&c.mat, from, to, col, thickness)
}

func (c *MatCanvas) Circle(center image.Point, radius float64, stroke, fill color.RGBA, thickness int) {
	r := int(math.Round(radius))
	if r <= 0 {
		return
	}
	gocv.Circle(&c.mat, center, r, fill, -1)
	if thickness > 0 {
		gocv.Circle(&c.mat, center, r, stroke, thickness)
	}
}

func (c *MatCanvas) Text(text string, at image.Point, col color.RGBA, size float64) {
	const thickness = 2
	scale := gocv.GetFontScaleFromHeight(c.font, int(size), thickness)
	extent, _ := gocv.GetTextSizeWithBaseline(text, c.font, scale, thickness)
	// PutText anchors at the baseline; shift down so at is the top edge.
	origin := image.Pt(at.X, at.Y+extent.Y)
	gocv.PutText(&c.mat, text, origin, c.font, scale, col, thickness)
}

func (c *MatCanvas) Mat() *gocv.Mat {
	return &c.mat
}

func (c *MatCanvas) Close() error {
	return c.mat.Close()
}
