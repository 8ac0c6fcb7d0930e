package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Canvas is a drawing surface. Coordinates are pixels with the origin at the
// top left.
type Canvas interface {
	// Resize reallocates the surface; contents are lost.
	Resize(width, height int)
	Size() (width, height int)
	// Clear wipes the whole surface.
	Clear()
	// DrawImage paints img stretched over the whole surface.
	DrawImage(img *gocv.Mat)
	Line(from, to image.Point, c color.RGBA, thickness int)
	// Circle fills a disc and strokes its outline. Non-positive radii draw nothing.
	Circle(center image.Point, radius float64, stroke, fill color.RGBA, thickness int)
	// Text draws left/top aligned text of the given pixel size.
	Text(text string, at image.Point, c color.RGBA, size float64)
	// Mat returns the surface as a BGR image for display or encoding.
	Mat() *gocv.Mat
	Close() error
}

// Encode compresses the canvas with the codec for ext, e.g. gocv.JPEGFileExt.
func Encode(c Canvas, ext gocv.FileExt) ([]byte, error) {
	mat := c.Mat()
	if mat == nil || mat.Empty() {
		return nil, nil
	}
	buf, err := gocv.IMEncode(ext, *mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
