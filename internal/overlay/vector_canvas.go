package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"gocv.io/x/gocv"
)

// VectorCanvas draws anti-aliased shapes and TrueType text with gg. It
// renders into an RGBA image and converts to a Mat on demand.
type VectorCanvas struct {
	dc    *gg.Context
	ttf   *truetype.Font
	faces map[float64]font.Face
	mat   gocv.Mat
}

// NewVectorCanvas creates a blank canvas using the Go regular font.
func NewVectorCanvas(width, height int) (*VectorCanvas, error) {
	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &VectorCanvas{
		dc:    gg.NewContext(width, height),
		ttf:   ttf,
		faces: make(map[float64]font.Face),
		mat:   gocv.NewMat(),
	}, nil
}

func (c *VectorCanvas) Resize(width, height int) {
	if width == c.dc.Width() && height == c.dc.Height() {
		return
	}
	c.dc = gg.NewContext(width, height)
}

func (c *VectorCanvas) Size() (int, int) {
	return c.dc.Width(), c.dc.Height()
}

func (c *VectorCanvas) Clear() {
	c.dc.SetColor(color.Black)
	c.dc.Clear()
}

func (c *VectorCanvas) DrawImage(img *gocv.Mat) {
	if img == nil || img.Empty() {
		return
	}
	src, err := img.ToImage()
	if err != nil {
		return
	}

	b := src.Bounds()
	c.dc.Push()
	c.dc.Scale(float64(c.dc.Width())/float64(b.Dx()), float64(c.dc.Height())/float64(b.Dy()))
	c.dc.DrawImage(src, 0, 0)
	c.dc.Pop()
}

func (c *VectorCanvas) Line(from, to image.Point, col color.RGBA, thickness int) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(float64(thickness))
	c.dc.DrawLine(float64(from.X), float64(from.Y), float64(to.X), float64(to.Y))
	c.dc.Stroke()
}

func (c *VectorCanvas) Circle(center image.Point, radius float64, stroke, fill color.RGBA, thickness int) {
	if radius <= 0 {
		return
	}
	c.dc.DrawCircle(float64(center.X), float64(center.Y), radius)
	c.dc.SetColor(fill)
	if thickness <= 0 {
		c.dc.Fill()
		return
	}
	c.dc.FillPreserve()
	c.dc.SetColor(stroke)
	c.dc.SetLineWidth(float64(thickness))
	c.dc.Stroke()
}

func (c *VectorCanvas) Text(text string, at image.Point, col color.RGBA, size float64) {
	face, ok := c.faces[size]
	if !ok {
		face = truetype.NewFace(c.ttf, &truetype.Options{Size: size})
		c.faces[size] = face
	}
	c.dc.SetFontFace(face)
	c.dc.SetColor(col)
	c.dc.DrawStringAnchored(text, float64(at.X), float64(at.Y), 0, 1)
}

// Image returns the live RGBA surface.
func (c *VectorCanvas) Image() image.Image {
	return c.dc.Image()
}

// Mat converts the surface to BGR. The returned Mat is reused by later calls.
func (c *VectorCanvas) Mat() *gocv.Mat {
	mat, err := gocv.ImageToMatRGB(c.dc.Image())
	if err != nil {
		return nil
	}
	c.mat.Close()
	c.mat = mat
	return &c.mat
}

func (c *VectorCanvas) Close() error {
	for size, face := range c.faces {
		face.Close()
		delete(c.faces, size)
	}
	return c.mat.Close()
}
