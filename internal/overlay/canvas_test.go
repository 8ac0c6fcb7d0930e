package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/gesture"
)

func whiteFrame(t *testing.T, w, h int) *gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), h, w, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })
	return &mat
}

// bgrAt reads a pixel as RGBA from a BGR Mat.
func bgrAt(m *gocv.Mat, x, y int) color.RGBA {
	v := m.GetVecbAt(y, x)
	return color.RGBA{R: v[2], G: v[1], B: v[0], A: 0xff}
}

func TestMatCanvas(t *testing.T) {
	c := NewMatCanvas(200, 100)
	defer c.Close()

	w, h := c.Size()
	assert.Equal(t, 200, w)
	assert.Equal(t, 100, h)

	c.Clear()
	c.DrawImage(whiteFrame(t, 40, 20))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, bgrAt(c.Mat(), 150, 80), "image is stretched over the surface")

	c.Circle(image.Pt(50, 50), 10, green, red, 1)
	assert.Equal(t, red, bgrAt(c.Mat(), 50, 50))

	c.Clear()
	c.Circle(image.Pt(50, 50), -3, green, red, 1)
	assert.Equal(t, color.RGBA{A: 255}, bgrAt(c.Mat(), 50, 50), "negative radius draws nothing")

	c.Line(image.Pt(0, 10), image.Pt(199, 10), green, 3)
	assert.Equal(t, green, bgrAt(c.Mat(), 100, 10))

	c.Resize(64, 48)
	w, h = c.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)
	assert.Equal(t, 64, c.Mat().Cols())
}

func TestMatCanvas_TextIsTopAligned(t *testing.T) {
	c := NewMatCanvas(400, 200)
	defer c.Close()
	c.Clear()

	c.Text("1", image.Pt(50, 0), green, 60)

	region := c.Mat().Region(image.Rect(0, 0, 400, 70))
	defer region.Close()
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(region, &gray, gocv.ColorBGRToGray)
	assert.Positive(t, gocv.CountNonZero(gray), "text is drawn just below the anchor")
}

func TestVectorCanvas(t *testing.T) {
	c, err := NewVectorCanvas(200, 100)
	require.NoError(t, err)
	defer c.Close()

	c.Clear()
	c.Circle(image.Pt(50, 50), 10, green, red, 1)
	r, g, b, _ := c.Image().At(50, 50).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)

	c.Text("91.00%", image.Pt(120, 60), green, 24)
	mat := c.Mat()
	require.NotNil(t, mat)
	assert.Equal(t, 200, mat.Cols())
	assert.Equal(t, 100, mat.Rows())
	assert.Equal(t, red, bgrAt(mat, 50, 50))

	c.Resize(80, 60)
	w, h := c.Size()
	assert.Equal(t, 80, w)
	assert.Equal(t, 60, h)
}

func TestEncode(t *testing.T) {
	c := NewMatCanvas(64, 48)
	defer c.Close()

	r := NewRenderer(DefaultPalette())
	label := gesture.Classification{ClassIndex: 0, Probability: 0.99}
	r.Render(c, Frame{Image: whiteFrame(t, 32, 24), Hands: []detector.Hand{detector.OpenPalm(detector.Left)}, Label: &label})

	data, err := Encode(c, gocv.JPEGFileExt)
	require.NoError(t, err)
	require.Greater(t, len(data), 2)
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2])

	data, err = Encode(NewRecordingCanvas(10, 10), gocv.JPEGFileExt)
	assert.NoError(t, err)
	assert.Nil(t, data)
}
