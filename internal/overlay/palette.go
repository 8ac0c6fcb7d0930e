package overlay

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/multierr"

	"github.com/ayusman/handsign/internal/detector"
)

// Default palette colors.
const (
	DefaultPrimary   = "#00FF00"
	DefaultSecondary = "#FF0000"
	DefaultInk       = "#000000"
	DefaultAccent    = "#008000"
)

// Palette holds the overlay colors. Right hands use Primary for connectors and
// Secondary for landmark fill; left hands use the same two colors swapped.
type Palette struct {
	Primary   color.RGBA
	Secondary color.RGBA
	Ink       color.RGBA
	Accent    color.RGBA
}

// DefaultPalette returns green/red hands with black and green text.
func DefaultPalette() Palette {
	p, _ := ParsePalette(DefaultPrimary, DefaultSecondary, DefaultInk, DefaultAccent)
	return p
}

// ParsePalette builds a palette from hex colors such as "#00FF00".
func ParsePalette(primary, secondary, ink, accent string) (Palette, error) {
	var (
		p   Palette
		err error
	)
	p.Primary, err = appendHex(err, "primary", primary)
	p.Secondary, err = appendHex(err, "secondary", secondary)
	p.Ink, err = appendHex(err, "ink", ink)
	p.Accent, err = appendHex(err, "accent", accent)
	return p, err
}

func appendHex(errs error, name, hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, multierr.Append(errs, fmt.Errorf("%s color %q: %w", name, hex, err))
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, errs
}

// HandColors returns the connector and landmark fill colors for a hand.
func (p Palette) HandColors(side detector.Handedness) (connector, fill color.RGBA) {
	if side == detector.Right {
		return p.Primary, p.Secondary
	}
	return p.Secondary, p.Primary
}
