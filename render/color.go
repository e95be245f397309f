package render

import "image/color"

var categoryColors = []color.NRGBA{
	{R: 0xa4, G: 0x63, B: 0x3a, A: 0xff}, //#a4633a
	{R: 0x2b, G: 0x7f, B: 0xa8, A: 0xff}, //#2b7fa8
	{R: 0x51, G: 0x85, B: 0x4d, A: 0xff}, //#51854d
	{R: 0x97, G: 0x5f, B: 0x91, A: 0xff}, //#975f91
	{R: 0x85, G: 0x76, B: 0x25, A: 0xff}, //#857625
	{R: 0x72, G: 0x6c, B: 0xae, A: 0xff}, //#726cae
	{R: 0xff, A: 0xff},
	{G: 0xff, A: 0xff},
	{B: 0xff, A: 0xff},
	{R: 0xf0, G: 0xf0, A: 0xff},
}

// Palette holds every color a chart uses.
type Palette struct {
	Background color.NRGBA
	Grid       color.NRGBA
	Axis       color.NRGBA
	Label      color.NRGBA
	Crosshair  color.NRGBA
	Tooltip    color.NRGBA
	Categories []color.NRGBA
	// Heat levels from low to high, and the color of cells without data.
	Heat   [3]color.NRGBA
	NoData color.NRGBA
}

// DefaultPalette draws dark lines on a white background.
var DefaultPalette = Palette{
	Background: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	Grid:       color.NRGBA{A: 50},
	Axis:       color.NRGBA{A: 200},
	Label:      color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xff},
	Crosshair:  color.NRGBA{A: 120},
	Tooltip:    color.NRGBA{R: 0xf5, G: 0xf5, B: 0xf5, A: 0xee},
	Categories: categoryColors,
	Heat: [3]color.NRGBA{
		{R: 0xc6, G: 0xe4, B: 0xf2, A: 0xff},
		{R: 0x5a, G: 0xa5, B: 0xd1, A: 0xff},
		{R: 0x1b, G: 0x4f, B: 0x8a, A: 0xff},
	},
	NoData: color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff},
}

// Category returns the color of the category at index i of the legend.
func (p Palette) Category(i int) color.NRGBA {
	colors := p.Categories
	if len(colors) == 0 {
		colors = categoryColors
	}
	if i < 0 {
		i = 0
	}
	return colors[i%len(colors)]
}

// WithAlpha scales the alpha of c by a in [0,1].
func WithAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(float64(c.A) * clamp(a, 0, 1))
	return c
}
