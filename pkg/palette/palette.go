// Package palette assigns colors to the meshes of a frame. Colors are
// generated in HSV with go-colorful so related parts share a hue.
package palette

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Part names, matching the PartName of the meshes they color.
const (
	partSurface    = "surface"
	partHandle     = "handle"
	partHandleOver = "handle-hover"
	partHandleDrag = "handle-drag"
	partHull       = "hull"
	partNet        = "net"
)

// Palette holds the color of each part.
type Palette struct {
	Background  color.RGBA
	Surface     color.RGBA
	Handle      color.RGBA
	HandleHover color.RGBA
	HandleDrag  color.RGBA
	Hull        color.RGBA
	Net         color.RGBA
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// hsv converts hue in degrees, saturation and value in [0, 1] and an
// alpha to RGBA.
func hsv(h, s, v float64, a uint8) color.RGBA {
	c := colorful.Hsv(h, clamp(s, 0, 1), clamp(v, 0, 1))
	red, green, blue := c.RGB255()
	return color.RGBA{R: red, G: green, B: blue, A: a}
}

// Lighten shifts the value of c by dv, keeping hue, saturation and alpha.
func Lighten(c color.RGBA, dv float64) color.RGBA {
	h, s, v := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hsv()
	return hsv(h, s, v+dv, c.A)
}

// Default returns the standard palette.
func Default() Palette {
	handle := hsv(40, 0.85, 0.8, 255)
	return Palette{
		Background:  hsv(220, 0.25, 0.12, 255),
		Surface:     hsv(205, 0.55, 0.75, 255),
		Handle:      handle,
		HandleHover: Lighten(handle, 0.2),
		HandleDrag:  hsv(0, 0.8, 0.95, 255),
		Hull:        hsv(130, 0.5, 0.8, 72),
		Net:         hsv(0, 0, 0.85, 255),
	}
}

// For returns the color of the named part. Unknown parts get the surface
// color.
func (p Palette) For(part string) color.RGBA {
	switch part {
	case partHandle:
		return p.Handle
	case partHandleOver:
		return p.HandleHover
	case partHandleDrag:
		return p.HandleDrag
	case partHull:
		return p.Hull
	case partNet:
		return p.Net
	}
	return p.Surface
}

// Float32 returns c as normalized RGBA components for shader uniforms.
func Float32(c color.RGBA) [4]float32 {
	return [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}
