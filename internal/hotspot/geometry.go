// Package hotspot maps taps on a letterboxed image onto image space and
// decides whether they land inside a circular hotspot.
package hotspot

import "math"

// MarkerSizeFraction scales the drawn marker relative to the smaller rendered side.
const MarkerSizeFraction = 0.05

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area is a hotspot centred at X,Y (fractions of the original image).
// Radius is in image-pixel-equivalent units and is normalised by the rendered
// width before comparison.
type Area struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Radius float64 `json:"radius" yaml:"radius"`
}

// Geometry is the rectangle an image occupies after a contain fit.
type Geometry struct {
	RenderedWidth  float64 `json:"renderedWidth"`
	RenderedHeight float64 `json:"renderedHeight"`
	OffsetX        float64 `json:"offsetX"`
	OffsetY        float64 `json:"offsetY"`
}

// Marker is where a hotspot indicator is drawn, in container pixels.
type Marker struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

// ComputeRenderedGeometry fits original inside container without cropping or
// stretching. It reports false when either size is zero, negative or unknown.
func ComputeRenderedGeometry(container, original Size) (Geometry, bool) {
	if !positive(container) || !positive(original) {
		return Geometry{}, false
	}

	imageRatio := original.Width / original.Height
	containerRatio := container.Width / container.Height

	var g Geometry
	if imageRatio > containerRatio {
		g.RenderedWidth = container.Width
		g.RenderedHeight = container.Width / imageRatio
		g.OffsetY = (container.Height - g.RenderedHeight) / 2
	} else {
		g.RenderedHeight = container.Height
		g.RenderedWidth = container.Height * imageRatio
		g.OffsetX = (container.Width - g.RenderedWidth) / 2
	}
	return g, true
}

// PointToImageSpace converts a container-local tap to fractional image
// coordinates. ok is false when the tap falls in the letterbox margin.
func PointToImageSpace(x, y float64, g Geometry) (u, v float64, ok bool) {
	if g.RenderedWidth <= 0 || g.RenderedHeight <= 0 {
		return 0, 0, false
	}
	if x < g.OffsetX || y < g.OffsetY ||
		x > g.OffsetX+g.RenderedWidth || y > g.OffsetY+g.RenderedHeight {
		return 0, 0, false
	}
	return (x - g.OffsetX) / g.RenderedWidth, (y - g.OffsetY) / g.RenderedHeight, true
}

// IsInHotspot reports whether the tap at x,y lands inside area.
//
// Distance is measured in normalised image space on both axes while the radius
// is normalised by the rendered width only, so the hit region is slightly
// elliptical for non-square images. Existing level data is tuned to this.
func IsInHotspot(x, y float64, area Area, g Geometry) bool {
	u, v, ok := PointToImageSpace(x, y, g)
	if !ok {
		return false
	}
	r := area.Radius / g.RenderedWidth
	du, dv := u-area.X, v-area.Y
	return du*du+dv*dv <= r*r
}

// ComputeMarkerPosition maps the hotspot centre back to container pixels.
func ComputeMarkerPosition(area Area, g Geometry) Marker {
	return Marker{
		X:    area.X*g.RenderedWidth + g.OffsetX,
		Y:    area.Y*g.RenderedHeight + g.OffsetY,
		Size: math.Min(g.RenderedWidth, g.RenderedHeight) * MarkerSizeFraction,
	}
}

func positive(s Size) bool {
	return s.Width > 0 && s.Height > 0 &&
		!math.IsNaN(s.Width) && !math.IsNaN(s.Height) &&
		!math.IsInf(s.Width, 0) && !math.IsInf(s.Height, 0)
}
