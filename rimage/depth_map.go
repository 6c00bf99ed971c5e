package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// Depth is the depth reading of a single pixel, in the sensor's native unit (millimeters for
// the usual 16UC1 streams).
type Depth uint16

// MaxDepth is the largest representable depth value.
const MaxDepth = Depth(math.MaxUint16)

// DepthMap fulfills the image.Image interface and represents the depth information of a scene
// as a 16 bit grayscale image.
type DepthMap struct {
	width  int
	height int

	data []Depth
}

// NewEmptyDepthMap returns an unset depth map with the given dimensions.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]Depth, width*height),
	}
}

// ConvertImageToDepthMap takes a 16 bit grayscale image and returns a DepthMap.
func ConvertImageToDepthMap(img image.Image) (*DepthMap, error) {
	switch ii := img.(type) {
	case *DepthMap:
		return ii, nil
	case *image.Gray16:
		bounds := ii.Bounds()
		dm := NewEmptyDepthMap(bounds.Dx(), bounds.Dy())
		for y := 0; y < dm.height; y++ {
			for x := 0; x < dm.width; x++ {
				dm.Set(x, y, Depth(ii.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y))
			}
		}
		return dm, nil
	default:
		return nil, errors.Errorf("don't know how to make DepthMap from %T", img)
	}
}

// HasData reports whether the depth map holds any pixels. Maps produced from undecodable
// payloads have none.
func (dm *DepthMap) HasData() bool {
	return dm != nil && dm.width > 0 && dm.height > 0 && len(dm.data) == dm.width*dm.height
}

// Width returns the horizontal dimension of the depth map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the vertical dimension of the depth map.
func (dm *DepthMap) Height() int {
	return dm.height
}

func (dm *DepthMap) kxy(x, y int) int {
	return (y * dm.width) + x
}

// Contains returns whether or not a point is within bounds of the depth map.
func (dm *DepthMap) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < dm.width && y < dm.height
}

// GetDepth returns the depth value at the given x,y coordinate. The coordinate must be in bounds.
func (dm *DepthMap) GetDepth(x, y int) Depth {
	return dm.data[dm.kxy(x, y)]
}

// Set sets the depth at a given x,y coordinate.
func (dm *DepthMap) Set(x, y int, val Depth) {
	dm.data[dm.kxy(x, y)] = val
}

// SampleNearest returns the depth of the pixel nearest to p, that is the one at
// (round(p.X), round(p.Y)). ok is false when the map has no data or the rounded coordinate
// falls outside of it.
func (dm *DepthMap) SampleNearest(p r2.Point) (Depth, bool) {
	if !dm.HasData() || math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return 0, false
	}
	x, y := int(math.Round(p.X)), int(math.Round(p.Y))
	if !dm.Contains(x, y) {
		return 0, false
	}
	return dm.GetDepth(x, y), true
}

// ColorModel for DepthMap so that it implements image.Image.
func (dm *DepthMap) ColorModel() color.Model { return color.Gray16Model }

// Bounds for DepthMap so that it implements image.Image.
func (dm *DepthMap) Bounds() image.Rectangle { return image.Rect(0, 0, dm.width, dm.height) }

// At for DepthMap so that it implements image.Image.
func (dm *DepthMap) At(x, y int) color.Color {
	if !dm.Contains(x, y) {
		return color.Gray16{}
	}
	return color.Gray16{uint16(dm.GetDepth(x, y))}
}
