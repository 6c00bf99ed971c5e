package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	// FreshTrackColor colors features that were just detected.
	FreshTrackColor = colorful.Color{R: 0, G: 0, B: 1}
	// MatureTrackColor colors features tracked for at least a full window.
	MatureTrackColor = colorful.Color{R: 1, G: 0, B: 0}
	// PredictionColor colors the hollow marker drawn at each predicted pixel.
	PredictionColor = color.RGBA{G: 255, A: 255}
)

// TrackMarker is one feature to draw on an overlay.
type TrackMarker struct {
	Pixel      r2.Point
	TrackCount int
}

// OverlayBand holds the markers of one camera. Band i covers rows [i*rows, (i+1)*rows) of the
// stacked intensity image, and marker coordinates are relative to the band.
type OverlayBand struct {
	Tracks    []TrackMarker
	Predicted []r2.Point
}

// TrackColor blends between FreshTrackColor and MatureTrackColor by min(1, trackCount/windowSize).
func TrackColor(trackCount, windowSize int) color.Color {
	ratio := 1.0
	if windowSize > 0 {
		ratio = math.Min(1, float64(trackCount)/float64(windowSize))
	}
	return FreshTrackColor.BlendRgb(MatureTrackColor, ratio).Clamped()
}

// DrawTrackOverlay returns a color copy of img with a dot per tracked feature and a hollow
// marker per predicted pixel.
func DrawTrackOverlay(img *image.Gray, rows, windowSize int, bands []OverlayBand) image.Image {
	dc := gg.NewContextForImage(img)
	for i, band := range bands {
		offset := float64(i * rows)
		for _, track := range band.Tracks {
			dc.SetColor(TrackColor(track.TrackCount, windowSize))
			dc.DrawCircle(track.Pixel.X, track.Pixel.Y+offset, 2)
			dc.SetLineWidth(2)
			dc.FillPreserve()
			dc.Stroke()
		}
		for _, p := range band.Predicted {
			dc.SetColor(PredictionColor)
			dc.DrawCircle(p.X, p.Y+offset, 1)
			dc.SetLineWidth(1)
			dc.Stroke()
		}
	}
	return dc.Image()
}
