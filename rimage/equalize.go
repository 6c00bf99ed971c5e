package rimage

import (
	"image"
	"math"
)

// Parameters used for intensity images when equalization is enabled.
const (
	DefaultEqualizeTiles     = 8
	DefaultEqualizeClipLimit = 3.0
)

// EqualizeAdaptive returns a contrast limited, adaptively equalized copy of img. The image is
// split into a tilesX by tilesY grid; each tile gets its own cumulative histogram lookup table,
// with every histogram bin clipped to clipLimit times the mean bin height and the excess spread
// evenly over all bins. Pixels are mapped by bilinear interpolation between the tables of the
// four nearest tile centers. A clipLimit of zero or less disables clipping.
func EqualizeAdaptive(img *image.Gray, tilesX, tilesY int, clipLimit float64) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return out
	}

	tileW, tilesX := tileSize(width, tilesX)
	tileH, tilesY := tileSize(height, tilesY)

	luts := make([][256]float64, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			tile := image.Rect(tx*tileW, ty*tileH, min((tx+1)*tileW, width), min((ty+1)*tileH, height)).Add(bounds.Min)
			luts[ty*tilesX+tx] = tileLUT(img, tile, clipLimit)
		}
	}

	for y := 0; y < height; y++ {
		ty1, ty2, ya := neighbors(y, tileH, tilesY)
		for x := 0; x < width; x++ {
			tx1, tx2, xa := neighbors(x, tileW, tilesX)
			v := img.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y
			top := luts[ty1*tilesX+tx1][v]*(1-xa) + luts[ty1*tilesX+tx2][v]*xa
			bottom := luts[ty2*tilesX+tx1][v]*(1-xa) + luts[ty2*tilesX+tx2][v]*xa
			res := math.Round(top*(1-ya) + bottom*ya)
			out.Pix[out.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)] = uint8(math.Max(0, math.Min(255, res)))
		}
	}
	return out
}

// tileSize returns the side of a tile and the number of non-empty tiles along one axis.
func tileSize(length, tiles int) (int, int) {
	tiles = max(1, min(tiles, length))
	size := (length + tiles - 1) / tiles
	return size, (length + size - 1) / size
}

// neighbors returns the two tiles whose centers surround pos and the weight of the second.
func neighbors(pos, size, tiles int) (int, int, float64) {
	f := (float64(pos)+0.5)/float64(size) - 0.5
	first := int(math.Floor(f))
	weight := f - float64(first)
	second := first + 1
	if first < 0 {
		first = 0
	}
	if second > tiles-1 {
		second = tiles - 1
	}
	return first, second, weight
}

func tileLUT(img *image.Gray, tile image.Rectangle, clipLimit float64) [256]float64 {
	var hist [256]int
	for y := tile.Min.Y; y < tile.Max.Y; y++ {
		for x := tile.Min.X; x < tile.Max.X; x++ {
			hist[img.GrayAt(x, y).Y]++
		}
	}
	area := tile.Dx() * tile.Dy()

	if clipLimit > 0 {
		limit := max(1, int(clipLimit*float64(area)/256))
		excess := 0
		for i, count := range hist {
			if count > limit {
				excess += count - limit
				hist[i] = limit
			}
		}
		spread := excess / 256
		residual := excess - spread*256
		for i := range hist {
			hist[i] += spread
			if i < residual {
				hist[i]++
			}
		}
	}

	var lut [256]float64
	scale := 255 / float64(area)
	cdf := 0
	for i, count := range hist {
		cdf += count
		lut[i] = math.Min(255, math.Round(float64(cdf)*scale))
	}
	return lut
}
