package rimage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestSampleNearest(t *testing.T) {
	dm := NewEmptyDepthMap(4, 3)
	dm.Set(2, 1, 1234)
	dm.Set(3, 2, 99)

	d, ok := dm.SampleNearest(r2.Point{X: 1.6, Y: 0.5})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d, test.ShouldEqual, Depth(1234))

	d, ok = dm.SampleNearest(r2.Point{X: 3.4, Y: 2.2})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d, test.ShouldEqual, Depth(99))

	for _, p := range []r2.Point{{X: -0.6, Y: 0}, {X: 3.5, Y: 0}, {X: 0, Y: 2.5}, {X: math.NaN(), Y: 1}} {
		_, ok = dm.SampleNearest(p)
		test.That(t, ok, test.ShouldBeFalse)
	}

	_, ok = NewEmptyDepthMap(0, 0).SampleNearest(r2.Point{})
	test.That(t, ok, test.ShouldBeFalse)
	var nilMap *DepthMap
	_, ok = nilMap.SampleNearest(r2.Point{})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestCompressedDepthRoundTrip(t *testing.T) {
	dm := NewEmptyDepthMap(5, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			dm.Set(x, y, Depth(1000*y+x))
		}
	}
	payload, err := EncodeCompressedDepth(dm)
	test.That(t, err, test.ShouldBeNil)

	decoded, err := DecodeCompressedDepth(payload)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded.Width(), test.ShouldEqual, 5)
	test.That(t, decoded.Height(), test.ShouldEqual, 4)
	test.That(t, decoded.GetDepth(3, 2), test.ShouldEqual, Depth(2003))
}

func TestDecodeCompressedDepthInvalid(t *testing.T) {
	dm, err := DecodeCompressedDepth([]byte{1, 2, 3})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, dm, test.ShouldNotBeNil)
	test.That(t, dm.HasData(), test.ShouldBeFalse)

	dm, err = DecodeCompressedDepth(append(make([]byte, CompressedDepthHeaderSize), []byte("not a png")...))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, dm.HasData(), test.ShouldBeFalse)

	// an 8 bit png is not a depth image
	var buf bytes.Buffer
	buf.Write(make([]byte, CompressedDepthHeaderSize))
	test.That(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))), test.ShouldBeNil)
	dm, err = DecodeCompressedDepth(buf.Bytes())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, dm.HasData(), test.ShouldBeFalse)
}

func TestDecodeGrayAndRowBand(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 3, 4))
	rgba.Set(1, 3, color.RGBA{255, 255, 255, 255})
	var buf bytes.Buffer
	test.That(t, png.Encode(&buf, rgba), test.ShouldBeNil)

	gray, err := DecodeGray(buf.Bytes())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gray.Bounds(), test.ShouldResemble, image.Rect(0, 0, 3, 4))
	test.That(t, gray.GrayAt(1, 3).Y, test.ShouldEqual, uint8(255))

	band, err := RowBand(gray, 1, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, band.Bounds(), test.ShouldResemble, image.Rect(0, 0, 3, 2))
	test.That(t, band.GrayAt(1, 1).Y, test.ShouldEqual, uint8(255))
	test.That(t, band.GrayAt(1, 0).Y, test.ShouldEqual, uint8(0))

	_, err = RowBand(gray, 2, 2)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = DecodeGray([]byte("garbage"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTrackColorAndOverlay(t *testing.T) {
	r, g, b, _ := TrackColor(0, 20).RGBA()
	test.That(t, r, test.ShouldEqual, uint32(0))
	test.That(t, g, test.ShouldEqual, uint32(0))
	test.That(t, b, test.ShouldEqual, uint32(0xffff))

	r, _, b, _ = TrackColor(40, 20).RGBA()
	test.That(t, r, test.ShouldEqual, uint32(0xffff))
	test.That(t, b, test.ShouldEqual, uint32(0))

	img := image.NewGray(image.Rect(0, 0, 20, 40))
	out := DrawTrackOverlay(img, 20, 20, []OverlayBand{
		{Tracks: []TrackMarker{{Pixel: r2.Point{X: 10, Y: 10}, TrackCount: 20}}},
		{Predicted: []r2.Point{{X: 5, Y: 5}}},
	})
	test.That(t, out.Bounds(), test.ShouldResemble, img.Bounds())
	cr, _, cb, _ := out.At(10, 10).RGBA()
	test.That(t, cr, test.ShouldBeGreaterThan, cb)
}

func checkerboard(size int, even, odd uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := even
			if (x+y)%2 == 1 {
				v = odd
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestEqualizeAdaptive(t *testing.T) {
	img := checkerboard(16, 100, 110)
	out := EqualizeAdaptive(img, 2, 2, 0)
	test.That(t, out.Bounds(), test.ShouldResemble, img.Bounds())
	for _, p := range []image.Point{{0, 0}, {7, 9}, {15, 15}} {
		test.That(t, out.GrayAt(p.X, p.Y).Y, test.ShouldEqual, uint8(128))
	}
	for _, p := range []image.Point{{1, 0}, {8, 9}, {14, 15}} {
		test.That(t, out.GrayAt(p.X, p.Y).Y, test.ShouldEqual, uint8(255))
	}
	// input untouched
	test.That(t, img.GrayAt(1, 0).Y, test.ShouldEqual, uint8(110))

	// clipping limits how far the two levels are pulled apart
	clipped := EqualizeAdaptive(img, 2, 2, DefaultEqualizeClipLimit)
	test.That(t, clipped.GrayAt(0, 0).Y, test.ShouldEqual, uint8(251))
	test.That(t, clipped.GrayAt(1, 0).Y, test.ShouldEqual, uint8(255))
}

func TestEqualizeAdaptiveUniform(t *testing.T) {
	flat := image.NewGray(image.Rect(0, 0, 20, 12))
	for i := range flat.Pix {
		flat.Pix[i] = 42
	}
	out := EqualizeAdaptive(flat, DefaultEqualizeTiles, DefaultEqualizeTiles, DefaultEqualizeClipLimit)
	want := out.GrayAt(0, 0).Y
	for y := 0; y < 12; y++ {
		for x := 0; x < 20; x++ {
			test.That(t, out.GrayAt(x, y).Y, test.ShouldEqual, want)
		}
	}

	small := EqualizeAdaptive(image.NewGray(image.Rect(0, 0, 3, 2)), DefaultEqualizeTiles, DefaultEqualizeTiles, 0)
	test.That(t, small.Bounds(), test.ShouldResemble, image.Rect(0, 0, 3, 2))
	test.That(t, EqualizeAdaptive(image.NewGray(image.Rectangle{}), 8, 8, 3).Bounds().Empty(), test.ShouldBeTrue)
}

func TestReadGrayFile(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 3, 2))
	mask.SetGray(2, 1, color.Gray{Y: 255})
	path := filepath.Join(t.TempDir(), "mask.png")
	f, err := os.Create(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, png.Encode(f, mask), test.ShouldBeNil)
	test.That(t, f.Close(), test.ShouldBeNil)

	read, err := ReadGrayFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read.Bounds(), test.ShouldResemble, mask.Bounds())
	test.That(t, read.GrayAt(2, 1).Y, test.ShouldEqual, uint8(255))
	test.That(t, read.GrayAt(0, 0).Y, test.ShouldEqual, uint8(0))

	_, err = ReadGrayFile(filepath.Join(t.TempDir(), "missing.png"))
	test.That(t, err, test.ShouldNotBeNil)
}
