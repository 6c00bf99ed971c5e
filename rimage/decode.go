package rimage

import (
	"bytes"
	"image"
	"image/draw"
	// register the formats carried by compressed image streams.
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/pkg/errors"
)

// CompressedDepthHeaderSize is the size of the configuration header that precedes the PNG
// payload of a compressedDepth transport message.
const CompressedDepthHeaderSize = 12

// DecodeCompressedDepth skips the fixed header of a compressedDepth payload and decodes the
// remaining 16 bit PNG into a DepthMap. On failure the returned map is empty (never nil), so
// callers can keep going and treat every depth sample as invalid.
func DecodeCompressedDepth(payload []byte) (*DepthMap, error) {
	empty := NewEmptyDepthMap(0, 0)
	if len(payload) <= CompressedDepthHeaderSize {
		return empty, errors.Errorf("compressed depth payload too short (%d bytes)", len(payload))
	}
	img, err := png.Decode(bytes.NewReader(payload[CompressedDepthHeaderSize:]))
	if err != nil {
		return empty, errors.Wrap(err, "cannot decode compressed depth payload")
	}
	dm, err := ConvertImageToDepthMap(img)
	if err != nil {
		return empty, err
	}
	return dm, nil
}

// EncodeCompressedDepth is the inverse of DecodeCompressedDepth. The header is zero filled.
func EncodeCompressedDepth(dm *DepthMap) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(make([]byte, CompressedDepthHeaderSize))
	gray := image.NewGray16(dm.Bounds())
	draw.Draw(gray, gray.Bounds(), dm, image.Point{}, draw.Src)
	if err := png.Encode(&buf, gray); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeGray decodes a JPEG or PNG payload into an 8 bit grayscale image.
func DecodeGray(payload []byte) (*image.Gray, error) {
	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "cannot decode image payload")
	}
	return MakeGray(img), nil
}

// MakeGray converts an image to grayscale, reusing it when it already is.
func MakeGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}

// RowBand returns rows [index*rows, (index+1)*rows) of a vertically stacked multi camera
// image, re-based so the band's origin is (0, 0).
func RowBand(img *image.Gray, index, rows int) (*image.Gray, error) {
	bounds := img.Bounds()
	band := image.Rect(bounds.Min.X, bounds.Min.Y+index*rows, bounds.Max.X, bounds.Min.Y+(index+1)*rows)
	if !band.In(bounds) {
		return nil, errors.Errorf("row band %d (%d rows) outside of image bounds %v", index, rows, bounds)
	}
	sub, ok := img.SubImage(band).(*image.Gray)
	if !ok {
		return nil, errors.New("unexpected sub image type")
	}
	return &image.Gray{
		Pix:    sub.Pix,
		Stride: sub.Stride,
		Rect:   image.Rect(0, 0, band.Dx(), band.Dy()),
	}, nil
}

// ReadGrayFile reads an image file, such as a fisheye mask, as grayscale.
func ReadGrayFile(path string) (*image.Gray, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read image %q", path)
	}
	img, err := DecodeGray(data)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode image %q", path)
	}
	return img, nil
}
