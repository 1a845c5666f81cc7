package sink

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/matzehuels/chartsnap/pkg/errors"
)

// Format is an artifact file format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
	FormatSVG  Format = "svg"
)

// DefaultJPEGQuality is used when no quality is configured.
const DefaultJPEGQuality = 92

// ParseFormat accepts png, jpg/jpeg and svg in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "svg":
		return FormatSVG, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (want png, jpg or svg)", s)
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	return string(f)
}

// IsRaster reports whether the format is a bitmap format.
func (f Format) IsRaster() bool {
	return f == FormatPNG || f == FormatJPEG
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatSVG:
		return "image/svg+xml"
	}
	return "application/octet-stream"
}

// Encode encodes a raster surface. quality applies to JPEG only; values
// outside 1..100 use [DefaultJPEGQuality].
func Encode(img image.Image, f Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch f {
	case FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
		}
	case FormatJPEG:
		if quality < 1 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode jpeg")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%q is not a raster format", f)
	}
	return buf.Bytes(), nil
}
