// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging normalizes uploaded photos before they are stored:
// format sniffing, EXIF auto-orientation, downscaling and re-encoding.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// Errors returned by Normalize.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooLarge          = errors.New("image exceeds size limit")
)

// Defaults for a band website photo.
const (
	DefaultMaxDimension = 2560
	DefaultQuality      = 88

	// MaxPixels caps the decoded size. Headers are checked before the
	// pixel buffer is allocated.
	MaxPixels = 50_000_000
)

// Result is a normalized image ready for upload.
type Result struct {
	Data        []byte
	ContentType string
	Ext         string // extension matching ContentType, with dot
	Width       int
	Height      int
}

// Processor normalizes images.
type Processor struct {
	maxBytes     int64
	maxDimension int
	quality      int
}

// NewProcessor returns a Processor that rejects inputs over maxBytes.
func NewProcessor(maxBytes int64) *Processor {
	return &Processor{
		maxBytes:     maxBytes,
		maxDimension: DefaultMaxDimension,
		quality:      DefaultQuality,
	}
}

// Normalize reads r, rejects non-images and TIFF, applies the EXIF
// orientation, fits the image into the maximum dimension and encodes it
// again. EXIF metadata (GPS included) does not survive re-encoding.
func (p *Processor) Normalize(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if int64(len(data)) > p.maxBytes {
		return nil, ErrTooLarge
	}

	format := detectFormat(data)
	if format == "" {
		return nil, ErrUnsupportedFormat
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, ErrTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	b := img.Bounds()
	if b.Dx() > p.maxDimension || b.Dy() > p.maxDimension {
		img = imaging.Fit(img, p.maxDimension, p.maxDimension, imaging.Lanczos)
	}

	out, outFormat, err := encodeImage(img, format, p.quality)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	b = img.Bounds()
	return &Result{
		Data:        out,
		ContentType: "image/" + outFormat,
		Ext:         extensionFor(outFormat),
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

// readExifOrientation returns the EXIF orientation tag, or 1 (normal).
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation undoes the camera rotation described by EXIF values 2-8.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeImage writes img back in its source format. WebP has no pure Go
// encoder, so WebP input comes out as JPEG.
func encodeImage(img image.Image, format string, quality int) ([]byte, string, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		format = "jpeg"
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), format, nil
}

// detectFormat sniffs the image format. TIFF is refused
// (CVE-2023-36308 in disintegration/imaging).
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	switch {
	case strings.Contains(contentType, "tiff"):
		return ""
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

func extensionFor(format string) string {
	switch format {
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
