// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

// createTestImage creates a simple test image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestNormalize_PNG(t *testing.T) {
	p := NewProcessor(10 << 20)

	res, err := p.Normalize(bytes.NewReader(encodePNG(t, createTestImage(40, 20))))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if res.ContentType != "image/png" || res.Ext != ".png" {
		t.Errorf("ContentType/Ext = %s/%s, want image/png/.png", res.ContentType, res.Ext)
	}
	if res.Width != 40 || res.Height != 20 {
		t.Errorf("size = %dx%d, want 40x20", res.Width, res.Height)
	}
	if _, err := png.Decode(bytes.NewReader(res.Data)); err != nil {
		t.Errorf("output is not a PNG: %v", err)
	}
}

func TestNormalize_JPEG(t *testing.T) {
	p := NewProcessor(10 << 20)

	res, err := p.Normalize(bytes.NewReader(encodeJPEG(t, createTestImage(16, 16))))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if res.ContentType != "image/jpeg" || res.Ext != ".jpg" {
		t.Errorf("ContentType/Ext = %s/%s, want image/jpeg/.jpg", res.ContentType, res.Ext)
	}
}

func TestNormalize_Downscales(t *testing.T) {
	p := NewProcessor(10 << 20)
	p.maxDimension = 50

	res, err := p.Normalize(bytes.NewReader(encodePNG(t, createTestImage(200, 100))))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if res.Width != 50 || res.Height != 25 {
		t.Errorf("size = %dx%d, want 50x25", res.Width, res.Height)
	}
}

// pngWithHeaderSize returns a tiny PNG whose IHDR declares width x height.
func pngWithHeaderSize(t *testing.T, width, height uint32) []byte {
	t.Helper()
	data := encodePNG(t, createTestImage(1, 1))
	// Signature (8), chunk length (4), "IHDR" (4), then width and height.
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	// CRC over chunk type and the 13 data bytes.
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestNormalize_PixelLimitAllowsNormalPhotos(t *testing.T) {
	if MaxPixels < 6000*4000 {
		t.Fatalf("MaxPixels = %d rejects a 24 MP camera photo", MaxPixels)
	}
	if _, err := NewProcessor(1 << 20).Normalize(bytes.NewReader(pngWithHeaderSize(t, 1, 1))); err != nil {
		t.Errorf("rewritten 1x1 header: %v", err)
	}
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		limit   int64
		wantErr error
	}{
		{"plain text", []byte("definitely not an image"), 1 << 20, ErrUnsupportedFormat},
		{"tiff header", append([]byte("II*\x00"), make([]byte, 64)...), 1 << 20, ErrUnsupportedFormat},
		{"truncated png", []byte("\x89PNG\r\n\x1a\n\x00\x00"), 1 << 20, ErrUnsupportedFormat},
		{"too large", bytes.Repeat([]byte("x"), 2048), 1024, ErrTooLarge},
		{"oversized png header", pngWithHeaderSize(t, 12000, 12000), 1 << 20, ErrTooLarge},
		{"huge png header", pngWithHeaderSize(t, 60000, 60000), 1 << 20, ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProcessor(tt.limit).Normalize(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Normalize error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyOrientation(t *testing.T) {
	img := createTestImage(30, 10)
	tests := []struct {
		orientation int
		w, h        int
	}{
		{1, 30, 10},
		{2, 30, 10},
		{3, 30, 10},
		{4, 30, 10},
		{5, 10, 30},
		{6, 10, 30},
		{7, 10, 30},
		{8, 10, 30},
		{0, 30, 10},
	}

	for _, tt := range tests {
		b := applyOrientation(img, tt.orientation).Bounds()
		if b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("orientation %d: got %dx%d, want %dx%d", tt.orientation, b.Dx(), b.Dy(), tt.w, tt.h)
		}
	}
}

func TestReadExifOrientation_NoExif(t *testing.T) {
	if got := readExifOrientation(strings.NewReader("no exif here")); got != 1 {
		t.Errorf("readExifOrientation = %d, want 1", got)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", []byte("\x89PNG\r\n\x1a\n"), "png"},
		{"jpeg", []byte("\xff\xd8\xff\xe0"), "jpeg"},
		{"gif", []byte("GIF89a"), "gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "webp"},
		{"text", []byte("hello"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.data); got != tt.want {
				t.Errorf("detectFormat = %q, want %q", got, tt.want)
			}
		})
	}
}
