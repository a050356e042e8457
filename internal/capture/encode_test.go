// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package capture

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func decodeResult(t *testing.T, encoded string) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("result is not valid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("result is not a valid PNG: %v", err)
	}
	return img
}

func TestEncodeBase64PNG_DownscalesWideImages(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3840, 2160))

	encoded, ok := encodeBase64PNG(src, 1920)
	if !ok {
		t.Fatal("encode failed")
	}
	got := decodeResult(t, encoded).Bounds()
	if got.Dx() != 1920 || got.Dy() != 1080 {
		t.Errorf("scaled to %dx%d, want 1920x1080", got.Dx(), got.Dy())
	}
}

func TestEncodeBase64PNG_KeepsSmallImages(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 640, 480))

	encoded, ok := encodeBase64PNG(src, 1920)
	if !ok {
		t.Fatal("encode failed")
	}
	got := decodeResult(t, encoded).Bounds()
	if got.Dx() != 640 || got.Dy() != 480 {
		t.Errorf("size changed to %dx%d, want 640x480 untouched", got.Dx(), got.Dy())
	}
}

func TestEncodeBase64PNG_EmptyImage(t *testing.T) {
	if _, ok := encodeBase64PNG(image.NewRGBA(image.Rect(0, 0, 0, 0)), 1920); ok {
		t.Error("empty image should fail")
	}
}

func TestRGBAFromBGRA(t *testing.T) {
	// One blue pixel in BGRA order.
	pixels := []byte{0xFF, 0x00, 0x00, 0x00}

	img, ok := rgbaFromBGRA(pixels, 1, 1)
	if !ok {
		t.Fatal("conversion failed")
	}
	want := color.RGBA{R: 0x00, G: 0x00, B: 0xFF, A: 0xFF}
	if got := img.RGBAAt(0, 0); got != want {
		t.Errorf("pixel = %+v, want %+v", got, want)
	}
}

func TestRGBAFromBGRA_LengthMismatch(t *testing.T) {
	if _, ok := rgbaFromBGRA(make([]byte, 7), 1, 2); ok {
		t.Error("wrong-length pixel data should fail")
	}
}
