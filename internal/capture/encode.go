// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package capture produces on-demand screenshots of the host game window.
//
// The capture itself bit-blits the window rectangle from the screen device
// context, so it must run between frames while the overlay is quiesced
// (hidden), otherwise the panel appears in its own screenshot. Every
// failure yields "no screenshot"; capture problems are never fatal.
package capture

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// encodeBase64PNG downscales img to at most maxWidth (preserving aspect
// ratio, triangle filter) and returns it as a base-64 PNG. Returns ok=false
// when encoding fails.
func encodeBase64PNG(img *image.RGBA, maxWidth int) (string, bool) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return "", false
	}

	var out image.Image = img
	if maxWidth > 0 && w > maxWidth {
		newH := h * maxWidth / w
		if newH < 1 {
			newH = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
		// draw.BiLinear is the tent (triangle) kernel.
		draw.BiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Src, nil)
		out = scaled
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return "", false
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), true
}

// rgbaFromBGRA builds an RGBA image from top-down 32-bit BGRA pixel data,
// the layout GetDIBits produces. The slice length must be w*h*4.
func rgbaFromBGRA(pixels []byte, w, h int) (*image.RGBA, bool) {
	if w <= 0 || h <= 0 || len(pixels) != w*h*4 {
		return nil, false
	}
	for i := 0; i+3 < len(pixels); i += 4 {
		pixels[i], pixels[i+2] = pixels[i+2], pixels[i]
		pixels[i+3] = 0xFF // GDI leaves alpha undefined
	}
	img := &image.RGBA{
		Pix:    pixels,
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}
	return img, true
}
