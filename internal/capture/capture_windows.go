// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package capture

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/jeranaias/gamesage/internal/diag"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procGetWindowRect       = user32.NewProc("GetWindowRect")
	procGetDC               = user32.NewProc("GetDC")
	procReleaseDC           = user32.NewProc("ReleaseDC")

	gdi32                      = windows.NewLazySystemDLL("gdi32.dll")
	procCreateCompatibleDC     = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap = gdi32.NewProc("CreateCompatibleBitmap")
	procSelectObject           = gdi32.NewProc("SelectObject")
	procBitBlt                 = gdi32.NewProc("BitBlt")
	procGetDIBits              = gdi32.NewProc("GetDIBits")
	procDeleteDC               = gdi32.NewProc("DeleteDC")
	procDeleteObject           = gdi32.NewProc("DeleteObject")
)

const srccopy = 0x00CC0020

type rect struct {
	Left, Top, Right, Bottom int32
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

// Screenshot captures the foreground window's screen rectangle and returns
// it as a base-64 PNG no wider than maxWidth. Returns ok=false on any
// failure; the caller treats that as "send without screenshot".
func Screenshot(maxWidth int) (string, bool) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		diag.Warnf("capture: no foreground window")
		return "", false
	}

	var r rect
	ret, _, _ := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		diag.Warnf("capture: GetWindowRect failed")
		return "", false
	}
	w := int(r.Right - r.Left)
	h := int(r.Bottom - r.Top)
	if w <= 0 || h <= 0 {
		diag.Warnf("capture: degenerate window rect %dx%d", w, h)
		return "", false
	}

	// Screen DC, not the window DC: hardware-presented games often leave
	// their own DC black, while the composited screen still has the frame.
	screenDC, _, _ := procGetDC.Call(0)
	if screenDC == 0 {
		diag.Warnf("capture: GetDC failed")
		return "", false
	}

	// Handles not yet acquired stay zero; their release steps no-op.
	var memDC, bitmap, prev uintptr
	defer releaseInOrder(
		func() {
			if prev != 0 {
				procSelectObject.Call(memDC, prev)
			}
		},
		func() {
			if memDC != 0 {
				procDeleteDC.Call(memDC)
			}
		},
		func() { procReleaseDC.Call(0, screenDC) },
		func() {
			if bitmap != 0 {
				procDeleteObject.Call(bitmap)
			}
		},
	)

	memDC, _, _ = procCreateCompatibleDC.Call(screenDC)
	if memDC == 0 {
		diag.Warnf("capture: CreateCompatibleDC failed")
		return "", false
	}

	bitmap, _, _ = procCreateCompatibleBitmap.Call(screenDC, uintptr(w), uintptr(h))
	if bitmap == 0 {
		diag.Warnf("capture: CreateCompatibleBitmap failed")
		return "", false
	}

	prev, _, _ = procSelectObject.Call(memDC, bitmap)
	if prev == 0 {
		return "", false
	}

	ret, _, _ = procBitBlt.Call(memDC, 0, 0, uintptr(w), uintptr(h),
		screenDC, uintptr(r.Left), uintptr(r.Top), srccopy)
	if ret == 0 {
		diag.Warnf("capture: BitBlt failed")
		return "", false
	}

	// Negative height requests a top-down DIB.
	info := bitmapInfo{Header: bitmapInfoHeader{
		Size:     uint32(unsafe.Sizeof(bitmapInfoHeader{})),
		Width:    int32(w),
		Height:   -int32(h),
		Planes:   1,
		BitCount: 32,
	}}
	pixels := make([]byte, w*h*4)
	const dibRGBColors = 0
	ret, _, _ = procGetDIBits.Call(memDC, bitmap, 0, uintptr(h),
		uintptr(unsafe.Pointer(&pixels[0])), uintptr(unsafe.Pointer(&info)), dibRGBColors)
	if ret == 0 {
		diag.Warnf("capture: GetDIBits failed")
		return "", false
	}

	img, ok := rgbaFromBGRA(pixels, w, h)
	if !ok {
		return "", false
	}
	encoded, ok := encodeBase64PNG(img, maxWidth)
	if !ok {
		diag.Warnf("capture: PNG encode failed")
		return "", false
	}
	diag.Infof("capture: %dx%d window, %d base64 bytes", w, h, len(encoded))
	return encoded, true
}
