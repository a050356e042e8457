// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package capture

// releaseInOrder runs the screenshot teardown in the fixed sequence the GDI
// handles require: deselect the bitmap from the memory DC, delete the memory
// DC, release the screen DC, delete the bitmap.
func releaseInOrder(deselect, deleteMemDC, releaseScreenDC, deleteBitmap func()) {
	deselect()
	deleteMemDC()
	releaseScreenDC()
	deleteBitmap()
}
