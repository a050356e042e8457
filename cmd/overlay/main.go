// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package main

/*
#include <stdint.h>
*/
import "C"

import (
	"golang.org/x/sys/windows"

	"github.com/jeranaias/gamesage/internal/overlay"
)

//export overlayAttach
func overlayAttach(handle C.uintptr_t) {
	overlay.Attach(windows.Handle(handle))
}

// main is required by c-shared but never runs.
func main() {}
