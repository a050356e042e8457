// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

// The overlay library is built with -buildmode=c-shared and loaded into a
// game process by the injector. DllMain hands the module handle to the Go
// side and returns immediately; all real work happens on a separate thread
// because the loader lock is held during DLL_PROCESS_ATTACH.
package main

/*
#include <windows.h>
#include <stdint.h>

extern void overlayAttach(uintptr_t handle);

BOOL WINAPI DllMain(HINSTANCE inst, DWORD reason, LPVOID reserved)
{
	if (reason == DLL_PROCESS_ATTACH) {
		DisableThreadLibraryCalls(inst);
		overlayAttach((uintptr_t)inst);
	}
	return TRUE;
}
*/
import "C"
