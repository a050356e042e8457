// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package proclist

import (
	"fmt"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procCreateRemoteThread = kernel32.NewProc("CreateRemoteThread")
	procGetExitCodeThread  = kernel32.NewProc("GetExitCodeThread")
)

// Process access rights (winnt.h) needed for remote library loading.
const (
	processCreateThread     = 0x0002
	processVMOperation      = 0x0008
	processVMRead           = 0x0010
	processVMWrite          = 0x0020
	processQueryInformation = 0x0400

	injectAccess = processCreateThread | processQueryInformation |
		processVMOperation | processVMRead | processVMWrite
)

// Inject maps the library at dllPath into the target process: write the
// absolute path into its address space, then start a remote thread on
// LoadLibraryW pointing at it.
func Inject(pid uint32, dllPath string) error {
	abs, err := filepath.Abs(dllPath)
	if err != nil {
		return fmt.Errorf("resolve dll path: %w", err)
	}
	pathUTF16, err := windows.UTF16FromString(abs)
	if err != nil {
		return fmt.Errorf("encode dll path: %w", err)
	}
	pathBytes := uintptr(len(pathUTF16) * 2)

	proc, err := windows.OpenProcess(injectAccess, false, pid)
	if err != nil {
		return fmt.Errorf("open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(proc)

	remote, err := windows.VirtualAllocEx(proc, 0, pathBytes,
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return fmt.Errorf("allocate remote memory: %w", err)
	}
	defer windows.VirtualFreeEx(proc, remote, 0, windows.MEM_RELEASE)

	err = windows.WriteProcessMemory(proc, remote,
		(*byte)(unsafe.Pointer(&pathUTF16[0])), pathBytes, nil)
	if err != nil {
		return fmt.Errorf("write dll path: %w", err)
	}

	loadLibrary, err := loadLibraryAddr()
	if err != nil {
		return err
	}

	thread, _, callErr := procCreateRemoteThread.Call(
		uintptr(proc), 0, 0, loadLibrary, remote, 0, 0)
	if thread == 0 {
		return fmt.Errorf("create remote thread: %w", callErr)
	}
	threadHandle := windows.Handle(thread)
	defer windows.CloseHandle(threadHandle)

	if _, err := windows.WaitForSingleObject(threadHandle, windows.INFINITE); err != nil {
		return fmt.Errorf("wait for loader thread: %w", err)
	}

	// LoadLibraryW returns the module handle; zero means the load failed
	// inside the target.
	var exitCode uint32
	ret, _, _ := procGetExitCodeThread.Call(
		uintptr(threadHandle), uintptr(unsafe.Pointer(&exitCode)))
	if ret != 0 && exitCode == 0 {
		return fmt.Errorf("LoadLibraryW failed inside process %d", pid)
	}
	return nil
}

// loadLibraryAddr resolves LoadLibraryW in kernel32, which sits at the same
// address in every process.
func loadLibraryAddr() (uintptr, error) {
	name, err := windows.UTF16PtrFromString("kernel32.dll")
	if err != nil {
		return 0, err
	}
	k32, err := windows.GetModuleHandle(name)
	if err != nil {
		return 0, fmt.Errorf("kernel32 handle: %w", err)
	}
	addr, err := windows.GetProcAddress(k32, "LoadLibraryW")
	if err != nil {
		return 0, fmt.Errorf("LoadLibraryW address: %w", err)
	}
	return addr, nil
}
