// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package proclist

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Processes snapshots the running process list.
func Processes() ([]ProcessInfo, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("create process snapshot: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	if err := windows.Process32First(snapshot, &entry); err != nil {
		return nil, fmt.Errorf("walk process snapshot: %w", err)
	}

	var procs []ProcessInfo
	for {
		procs = append(procs, ProcessInfo{
			Name: windows.UTF16ToString(entry.ExeFile[:]),
			PID:  entry.ProcessID,
		})
		if err := windows.Process32Next(snapshot, &entry); err != nil {
			break
		}
	}
	return procs, nil
}
