// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package proclist enumerates host processes and maps the overlay library
// into matched ones. The watch reconciler is portable; enumeration and
// injection live in the windows files.
package proclist

import (
	"sort"
	"strings"
)

// ProcessInfo is one running process.
type ProcessInfo struct {
	Name string
	PID  uint32
}

// Names returns the sorted, deduplicated process names.
func Names(procs []ProcessInfo) []string {
	seen := make(map[string]bool, len(procs))
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		if !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names
}

// FindByName returns the first process whose name matches
// case-insensitively.
func FindByName(procs []ProcessInfo, name string) (ProcessInfo, bool) {
	for _, p := range procs {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return ProcessInfo{}, false
}

// SimilarNames returns process names containing the query, compared
// case-insensitively with any ".exe" suffix ignored. Used for "did you
// mean" hints when a one-shot target is missing.
func SimilarNames(procs []ProcessInfo, query string) []string {
	needle := strings.ReplaceAll(strings.ToLower(query), ".exe", "")
	if needle == "" {
		return nil
	}
	var similar []string
	for _, name := range Names(procs) {
		if strings.Contains(strings.ToLower(name), needle) {
			similar = append(similar, name)
		}
	}
	return similar
}
