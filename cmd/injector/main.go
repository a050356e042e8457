// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

// The injector loads the overlay library into game processes. With
// --process it injects once into a running target, polling until it
// appears. Without --process it watches the [[games]] entries from
// config.toml and injects into each as it launches, re-injecting after
// relaunches.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/gamesage/internal/config"
	"github.com/jeranaias/gamesage/internal/proclist"
)

const watchInterval = 3 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		process     string
		dllPath     string
		cfgPath     string
		timeoutSecs int
		list        bool
	)
	cmd := &cobra.Command{
		Use:           "injector",
		Short:         "Load the GameSage overlay into game processes",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return runList(cmd)
			}
			if dllPath == "" {
				dllPath = defaultDLLPath()
			}
			if _, err := os.Stat(dllPath); err != nil {
				return fmt.Errorf("overlay library not found at %s", dllPath)
			}
			if process != "" {
				return runOneShot(cmd, process, dllPath, time.Duration(timeoutSecs)*time.Second)
			}
			return runWatch(cmd, cfgPath, dllPath)
		},
	}
	cmd.Flags().StringVarP(&process, "process", "p", "", "target process name (e.g. game.exe); omit to watch config.toml games")
	cmd.Flags().StringVarP(&dllPath, "dll", "d", "", "path to the overlay DLL (default overlay.dll next to the injector)")
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config.toml (default next to the injector)")
	cmd.Flags().IntVarP(&timeoutSecs, "timeout", "t", 0, "seconds to wait for --process to appear (0 = check once)")
	cmd.Flags().BoolVar(&list, "list", false, "list running processes and exit")
	return cmd
}

// defaultDLLPath is overlay.dll in the injector's own directory.
func defaultDLLPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "overlay.dll"
	}
	return filepath.Join(filepath.Dir(exe), "overlay.dll")
}

func defaultConfigPath() string {
	exe, err := os.Executable()
	if err != nil {
		return config.FileName
	}
	return filepath.Join(filepath.Dir(exe), config.FileName)
}

func runList(cmd *cobra.Command) error {
	procs, err := proclist.Processes()
	if err != nil {
		return err
	}
	for _, name := range proclist.Names(procs) {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

// runOneShot polls for the named process until it appears or the timeout
// elapses, then injects. On a miss it prints similarly-named processes as
// a hint before failing.
func runOneShot(cmd *cobra.Command, process, dllPath string, timeout time.Duration) error {
	out := cmd.OutOrStdout()
	deadline := time.Now().Add(timeout)
	for {
		procs, err := proclist.Processes()
		if err != nil {
			return err
		}
		if p, ok := proclist.FindByName(procs, process); ok {
			fmt.Fprintf(out, "Found %s (PID %d) — injecting...\n", p.Name, p.PID)
			if err := proclist.Inject(p.PID, dllPath); err != nil {
				return err
			}
			fmt.Fprintf(out, "Injected into %s (PID %d)\n", p.Name, p.PID)
			return nil
		}
		if time.Now().After(deadline) {
			fmt.Fprintf(out, "Process '%s' not found.\n", process)
			if similar := proclist.SimilarNames(procs, process); len(similar) > 0 {
				fmt.Fprintln(out, "Similar processes:")
				for _, name := range similar {
					fmt.Fprintf(out, "  %s\n", name)
				}
			}
			return fmt.Errorf("process '%s' not found", process)
		}
		time.Sleep(time.Second)
	}
}

// runWatch reconciles the configured game list against the process table
// every few seconds, injecting into new launches.
func runWatch(cmd *cobra.Command, cfgPath, dllPath string) error {
	out := cmd.OutOrStdout()
	if cfgPath == "" {
		cfgPath = defaultConfigPath()
	}
	cfg := config.Load(cfgPath)
	if len(cfg.Games) == 0 {
		fmt.Fprintln(out, "No --process flag and no [[games]] entries in config.toml.")
		fmt.Fprintln(out, "Either pass a target:")
		fmt.Fprintln(out, "  injector --process game.exe")
		fmt.Fprintln(out, "or add games to config.toml:")
		fmt.Fprintln(out, "  [[games]]")
		fmt.Fprintln(out, "  process = \"game.exe\"")
		fmt.Fprintln(out, "  name = \"My Game\"")
		return fmt.Errorf("nothing to watch")
	}

	fmt.Fprintf(out, "Watching %d game(s). Press Ctrl+C to stop.\n", len(cfg.Games))
	watcher := proclist.NewWatcher(cfg.Games,
		func(p proclist.ProcessInfo) error {
			return proclist.Inject(p.PID, dllPath)
		},
		func(format string, args ...any) {
			fmt.Fprintf(out, "[%s] %s\n",
				time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
		})

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	for {
		procs, err := proclist.Processes()
		if err != nil {
			fmt.Fprintf(out, "[%s] Failed to list processes: %v\n",
				time.Now().Format("15:04:05"), err)
		} else {
			watcher.Tick(procs)
		}
		<-ticker.C
	}
}
