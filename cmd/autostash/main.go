// Command autostash watches a directory for file changes, materializes a
// line-level diff for every write, and keeps an undo/redo-navigable change
// log per file in an embedded goleveldb store. A terminal UI browses the
// tracked files and their current (time-frame-filtered) version, and can
// step changes backward and forward.
//
// Usage:
//
//	autostash <store_path> <watch_path> <debounce_time_ms>
//
// Environment:
//
//	AUTOSTASH_LOG_LEVEL  Controls log verbosity (debug, info, warn, error). Default: info.
//
// Exit codes:
//
//	0  clean shutdown (user pressed q)
//	1  argument error, store open failure, or a fatal runtime error
//	2  terminal UI could not be initialized (e.g. no TTY)
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/wolfbiker1/autostash/internal/config"
	"github.com/wolfbiker1/autostash/internal/coordinator"
	"github.com/wolfbiker1/autostash/internal/logging"
	"github.com/wolfbiker1/autostash/internal/store"
)

// log is the structured logger for the main package, tagged with component="main".
var log = logging.New("main")

func main() {
	os.Exit(run(os.Args[1:]))
}

// run performs the startup sequence described in the package doc and
// returns the process exit code, so main itself stays a one-liner.
func run(args []string) int {
	cfg, err := config.Parse(args)
	if err != nil {
		if errors.Is(err, config.ErrArg) {
			log.Warn("invalid arguments", "error", err)
		} else {
			log.Error("parse arguments", "error", err)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	s, err := store.Open(cfg.StorePath, cfg.WatchPath, logging.New("store"))
	if err != nil {
		log.Error("open store", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	c := coordinator.New(coordinator.Config{
		WatchPath:    cfg.WatchPath,
		DebounceTime: cfg.DebounceTime,
	}, s, logging.New("coordinator"))

	if err := c.Run(); err != nil {
		log.Error("run coordinator", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, coordinator.ErrUIInit) {
			return 2
		}
		return 1
	}

	return 0
}
