package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/gdsfm/internal/app"
)

// version is stamped at build time with -ldflags "-X main.version=v1.2.3".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	prefsPath := flag.String("prefs", "", "override preferences path (optional)")
	debug := flag.Bool("debug", false, "write debug logs")
	checkUpdates := flag.Bool("check-updates", false, "check for an update, offer to install it and exit")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Version:    version,
		Debug:      *debug,
	}

	if *checkUpdates {
		if err := app.CheckUpdates(ctx, opts, os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "gdsfm: %v\n", err)
			return 1
		}
		return 0
	}

	res, err := app.Run(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gdsfm: %v\n", err)
		return 1
	}
	if res.Relaunch {
		if err := app.Relaunch(); err != nil {
			fmt.Fprintf(os.Stderr, "gdsfm: relaunch: %v\n", err)
			return 1
		}
	}
	return 0
}
