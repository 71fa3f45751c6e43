package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/five82/tonearm/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		prefsPath   string
		apiBind     string
		debug       bool
		showVersion bool
	)
	flag.StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/tonearm/config.toml)")
	flag.StringVar(&prefsPath, "prefs", "", "preferences file (default ~/.config/tonearm/prefs.toml)")
	flag.StringVarP(&apiBind, "api", "a", "", "daemon address, host:port or URL (overrides api_bind)")
	flag.BoolVarP(&debug, "debug", "d", false, "log at debug level")
	flag.BoolVarP(&showVersion, "version", "v", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("tonearm %s\n", version)
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: configPath,
		PrefsPath:  prefsPath,
		APIBind:    apiBind,
		Debug:      debug,
		Version:    version,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "tonearm: %v\n", err)
		return 1
	}
	return 0
}
