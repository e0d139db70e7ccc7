package main

import (
	"flag"
	"fmt"
	"os"

	"flowtagger/internal/app"
	"flowtagger/internal/config"
)

// Build metadata is set at link time via -ldflags on
// github.com/prometheus/common/version (Version, Revision, Branch, BuildDate).

func main() {
	cfg, err := config.ParseFlags()
	if cfg.ShowHelp {
		flag.Usage()
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: config: %v\n", err)
		os.Exit(2)
	}

	os.Exit(app.Run(cfg))
}
