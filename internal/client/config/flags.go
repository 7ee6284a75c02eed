package config

import (
	"flag"
	"os"
	"time"

	"github.com/underflow1/ce-guests-front-sub000/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend REST API (default from Config)
//	-r string   sync channel reconnect delay (default from Config)
//	-t string   startup readiness timeout (default from Config)
//	-d string   path to the local sqlite credentials database
//	-m string   Prometheus listen address, empty disables metrics
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-r", "-t", "-d", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the backend REST API")
	reconnectDelay := fs.String("r", cfg.ReconnectDelay.String(), "sync channel reconnect delay")
	readyTimeout := fs.String("t", cfg.ReadyTimeout.String(), "startup readiness timeout")
	fs.StringVar(&cfg.LocalDBPath, "d", cfg.LocalDBPath, "path to the local credentials database")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address (empty disables)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	d, err := time.ParseDuration(*reconnectDelay)
	if err != nil {
		panic(err)
	}
	cfg.ReconnectDelay = d

	d, err = time.ParseDuration(*readyTimeout)
	if err != nil {
		panic(err)
	}
	cfg.ReadyTimeout = d
}
