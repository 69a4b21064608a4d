package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/firestation/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the API (default from Config)
//	-i int      session check interval in seconds (default from Config)
//	-t int      session check timeout in seconds (default from Config)
//	-d string   path of the local session database (default from Config)
//
// Note: The function filters args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-t", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base url of the API")
	interval := fs.Int("i", int(cfg.VerifyInterval.Seconds()), "session check interval (in seconds)")
	timeout := fs.Int("t", int(cfg.VerifyTimeout.Seconds()), "session check timeout (in seconds)")
	fs.StringVar(&cfg.StoragePath, "d", cfg.StoragePath, "path of the local session database")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.VerifyInterval = time.Duration(*interval) * time.Second
		case "t":
			cfg.VerifyTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
