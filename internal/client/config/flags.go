package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/docdesk/internal/flagx"
)

// parseFlags populates Config from the flags this package owns. Other flags in
// args are filtered out first so the binaries can add their own.
// It panics on malformed values.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-k", "-d", "-i", "-g", "-u", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the service API")
	fs.StringVar(&cfg.EncryptionSecret, "k", cfg.EncryptionSecret, "encryption secret for local storage")
	fs.StringVar(&cfg.StoragePath, "d", cfg.StoragePath, "local storage database path")
	fs.StringVar(&cfg.GateAddr, "g", cfg.GateAddr, "route gate listen address")
	fs.StringVar(&cfg.GateUpstream, "u", cfg.GateUpstream, "web front-end behind the route gate")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	pollInterval := fs.Int("i", int(cfg.PollInterval.Seconds()), "document status poll interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PollInterval = time.Duration(*pollInterval) * time.Second
}
