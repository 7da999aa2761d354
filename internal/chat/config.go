package chat

import (
	"os"
	"strconv"
)

// Config holds the server's runtime settings.
type Config struct {
	Addr         string // TCP listen address
	WSAddr       string // websocket listen address, "" disables
	MetricsAddr  string // prometheus listen address, "" disables
	MailboxLimit int    // max undelivered lines per session
}

func DefaultConfig() Config {
	return Config{
		Addr:         ":5000",
		WSAddr:       ":8080",
		MetricsAddr:  ":9090",
		MailboxLimit: 256,
	}
}

// ConfigFromEnv reads settings from the environment, falling back to
// defaults for anything unset.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if addr := os.Getenv("SHROUD_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if addr, ok := os.LookupEnv("SHROUD_WS_ADDR"); ok {
		cfg.WSAddr = addr
	}
	if addr, ok := os.LookupEnv("SHROUD_METRICS_ADDR"); ok {
		cfg.MetricsAddr = addr
	}
	if limit := os.Getenv("SHROUD_MAILBOX_LIMIT"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil && parsed > 0 {
			cfg.MailboxLimit = parsed
		}
	}

	return cfg
}
