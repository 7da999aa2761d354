package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wavyrn1/shroudserver/internal/chat"
)

func main() {
	cfg := chat.ConfigFromEnv()
	addr := flag.String("addr", cfg.Addr, "chat listen address")
	wsAddr := flag.String("ws-addr", cfg.WSAddr, "websocket listen address (empty to disable)")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "metrics listen address (empty to disable)")
	flag.Parse()
	cfg.Addr = *addr
	cfg.WSAddr = *wsAddr
	cfg.MetricsAddr = *metricsAddr

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	srv := chat.NewServer(cfg, logger)
	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	srv.Stop()
}
