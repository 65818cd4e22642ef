package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Asimovzz/rustchat/internal/chat"
)

func main() {
	addr := flag.String("addr", ":8080", "chat listen address")
	metricsAddr := flag.String("metrics-addr", ":9090", "metrics listen address")
	historyCap := flag.Int("history", chat.DefaultHistoryCapacity, "retained broadcast/system messages")
	queueDepth := flag.Int("queue", chat.DefaultQueueDepth, "per-session outbound queue depth")
	grace := flag.Duration("grace", 3*time.Second, "shutdown grace period")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	srv := chat.NewServer(chat.Config{
		Addr:            *addr,
		HistoryCapacity: *historyCap,
		QueueDepth:      *queueDepth,
		ShutdownGrace:   *grace,
	}, logger)
	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			logger.Error("metrics endpoint failed", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	srv.Stop()
}
