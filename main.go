package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/readinglist/config"
	"github.com/kevinaaaquil/readinglist/loggers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	log, err := loggers.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "LOG_LEVEL:", err)
		os.Exit(2)
	}
	config.LogEnv(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, log: log, out: os.Stdout, open: openBackend}
	if err := a.run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, errUsage) {
			log.WithError(err).Error("command failed")
		}
		stop()
		os.Exit(1)
	}
}
