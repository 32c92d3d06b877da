package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/ledkeys/ledkeys/internal/banner"
	"github.com/ledkeys/ledkeys/internal/config"
	"github.com/ledkeys/ledkeys/internal/device"
	"github.com/ledkeys/ledkeys/internal/lighting"
	"github.com/ledkeys/ledkeys/internal/logging"
	"github.com/ledkeys/ledkeys/internal/pipeline"
	"github.com/ledkeys/ledkeys/internal/status"
)

func main() {
	configPath := flag.String("config", "ledkeys.yaml", "Path to config file")
	dir := flag.String("dir", "", "Override input device directory")
	url := flag.String("url", "", "Override LED controller preset URL")
	statusOn := flag.Bool("status", false, "Enable the local status feed")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dir != "" {
		cfg.Input.Dir = *dir
	}
	if *url != "" {
		cfg.Controller.URL = *url
	}
	if *statusOn {
		cfg.Status.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	initial, _ := cfg.InitialState()

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infow("Shutting down...", "signal", sig.String())
		cancel()
	}()

	banner.Log(ctx, logger, banner.Info{
		Variant:    "evdev",
		Controller: cfg.Controller.URL,
		State:      initial,
	}, host.InfoWithContext)

	notifier := lighting.NewNotifier(cfg.Controller.URL, cfg.Controller.Category, cfg.Controller.Timeout, logger)
	pipe := pipeline.New(initial, notifier, logger)

	listener := device.NewListener(device.Options{
		Dir:            cfg.Input.Dir,
		Prefix:         cfg.Input.Prefix,
		RescanInterval: cfg.Input.RescanInterval,
		SettleDelay:    cfg.Input.SettleDelay,
		Describe:       device.DescribeEvdev,
	}, logger)

	if cfg.Status.Enabled {
		statusLogger := logger.Named("status")
		broadcaster := status.NewBroadcaster(initial, listener, statusLogger)
		pipe.AddObserver(broadcaster)
		server := status.NewServer(broadcaster, statusLogger)
		go func() {
			defer broadcaster.CloseAll()
			if err := status.ListenAndServe(ctx, cfg.Status.Host, cfg.Status.Port, server.Handler(), statusLogger); err != nil {
				statusLogger.Errorw("Status feed stopped", "error", err)
			}
		}()
	}

	if err := pipeline.Drive(ctx, listener, pipe); err != nil {
		logger.Errorw("Key source failed", "error", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("Stopped")
}
