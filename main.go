// Package main provides the sighting tracking application
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/mwatts/sightwatch/internal"
	"github.com/mwatts/sightwatch/tuiapp"
	"github.com/mwatts/sightwatch/webapp"
)

const (
	// thisAppName is the name of this application as shown on notifications.
	thisAppName = "sightwatch"

	logFileName = "sightwatch.log"

	// replayLimit bounds how many persisted reports are considered on startup.
	replayLimit = 100
)

func main() {
	var argConfigPath string
	var argIsUseTui bool
	var argIsDebug bool

	setupCommandLineFlags(&argConfigPath, &argIsUseTui, &argIsDebug)

	// Parse all arguments provided to the program on launch.
	pflag.Parse()

	if err := run(argConfigPath, argIsUseTui, argIsDebug); err != nil {
		fmt.Fprintln(os.Stderr, "sightwatch:", err)
		os.Exit(1)
	}
}

func setupCommandLineFlags(argConfigPath *string, argIsUseTui *bool, argIsDebug *bool) {
	// Path to the YAML configuration file. A missing file runs on defaults.
	pflag.StringVarP(
		argConfigPath,
		"config",
		"c",
		"sightwatch.yaml",
		"path to the configuration file")

	// Whether to launch the terminal dashboard alongside the web server.
	pflag.BoolVarP(
		argIsUseTui,
		"tui",
		"t",
		false,
		"show the interactive terminal dashboard")
	pflag.Lookup("tui").NoOptDefVal = "true"

	pflag.BoolVarP(
		argIsDebug,
		"debug",
		"d",
		false,
		"enable debug logging")
	pflag.Lookup("debug").NoOptDefVal = "true"
}

func run(configPath string, useTui bool, debug bool) error {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return err
	}

	// In TUI mode logs go to a file so they don't fight the dashboard for
	// the terminal.
	logOut := os.Stderr
	if useTui {
		logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logFile.Close()
		logOut = logFile
	}
	logger := internal.NewLogger(logOut, debug)

	store, err := internal.OpenEventStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	lists := internal.NewWatchlists(cfg.Lists)

	var resolver internal.DistanceResolver = internal.HaversineResolver{}
	if cfg.EnablePrecise {
		resolver = internal.NewDriveTimeResolver(cfg.DistanceURL, cfg.DistanceAPIKey, logger)
	}

	registry := internal.NewRegistry(cfg.NearbyRadiusMiles, resolver, logger)
	notifier := internal.NewNotifier(lists, cfg.Alerts, cfg.EnableAlerts, internal.DesktopSink{}, logger)

	pipeline := &internal.Pipeline{
		Registry: registry,
		Notifier: notifier,
		Lists:    lists,
		Store:    store,
		Logger:   logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pipeline.Replay(ctx, replayLimit); err != nil {
		logger.Warn("replay of persisted reports failed", "error", err)
	}

	var locator internal.LocationService
	if cfg.LocationURL != "" {
		locator = internal.NewDeviceLocator(cfg.LocationURL, cfg.LocationToken)
	}

	var mapGen *internal.StaticMapGenerator
	if cfg.StaticMapAPIKey != "" {
		mapGen = internal.NewStaticMapGenerator(cfg.StaticMapURL, cfg.StaticMapAPIKey, cfg.StaticMapPath, logger)
	}

	scheduler := internal.NewScheduler(registry, locator, mapGen, cfg.RefreshInterval, logger)
	go scheduler.Run(ctx)

	server := webapp.New(cfg.ListenAddr, registry, scheduler, pipeline, notifier, cfg.StaticMapPath, logger)

	if useTui {
		serverErr := make(chan error, 1)
		go func() {
			serverErr <- server.Start(ctx)
		}()

		if err := tuiapp.Run(thisAppName, registry, scheduler, logger); err != nil {
			return fmt.Errorf("dashboard failed: %w", err)
		}
		stop()
		return <-serverErr
	}

	return server.Start(ctx)
}
