package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/fakeprinter/internal/config"
	"github.com/JonMunkholm/fakeprinter/internal/console"
	"github.com/JonMunkholm/fakeprinter/internal/engine"
	"github.com/JonMunkholm/fakeprinter/internal/fetch"
	"github.com/JonMunkholm/fakeprinter/internal/history"
	"github.com/JonMunkholm/fakeprinter/internal/logging"
	"github.com/JonMunkholm/fakeprinter/internal/materialize"
	"github.com/JonMunkholm/fakeprinter/internal/monitor"
	"github.com/JonMunkholm/fakeprinter/internal/report"
	"github.com/JonMunkholm/fakeprinter/internal/source"
)

// loadConfig reads the config file and environment, applies the flags the
// user actually set, and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("name", &cfg.Printer.Name, flags.name)
	set("dest", &cfg.Printer.Dest, flags.dest)
	set("mode", &cfg.Printer.Mode, flags.mode)
	set("source", &cfg.Source.Path, flags.source)
	set("source-url", &cfg.Source.URL, flags.sourceURL)
	set("monitor-addr", &cfg.Monitor.Addr, flags.monitorAddr)
	set("log-level", &cfg.Logging.Level, flags.logLevel)
}

func runPrint(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logCloser, err := logging.Setup(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		FileFormat: cfg.Logging.FileFormat,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	slog.Debug("configuration loaded", "config", cfg.String())

	// Shutdown requests raise the flag; the engine notices it within one
	// poll interval, finishes the current step and still prints the summary.
	var shutdown engine.Flag
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			slog.Warn("Interrupt signal received. Initiating graceful shutdown...")
			shutdown.Request()
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fetcher := fetch.New(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)

	if _, err := source.Ensure(ctx, cfg.Source.Path, cfg.Source.URL, fetcher); err != nil {
		slog.Error("Failed to download CSV data file. Exiting.", "error", err)
		return err
	}
	plan, err := source.Open(cfg.Source.Path)
	if err != nil {
		return err
	}
	defer plan.Close()

	mode, _ := engine.ParseMode(cfg.Printer.Mode)
	root := cfg.Printer.OutputRoot()
	tracker := monitor.NewTracker()

	var op engine.Operator
	if mode == engine.ModeSupervised {
		lines := console.NewLineReader(os.Stdin)
		defer lines.Close()
		op = console.NewPrompter(lines, os.Stdout, &shutdown, cfg.Printer.PollInterval)
	}

	eng := engine.New(engine.Options{
		Name:       cfg.Printer.Name,
		Mode:       mode,
		OutputRoot: root,
		SkipHeader: cfg.Printer.SkipHeader,
		Observer:   tracker.Observe,
	}, materialize.New(root, fetcher), op, &shutdown)

	g, gctx := errgroup.WithContext(ctx)
	monitorCtx, stopMonitor := context.WithCancel(gctx)
	defer stopMonitor()

	var res engine.Result
	g.Go(func() error {
		defer stopMonitor()
		res = eng.Run(gctx, plan)
		tracker.Finish(res)
		return nil
	})
	if cfg.Monitor.Addr != "" {
		srv := monitor.NewServer(tracker)
		g.Go(func() error {
			if err := srv.Run(monitorCtx, cfg.Monitor.Addr, cfg.Monitor.ShutdownTimeout); err != nil {
				return fmt.Errorf("monitor: %w", err)
			}
			return nil
		})
	}
	groupErr := g.Wait()

	if err := report.WriteText(os.Stdout, res.Summary); err != nil {
		slog.Error("write report", "error", err)
	}
	report.Log(ctx, logging.WithFields(logging.WithRunID(ctx, res.RunID.String())), res.Summary)
	if res.SetupErr == nil {
		writeHTMLReport(ctx, root, res)
	}
	recordHistory(ctx, cfg, res)

	return errors.Join(res.SetupErr, groupErr)
}

func writeHTMLReport(ctx context.Context, root string, res engine.Result) {
	path := filepath.Join(root, "report.html")
	f, err := os.Create(path)
	if err != nil {
		slog.Error("create html report", "path", path, "error", err)
		return
	}
	defer f.Close()

	page := report.Page{
		Title:   "Fake Print Summary: " + res.Name,
		RunID:   res.RunID.String(),
		Mode:    string(res.Mode),
		Summary: res.Summary,
	}
	if err := report.HTML(page).Render(ctx, f); err != nil {
		slog.Error("render html report", "path", path, "error", err)
		return
	}
	slog.Info("report written", "path", path)
}

// recordHistory stores the run in the ledger when one is configured. Ledger
// problems are logged and never change the outcome of the print.
func recordHistory(ctx context.Context, cfg *config.Config, res engine.Result) {
	if cfg.History.URL == "" {
		return
	}
	log := logging.WithFields(logging.WithRunID(ctx, res.RunID.String()))

	pool, err := history.Open(ctx, cfg.History.URL, cfg.History.MaxConns)
	if err != nil {
		log.Error("run history unavailable", "error", err)
		return
	}
	defer pool.Close()

	store := history.New(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Error("run history schema", "error", err)
		return
	}
	run, err := history.FromResult(res)
	if err != nil {
		log.Error("run history", "error", err)
		return
	}
	if err := store.Record(ctx, run); err != nil {
		log.Error("run history", "error", err)
		return
	}
	log.Info("run recorded")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := "fakeprinter.toml"
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
