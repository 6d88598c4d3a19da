// cmd/orderdesk/main.go
//
// Entry point for the order desk. Run it from the directory that should hold
// the .orderdesk folder.
//
// Modes:
//   orderdesk                     staff dashboard
//   orderdesk -track A-12         dashboard opened on the tracking view
//   orderdesk -track A-12 -plain  countdown printed to stdout, no UI

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/orderdesk/internal/config"
	"github.com/kingrea/orderdesk/internal/desk"
	"github.com/kingrea/orderdesk/internal/gateway"
	"github.com/kingrea/orderdesk/internal/logbook"
	"github.com/kingrea/orderdesk/internal/logging"
	"github.com/kingrea/orderdesk/internal/ordertype"
	"github.com/kingrea/orderdesk/internal/tui"
)

func main() {
	trackTag := flag.String("track", "", "order tag to track")
	plain := flag.Bool("plain", false, "with -track, print the countdown instead of starting the dashboard")
	flag.Parse()

	if err := run(*trackTag, *plain); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(trackTag string, plain bool) error {
	if plain && trackTag == "" {
		return errors.New("-plain requires -track <tag>")
	}

	// The working directory is the project the desk keeps its state in.
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	if err := config.InitDeskDir(cwd); err != nil {
		return fmt.Errorf("initialize %s directory: %w", config.DeskDir, err)
	}
	cfg, err := config.NewConfig(cwd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cwd)
	if err != nil {
		return err
	}
	defer logger.Close()
	book, err := logbook.New(cfg.ActivityLogPath())
	if err != nil {
		return fmt.Errorf("open activity log: %w", err)
	}

	transport := gateway.NewHTTPTransport(cfg.BaseURL(),
		gateway.WithToken(cfg.Token()),
		gateway.WithTimeout(cfg.Timeout()),
	)
	client := gateway.NewClient(transport)
	types := ordertype.NewCache(client,
		ordertype.WithTTL(cfg.OrderTypeTTL()),
		ordertype.WithLogger(logger),
	)
	svc := desk.New(client, types,
		desk.WithJournal(book),
		desk.WithLogger(logger),
		desk.WithDefaultEstimate(cfg.DefaultEstimateMinutes()),
	)
	logger.WithFields(map[string]any{"base_url": cfg.BaseURL(), "view": cfg.DefaultView()}).Printf("orderdesk starting")

	if plain {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runPlainTracker(ctx, svc.Track, trackTag, cfg.TrackingPollInterval(), logger, os.Stdout)
	}

	p := tea.NewProgram(
		tui.NewApp(cfg, svc, tui.WithLogbook(book), tui.WithTracking(trackTag)),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
