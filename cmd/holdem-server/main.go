// Command holdem-server runs the live Hold'em table engine: WebSocket
// endpoints per configured table, automatic dealing, and asynchronous chip
// settlement.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/cardroomhq/holdem/internal/server"
	"github.com/cardroomhq/holdem/internal/store"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Config   string           `kong:"default='holdem.hcl',help='Path to HCL configuration file'"`
	Addr     string           `kong:"help='Override the configured listen address (host:port)'"`
	LogLevel string           `kong:"help='Override the configured log level (debug|info|warn|error)'"`
	Seed     int64            `kong:"help='Deterministic RNG seed for shuffles (0 seeds from wall time)'"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("holdem-server"),
		kong.Description("Live multiplayer Texas Hold'em table server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	ctx.FatalIfErrorf(cli.run())
}

func (c *CLI) run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Server.LogLevel, err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})

	addr := cfg.GetServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	mem := store.NewMemory()
	for _, t := range cfg.Tables {
		mem.AddTable(store.TableConfig{
			Name:       t.Name,
			MaxPlayers: t.MaxPlayers,
			SmallBlind: t.SmallBlind,
			BigBlind:   t.BigBlind,
			BuyIn:      t.BuyIn,
		})
	}

	clock := quartz.NewReal()
	committer := store.NewCommitter(mem, logger, clock)
	hub := server.NewHub(mem, committer, logger, server.HubOptions{
		TurnTimeout: cfg.GetTurnTimeout(),
		HandDelay:   cfg.GetHandDelay(),
		Clock:       clock,
		Seed:        c.Seed,
	})
	for _, t := range cfg.Tables {
		tableCfg, err := mem.LoadTableConfig(context.Background(), t.Name)
		if err != nil {
			return err
		}
		hub.AddTable(tableCfg)
	}

	srv := server.NewServer(addr, hub, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server", "addr", addr, "tables", len(cfg.Tables),
		"turnTimeout", cfg.GetTurnTimeout(), "version", version)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		if err := committer.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
