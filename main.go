package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/fragmede/sanctum/internal/api"
	"github.com/fragmede/sanctum/internal/auth"
	"github.com/fragmede/sanctum/internal/cache"
	"github.com/fragmede/sanctum/internal/config"
	"github.com/fragmede/sanctum/internal/monitor"
	"github.com/fragmede/sanctum/internal/sanctum"
	"github.com/fragmede/sanctum/internal/store"
	"github.com/fragmede/sanctum/internal/ui"
)

func main() {
	confPath := flag.String("config", defaultConfigPath(), "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*confPath)
	if err != nil {
		fatal(err)
	}

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		fatal(fmt.Errorf("creating cache dir: %w", err))
	}

	logger := newLogger(cfg)

	db, err := cache.Open(cfg.DBPath)
	if err != nil {
		fatal(fmt.Errorf("opening cache: %w", err))
	}
	defer db.Close()

	memJar, err := api.NewJar()
	if err != nil {
		fatal(err)
	}
	jar := cache.NewJar(memJar, db, logger)
	if n, err := jar.Restore(); err != nil {
		logger.Warn("restoring cookies", slogutil.KeyError, err)
	} else {
		logger.Debug("restored cookies", "count", n)
	}

	client, err := api.NewClient(&api.ClientConfig{
		BaseURL:        cfg.ParsedBaseURL(),
		Jar:            jar,
		UserAgent:      cfg.UserAgent,
		XSRFCookieName: cfg.XSRFCookieName,
		Timeout:        cfg.RequestTimeout(),
	})
	if err != nil {
		fatal(err)
	}

	s, err := sanctum.New(&sanctum.Options{
		HTTPClient:      client,
		Store:           store.NewContainer(),
		Logger:          logger,
		XSRFCookieName:  cfg.XSRFCookieName,
		StoreModuleName: cfg.StoreModuleName,
		Routes:          auth.Routes(cfg.Routes),
	})
	if err != nil {
		fatal(err)
	}

	if err := run(cfg, s, db, logger); err != nil {
		fatal(err)
	}
}

// run starts the TUI and the event relay and waits for the TUI to exit.
func run(cfg config.Config, s *sanctum.Sanctum, db *cache.DB, logger *slog.Logger) error {
	app := ui.NewApp(cfg, s, db)
	p := tea.NewProgram(app, tea.WithAltScreen())
	mon := monitor.New(s.Bus, db, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mon.Run(ctx, p)
	})
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})

	return g.Wait()
}

func newLogger(cfg config.Config) *slog.Logger {
	lvl := slog.LevelInfo
	if cfg.Verbose {
		lvl = slog.LevelDebug
	}

	return slogutil.New(&slogutil.Config{
		Output: &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    5,
			MaxBackups: 3,
		},
		Format:       slogutil.FormatDefault,
		Level:        lvl,
		AddTimestamp: true,
	})
}

func defaultConfigPath() string {
	return filepath.Join(config.Default().CacheDir, "config.toml")
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
