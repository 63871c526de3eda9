package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eatsdash/internal/client"
	"eatsdash/internal/config"
	"eatsdash/internal/discovery"
	"eatsdash/internal/history"
	"eatsdash/internal/logging"
	"eatsdash/internal/server"
	"eatsdash/internal/storage"
	"eatsdash/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

var (
	serveFlag = flag.Bool("serve", false, "run the backend instead of the panel")
	debugFlag = flag.Bool("debug", false, "log at debug level")
)

const discoverTimeout = 3 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()

	if *serveFlag {
		err = serve(cfg)
	} else {
		err = runPanel(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve(cfg config.Config) error {
	log, err := logging.NewServer(*debugFlag)
	if err != nil {
		return err
	}
	defer log.Sync()

	home, err := cfg.Home()
	if err != nil {
		return err
	}

	dbPath, err := cfg.ResolvedDBPath()
	if err != nil {
		return err
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	var seeded []string
	if cfg.Fixtures != "" {
		fixtures, err := storage.LoadFixtures(cfg.Fixtures)
		if err != nil {
			return err
		}
		if seeded, err = store.Seed(fixtures); err != nil {
			return err
		}
		log.Info("seeded fixtures", zap.String("path", cfg.Fixtures), zap.Int("accounts", len(seeded)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := server.Options{
		Addr:   cfg.Listen,
		Store:  store,
		Home:   home,
		Logger: log,
	}
	if cfg.DatabaseURL != "" {
		pool, err := history.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		repo := history.NewRepository(pool, log)
		if err := repo.Migrate(ctx); err != nil {
			return err
		}
		for _, id := range seeded {
			orders, err := store.PastOrders(id)
			if err != nil {
				return err
			}
			if err := repo.SavePastOrders(ctx, id, orders); err != nil {
				return err
			}
		}
		opts.History = repo
	}

	srv := server.New(opts)
	if err := srv.Start(); err != nil {
		return err
	}

	hostname, _ := os.Hostname()
	adv, err := discovery.Advertise(hostname, srv.Port(), server.APIVersion, log)
	if err != nil {
		log.Warn("mDNS advertise failed", zap.Error(err))
	}

	<-ctx.Done()
	log.Info("shutting down")
	adv.Stop()
	return srv.Stop()
}

func runPanel(cfg config.Config) error {
	logPath, err := cfg.ResolvedLogFile()
	if err != nil {
		return err
	}
	log, err := logging.NewFile(logPath, *debugFlag)
	if err != nil {
		return err
	}
	defer log.Sync()

	home, err := cfg.Home()
	if err != nil {
		return err
	}

	serverURL := cfg.ServerURL
	if serverURL == "" && cfg.Discover {
		ctx, cancel := context.WithTimeout(context.Background(), discoverTimeout+time.Second)
		serverURL, err = discovery.First(ctx, discoverTimeout, log)
		cancel()
		if err != nil {
			return err
		}
		if serverURL == "" {
			return fmt.Errorf("no backend found on the local network")
		}
		log.Info("discovered backend", zap.String("url", serverURL))
	}
	if serverURL == "" {
		return fmt.Errorf("no backend configured: pass -server or -discover")
	}

	app := tui.NewApp(tui.Options{
		Backend:         client.NewClient(serverURL),
		Home:            home,
		RefreshInterval: cfg.RefreshInterval,
		Debounce:        cfg.Debounce,
		Logger:          log,
		SetupHint:       "Backend: " + serverURL,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
