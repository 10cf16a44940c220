package main

import (
	"fmt"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/masterfulhomes/dashwise-go/access"
	"github.com/masterfulhomes/dashwise-go/auth"
	"github.com/masterfulhomes/dashwise-go/httpclient"
	"github.com/masterfulhomes/dashwise-go/internal/config"
	"github.com/masterfulhomes/dashwise-go/resources"
	"github.com/masterfulhomes/dashwise-go/session"
	"github.com/masterfulhomes/dashwise-go/session/filestore"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dashwise",
		Short: "DashWise command-line client",
		Long: `Command-line client for the DashWise / Masterful Homes API.

Keeps a persistent session on disk, refreshes access tokens
transparently, and gates navigation by role.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		getCmd(),
		navCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// app wires the client stack together: config, file-backed session store,
// auth service, refreshing transport, resources, and the access gate.
type app struct {
	cfg   *config.Config
	store *session.Store
	auth  *auth.Service
	api   *resources.Client
	gate  *access.Gate
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	configureLogging(cfg.LogLevel)

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	storage, err := filestore.New(dataDir)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(storage)
	if restored, err := store.Rehydrate(); err != nil {
		log.Warn().Err(err).Msg("could not rehydrate session, starting anonymous")
	} else if restored {
		log.Debug().Str("role", store.Role()).Msg("session rehydrated")
	}

	authService, err := auth.NewService(cfg.BaseURL, store,
		auth.WithRefreshTimeout(cfg.RefreshTimeoutDuration()))
	if err != nil {
		return nil, err
	}

	transport, err := httpclient.New(cfg.BaseURL, authService,
		httpclient.WithTimeout(cfg.RequestTimeoutDuration()))
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:   cfg,
		store: store,
		auth:  authService,
		api:   resources.NewClient(transport),
		gate:  access.NewGate(store),
	}, nil
}

func configureLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).Level(parsed)
}

func displayBanner() {
	figure.NewFigure("DashWise", "cybermedium", true).Print()
	fmt.Println()
}
