// Command stubserver is a development stand-in for the DashWise API. It
// implements the auth contract the client speaks (register, login,
// refresh with rotating refresh tokens) and a few bearer-guarded sample
// resources, so the SDK and CLI can run end-to-end locally.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("stubserver failed")
	}
	log.Info().Msg("stubserver stopped")
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	figure.NewFigure("DashWise Stub", "cybermedium", true).Print()
	fmt.Println()

	secret := os.Getenv("STUB_SIGNING_SECRET")
	if secret == "" {
		secret = "dev-only-signing-secret"
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	backend := newBackend([]byte(secret))
	backend.seed()

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", backend.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", backend.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", backend.handleRefresh).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(backend.requireAuth)
	protected.HandleFunc("/installations", backend.handleInstallations).Methods(http.MethodGet)
	protected.HandleFunc("/invoices", backend.handleInvoices).Methods(http.MethodGet)
	protected.HandleFunc("/customers", backend.handleCustomers).Methods(http.MethodGet)

	server := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("stubserver listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("listen and serve")
		}
	}()

	waitForStopSignal()
	return shutdown(server)
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
