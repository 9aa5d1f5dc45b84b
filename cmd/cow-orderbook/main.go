package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cow-orderbook/internal/capture"
	"cow-orderbook/internal/config"
	"cow-orderbook/internal/cowapi"
	"cow-orderbook/internal/dashboard"
	"cow-orderbook/internal/server"
	"cow-orderbook/internal/state"
	"cow-orderbook/internal/tokens"
	"cow-orderbook/internal/tui"

	"github.com/joho/godotenv"
)

type mode struct {
	once       bool
	onceToken  string
	tui        bool
	screenshot string
}

// parseArgs understands:
//
//	--once [token name]     render once and print JSON to stdout
//	--tui                   terminal view
//	--screenshot out.png    serve, capture the dashboard with headless Chrome, exit
func parseArgs(args []string) (mode, error) {
	var m mode
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--once":
			m.once = true
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
				m.onceToken = args[i+1]
				i++
			}
		case "--tui":
			m.tui = true
		case "--screenshot":
			if i+1 >= len(args) {
				return m, errors.New("--screenshot needs an output path")
			}
			m.screenshot = args[i+1]
			i++
		default:
			return m, fmt.Errorf("unknown argument %q", args[i])
		}
	}
	return m, nil
}

func main() {
	_ = godotenv.Load() // best-effort: .env is optional

	m, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config.yaml: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.LogLevel)

	reg, err := tokens.LoadCSV(cfg.TokensCSV)
	if err != nil {
		logger.Error("token table", slog.String("err", err.Error()))
		os.Exit(1)
	}
	logger.Info("cow-orderbook starting",
		slog.Int("port", cfg.Port),
		slog.String("auction_url", cfg.AuctionURL),
		slog.Int("tokens", reg.Len()),
		slog.Int("duplicate_addresses", reg.Duplicates()),
		slog.String("default_token", cfg.DefaultToken),
	)

	timeout := time.Duration(cfg.FetchTimeoutSeconds) * time.Second
	client := cowapi.NewClient(cfg.AuctionURL, timeout, cfg.FetchRetries, logger)
	svc := dashboard.NewService(client, reg, cfg.NumeraireAddress, cfg.ExplorerAddressURL, logger)

	switch {
	case m.once:
		os.Exit(runOnce(svc, cfg, m.onceToken, timeout, logger))
	case m.tui:
		if err := tui.New(svc, cfg.DefaultToken, 2*timeout+time.Second, logger).Run(); err != nil {
			logger.Error("tui", slog.String("err", err.Error()))
			os.Exit(1)
		}
		return
	}

	st := state.NewState(cfg.DefaultToken)
	srv := server.NewHTTPServer(cfg, st, svc, logger)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", httpSrv.Addr)
	if err != nil {
		logger.Error("listen", slog.String("err", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		logger.Info("HTTP server listening", slog.Int("port", cfg.Port))
		if err := httpSrv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.String("err", err.Error()))
			cancel()
		}
		close(done)
	}()

	exitCode := 0
	if m.screenshot != "" {
		opts := capture.Options{
			URL:    fmt.Sprintf("http://127.0.0.1:%d/", cfg.Port),
			Wait:   2*timeout + 30*time.Second,
			Logger: logger,
		}
		if err := capture.ToFile(ctx, opts, m.screenshot); err != nil {
			logger.Error("screenshot failed", slog.String("err", err.Error()))
			exitCode = 1
		} else {
			logger.Info("screenshot written", slog.String("path", m.screenshot))
		}
	} else {
		// Graceful shutdown
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigc:
		case <-ctx.Done():
			exitCode = 1
		}
	}

	logger.Info("shutting down...")
	shCtx, shCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shCancel()

	_ = httpSrv.Shutdown(shCtx)
	<-done
	logger.Info("bye")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func runOnce(svc *dashboard.Service, cfg config.Config, token string, timeout time.Duration, logger *slog.Logger) int {
	if token == "" {
		token = cfg.DefaultToken
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*timeout+time.Second)
	defer cancel()
	v, err := svc.Build(ctx, token)
	if err != nil {
		logger.Error("render failed", slog.String("token", token), slog.String("err", err.Error()))
		return 1
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Error("encode", slog.String("err", err.Error()))
		return 1
	}
	return 0
}
