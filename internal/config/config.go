package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port                int      `yaml:"port"`
	LogLevel            string   `yaml:"log_level"`
	AuctionURL          string   `yaml:"auction_url"`
	TokensCSV           string   `yaml:"tokens_csv"`
	NumeraireAddress    string   `yaml:"numeraire_address"`
	DefaultToken        string   `yaml:"default_token"`
	ExplorerAddressURL  string   `yaml:"explorer_address_url"`
	FetchTimeoutSeconds int      `yaml:"fetch_timeout_seconds"`
	FetchRetries        int      `yaml:"fetch_retries"`
	AllowedOrigins      []string `yaml:"allowed_origins"`
	WebDir              string   `yaml:"web_dir"`
}

func defaults() Config {
	return Config{
		Port:                8087,
		LogLevel:            "info",
		AuctionURL:          "https://api.cow.fi/mainnet/api/v1/auction",
		TokensCSV:           "./cow_tokens.csv",
		NumeraireAddress:    "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", // USDC
		DefaultToken:        "Safe Token",
		ExplorerAddressURL:  "https://etherscan.io/address/",
		FetchTimeoutSeconds: 15,
		FetchRetries:        1,
		AllowedOrigins:      []string{"http://localhost:8087", "http://127.0.0.1:8087"},
		WebDir:              "./web",
	}
}

// Load reads path on top of the defaults. A missing file is not an error;
// the defaults plus environment overrides are returned instead.
func Load(path string) (Config, error) {
	cfg := defaults()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml: %w", err)
		}
	}
	applyEnv(&cfg)
	return cfg, validate(&cfg)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("COW_AUCTION_URL"); v != "" {
		cfg.AuctionURL = v
	}
	if v := os.Getenv("COW_ORDERBOOK_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return errors.New("invalid port")
	}
	u, err := url.Parse(cfg.AuctionURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid auction_url %q", cfg.AuctionURL)
	}
	if !common.IsHexAddress(cfg.NumeraireAddress) {
		return fmt.Errorf("numeraire_address %q is not a hex address", cfg.NumeraireAddress)
	}
	cfg.NumeraireAddress = strings.ToLower(cfg.NumeraireAddress)
	if strings.TrimSpace(cfg.TokensCSV) == "" {
		return errors.New("tokens_csv required")
	}
	if cfg.FetchTimeoutSeconds < 1 {
		return errors.New("fetch_timeout_seconds must be >=1")
	}
	if cfg.FetchRetries < 0 || cfg.FetchRetries > 1 {
		return errors.New("fetch_retries must be 0 or 1")
	}
	return nil
}

func NewLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}
