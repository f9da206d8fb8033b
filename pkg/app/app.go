// Package app composes storage, the storefront services, and the HTTP server
// so both entry points can run the application with a single Run call.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"milsabores/internal/httpserver"
	"milsabores/pkg/account"
	"milsabores/pkg/cart"
	"milsabores/pkg/catalog"
	"milsabores/pkg/storage"
	"milsabores/pkg/storage/sqlitestore"
	"milsabores/pkg/version"
)

// Config captures CLI flags so the storefront can run with a single Run call.
type Config struct {
	showVersion bool
	configPath  string
	port        int
	dbType      string
	dbPath      string
	debug       bool
}

// fileConfig mirrors the optional YAML configuration file. Explicit CLI flags
// win over file values.
type fileConfig struct {
	Port   int    `yaml:"port"`
	DBType string `yaml:"dbType"`
	DBPath string `yaml:"dbPath"`
	Debug  bool   `yaml:"debug"`
}

// Run composes persistence, the storefront services, and the HTTP server. It
// blocks until the context is cancelled or the server fails.
func Run(ctx context.Context, args []string, logger *zap.Logger) error {
	cfg, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			// Help output is already printed by the flag package, so we quietly exit.
			return nil
		}
		return err
	}

	if logger == nil {
		logger, err = newLogger(cfg.debug)
		if err != nil {
			return fmt.Errorf("unable to build logger: %w", err)
		}
		defer logger.Sync()
	}

	if cfg.showVersion {
		logger.Info("mil sabores storefront", zap.String("version", version.Version()))
		return nil
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("unable to open storage: %w", err)
	}
	defer closeStore()

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("unable to load catalog: %w", err)
	}
	logger.Info("catalog loaded",
		zap.Int("products", cat.Len()),
		zap.Int("categories", len(cat.Categories())))

	cartService := cart.NewService(cat, store, logger.Named("cart"))
	defer cartService.Close()

	accountService := account.NewService(store, logger.Named("account"), account.DefaultDelays)

	srv := httpserver.New(cat, cartService, accountService, logger.Named("http"))

	addr := cfg.address()
	server := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("storefront is running", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server stopped unexpectedly: %w", err)
	}
	return nil
}

// newLogger builds the production logger, or a development one when debug
// output is requested.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStore picks the persistence backend from the configuration. Memory is
// the profile of a fresh browser; sqlite survives restarts.
func openStore(ctx context.Context, cfg Config) (storage.Store, func(), error) {
	switch cfg.dbType {
	case "memory":
		return storage.NewMemory(), func() {}, nil
	case "sqlite":
		path := cfg.dbPath
		if path == "" {
			path = "milsabores.db"
		}
		store, err := sqlitestore.Open(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown db type %q", cfg.dbType)
	}
}

// address converts port configuration into a binding string. The PORT
// environment variable wins, matching common hosting platforms.
func (c Config) address() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":" + strconv.Itoa(c.port)
}

// parseFlags uses a dedicated FlagSet so Run can be called from multiple
// entry points. Values from the optional YAML config file apply only to flags
// the caller did not set explicitly.
func parseFlags(args []string) (Config, error) {
	set := flag.NewFlagSet("milsabores", flag.ContinueOnError)
	set.SetOutput(io.Discard)

	var cfg Config
	set.BoolVar(&cfg.showVersion, "version", false, "Show the application version")
	set.StringVar(&cfg.configPath, "config", "", "Path to an optional YAML configuration file")
	set.IntVar(&cfg.port, "port", 8765, "Port for the HTTP server")
	set.StringVar(&cfg.dbType, "db-type", "sqlite", "Storage backend: memory or sqlite")
	set.StringVar(&cfg.dbPath, "db-path", "", "Filesystem path for the sqlite database; defaults to milsabores.db")
	set.BoolVar(&cfg.debug, "debug", false, "Enable development logging")

	if err := set.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.configPath != "" {
		if err := applyFileConfig(set, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// applyFileConfig loads the YAML file and fills in every flag the user left
// at its default.
func applyFileConfig(set *flag.FlagSet, cfg *Config) error {
	raw, err := os.ReadFile(cfg.configPath)
	if err != nil {
		return fmt.Errorf("unable to read config file: %w", err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("unable to parse config file: %w", err)
	}

	explicit := map[string]bool{}
	set.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if file.Port != 0 && !explicit["port"] {
		cfg.port = file.Port
	}
	if file.DBType != "" && !explicit["db-type"] {
		cfg.dbType = file.DBType
	}
	if file.DBPath != "" && !explicit["db-path"] {
		cfg.dbPath = file.DBPath
	}
	if file.Debug && !explicit["debug"] {
		cfg.debug = true
	}
	return nil
}
