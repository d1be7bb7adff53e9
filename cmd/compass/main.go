// Command compass scores answer sheets offline against the value catalog.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ZanzyTHEbar/value-compass/internal/catalog"
	"github.com/ZanzyTHEbar/value-compass/internal/compass"
	"github.com/ZanzyTHEbar/value-compass/internal/config"
	"github.com/ZanzyTHEbar/value-compass/internal/database"
	"github.com/ZanzyTHEbar/value-compass/internal/monitoring"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// cli carries the flags shared by every subcommand.
type cli struct {
	configFile string
	dataDir    string
	catalog    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "compass",
		Short:         "Score political value questionnaires",
		Long:          "compass builds value portraits from YAML answer sheets and compares them with the actors of the catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (yaml, json or toml)")
	flags.StringVar(&c.dataDir, "db", "", "sqlite data directory (default: a temporary directory)")
	flags.StringVar(&c.catalog, "catalog", "", "catalog YAML file (default: the embedded catalog)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		c.seedCmd(),
		c.portraitCmd(),
		c.alignCmd(),
		c.rankCmd(),
		c.submitCmd(),
		c.purgeCmd(),
		c.actorCmd(),
		c.statsCmd(),
	)
	return root
}

// loadConfig merges defaults, COMPASS_* env, the config file and flags.
func (c *cli) loadConfig() (*config.Config, error) {
	v := config.New()
	v.SetDefault("log_level", "warn")
	if c.configFile != "" {
		v.SetConfigFile(c.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", c.configFile, err)
		}
	}
	setIf(v, "catalog_path", c.catalog)
	setIf(v, "log_level", c.logLevel)
	return config.FromViper(v)
}

func setIf(v *viper.Viper, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

// session is an open service plus what must be released with it.
type session struct {
	service *compass.Service
	repo    *database.Repository
	catalog *catalog.Catalog
	dataDir string
	closers []func()
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// open seeds the catalog into the database selected by --db, or into a
// throwaway one when no directory was given.
func (c *cli) open(ctx context.Context) (*session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	logger := monitoring.NewLoggerTo(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger.Logger)

	s := &session{dataDir: c.dataDir}
	if s.dataDir == "" {
		tmp, err := os.MkdirTemp("", "compass-")
		if err != nil {
			return nil, err
		}
		s.dataDir = tmp
		s.closers = append(s.closers, func() { os.RemoveAll(tmp) })
	}

	s.catalog, err = loadCatalog(cfg.CatalogPath)
	if err != nil {
		s.Close()
		return nil, err
	}

	db, err := database.NewDB(ctx, s.dataDir)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, func() { db.Close() })

	s.repo = database.NewRepository(db)
	s.service = compass.NewService(s.repo, compass.Options{
		RankingWorkers: cfg.RankingWorkers,
		Logger:         logger,
	})
	if err := s.service.Seed(ctx, s.catalog); err != nil {
		s.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	return s, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}
