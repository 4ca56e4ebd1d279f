package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/flowdex/internal/config"
	"github.com/dshills/flowdex/internal/indexer"
	"github.com/dshills/flowdex/internal/searcher"
	"github.com/dshills/flowdex/internal/storage"
)

// Set via ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "flowdex",
	Short:         "Workflow document indexing and search engine",
	Long:          "flowdex indexes JSON workflow documents into SQLite with FTS5 and serves them over HTTP and MCP.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: ./config.yaml)")
	rootCmd.AddCommand(serveCmd, mcpCmd, reindexCmd, versionCmd)
}

// engine bundles the long-lived components every command builds on
type engine struct {
	config   *config.Config
	logger   *zap.Logger
	store    storage.Store
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
}

// buildEngine loads configuration and opens the store. A store that cannot
// be opened or migrated is fatal.
func buildEngine() (*engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	store, err := storage.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open index store: %w", err)
	}

	idx := indexer.New(store, logger, &indexer.Config{Workers: cfg.Indexer.Workers})
	srch := searcher.New(store, logger, &searcher.Config{
		CacheSize: cfg.Search.CacheSize,
		CacheTTL:  cfg.Search.CacheTTL,
		Timeout:   cfg.Search.Timeout,
	})

	return &engine{
		config:   cfg,
		logger:   logger,
		store:    store,
		indexer:  idx,
		searcher: srch,
	}, nil
}

// close releases the engine's resources
func (e *engine) close() {
	_ = e.logger.Sync()
	_ = e.store.Close()
}

// newLogger builds the process logger. Output goes to stderr, which keeps
// stdout free for the MCP protocol.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	var zc zap.Config
	if cfg.Log.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
