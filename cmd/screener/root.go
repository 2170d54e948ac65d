package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/profile-screener/internal/ai"
	"github.com/profile-screener/internal/ai/gemini"
	"github.com/profile-screener/internal/config"
	"github.com/profile-screener/internal/db"
	"github.com/profile-screener/internal/logger"
	"github.com/profile-screener/internal/score"
	"github.com/profile-screener/internal/screen"
	"github.com/profile-screener/internal/source"
)

const app = "screener"

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "screener matches subject profiles against heterogeneous record sources",
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// deps bundles everything a command needs after wiring.
type deps struct {
	cfg        *config.Config
	log        *zap.Logger
	engine     *screen.Engine
	discoverer *source.Discoverer
	extractor  ai.Extractor
	database   *sql.DB
}

func (d *deps) Close() {
	if d.engine != nil {
		d.engine.Release()
	}
	if d.database != nil {
		d.database.Close()
	}
}

// mustSetup builds the engine and its collaborators from the config file
// and environment. It exits on any wiring error.
func mustSetup() *deps {
	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		zlog.Fatal("loading config", zap.Error(err))
	}

	d := &deps{cfg: cfg, log: zlog}

	if cfg.Database != nil && cfg.Database.DSN != "" {
		conn, err := db.Connect(cfg.Database.DSN)
		if err != nil {
			zlog.Fatal("connecting to database", zap.Error(err))
		}
		d.database = conn
	}

	weights, err := cfg.ScoreWeights()
	if err != nil {
		zlog.Fatal("reading weights", zap.Error(err))
	}

	opts := []screen.Option{
		screen.WithScorer(score.NewScorerWithConfig(weights, cfg.ScoreThresholds())),
		screen.WithLogger(zlog),
		screen.WithLimit(cfg.Limit),
		screen.WithSampleSize(cfg.SampleSize),
		screen.WithDB(d.database),
	}
	if cfg.PoolSize > 0 {
		opts = append(opts, screen.WithPoolSize(cfg.PoolSize))
	}
	if cfg.Postal != nil && cfg.Postal.Enabled {
		if x := newAddressExpander(); x != nil {
			opts = append(opts, screen.WithAddressExpander(x))
		} else {
			zlog.Warn("address expansion requested but this binary was built without libpostal")
		}
	}

	engine, err := screen.NewEngine(opts...)
	if err != nil {
		zlog.Fatal("building engine", zap.Error(err))
	}
	d.engine = engine

	dbName := ""
	if cfg.Database != nil {
		dbName = cfg.Database.Name
	}
	d.discoverer = source.NewDiscoverer(cfg.DataDirs, d.database, dbName, zlog)

	if cfg.AI != nil && cfg.AI.Enabled {
		gen, err := gemini.NewGenerator(context.Background(), cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			zlog.Fatal("configuring gemini", zap.Error(err))
		}
		d.extractor = gemini.NewExtractor(gen, zlog)
	}

	return d
}

// parseSource turns a command line argument into a source descriptor.
// Files are recognised by extension; "table:customers" selects a database
// table.
func parseSource(arg, dbName string) (source.Descriptor, error) {
	if table, ok := strings.CutPrefix(arg, "table:"); ok {
		return source.Descriptor{
			Name:     table,
			Kind:     source.KindRelationalTable,
			Location: dbName,
			Table:    table,
		}, nil
	}

	switch strings.ToLower(filepath.Ext(arg)) {
	case ".csv":
		return source.Descriptor{
			Name:     filepath.Base(arg),
			Kind:     source.KindTabularFile,
			Location: arg,
		}, nil
	case ".json":
		return source.Descriptor{
			Name:     filepath.Base(arg),
			Kind:     source.KindSemiStructuredFile,
			Location: arg,
		}, nil
	}
	return source.Descriptor{}, fmt.Errorf("cannot infer source kind from %q", arg)
}

// selectSources resolves the --source flags, falling back to discovery.
func selectSources(d *deps, args []string) ([]source.Descriptor, error) {
	if len(args) == 0 {
		return d.discoverer.Discover(context.Background()), nil
	}

	dbName := ""
	if d.cfg.Database != nil {
		dbName = d.cfg.Database.Name
	}

	descs := make([]source.Descriptor, 0, len(args))
	for _, arg := range args {
		desc, err := parseSource(arg, dbName)
		if err != nil {
			return nil, err
		}
		descs = append(descs, desc)
	}
	return descs, nil
}
