// Command mushroom runs a multi-user text world server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/po1/mushroom/pkg/scrollback"
	"github.com/po1/mushroom/pkg/server"
	"github.com/po1/mushroom/pkg/world"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "c", "", "path to a config file")
	flag.StringVar(&configPath, "config", "", "path to a config file")
	flag.Parse()

	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	db := world.NewDatabase()
	switch err := db.Load(cfg.DBFile); {
	case err == nil:
		logger.Info("database loaded", zap.String("path", cfg.DBFile), zap.Int("objects", db.Len()))
	case os.IsNotExist(err):
		logger.Info("database not found, starting fresh", zap.String("path", cfg.DBFile))
	default:
		logger.Error("could not load database, starting fresh",
			zap.String("path", cfg.DBFile), zap.Error(err))
	}

	w := world.New(db, logger)
	defer w.Close()

	var scroll *scrollback.Store
	if cfg.ScrollbackFile != "" {
		scroll, err = scrollback.Open(cfg.ScrollbackFile, cfg.ScrollbackLines, logger)
		if err != nil {
			logger.Fatal("could not open scrollback", zap.Error(err))
		}
		defer scroll.Close()
		scroll.Follow(w.Bus().Subscribe())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, w, scroll, logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func buildLogger(cfg server.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.LogFile != "" {
		zcfg.OutputPaths = []string{cfg.LogFile}
		zcfg.ErrorOutputPaths = []string{cfg.LogFile}
	}
	return zcfg.Build()
}
