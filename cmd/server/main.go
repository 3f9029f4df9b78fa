package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/liuwen-dev/douyin-harvester/internal/serverconfig"
	"github.com/liuwen-dev/douyin-harvester/pkg/api"
	"github.com/liuwen-dev/douyin-harvester/pkg/browser"
	"github.com/liuwen-dev/douyin-harvester/pkg/collector"
	"github.com/liuwen-dev/douyin-harvester/pkg/corpus"
	"github.com/liuwen-dev/douyin-harvester/pkg/db"
	"github.com/liuwen-dev/douyin-harvester/pkg/export"
	"github.com/liuwen-dev/douyin-harvester/pkg/logging"
	"github.com/liuwen-dev/douyin-harvester/pkg/tasks"
	"gorm.io/gorm"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Only log warning since .env is optional
		logrus.WithError(err).Warn("Error loading .env file")
	}

	// Initialize logger
	log := logrus.New()
	log.SetFormatter(logging.NewColoredJSONFormatter())

	// Get log level from environment
	logLevel := os.Getenv("LOG_LEVEL")
	if level, err := logrus.ParseLevel(logLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithFields(logrus.Fields{
			"attempted_level": logLevel,
			"default_level":   "INFO",
		}).Warn("Invalid log level specified, defaulting to INFO")
	}

	cfg, err := serverconfig.NewConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load server config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence is optional; without it collected data lives in memory
	// for the lifetime of the process.
	var gormDB *gorm.DB
	if cfg.DBEnabled {
		gormDB, err = db.SetupDatabase(log)
		if err != nil {
			log.WithError(err).Fatal("Failed to set up database")
		}
	} else {
		log.Info("Database persistence disabled, using in-memory storage")
	}

	page := browser.NewChromium(browser.NewConfig(log))
	defer func() {
		if err := page.Close(); err != nil {
			log.WithError(err).Warn("Error closing browser")
		}
	}()

	store := corpus.NewStore(log, gormDB)
	coll := collector.New(page, store, log, collector.Config{})

	manager := tasks.NewManager(browser.NewSession(), log)
	manager.SetRetention(cfg.TaskRetention)
	if err := registerRunners(manager, coll); err != nil {
		log.WithError(err).Fatal("Failed to register task runners")
	}

	go func() {
		if err := manager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Task manager exited")
		}
	}()

	exporter, err := export.NewWriter(cfg.ExportDir)
	if err != nil {
		log.WithError(err).Fatal("Failed to prepare export directory")
	}

	server := api.NewServer(manager, store, exporter, log.WithField("component", "http"))
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Router(),
	}

	go func() {
		log.WithField("addr", cfg.Addr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server failed")
			cancel()
		}
	}()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP shutdown did not finish cleanly")
	}
	log.Info("Shutdown complete")
}

// registerRunners binds each task kind to its collection strategy.
func registerRunners(manager *tasks.Manager, coll *collector.Collector) error {
	runners := map[tasks.Kind]tasks.Runner{
		tasks.KindKeywordSearch: func(ctx context.Context, exec collector.Execution, p tasks.Params) (*collector.Result, error) {
			return coll.KeywordComments(ctx, exec, collector.KeywordParams{
				Keyword:       p.Keyword,
				ScrollCount:   p.ScrollCount,
				Delay:         p.Delay(),
				MaxVideos:     p.MaxVideos,
				PerVideoLimit: p.PerVideoLimit,
			})
		},
		tasks.KindVideoHarvest: func(ctx context.Context, exec collector.Execution, p tasks.Params) (*collector.Result, error) {
			return coll.VideoComments(ctx, exec, collector.VideoParams{
				VideoURL: p.VideoURL,
				Limit:    p.Limit,
			})
		},
		tasks.KindUserHarvest: func(ctx context.Context, exec collector.Execution, p tasks.Params) (*collector.Result, error) {
			return coll.UserComments(ctx, exec, collector.UserParams{
				UserInput:     p.UserInput,
				ScrollCount:   p.ScrollCount,
				Delay:         p.Delay(),
				PerVideoLimit: p.PerVideoLimit,
			})
		},
		tasks.KindSearchCollect: func(ctx context.Context, exec collector.Execution, p tasks.Params) (*collector.Result, error) {
			return coll.SearchCollect(ctx, exec, collector.SearchParams{
				Keyword:     p.Keyword,
				SearchType:  p.SearchType,
				ScrollCount: p.ScrollCount,
				Delay:       p.Delay(),
			})
		},
	}
	for kind, runner := range runners {
		if err := manager.Register(kind, runner); err != nil {
			return err
		}
	}
	return nil
}
