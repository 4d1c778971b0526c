package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/ecocharge-reservation/internal/config"
	"github.com/iliyamo/ecocharge-reservation/internal/logger"
	"github.com/iliyamo/ecocharge-reservation/internal/middleware"
	"github.com/iliyamo/ecocharge-reservation/internal/queue"
	"github.com/iliyamo/ecocharge-reservation/internal/recommend"
	"github.com/iliyamo/ecocharge-reservation/internal/router"
	"github.com/iliyamo/ecocharge-reservation/internal/scheduler"
	"github.com/iliyamo/ecocharge-reservation/internal/service"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("migrate", true, "Apply the schema before serving")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()

	if doMigrate, _ := cmd.Flags().GetBool("migrate"); doMigrate {
		if err := migrate(ctx, cfg, db); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable; rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.AMQPEnabled {
		pub := queue.NewAMQPPublisher(cfg.AMQPURL)
		defer pub.Close()
		events = pub
		go func() {
			if err := queue.NewConsumer(cfg.AMQPURL).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("event consumer stopped", "error", err)
			}
		}()
	}

	if cfg.SchedulerEnabled {
		sched, err := scheduler.New(cfg.CampaignExpiryCron, service.NewCampaignService(db))
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	// Scorer must stay a nil interface when no recommender is configured.
	var scorer recommend.Scorer
	if cfg.RecommenderURL != "" {
		scorer = recommend.NewHTTPScorer(cfg.RecommenderURL, cfg.RecommenderTimeout)
	}

	h := router.NewHandlers(cfg, router.Deps{
		DB:       db,
		Events:   events,
		Scorer:   scorer,
		Redis:    rdb,
		CacheCfg: cacheCfg,
	})
	e := router.New(db, h, router.Options{
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     middleware.NewRedisCache(cacheCfg, rdb),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
