package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	gameEvents "github.com/davicafu/gamehub/internal/game/infra/inbound/events"
	gameAnalytics "github.com/davicafu/gamehub/internal/game/infra/outbound/analytics/clickhouse"
	gameRepo "github.com/davicafu/gamehub/internal/game/infra/outbound/db/mongodb"
	infraEvents "github.com/davicafu/gamehub/internal/shared/infra/events"
	"github.com/davicafu/gamehub/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume the games events queue and apply its effects",
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPlatform(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize platform", zap.Error(err))
		return err
	}
	defer p.Close()

	// Sin cola no hay nada que consumir: se aborta el arranque.
	queueURL, err := cfg.GameEventsQueueResolver(p.params).Resolve(ctx)
	if err != nil {
		log.Error("games events queue url not resolved", zap.Error(err))
		return err
	}

	var plays gameDomain.PlayRecorder
	if cfg.ClickHouse.Addr != "" {
		ch, err := gameAnalytics.NewPlayAnalyticsRepo(cfg.ClickHouse.Addr, cfg.ClickHouse.Database)
		if err != nil {
			log.Warn("⚠️ ClickHouse not available, play analytics disabled", zap.Error(err))
		} else if err := ch.InitSchema(); err != nil {
			log.Warn("⚠️ ClickHouse schema not created, play analytics disabled", zap.Error(err))
			_ = ch.Close()
		} else {
			defer ch.Close()
			plays = ch
		}
	}

	handler := gameEvents.NewGameConsumer(p.markers, p.events, gameRepo.NewGameRepoMongoDB(p.db), plays, log)

	consumerCfg := infraEvents.DefaultConsumerConfig()
	consumerCfg.MaxMessages = cfg.Worker.MaxMessages
	consumerCfg.WaitTime = time.Duration(cfg.Worker.WaitTimeSeconds) * time.Second
	consumerCfg.VisibilityTimeout = time.Duration(cfg.Worker.VisibilityTimeoutSeconds) * time.Second
	consumerCfg.IdleInterval = cfg.Worker.PollInterval()
	consumerCfg.ErrorBackoff = cfg.Worker.ErrorBackoff
	consumerCfg.Concurrency = cfg.Worker.Concurrency
	consumerCfg.MaxReceiveCount = cfg.Worker.MaxReceiveCount

	consumer := infraEvents.NewQueueConsumer(p.queue, queueURL, handler, p.events, consumerCfg, log)

	// ---------------- Health ----------------
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.GET("/health", func(c *gin.Context) {
		state := consumer.State()
		code := http.StatusOK
		if state == infraEvents.StateStopped {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": state.String(), "stats": consumer.Stats()})
	})
	srv := &http.Server{Addr: ":" + cfg.Worker.HealthPort, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("🎧 Games events worker started", zap.String("queue", queueURL), zap.String("driver", cfg.Queue.Driver))
		return consumer.Run(gctx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("worker error", zap.Error(err))
		return err
	}
	log.Info("👋 Worker stopped", zap.Any("stats", consumer.Stats()))
	return nil
}
