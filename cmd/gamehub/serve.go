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
	"github.com/go-co-op/gocron/v2"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	gameApp "github.com/davicafu/gamehub/internal/game/application"
	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	gameHttp "github.com/davicafu/gamehub/internal/game/infra/inbound/http"
	gameAnalytics "github.com/davicafu/gamehub/internal/game/infra/outbound/analytics/clickhouse"
	gameRepo "github.com/davicafu/gamehub/internal/game/infra/outbound/db/mongodb"
	gameElastic "github.com/davicafu/gamehub/internal/game/infra/outbound/search/elasticsearch"
	purchaseApp "github.com/davicafu/gamehub/internal/purchase/application"
	purchaseDomain "github.com/davicafu/gamehub/internal/purchase/domain"
	purchaseHttp "github.com/davicafu/gamehub/internal/purchase/infra/inbound/http"
	purchaseRepo "github.com/davicafu/gamehub/internal/purchase/infra/outbound/db/mongodb"
	infraEvents "github.com/davicafu/gamehub/internal/shared/infra/events"
	sharedCache "github.com/davicafu/gamehub/internal/shared/infra/platform/cache"
	sharedMongo "github.com/davicafu/gamehub/internal/shared/infra/platform/db/mongodb"
	infraRelayer "github.com/davicafu/gamehub/internal/shared/infra/relayer"
	"github.com/davicafu/gamehub/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, the outbox relayer and the popular ranking warmer",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
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

	// ---------------- Catálogo ----------------
	games := gameRepo.NewGameRepoMongoDB(p.db)

	var searcher gameDomain.GameSearcher
	switch cfg.Search.Driver {
	case "elasticsearch":
		es, err := gameElastic.NewGameSearchElastic(cfg.Search.ElasticURL, cfg.Search.Index)
		if err != nil {
			log.Error("failed to create elasticsearch client", zap.Error(err))
			return err
		}
		searcher = es
		log.Info("🔎 Using Elasticsearch for game search", zap.String("index", cfg.Search.Index))
	default:
		searcher = gameRepo.NewGameSearchAtlas(p.db, cfg.Search.AtlasIndex)
		log.Info("🔎 Using Atlas Search for game search", zap.String("index", cfg.Search.AtlasIndex))
	}

	var analytics gameDomain.PlayAnalytics
	if cfg.ClickHouse.Addr != "" {
		ch, err := gameAnalytics.NewPlayAnalyticsRepo(cfg.ClickHouse.Addr, cfg.ClickHouse.Database)
		if err != nil {
			log.Warn("⚠️ ClickHouse not available, play analytics disabled", zap.Error(err))
		} else {
			defer ch.Close()
			analytics = ch
		}
	}

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("⚠️ Redis not available, using in-memory cache", zap.Error(err))
			_ = rdb.Close()
		} else {
			defer rdb.Close()
			cacheInstance = sharedCache.NewRedisCache(rdb, cfg.Cache.TTL)
			log.Info("✅ Redis connected, cache enabled")
		}
	}
	if cacheInstance == nil {
		mem := sharedCache.NewInMemoryCache(cfg.Cache.TTL, 3*cfg.Cache.TTL)
		defer mem.Stop()
		cacheInstance = mem
	}

	// ---------------- Servicios ----------------
	purchases := purchaseRepo.NewPurchaseRepoMongoDB(p.mongo, cfg.Mongo.Database)

	publisher := infraEvents.NewQueuePublisher(p.queue, cfg.GameEventsQueueResolver(p.params), cfg.Queue.SendTimeout, log)
	defer publisher.Close()

	recs := gameApp.NewRecommendationService(purchases, games, searcher, cacheInstance, cfg.Cache.TTL, log)
	gameService := gameApp.NewGameService(games, searcher, recs, p.events, publisher, analytics, log)
	purchaseService := purchaseApp.NewPurchaseService(purchases, games, p.events, log)

	// ---------------- HTTP ----------------
	router := gin.Default()
	gameHttp.RegisterGameRoutes(router, gameHttp.NewGameHandler(gameService))
	purchaseHttp.RegisterPurchaseRoutes(router, purchaseHttp.NewPurchaseHandler(purchaseService))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := p.mongo.Ping(pingCtx, readpref.Primary()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: router}

	g, ctx := errgroup.WithContext(ctx)

	// ------------ Outbox Relayer ------------
	relayer := infraRelayer.NewOutboxWorker(
		sharedMongo.NewOutboxRepoMongoDB(p.db),
		p.queue,
		map[string]infraRelayer.AddressResolver{
			purchaseDomain.PurchaseCreated: cfg.PaymentsQueueResolver(p.params),
		},
		cfg.Outbox.Period,
		cfg.Outbox.Limit,
		log,
	)
	g.Go(func() error {
		relayer.Start(ctx)
		return nil
	})

	// ------------ Ranking warmer ------------
	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Cache.WarmInterval),
			gocron.NewTask(func() {
				if err := recs.WarmPopular(ctx, cfg.Cache.WarmLimit); err != nil {
					log.Warn("Failed to warm popular ranking", zap.Error(err))
				}
			}),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return err
		}
		scheduler.Start()
		<-ctx.Done()
		return scheduler.Shutdown()
	})

	g.Go(func() error {
		log.Info("🚀 Server running", zap.String("url", "http://localhost:"+cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("🛑 Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", zap.Error(err))
		return err
	}
	log.Info("👋 Server stopped")
	return nil
}
