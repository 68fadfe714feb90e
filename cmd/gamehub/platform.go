package main

import (
	"context"
	"database/sql"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/davicafu/gamehub/internal/config"
	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
	"github.com/davicafu/gamehub/internal/shared/eventlog"
	sharedBus "github.com/davicafu/gamehub/internal/shared/infra/platform/bus"
	"github.com/davicafu/gamehub/internal/shared/infra/platform/cloud"
	sharedMongo "github.com/davicafu/gamehub/internal/shared/infra/platform/db/mongodb"
	sharedPostgres "github.com/davicafu/gamehub/internal/shared/infra/platform/db/postgres"
	sharedSQLite "github.com/davicafu/gamehub/internal/shared/infra/platform/db/sqlite"
)

// platform agrupa las conexiones compartidas por serve y worker.
type platform struct {
	log     *zap.Logger
	params  config.ParameterGetter
	clients *cloud.Clients
	mongo   *mongo.Client
	db      *mongo.Database
	events  *eventlog.Appender
	markers sharedDomain.IdempotencyStore
	queue   sharedBus.MessageQueue
	closers []func()
}

func newPlatform(ctx context.Context, cfg *config.Config, log *zap.Logger) (*platform, error) {
	p := &platform{log: log}

	// ---------------- AWS ----------------
	clients, err := cloud.NewClients(ctx, cfg.AWS, log)
	if err != nil {
		log.Warn("⚠️ AWS config not available, SSM and SQS disabled", zap.Error(err))
	} else {
		p.clients = clients
		p.params = clients.SSM
	}

	// ---------------- Mongo ----------------
	uri, err := cfg.MongoURIResolver(p.params).Resolve(ctx)
	if err != nil {
		return nil, err
	}
	p.mongo, err = sharedMongo.Connect(ctx, uri)
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, func() { _ = p.mongo.Disconnect(context.Background()) })
	p.db = p.mongo.Database(cfg.Mongo.Database)
	if err := sharedMongo.EnsureIndexes(ctx, p.db); err != nil {
		p.Close()
		return nil, err
	}
	log.Info("✅ MongoDB connected", zap.String("database", cfg.Mongo.Database))

	// ------- Event log + marcadores -------
	var store sharedDomain.EventStore
	switch cfg.Store.Driver {
	case "postgres":
		db, err := openSQL(ctx, "pgx", cfg.Store.PostgresDSN, sharedPostgres.InitPostgres)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.closers = append(p.closers, func() { _ = db.Close() })
		store = sharedPostgres.NewEventStorePostgres(db)
		p.markers = sharedPostgres.NewMarkerStorePostgres(db)
	case "sqlite":
		db, err := openSQL(ctx, "sqlite", cfg.Store.SQLitePath, sharedSQLite.InitSQLite)
		if err != nil {
			p.Close()
			return nil, err
		}
		// Un único escritor evita SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		p.closers = append(p.closers, func() { _ = db.Close() })
		store = sharedSQLite.NewEventStoreSQLite(db)
		p.markers = sharedSQLite.NewMarkerStoreSQLite(db)
	default:
		store = sharedMongo.NewEventStoreMongoDB(p.db)
		p.markers = sharedMongo.NewMarkerStoreMongoDB(p.db)
	}
	p.events = eventlog.NewAppender(store, cfg.EventLog.Strict, log)
	log.Info("📒 Event log ready", zap.String("driver", cfg.Store.Driver), zap.Bool("strict", cfg.EventLog.Strict))

	// ---------------- Cola ----------------
	switch cfg.Queue.Driver {
	case "kafka":
		kq := sharedBus.NewKafkaQueue(cfg.Queue.KafkaBrokers, cfg.Queue.KafkaGroupID, log)
		p.closers = append(p.closers, func() { _ = kq.Close() })
		p.queue = kq
		log.Info("🚀 Using Kafka as message queue", zap.Strings("brokers", cfg.Queue.KafkaBrokers))
	default:
		if p.clients == nil {
			p.Close()
			return nil, fmt.Errorf("sqs queue driver requires AWS configuration")
		}
		p.queue = sharedBus.NewSQSQueue(p.clients.SQS)
		log.Info("🚀 Using SQS as message queue")
	}

	return p, nil
}

func openSQL(ctx context.Context, driver, dsn string, initSchema func(*sql.DB) error) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize %s: %w", driver, err)
	}
	return db, nil
}

// Close libera las conexiones en orden inverso.
func (p *platform) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
	p.closers = nil
}
