package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/davicafu/boletolab/internal/config"
	debtApp "github.com/davicafu/boletolab/internal/debt/application"
	debtDomain "github.com/davicafu/boletolab/internal/debt/domain"
	debtEvents "github.com/davicafu/boletolab/internal/debt/infra/inbound/events"
	debtHttp "github.com/davicafu/boletolab/internal/debt/infra/inbound/http"
	"github.com/davicafu/boletolab/internal/debt/infra/outbound/analytics/clickhouse"
	"github.com/davicafu/boletolab/internal/debt/infra/outbound/boleto"
	"github.com/davicafu/boletolab/internal/debt/infra/outbound/db/mongodb"
	"github.com/davicafu/boletolab/internal/debt/infra/outbound/db/postgres"
	"github.com/davicafu/boletolab/internal/debt/infra/outbound/db/sqlite"
	"github.com/davicafu/boletolab/internal/debt/infra/outbound/filesystem"
	"github.com/davicafu/boletolab/internal/debt/infra/outbound/notification"
	infraEvents "github.com/davicafu/boletolab/internal/shared/infra/events"
	sharedBus "github.com/davicafu/boletolab/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/boletolab/internal/shared/infra/platform/cache"
	"github.com/davicafu/boletolab/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// ---------------- Main ----------------
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Init("info")
		logger.Logger().Fatal("invalid configuration", zap.Error(err))
	}

	logger.Init(cfg.LogLevel) // inicializa zap
	log := logger.Logger()
	defer logger.Sync() // flush buffers al salir

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------- DB ----------------
	repo, closeRepo := openRepository(ctx, cfg, log)
	defer closeRepo()

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria", zap.Error(err))
		memCache := sharedCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
		defer memCache.Stop()
		cacheInstance = memCache
	} else {
		cacheInstance = sharedCache.NewRedisCache(rdb, cfg.CacheTTL)
		log.Info("✅ Redis conectado, cache habilitado")
	}
	defer rdb.Close()

	// ---------------- Events ---------------
	mailConsumer := debtEvents.NewMailConsumer(debtEvents.NewLogMailer(log), log)

	// Los consumidores viven más que el runner: un batch en curso sigue
	// publicando hasta su commit y necesita que alguien drene el bus.
	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()

	var eventBus sharedBus.EventBus
	if cfg.NotifyTransport == config.TransportKafka {
		log.Info("🚀 Usando Kafka como bus de notificaciones", zap.String("topic", cfg.KafkaTopic))

		writer := &kafka.Writer{
			Addr:     kafka.TCP(cfg.KafkaBrokers...),
			Topic:    cfg.KafkaTopic,
			Balancer: &kafka.Hash{},
		}
		defer writer.Close()
		eventBus = infraEvents.NewKafkaPublisher(writer, log)

		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopic,
			GroupID:  cfg.KafkaGroupID,
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		})
		defer reader.Close()

		consumer := infraEvents.NewConsumerAdapter(reader, mailConsumer, log)
		consumer.Start(consumerCtx)
		defer consumer.Wait()
	} else {
		log.Info("⚡️Usando bus de notificaciones en memoria (canales de Go)")

		inMemoryBus := infraEvents.NewInMemoryEventBus(debtDomain.NotificationTopic)
		eventBus = inMemoryBus
		defer inMemoryBus.Close()
		infraEvents.BackgroundConsumerChan(consumerCtx, inMemoryBus.Subscribe(1024), mailConsumer, log)
	}

	// ---------------- Analytics ----------------
	var outcomes debtDomain.OutcomeRecorder
	if cfg.ClickHouseAddr != "" {
		outcomeRepo, err := clickhouse.NewOutcomeRepo(cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, analítica desactivada", zap.Error(err))
		} else if err := outcomeRepo.InitSchema(); err != nil {
			log.Warn("⚠️ No se pudo crear el esquema de ClickHouse", zap.Error(err))
		} else {
			outcomes = outcomeRepo
			log.Info("✅ ClickHouse conectado, analítica de batches habilitada")
		}
	}

	// --------------- Servicio --------------
	pool := debtApp.NewWorkerPool(repo, boleto.NewGenerator(), notification.NewBusNotifier(eventBus, log), cfg.MaxWorkers, log)
	processor := debtApp.NewProcessor(repo, pool, cfg.ProcessBatchSize, outcomes, log)
	runner := debtApp.NewRunner(processor, cfg.ProcessInterval, log)
	runner.Start(ctx)

	// Reanuda deudas PENDING que quedaron de una ejecución anterior.
	runner.Trigger()

	loader := debtApp.NewBulkLoader(repo, cfg.LoadChunkSize, log)
	debtService := debtApp.NewDebtService(repo, loader, cacheInstance, log)
	if cfg.UploadJournalPath != "" {
		debtService.WithJournal(filesystem.NewJSONUploadJournal(cfg.UploadJournalPath))
		log.Info("🗂️ Registro de uploads habilitado", zap.String("path", cfg.UploadJournalPath))
	}

	// ---------------- HTTP ----------------
	router := gin.Default()
	debtHttp.RegisterDebtRoutes(router, debtHttp.NewDebtHandler(debtService, runner, log))

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: router}
	go func() {
		log.Info("🚀 Server running", zap.String("url", "http://localhost:"+cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", zap.Error(err))
	}

	// El runner termina el batch en curso antes de parar los consumidores.
	runner.Stop()
	stopConsumers()
	log.Info("✅ Processing stopped")
}

// openRepository elige el almacén según STORE_DRIVER y crea su esquema.
func openRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (debtDomain.DebtRepository, func()) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal("failed to open SQLite", zap.Error(err))
		}
		if err := sqlite.InitSQLite(db); err != nil {
			log.Fatal("failed to initialize SQLite", zap.Error(err))
		}
		log.Info("✅ SQLite listo", zap.String("path", cfg.SQLitePath))
		return sqlite.NewDebtRepoSQLite(db), func() { db.Close() }

	case config.StoreMongoDB:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		repo, err := mongodb.NewDebtRepoMongoDB(ctx, client, cfg.MongoDB)
		if err != nil {
			log.Fatal("failed to initialize MongoDB", zap.Error(err))
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatal("failed to create MongoDB indexes", zap.Error(err))
		}
		log.Info("✅ MongoDB listo", zap.String("db", cfg.MongoDB))
		return repo, func() { _ = client.Disconnect(context.Background()) }

	default:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed to connect to Postgres", zap.Error(err))
		}
		if err := postgres.InitSchema(ctx, pool); err != nil {
			log.Fatal("failed to initialize Postgres", zap.Error(err))
		}
		log.Info("✅ Postgres listo")
		return postgres.NewDebtRepoPostgres(pool), pool.Close
	}
}
