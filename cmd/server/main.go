package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"bagking/internal/api"
	"bagking/internal/game"
	"bagking/pkg/cache"
	"bagking/pkg/config"
	"bagking/pkg/events"
	"bagking/pkg/logger"
	"bagking/pkg/server"
	"bagking/pkg/store"

	"github.com/redis/go-redis/v9"
)

// mongoPinger adapts the mongo client to the readiness check
type mongoPinger struct {
	client *mongo.Client
}

func (p mongoPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, readpref.Primary())
}

func main() {
	// 1. Load config
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	l, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: "bagking-server",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	l.Info("game server initializing", zap.String("env", cfg.Environment))

	// 3. Initialize MongoDB
	mongoCtx, mongoCancel := context.WithTimeout(context.Background(), cfg.MongoDB.ConnectTimeout)
	defer mongoCancel()
	client, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		l.Error("failed to connect to mongodb", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(mongoCtx, readpref.Primary()); err != nil {
		l.Error("failed to ping mongodb", err)
		os.Exit(1)
	}

	db := client.Database(cfg.MongoDB.Database)

	// 4. Initialize stores
	scores := store.NewMongoScoreStore(db.Collection("scores"))
	sessions := store.NewMongoSessionStore(db.Collection("sessions"))
	unlocks := store.NewMongoUnlockStore(db.Collection("achievements"))

	if err := unlocks.EnsureIndexes(mongoCtx); err != nil {
		l.Error("failed to ensure achievement indexes", err)
		os.Exit(1)
	}

	// 5. Optional leaderboard cache
	var lbCache cache.LeaderboardCache
	if cfg.CacheEnabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		lbCache = cache.NewRedisLeaderboardCache(rdb, cfg.Redis.LeaderboardTTL)
		l.Info("leaderboard cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// 6. Optional event publisher
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.EventsEnabled() {
		kp := events.NewKafkaPublisher(events.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		defer kp.Close()
		publisher = kp
		l.Info("event publisher enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	// 7. Create service
	evaluator := game.NewEvaluator(l, unlocks, scores)
	svc := game.NewService(l, scores, sessions, unlocks, evaluator, lbCache, publisher)

	// 8. Start observability server
	obsServer := server.New(cfg.HTTP.ObsAddr, l, mongoPinger{client: client})
	go func() {
		if err := obsServer.Start(); err != nil {
			l.Error("observability server failed", err)
		}
	}()

	// 9. Start API server
	apiServer := api.New(api.Config{
		Addr:           cfg.HTTP.Addr,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
	}, l, svc)
	go func() {
		if err := apiServer.Start(); err != nil {
			l.Error("api server failed", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	l.Info("game server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	apiServer.Shutdown(shutdownCtx)
	obsServer.Shutdown(shutdownCtx)
}
