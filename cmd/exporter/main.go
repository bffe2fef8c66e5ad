package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	exportsvc "bagking/internal/export"
	"bagking/pkg/checkpoint"
	"bagking/pkg/config"
	"bagking/pkg/export"
	"bagking/pkg/logger"
	"bagking/pkg/server"
	"bagking/pkg/store"
	"bagking/pkg/stream"

	"github.com/redis/go-redis/v9"
)

func main() {
	follow := flag.Bool("follow", false, "tail the change stream after the full sync")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Postgres.URI == "" {
		fmt.Println("postgres.uri is required for the exporter")
		os.Exit(1)
	}

	// 2. Initialize logger
	l, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: "bagking-exporter",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	l.Info("exporter initializing", zap.String("env", cfg.Environment), zap.Bool("follow", *follow))

	// 3. Initialize MongoDB
	mongoCtx, mongoCancel := context.WithTimeout(context.Background(), cfg.MongoDB.ConnectTimeout)
	defer mongoCancel()
	client, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		l.Error("failed to connect to mongodb", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	coll := client.Database(cfg.MongoDB.Database).Collection("scores")

	// 4. Initialize PostgreSQL writer
	writer, err := export.NewPGWriter(mongoCtx, export.PostgresConfig{
		URI:      cfg.Postgres.URI,
		MinConns: int32(cfg.Postgres.MinConns),
		MaxConns: int32(cfg.Postgres.MaxConns),
	}, l)
	if err != nil {
		l.Error("failed to connect to postgres", err)
		os.Exit(1)
	}

	// 5. Checkpoint store: Redis when configured, local file otherwise
	var cp checkpoint.Store
	if cfg.CacheEnabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		cp = checkpoint.NewRedisStore(rdb, "exporter:resume_token")
	} else {
		cp = checkpoint.NewFileStore(cfg.Exporter.CheckpointPath)
	}

	// 6. Create service
	svc := exportsvc.NewService(l, exportsvc.Config{
		BatchSize:     cfg.Exporter.BatchSize,
		FlushInterval: cfg.Exporter.FlushInterval,
		Follow:        *follow,
	}, store.NewMongoScoreStore(coll), writer, stream.NewMongoWatcher(coll), cp)

	// 7. Start observability server
	obsServer := server.New(cfg.HTTP.ObsAddr, l)
	go func() {
		if err := obsServer.Start(); err != nil {
			l.Error("observability server failed", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 8. Run export
	if err := svc.Run(ctx); err != nil && err != context.Canceled {
		l.Error("export failed", err)
	}

	if err := svc.Shutdown(); err != nil {
		l.Error("shutdown failed", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	obsServer.Shutdown(shutdownCtx)
}
