package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"vks.la/patrol/cache"
	"vks.la/patrol/core"
	"vks.la/patrol/infrastructure/communication"
	"vks.la/patrol/infrastructure/devops"
	"vks.la/patrol/infrastructure/filesystem"
	"vks.la/patrol/infrastructure/logging"
	"vks.la/patrol/model"
	"vks.la/patrol/store"
	"vks.la/patrol/store/excel"
	"vks.la/patrol/store/memory"
	"vks.la/patrol/store/sqlstore"
	"vks.la/patrol/utils"
	"vks.la/patrol/web/handlers"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := devops.LoadConfig(ctx, *configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format, "patrol")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	st, err := openStore(cfg)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	for table, headers := range model.AllTables() {
		if err := st.EnsureTable(table, headers); err != nil {
			logger.Fatal("failed to ensure table", zap.String("table", table), zap.Error(err))
		}
	}

	var kv cache.KVStore
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, running without cache", zap.Error(err))
		} else {
			kv = cache.NewRedisKVStore(client)
		}
	}
	dir := cache.NewDirectory(st, kv, time.Duration(cfg.Cache.TTLSeconds)*time.Second, logger)

	var blobs filesystem.BlobStore
	if cfg.S3.Enabled {
		s3Store, err := filesystem.NewS3BlobStore(ctx, cfg.S3.Bucket, cfg.S3.Prefix, cfg.S3.PublicBase)
		if err != nil {
			logger.Fatal("failed to init S3 blob store", zap.Error(err))
		}
		blobs = s3Store
	}

	geo := core.GeofenceSettings{
		Enforce:         cfg.Geofence.Enforce,
		ThresholdMeters: cfg.Geofence.ThresholdMeters,
	}
	proc := core.NewProcessor(st, blobs, dir, geo, logger)
	agg := &core.Aggregator{Store: st, Logger: logger, Now: utils.VientianeNow}

	if cfg.Slack.Enabled {
		notifier := communication.NewNotifier(cfg.Slack.Token, cfg.Slack.AlertChannel)
		go alertLoop(ctx, agg, notifier, logger)
	}

	r := gin.Default()
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/api/patrol/v1.0")
	{
		api.POST("/scan", handlers.ScanHandler(proc))
		api.GET("/sites/aggregate", handlers.SiteAggregateHandler(agg))
		api.GET("/sites/:ref/config", handlers.SiteConfigHandler(dir))
		api.POST("/inspections", handlers.InspectionHandler(st, blobs, logger))
		api.POST("/handover", handlers.HandoverHandler(st, logger))
		api.GET("/changed", handlers.DataChangedHandler(st))
	}

	logger.Info("patrol service listening", zap.String("addr", cfg.Server.Addr))
	if err := r.Run(cfg.Server.Addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func openStore(cfg *devops.Config) (store.TabularStore, error) {
	lockWait := time.Duration(cfg.Store.LockWaitSeconds) * time.Second

	switch cfg.Store.Backend {
	case "excel":
		st, err := excel.Open(cfg.Store.ExcelPath)
		if err != nil {
			return nil, err
		}
		st.LockWait = lockWait
		return st, nil
	case "mysql":
		st, err := sqlstore.Open(cfg.Store.MysqlDSN)
		if err != nil {
			return nil, err
		}
		st.LockWait = lockWait
		return st, nil
	default:
		st := memory.New()
		st.LockWait = lockWait
		return st, nil
	}
}

// alertLoop periodically aggregates the trailing week and posts alerting
// sites to Slack. Best-effort: failures are logged and the loop keeps going.
func alertLoop(ctx context.Context, agg *core.Aggregator, notifier *communication.Notifier, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			aggregates, err := agg.Aggregate(ctx, 7)
			if err != nil {
				logger.Warn("alert aggregation failed", zap.Error(err))
				continue
			}
			if err := notifier.AlertSites(aggregates); err != nil {
				logger.Warn("slack alert failed", zap.Error(err))
			}
		}
	}
}
