package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/casino-settlement-poc/internal/feed/ws"
	"github.com/radieske/casino-settlement-poc/internal/shared/cache"
	"github.com/radieske/casino-settlement-poc/internal/shared/config"
	"github.com/radieske/casino-settlement-poc/internal/shared/logger"
	"github.com/radieske/casino-settlement-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// hub WS por conta + assinante do canal de liquidação
	hub := ws.NewHub(func(r *http.Request) bool { return true }) // PoC: qualquer origem
	ws.StartRedisSubscriber(context.Background(), rdb, cfg.RedisPubSubChannel, hub)

	appMux := http.NewServeMux()
	appMux.HandleFunc("/ws", hub.HandleWS)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	addr := ":" + cfg.HTTPPort
	log.Info("activity-feed listening",
		zap.String("addr", addr),
		zap.String("channel", cfg.RedisPubSubChannel),
	)
	if err := http.ListenAndServe(addr, appMux); err != nil && err != http.ErrServerClosed {
		log.Fatal("public server error", zap.Error(err))
	}
}
