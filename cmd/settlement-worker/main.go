package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/casino-settlement-poc/internal/settlement/repo"
	"github.com/radieske/casino-settlement-poc/internal/shared/cache"
	"github.com/radieske/casino-settlement-poc/internal/shared/config"
	"github.com/radieske/casino-settlement-poc/internal/shared/db"
	"github.com/radieske/casino-settlement-poc/internal/shared/kafka"
	"github.com/radieske/casino-settlement-poc/internal/shared/logger"
	ev "github.com/radieske/casino-settlement-poc/pkg/contracts/events"
)

var settled = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "settlement_events_total",
	Help: "Eventos de liquidação processados, por tipo e resultado",
}, []string{"kind", "result"})

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(settled)

	// Postgres: trilha de auditoria da liquidação
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()
	auditRepo := &repo.PostgresRepo{DB: pg}

	// Redis: fan-out pro activity-feed via Pub/Sub
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	// Kafka consumers: um por tópico de liquidação
	resultsReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		GroupID:  "settlement-worker",
		Topic:    cfg.TopicPlayResults,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	defer resultsReader.Close()

	transfersReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		GroupID:  "settlement-worker",
		Topic:    cfg.TopicNativeTransfers,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	defer transfersReader.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicPlayResultsDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPlayResultsDLQ)
		defer dlqWriter.Close()
	}

	// Servidor HTTP para métricas Prometheus e healthcheck
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			if err := pg.PingContext(ctx); err != nil {
				http.Error(w, "pg", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		addr := ":" + cfg.MetricsPort
		log.Info("metrics/health", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, mux)
	}()

	log.Info("settlement-worker started",
		zap.String("play_results", cfg.TopicPlayResults),
		zap.String("native_transfers", cfg.TopicNativeTransfers),
	)

	ctx := context.Background()

	go consumePlayResults(ctx, log, resultsReader, dlqWriter, auditRepo, rdb, cfg.RedisPubSubChannel)
	consumeTransfers(ctx, log, transfersReader, auditRepo, rdb, cfg.RedisPubSubChannel)
}

// consumePlayResults persiste cada resultado e notifica o apostador.
// Falha persistente vai pra DLQ; o offset avança de qualquer forma.
func consumePlayResults(
	ctx context.Context,
	log *zap.Logger,
	reader *kafkago.Reader,
	dlqWriter *kafkago.Writer,
	auditRepo *repo.PostgresRepo,
	rdb *redis.Client,
	channel string,
) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read play_results", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		var pr ev.PlayResult
		if jerr := json.Unmarshal(msg.Value, &pr); jerr != nil {
			log.Error("unmarshal play_result", zap.Error(jerr))
			settled.WithLabelValues("play_result", "bad_payload").Inc()
			continue
		}

		if err := insertWithRetry(ctx, func() error { return auditRepo.InsertPlayResult(ctx, &pr) }); err != nil {
			log.Error("persist play_result", zap.String("id", pr.ID), zap.Error(err))
			settled.WithLabelValues("play_result", "dlq").Inc()
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, pr.ID, msg.Value)
			}
			continue
		}
		settled.WithLabelValues("play_result", "ok").Inc()

		notify(ctx, log, rdb, channel, pr.Winner, "play_result", msg.Value)
	}
}

func consumeTransfers(
	ctx context.Context,
	log *zap.Logger,
	reader *kafkago.Reader,
	auditRepo *repo.PostgresRepo,
	rdb *redis.Client,
	channel string,
) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read native_transfers", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		var tr ev.NativeTransfer
		if jerr := json.Unmarshal(msg.Value, &tr); jerr != nil {
			log.Error("unmarshal native_transfer", zap.Error(jerr))
			settled.WithLabelValues("native_transfer", "bad_payload").Inc()
			continue
		}

		if err := insertWithRetry(ctx, func() error { return auditRepo.InsertNativeTransfer(ctx, &tr) }); err != nil {
			log.Error("persist native_transfer", zap.String("id", tr.ID), zap.Error(err))
			settled.WithLabelValues("native_transfer", "failed").Inc()
			continue
		}
		settled.WithLabelValues("native_transfer", "ok").Inc()

		notify(ctx, log, rdb, channel, tr.Recipient, "native_transfer", msg.Value)
	}
}

// insertWithRetry tenta até 3 vezes com backoff simples antes de desistir.
func insertWithRetry(ctx context.Context, fn func() error) error {
	err := fn()
	for i := 0; err != nil && i < 3; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(300*(i+1)) * time.Millisecond):
		}
		err = fn()
	}
	return err
}

// notify publica no canal Pub/Sub no formato que o activity-feed espera.
func notify(ctx context.Context, log *zap.Logger, rdb *redis.Client, channel, account, kind string, payload []byte) {
	upd, _ := json.Marshal(map[string]any{
		"account": account,
		"kind":    kind,
		"payload": json.RawMessage(payload),
	})
	if err := rdb.Publish(ctx, channel, upd).Err(); err != nil {
		log.Warn("redis publish", zap.String("kind", kind), zap.Error(err))
	}
}
