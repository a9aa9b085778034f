package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radieske/casino-settlement-poc/internal/shared/cache"
	"github.com/radieske/casino-settlement-poc/internal/shared/chain"
	"github.com/radieske/casino-settlement-poc/internal/shared/config"
	"github.com/radieske/casino-settlement-poc/internal/shared/db"
	"github.com/radieske/casino-settlement-poc/internal/shared/kafka"
	"github.com/radieske/casino-settlement-poc/internal/shared/ledger"
	"github.com/radieske/casino-settlement-poc/internal/shared/logger"
	"github.com/radieske/casino-settlement-poc/internal/table/engine"
	"github.com/radieske/casino-settlement-poc/internal/table/house"
	thttp "github.com/radieske/casino-settlement-poc/internal/table/http"
	kpub "github.com/radieske/casino-settlement-poc/internal/table/producer"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/wire"
)

var (
	tableCommands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "table_commands_total",
		Help: "Comandos aplicados na mesa, por operação",
	}, []string{"op"})
	tableResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "table_resolutions_total",
		Help: "Resoluções de aposta por desfecho",
	}, []string{"status"})
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	prometheus.MustRegister(tableCommands, tableResolutions)

	// Postgres: estado do contrato (ledger transacional)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis: head da cadeia simulada
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	store := ledger.NewPostgres(pg)
	eng := engine.New(cfg.StakeDenom)
	head := chain.NewHead(rdb, cfg.ChainHeadKey)

	if err := bootstrap(context.Background(), store, eng, cfg); err != nil {
		log.Fatal("bootstrap", zap.Error(err))
	}

	// Kafka writers
	placed := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer placed.Close()
	resolved := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetResolved)
	defer resolved.Close()
	transfers := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicNativeTransfers)
	defer transfers.Close()

	publ := &kpub.KafkaPublisher{Placed: placed, Resolved: resolved, Transfers: transfers}
	hcli := house.New(cfg.HouseURL)

	api := thttp.NewServer(log, store, eng, head, hcli, cfg.TableAddr, publ)
	api.OnCommand = func(op string) { tableCommands.WithLabelValues(op).Inc() }
	api.OnResolve = func(status string) { tableResolutions.WithLabelValues(status).Inc() }

	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.PingContext(r.Context()); err != nil {
			http.Error(w, "pg", http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() {
		addr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("metrics/health", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, metricsMux)
	}()

	log.Info("table-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}

// bootstrap instancia a mesa na primeira subida com parâmetros do ambiente local.
func bootstrap(ctx context.Context, store ledger.Store, eng *engine.Engine, cfg config.Config) error {
	kv, err := store.Begin(ctx, cfg.TableAddr)
	if err != nil {
		return err
	}
	defer kv.Rollback(ctx)

	done, err := eng.Instantiated(ctx, kv)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	owner := wire.MsgInfo{Sender: cfg.OwnerAddr}
	if _, err := eng.Instantiate(ctx, kv, owner, "r2", "over/under de 59 slots"); err != nil {
		return err
	}
	if _, err := eng.UpdateHouseContract(ctx, kv, owner, cfg.HouseAddr); err != nil {
		return err
	}
	if _, err := eng.UpdateMaxBetRate(ctx, kv, owner, 100); err != nil {
		return err
	}
	if _, err := eng.UpdateHouseFee(ctx, kv, owner, 10_000); err != nil { // 1%
		return err
	}
	return kv.Commit(ctx)
}
