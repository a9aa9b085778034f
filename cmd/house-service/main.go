package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radieske/casino-settlement-poc/internal/house/engine"
	hhttp "github.com/radieske/casino-settlement-poc/internal/house/http"
	kpub "github.com/radieske/casino-settlement-poc/internal/house/producer"
	"github.com/radieske/casino-settlement-poc/internal/shared/config"
	"github.com/radieske/casino-settlement-poc/internal/shared/db"
	"github.com/radieske/casino-settlement-poc/internal/shared/kafka"
	"github.com/radieske/casino-settlement-poc/internal/shared/ledger"
	"github.com/radieske/casino-settlement-poc/internal/shared/logger"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/wire"
)

// Métricas Prometheus dos comandos da pool
var poolCommands = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "house_pool_commands_total",
	Help: "Comandos aplicados na pool, por operação",
}, []string{"op"})

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	prometheus.MustRegister(poolCommands)

	// Postgres: estado do contrato (ledger transacional)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	store := ledger.NewPostgres(pg)
	eng := engine.New(cfg.StakeDenom)

	// Bootstrap: instancia a pool na primeira subida e registra os contratos
	// colaboradores do ambiente local
	if err := bootstrap(context.Background(), store, eng, cfg); err != nil {
		log.Fatal("bootstrap", zap.Error(err))
	}

	// Kafka writers (eventos de liquidação)
	playResults := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPlayResults)
	defer playResults.Close()
	transfers := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicNativeTransfers)
	defer transfers.Close()

	publ := kpub.NewKafkaPublisher(playResults, transfers)

	api := hhttp.NewServer(log, store, eng, cfg.HouseAddr, publ)
	api.OnCommand = func(op string) { poolCommands.WithLabelValues(op).Inc() }

	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.PingContext(r.Context()); err != nil {
			http.Error(w, "pg", http.StatusServiceUnavailable)
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

	log.Info("house-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}

func bootstrap(ctx context.Context, store ledger.Store, eng *engine.Engine, cfg config.Config) error {
	kv, err := store.Begin(ctx, cfg.HouseAddr)
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
	if _, err := eng.Instantiate(ctx, kv, owner); err != nil {
		return err
	}
	if _, err := eng.UpdatePoolToken(ctx, kv, owner, cfg.PoolTokenAddr); err != nil {
		return err
	}
	if _, err := eng.UpdateStakeToken(ctx, kv, owner, cfg.StakeTokenAddr); err != nil {
		return err
	}
	if _, err := eng.AddGameContract(ctx, kv, owner, cfg.TableAddr); err != nil {
		return err
	}
	return kv.Commit(ctx)
}
