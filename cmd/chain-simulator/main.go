package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/casino-settlement-poc/internal/shared/cache"
	"github.com/radieske/casino-settlement-poc/internal/shared/config"
	"github.com/radieske/casino-settlement-poc/internal/shared/kafka"
	"github.com/radieske/casino-settlement-poc/internal/shared/logger"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/events"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/wire"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	chainHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chain_sim_height",
		Help: "Altura corrente da cadeia simulada",
	})
	blocksProduced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chain_sim_blocks_produced_total",
		Help: "Total de blocos produzidos",
	})
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chain_sim_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
)

// clientConn representa uma conexão de cliente WebSocket
type clientConn struct {
	id   string
	conn *websocket.Conn
}

// hub gerencia os clientes conectados e faz broadcast de cada bloco novo
type hub struct {
	mu      sync.RWMutex
	clients map[string]*clientConn
	log     *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	return &hub{clients: make(map[string]*clientConn), log: log}
}

func (h *hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	wsConnections.Inc()
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		wsConnections.Dec()
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

func (h *hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, _ := json.Marshal(v)
	for id, c := range h.clients {
		c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
			_ = c.conn.Close()
		}
	}
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(chainHeight, blocksProduced, wsConnections)

	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	heads := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBlockHeads)
	defer heads.Close()

	h := newHub(log)
	ctx := context.Background()

	// Retoma da altura publicada anteriormente, se houver; reinício do
	// simulador não pode voltar a cadeia pra trás
	height := resumeHeight(ctx, rdb, cfg.ChainHeadKey)
	log.Info("chain simulator starting",
		zap.String("chain_id", cfg.ChainID),
		zap.Uint64("height", height),
		zap.Duration("interval", cfg.BlockInterval),
	)

	// Produtor de blocos: um head por intervalo, sempre altura+1
	go func() {
		ticker := time.NewTicker(cfg.BlockInterval)
		defer ticker.Stop()
		for range ticker.C {
			height++
			now := time.Now().UTC()
			env := wire.BlockEnv{
				ChainID:   cfg.ChainID,
				Height:    height,
				Time:      now.Unix(),
				TimeNanos: uint64(now.Nanosecond()),
			}

			raw, _ := json.Marshal(env)
			if err := rdb.Set(ctx, cfg.ChainHeadKey, raw, 0).Err(); err != nil {
				log.Error("redis set head", zap.Error(err))
				continue
			}
			chainHeight.Set(float64(height))
			blocksProduced.Inc()

			head := events.BlockHead{
				ChainID:    env.ChainID,
				Height:     env.Height,
				Time:       env.Time,
				TimeNanos:  env.TimeNanos,
				ProducedAt: now,
			}
			hb, _ := json.Marshal(head)
			if err := kafka.WriteJSON(ctx, heads, fmt.Sprintf("%d", height), hb); err != nil {
				log.Warn("kafka block head", zap.Error(err))
			}
			h.broadcast(head)
		}
	}()

	// ==== MUX PÚBLICO: /ws (stream de blocos) e /head (consulta pontual)
	appMux := http.NewServeMux()

	appMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		id := fmt.Sprintf("%d", time.Now().UnixNano())
		c := &clientConn{id: id, conn: conn}
		h.add(c)

		go func() {
			defer func() {
				h.remove(id)
				_ = conn.Close()
			}()
			_ = conn.SetReadDeadline(time.Time{})
			for {
				// Lê e descarta mensagens do cliente para manter o socket limpo
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	appMux.HandleFunc("/head", func(w http.ResponseWriter, r *http.Request) {
		raw, err := rdb.Get(r.Context(), cfg.ChainHeadKey).Bytes()
		if err != nil {
			http.Error(w, "no head", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	})

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		metricsAddr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("chain simulator (metrics) running", zap.String("addr", metricsAddr))
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("chain simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/ws,/head"),
	)
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}

func resumeHeight(ctx context.Context, rdb *redis.Client, key string) uint64 {
	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return 0
	}
	var env wire.BlockEnv
	if err := json.Unmarshal(raw, &env); err != nil {
		return 0
	}
	return env.Height
}
