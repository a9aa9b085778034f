package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/radieske/casino-settlement-poc/internal/shared/config"
	"github.com/radieske/casino-settlement-poc/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// targets
	houseURL := os.Getenv("HOUSE_URL")
	if houseURL == "" {
		houseURL = "http://localhost:8082"
	}
	tableURL := os.Getenv("TABLE_URL")
	if tableURL == "" {
		tableURL = "http://localhost:8083"
	}
	feedURL := os.Getenv("FEED_URL")
	if feedURL == "" {
		feedURL = "http://localhost:8080"
	}
	chainURL := os.Getenv("CHAIN_URL")
	if chainURL == "" {
		chainURL = "http://localhost:8081"
	}

	house := rp(houseURL)
	table := rp(tableURL)
	feed := rp(feedURL)
	chain := rp(chainURL)

	mux := http.NewServeMux()

	// pool (ex.: /api/pool/* -> house-service /pool/*)
	mux.Handle("/api/pool/", http.StripPrefix("/api", house))

	// mesa (ex.: /api/table/* -> table-service /table/*)
	mux.Handle("/api/table/", http.StripPrefix("/api", table))

	// cadeia simulada (ex.: /api/chain/head -> chain-simulator /head)
	mux.Handle("/api/chain/", http.StripPrefix("/api/chain", chain))

	// feed de liquidação (WebSocket passa pelo proxy normalmente)
	mux.Handle("/ws", feed)

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
