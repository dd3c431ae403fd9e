// Command roomserver hosts the authoritative simulation core: an HTTP/
// WebSocket front door (internal/api) in front of a RoomManager that
// creates and ticks Room instances on demand. Wiring mirrors the
// teacher's cmd/server/main.go: load .env, build config, start the
// loopback debug server, start the API server in a goroutine, and wait
// on SIGINT/SIGTERM for graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"jellyrush/internal/api"
	"jellyrush/internal/config"
	"jellyrush/internal/obs"
	"jellyrush/internal/obslog"
)

func main() {
	log := obslog.New("roomserver ")

	if err := godotenv.Load(); err != nil {
		log.Infof("no .env file found, using environment variables only")
	}

	cfg := config.SimConfigFromEnv()
	level := config.DefaultLevelConfig()
	if err := level.Validate(); err != nil {
		log.Errorf("invalid level config: %v", err)
		os.Exit(1)
	}

	metrics := obs.NewMetrics()

	debugAddr := getEnv("DEBUG_ADDR", "127.0.0.1:6060")
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		debugSrv := obs.StartDebugServer(debugAddr, log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			obs.ShutdownDebugServer(ctx, debugSrv)
		}()
	}

	server := api.NewServer(cfg, level, metrics, log)

	reapDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-reapDone:
				return
			case <-ticker.C:
				server.ReapEmptyRooms()
			}
		}
	}()
	defer close(reapDone)

	addr := ":" + getEnv("PORT", "8080")
	httpSrv := startHTTPServer(addr, server, log)

	log.Infof("room server ready on %s (tickHz=%d, maxEntities=%d)", addr, cfg.TickHz, cfg.MaxEntities)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	server.Stop()
	log.Infof("goodbye")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func startHTTPServer(addr string, server *api.Server, log *obslog.Logger) *http.Server {
	srv := &http.Server{Addr: addr, Handler: server.Router()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http server: %v", err)
		}
	}()
	return srv
}
