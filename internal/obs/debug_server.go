package obs

import (
	"context"
	"net/http"
	_ "net/http/pprof" // registers pprof handlers on DefaultServeMux
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jellyrush/internal/obslog"
)

// StartDebugServer binds pprof + /metrics to loopback only, exactly as
// the teacher's internal/api/observability.go does — this must never
// be reachable from outside the host.
func StartDebugServer(addr string, log *obslog.Logger) *http.Server {
	if !strings.HasPrefix(addr, "127.0.0.1:") && !strings.HasPrefix(addr, "localhost:") {
		log.Warnf("debug server forced to loopback (got %q)", addr)
		addr = "127.0.0.1:6060"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Infof("debug server listening on %s (loopback only)", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("debug server: %v", err)
		}
	}()
	return srv
}

func ShutdownDebugServer(ctx context.Context, srv *http.Server) {
	_ = srv.Shutdown(ctx)
}
