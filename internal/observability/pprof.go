package observability

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/lowrey/playerdb/internal/config"
)

// Profiler serves the runtime pprof endpoints on their own listener so
// profile scrapes never contend with the player API port.
type Profiler struct {
	srv    *http.Server
	logger *slog.Logger
}

// StartProfiler returns nil when profiling is disabled; Stop on a nil
// receiver is a no-op, so callers need no enabled check of their own.
func StartProfiler(cfg config.Config, logger *slog.Logger) *Profiler {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.PprofEnabled {
		logger.Info("pprof disabled", "reason", "PPROF_ENABLED=false")
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	p := &Profiler{
		srv: &http.Server{
			Addr:              cfg.PprofAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}

	go func() {
		p.logger.Info("pprof server starting", "addr", p.srv.Addr)
		if err := p.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("pprof server failed", "error", err)
		}
	}()

	return p
}

func (p *Profiler) Stop(timeout time.Duration) error {
	if p == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := p.srv.Shutdown(ctx); err != nil {
		return err
	}
	p.logger.Info("pprof server stopped")
	return nil
}
