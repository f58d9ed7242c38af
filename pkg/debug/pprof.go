package debug

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/sirupsen/logrus"
)

// pprofMux mounts the runtime profiles on a private mux so the exporter and
// the profiler never share http.DefaultServeMux.
func pprofMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// StartPprofServer listens on addr (":6060" when empty) and serves pprof
// until the returned stop function is called. A bind failure is returned
// immediately.
func StartPprofServer(addr string, logger *logrus.Logger) (func(), error) {
	if addr == "" {
		addr = ":6060"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("pprof listen: %w", err)
	}

	server := &http.Server{
		Handler:           pprofMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log := logger.WithField("addr", ln.Addr().String())
	go func() {
		log.Info("Serving pprof")
		if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("pprof server stopped")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("pprof server shutdown")
		}
	}, nil
}
