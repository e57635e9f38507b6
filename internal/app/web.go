package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/wavebuoy/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // status page is served from the buoy itself
	},
}

// NewWebHandler serves the status API, a websocket status stream and,
// when withMetrics is set, the Prometheus endpoint.
func NewWebHandler(status *Status, push time.Duration, withMetrics bool, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := status.Get()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			logger.Warn("json encode error", zap.Error(err))
		}
	})

	mux.HandleFunc("/ws/status", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade error", zap.Error(err))
			return
		}
		defer conn.Close()

		// Reader detects the client going away.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
						logger.Warn("websocket error", zap.Error(err))
					}
					return
				}
			}
		}()

		ticker := time.NewTicker(push)
		defer ticker.Stop()
		for {
			if snap, ok := status.Get(); ok {
				if err := conn.WriteJSON(snap); err != nil {
					return
				}
			}
			select {
			case <-gone:
				return
			case <-r.Context().Done():
				return
			case <-ticker.C:
			}
		}
	})

	if withMetrics {
		mux.Handle("/metrics", metrics.Handler())
	}
	return mux
}

// Serve runs an HTTP server on addr until ctx is done.
func Serve(ctx context.Context, addr string, h http.Handler, logger *zap.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("http server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
