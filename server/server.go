package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bpmshuffle/config"
	"bpmshuffle/logger"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 注册所有路由
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	router.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/api/token", h.TokenHandler).Methods(http.MethodPost, http.MethodOptions)

	// 播放列表相关的API端点
	api := router.PathPrefix("/api/playlists").Subrouter()
	api.Use(h.AuthMiddleware)
	api.HandleFunc("", h.CreatePlaylistHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/tsv", h.ShuffleTSVHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/{id}", h.GetPlaylistHandler).Methods(http.MethodGet, http.MethodOptions)

	ws := router.PathPrefix("/ws").Subrouter()
	ws.Use(h.AuthMiddleware)
	ws.HandleFunc("/playlists", h.PlaylistStreamHandler).Methods(http.MethodGet)

	return router
}

// Start 启动 HTTP 服务，收到 SIGINT/SIGTERM 后优雅关闭
func Start(cfg *config.Config, h *APIHandler) error {
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewRouter(h),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			logger.String("addr", cfg.HTTPAddr),
			logger.Bool("auth", cfg.JWTSecret != ""))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 等待中断信号或启动失败
	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-stop:
	}
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	logger.Info("Server stopped")
	return nil
}
