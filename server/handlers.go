package server

import (
	"context"
	"encoding/json"
	"net/http"

	"bpmshuffle/config"
	"bpmshuffle/core/shuffle"
	"bpmshuffle/logger"
	"bpmshuffle/model"

	"github.com/prometheus/client_golang/prometheus"
)

// PlaylistStore 保存并读取已发布的播放列表（Redis）
type PlaylistStore interface {
	SavePlaylist(ctx context.Context, id string, tracks []model.Track) error
	GetPlaylist(ctx context.Context, id string) ([]model.Track, error)
}

// PlaylistPublisher 把播放列表写入对象存储（MinIO）
type PlaylistPublisher interface {
	PutPlaylist(ctx context.Context, object string, tracks []model.Track) error
}

// APIHandler 处理所有API请求
type APIHandler struct {
	cfg       *config.Config
	playlists PlaylistStore
	objects   PlaylistPublisher
}

// NewAPIHandler 创建新的API处理器，playlists 和 objects 可以为 nil
func NewAPIHandler(cfg *config.Config, playlists PlaylistStore, objects PlaylistPublisher) *APIHandler {
	return &APIHandler{
		cfg:       cfg,
		playlists: playlists,
		objects:   objects,
	}
}

// build 运行一次洗牌并记录指标
func build(endpoint string, tracks []model.Track, duration *int) shuffle.Result {
	timer := prometheus.NewTimer(buildDuration)
	result := shuffle.CreatePlaylist(tracks, shuffle.Options{Duration: duration})
	elapsed := timer.ObserveDuration()

	playlistBuilds.WithLabelValues(endpoint, "ok").Inc()
	playlistTracks.Observe(float64(len(result.Tracks)))

	logger.Info("playlist built",
		logger.String("endpoint", endpoint),
		logger.Int("library", len(tracks)),
		logger.Int("tracks", len(result.Tracks)),
		logger.Duration("elapsed", elapsed),
		logger.Any("stats", result.Stats))
	return result
}

// HealthHandler 健康检查
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"redis":        h.playlists != nil,
		"minio":        h.objects != nil,
		"authRequired": h.cfg.JWTSecret != "",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", logger.ErrorField(err))
	}
}

// writeError 返回 JSON 格式的错误
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
