package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bpmshuffle/cache"
	"bpmshuffle/core/library"
	"bpmshuffle/core/shuffle"
	"bpmshuffle/logger"
	"bpmshuffle/model"
	"bpmshuffle/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// maxLibraryBytes 限制请求体大小
const maxLibraryBytes = 32 << 20

// BuildRequest is the body of a JSON playlist build.
type BuildRequest struct {
	Tracks          []model.Track `json:"tracks"`
	DurationSeconds *int          `json:"durationSeconds,omitempty"`
	Publish         bool          `json:"publish,omitempty"`
}

// PlaylistResponse is returned for built and cached playlists.
type PlaylistResponse struct {
	ID           string         `json:"id"`
	Tracks       []model.Track  `json:"tracks"`
	TotalSeconds int            `json:"totalSeconds"`
	Stats        *shuffle.Stats `json:"stats,omitempty"`
	Published    bool           `json:"published"`
}

// CreatePlaylistHandler 根据 JSON 曲库生成播放列表
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLibraryBytes)).Decode(&req); err != nil {
		logger.Warn("[Playlist] 解析请求体失败", logger.ErrorField(err))
		playlistBuilds.WithLabelValues("json", "bad_request").Inc()
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.DurationSeconds != nil && *req.DurationSeconds < 0 {
		playlistBuilds.WithLabelValues("json", "bad_request").Inc()
		writeError(w, http.StatusBadRequest, "durationSeconds must not be negative")
		return
	}

	result := build("json", req.Tracks, req.DurationSeconds)
	resp := PlaylistResponse{
		ID:           uuid.NewString(),
		Tracks:       result.Tracks,
		TotalSeconds: result.Stats.TotalSeconds,
		Stats:        &result.Stats,
	}
	if resp.Tracks == nil {
		resp.Tracks = []model.Track{}
	}

	if req.Publish {
		published, err := h.publish(r, resp.ID, result.Tracks)
		if err != nil {
			logger.Error("[Playlist] 发布播放列表失败",
				logger.String("id", resp.ID),
				logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Failed to publish playlist")
			return
		}
		resp.Published = published
	}

	writeJSON(w, http.StatusOK, resp)
}

// publish 把播放列表写入已配置的 Redis 和 MinIO，返回是否写入了任一存储
func (h *APIHandler) publish(r *http.Request, id string, tracks []model.Track) (bool, error) {
	published := false
	if h.playlists != nil {
		if err := h.playlists.SavePlaylist(r.Context(), id, tracks); err != nil {
			return false, err
		}
		published = true
	}
	if h.objects != nil {
		if err := h.objects.PutPlaylist(r.Context(), storage.PlaylistObjectName(id), tracks); err != nil {
			return false, err
		}
		published = true
	}
	if published {
		logger.Info("[Playlist] 播放列表已发布", logger.String("id", id))
	}
	return published, nil
}

// ShuffleTSVHandler 请求体为 TSV 曲库，返回 TSV 播放列表
func (h *APIHandler) ShuffleTSVHandler(w http.ResponseWriter, r *http.Request) {
	var duration *int
	if minutes := r.URL.Query().Get("duration"); minutes != "" {
		n, err := strconv.Atoi(minutes)
		if err != nil || n < 0 {
			playlistBuilds.WithLabelValues("tsv", "bad_request").Inc()
			writeError(w, http.StatusBadRequest, "duration must be a non-negative number of minutes")
			return
		}
		duration = shuffle.Seconds(n * 60)
	}

	tracks, err := library.ParseLibrary(http.MaxBytesReader(w, r.Body, maxLibraryBytes))
	if err != nil {
		logger.Warn("[Playlist] 解析 TSV 曲库失败", logger.ErrorField(err))
		playlistBuilds.WithLabelValues("tsv", "bad_request").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := build("tsv", tracks, duration)

	w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
	if err := library.WritePlaylist(w, result.Tracks); err != nil {
		logger.Warn("[Playlist] 写出 TSV 失败", logger.ErrorField(err))
	}
}

// GetPlaylistHandler 读取已发布到 Redis 的播放列表
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if h.playlists == nil {
		writeError(w, http.StatusNotFound, "Playlist cache is not configured")
		return
	}

	tracks, err := h.playlists.GetPlaylist(r.Context(), id)
	if err != nil {
		if errors.Is(err, cache.ErrPlaylistNotFound) {
			writeError(w, http.StatusNotFound, "Playlist not found")
			return
		}
		logger.Error("[Playlist] 读取播放列表失败",
			logger.String("id", id),
			logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to get playlist")
		return
	}

	writeJSON(w, http.StatusOK, PlaylistResponse{
		ID:           id,
		Tracks:       tracks,
		TotalSeconds: model.TotalLength(tracks),
		Published:    true,
	})
}
