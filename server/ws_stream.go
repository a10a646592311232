package server

import (
	"net/http"
	"time"

	"bpmshuffle/core/shuffle"
	"bpmshuffle/logger"
	"bpmshuffle/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamMessage is sent to websocket clients, one per track and a final done.
type StreamMessage struct {
	Type     string         `json:"type"` // track, done or error
	Position int            `json:"position"`
	Track    *model.Track   `json:"track,omitempty"`
	ID       string         `json:"id,omitempty"`
	Stats    *shuffle.Stats `json:"stats,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// PlaylistStreamHandler 读取一个构建请求，按顺序逐首推送歌曲
func (h *APIHandler) PlaylistStreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	var req BuildRequest
	if err := conn.ReadJSON(&req); err != nil {
		logger.Warn("invalid websocket build request", logger.ErrorField(err))
		playlistBuilds.WithLabelValues("ws", "bad_request").Inc()
		h.send(conn, StreamMessage{Type: "error", Error: "invalid build request"})
		return
	}
	if req.DurationSeconds != nil && *req.DurationSeconds < 0 {
		playlistBuilds.WithLabelValues("ws", "bad_request").Inc()
		h.send(conn, StreamMessage{Type: "error", Error: "durationSeconds must not be negative"})
		return
	}

	result := build("ws", req.Tracks, req.DurationSeconds)
	id := uuid.NewString()

	for i := range result.Tracks {
		if err := h.send(conn, StreamMessage{Type: "track", Position: i, Track: &result.Tracks[i]}); err != nil {
			logger.Warn("websocket write", logger.ErrorField(err))
			return
		}
	}

	if req.Publish {
		if _, err := h.publish(r, id, result.Tracks); err != nil {
			logger.Error("publish streamed playlist", logger.String("id", id), logger.ErrorField(err))
			h.send(conn, StreamMessage{Type: "error", Error: "failed to publish playlist"})
			return
		}
	}

	if err := h.send(conn, StreamMessage{Type: "done", ID: id, Stats: &result.Stats}); err != nil {
		logger.Warn("websocket write", logger.ErrorField(err))
		return
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteTimeout))
}

func (h *APIHandler) send(conn *websocket.Conn, msg StreamMessage) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(msg)
}
