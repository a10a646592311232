package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bpmshuffle/cache"
	"bpmshuffle/config"
	"bpmshuffle/core/auth"
	"bpmshuffle/core/library"
	"bpmshuffle/model"

	"github.com/gorilla/websocket"
)

// memoryStore is an in-memory PlaylistStore and PlaylistPublisher.
type memoryStore struct {
	mu      sync.Mutex
	lists   map[string][]model.Track
	objects map[string][]model.Track
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		lists:   make(map[string][]model.Track),
		objects: make(map[string][]model.Track),
	}
}

func (m *memoryStore) SavePlaylist(ctx context.Context, id string, tracks []model.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[id] = tracks
	return nil
}

func (m *memoryStore) GetPlaylist(ctx context.Context, id string) ([]model.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tracks, ok := m.lists[id]
	if !ok {
		return nil, cache.ErrPlaylistNotFound
	}
	return tracks, nil
}

func (m *memoryStore) PutPlaylist(ctx context.Context, object string, tracks []model.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[object] = tracks
	return nil
}

var testLibrary = []model.Track{
	{Title: "A1", Artist: "A", Tempo: 90, Length: 100},
	{Title: "B1", Artist: "B", Tempo: 92, Length: 100},
	{Title: "A2", Artist: "A", Tempo: 95, Length: 100},
	{Title: "C1", Artist: "C", Tempo: 140, Length: 100},
}

func newTestServer(t *testing.T, cfg *config.Config, store *memoryStore) *httptest.Server {
	t.Helper()
	var h *APIHandler
	if store != nil {
		h = NewAPIHandler(cfg, store, store)
	} else {
		h = NewAPIHandler(cfg, nil, nil)
	}
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCreatePlaylist(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, nil)

	resp := postJSON(t, srv.URL+"/api/playlists", BuildRequest{Tracks: testLibrary})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got PlaylistResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.ID == "" {
		t.Error("expected a playlist id")
	}
	if len(got.Tracks) != len(testLibrary) || got.TotalSeconds != 400 {
		t.Errorf("unexpected playlist %+v", got)
	}
	if got.Stats == nil || got.Stats.Buckets != 4 {
		t.Errorf("unexpected stats %+v", got.Stats)
	}
	if got.Published {
		t.Error("nothing should be published without a store")
	}
}

func TestCreatePlaylistWithDuration(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, nil)

	resp := postJSON(t, srv.URL+"/api/playlists", BuildRequest{Tracks: testLibrary, DurationSeconds: ptr(150)})
	var got PlaylistResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	// Appending stops once the running total reaches the target.
	if got.TotalSeconds != 200 || len(got.Tracks) != 2 {
		t.Errorf("expected 2 tracks and 200s, got %d tracks and %ds", len(got.Tracks), got.TotalSeconds)
	}
}

func TestCreatePlaylistRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, nil)

	resp := postJSON(t, srv.URL+"/api/playlists", BuildRequest{Tracks: testLibrary, DurationSeconds: ptr(-1)})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for negative duration, got %d", resp.StatusCode)
	}

	raw, err := http.Post(srv.URL+"/api/playlists", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	raw.Body.Close()
	if raw.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", raw.StatusCode)
	}
}

func TestPublishAndGetPlaylist(t *testing.T) {
	store := newMemoryStore()
	srv := newTestServer(t, &config.Config{}, store)

	resp := postJSON(t, srv.URL+"/api/playlists", BuildRequest{Tracks: testLibrary, Publish: true})
	var created PlaylistResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if !created.Published {
		t.Fatal("expected playlist to be published")
	}
	if _, ok := store.objects["playlists/"+created.ID+".tsv"]; !ok {
		t.Error("expected playlist object to be uploaded")
	}

	get, err := http.Get(srv.URL + "/api/playlists/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer get.Body.Close()
	if get.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", get.StatusCode)
	}
	var fetched PlaylistResponse
	if err := json.NewDecoder(get.Body).Decode(&fetched); err != nil {
		t.Fatal(err)
	}
	if len(fetched.Tracks) != len(created.Tracks) {
		t.Fatalf("fetched %d tracks; want %d", len(fetched.Tracks), len(created.Tracks))
	}
	for i := range fetched.Tracks {
		if fetched.Tracks[i] != created.Tracks[i] {
			t.Errorf("track %d: got %v; want %v", i, fetched.Tracks[i], created.Tracks[i])
		}
	}

	missing, err := http.Get(srv.URL + "/api/playlists/unknown")
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown id, got %d", missing.StatusCode)
	}
}

func TestGetPlaylistWithoutCache(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, nil)

	resp, err := http.Get(srv.URL + "/api/playlists/abc")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestShuffleTSV(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, nil)

	var body bytes.Buffer
	if err := library.WritePlaylist(&body, testLibrary); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(srv.URL+"/api/playlists/tsv?duration=3", "text/tab-separated-values", &body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	tracks, err := library.ParseLibrary(resp.Body)
	if err != nil {
		t.Fatalf("response is not a valid library: %v", err)
	}
	// 3 minutes = 180s, reached after the second 100s track.
	if len(tracks) != 2 {
		t.Errorf("expected 2 tracks, got %d", len(tracks))
	}
}

func TestShuffleTSVRejectsBadDuration(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, nil)

	resp, err := http.Post(srv.URL+"/api/playlists/tsv?duration=abc", "text/tab-separated-values", strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAuthMiddleware(t *testing.T) {
	hash, err := auth.HashPassword("pw")
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		JWTSecret:         "secret",
		TokenTTL:          time.Hour,
		AdminUser:         "admin",
		AdminPasswordHash: hash,
	}
	srv := newTestServer(t, cfg, nil)

	resp := postJSON(t, srv.URL+"/api/playlists", BuildRequest{Tracks: testLibrary})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	bad := postJSON(t, srv.URL+"/api/token", LoginRequest{Username: "admin", Password: "nope"})
	if bad.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong password, got %d", bad.StatusCode)
	}

	login := postJSON(t, srv.URL+"/api/token", LoginRequest{Username: "admin", Password: "pw"})
	if login.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from token endpoint, got %d", login.StatusCode)
	}
	var tok struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(login.Body).Decode(&tok); err != nil {
		t.Fatal(err)
	}

	data, _ := json.Marshal(BuildRequest{Tracks: testLibrary})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/playlists", bytes.NewReader(data))
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", authed.StatusCode)
	}

	health, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("healthz must stay public, got %d", health.StatusCode)
	}
}

func TestPlaylistStream(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, nil)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/playlists"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(BuildRequest{Tracks: testLibrary}); err != nil {
		t.Fatal(err)
	}

	var tracks []model.Track
	for {
		var msg StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type == "done" {
			if msg.ID == "" || msg.Stats == nil {
				t.Errorf("incomplete done message %+v", msg)
			}
			break
		}
		if msg.Type != "track" || msg.Track == nil {
			t.Fatalf("unexpected message %+v", msg)
		}
		if msg.Position != len(tracks) {
			t.Errorf("expected position %d, got %d", len(tracks), msg.Position)
		}
		tracks = append(tracks, *msg.Track)
	}

	if len(tracks) != len(testLibrary) {
		t.Errorf("streamed %d tracks; want %d", len(tracks), len(testLibrary))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, nil)
	postJSON(t, srv.URL+"/api/playlists", BuildRequest{Tracks: testLibrary})

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "bpmshuffle_playlist_builds_total") {
		t.Error("expected build counter in metrics output")
	}
}

func ptr(n int) *int { return &n }
