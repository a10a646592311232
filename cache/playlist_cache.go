package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bpmshuffle/model"

	"github.com/go-redis/redis/v8"
)

// ErrPlaylistNotFound 播放列表不存在或已过期
var ErrPlaylistNotFound = errors.New("playlist not found")

// PlaylistItem 表示缓存中的一个播放列表项目
type PlaylistItem struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	BPM      int    `json:"bpm"`
	Length   int    `json:"length"` // 时长（秒）
}

// NewPlaylistItem 将歌曲转换为位于 position 的缓存项
func NewPlaylistItem(position int, t model.Track) PlaylistItem {
	return PlaylistItem{
		Position: position,
		Title:    t.Title,
		Artist:   t.Artist,
		Album:    t.Album,
		BPM:      t.Tempo,
		Length:   t.Length,
	}
}

// Track 还原为歌曲
func (p PlaylistItem) Track() model.Track {
	return model.Track{
		Title:  p.Title,
		Artist: p.Artist,
		Album:  p.Album,
		Tempo:  p.BPM,
		Length: p.Length,
	}
}

// GetPlaylistKey 根据播放列表ID生成Redis键
func GetPlaylistKey(id string) string {
	return fmt.Sprintf("playlist:%s", id)
}

// PlaylistCache 把生成好的播放列表发布到 Redis 有序集合，分数为位置
type PlaylistCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPlaylistCache 创建播放列表缓存，ttl <= 0 时不过期
func NewPlaylistCache(client *redis.Client, ttl time.Duration) *PlaylistCache {
	return &PlaylistCache{client: client, ttl: ttl}
}

// encodeMembers 把歌曲序列编码为有序集合成员
func encodeMembers(tracks []model.Track) ([]*redis.Z, error) {
	members := make([]*redis.Z, 0, len(tracks))
	for i, t := range tracks {
		itemJSON, err := json.Marshal(NewPlaylistItem(i, t))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal playlist item: %w", err)
		}
		members = append(members, &redis.Z{Score: float64(i), Member: string(itemJSON)})
	}
	return members, nil
}

// decodeMembers 解析有序集合成员，按位置排序后的结果
func decodeMembers(raw []string) ([]model.Track, error) {
	tracks := make([]model.Track, 0, len(raw))
	for _, itemJSON := range raw {
		var item PlaylistItem
		if err := json.Unmarshal([]byte(itemJSON), &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal playlist item: %w", err)
		}
		tracks = append(tracks, item.Track())
	}
	return tracks, nil
}

// SavePlaylist 覆盖写入播放列表
func (c *PlaylistCache) SavePlaylist(ctx context.Context, id string, tracks []model.Track) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	members, err := encodeMembers(tracks)
	if err != nil {
		return err
	}

	key := GetPlaylistKey(id)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(members) > 0 {
			pipe.ZAdd(ctx, key, members...)
		}
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save playlist %s: %w", id, err)
	}
	return nil
}

// GetPlaylist 按播放顺序读取播放列表
func (c *PlaylistCache) GetPlaylist(ctx context.Context, id string) ([]model.Track, error) {
	if c.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	raw, err := c.client.ZRange(ctx, GetPlaylistKey(id), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get playlist %s: %w", id, err)
	}
	if len(raw) == 0 {
		return nil, ErrPlaylistNotFound
	}
	return decodeMembers(raw)
}

// DeletePlaylist 删除播放列表
func (c *PlaylistCache) DeletePlaylist(ctx context.Context, id string) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if err := c.client.Del(ctx, GetPlaylistKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete playlist %s: %w", id, err)
	}
	return nil
}
