package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"bpmshuffle/cache"
	"bpmshuffle/core/library"
	"bpmshuffle/core/shuffle"
	"bpmshuffle/db"
	"bpmshuffle/logger"
	"bpmshuffle/model"
	"bpmshuffle/repository"
	"bpmshuffle/storage"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const (
	sourceFile  = "file"
	sourceMinio = "minio"
	sourceMySQL = "mysql"
	sinkFile    = "file"
	sinkMinio   = "minio"
	sinkRedis   = "redis"

	// 编辑器保存文件时通常会触发多次写事件
	watchDebounce = 200 * time.Millisecond
)

var (
	shuffleDuration int
	shuffleSource   string
	shuffleSink     string
	shuffleDedupe   bool
	shuffleWatch    bool
)

var shuffleCmd = &cobra.Command{
	Use:   "shuffle LIBRARY OUT",
	Short: "根据曲库生成按节奏排序的播放列表",
	Long: `读取 TSV 曲库（title, artist, album, bpm, length），按 BPM 分桶并在相近节奏之间游走，
尽量避免同一艺人连续出现，输出 TSV 播放列表。

LIBRARY 为文件路径、MinIO 对象名，使用 --source mysql 时被忽略。
OUT 为文件路径（"-" 表示标准输出）、MinIO 对象名或 Redis 播放列表 ID（"-" 表示自动生成）。`,
	Args: cobra.ExactArgs(2),
	RunE: runShuffle,
}

func init() {
	rootCmd.AddCommand(shuffleCmd)

	shuffleCmd.Flags().IntVarP(&shuffleDuration, "duration", "d", 0, "目标时长（分钟），不指定时使用整个曲库")
	shuffleCmd.Flags().StringVar(&shuffleSource, "source", sourceFile, "曲库来源: file, minio, mysql")
	shuffleCmd.Flags().StringVar(&shuffleSink, "sink", sinkFile, "播放列表输出: file, minio, redis")
	shuffleCmd.Flags().BoolVar(&shuffleDedupe, "dedupe", false, "去除完全相同的重复歌曲")
	shuffleCmd.Flags().BoolVarP(&shuffleWatch, "watch", "w", false, "曲库文件变化时重新生成（仅 --source file）")

	shuffleCmd.Example = `  # 生成完整播放列表
  bpmshuffle shuffle library.tsv playlist.tsv

  # 生成约 60 分钟的播放列表并输出到标准输出
  bpmshuffle shuffle library.tsv - --duration 60

  # 从 MySQL 读取曲库，发布到 Redis
  bpmshuffle shuffle - - --source mysql --sink redis

  # 监听曲库文件，保存后自动重新生成
  bpmshuffle shuffle library.tsv playlist.tsv --watch`
}

func runShuffle(cmd *cobra.Command, args []string) error {
	libraryArg, outArg := args[0], args[1]

	var duration *int
	if cmd.Flags().Changed("duration") {
		if shuffleDuration < 0 {
			return fmt.Errorf("duration must not be negative: %d", shuffleDuration)
		}
		duration = shuffle.Seconds(shuffleDuration * 60)
	}

	switch shuffleSource {
	case sourceFile, sourceMinio, sourceMySQL:
	default:
		return fmt.Errorf("unknown source %q", shuffleSource)
	}
	switch shuffleSink {
	case sinkFile, sinkMinio, sinkRedis:
	default:
		return fmt.Errorf("unknown sink %q", shuffleSink)
	}
	if shuffleWatch && shuffleSource != sourceFile {
		return errors.New("--watch requires --source file")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := shuffleOnce(ctx, libraryArg, outArg, duration); err != nil {
		if !shuffleWatch {
			return err
		}
		logger.Error("playlist build failed", logger.ErrorField(err))
	}
	if !shuffleWatch {
		return nil
	}
	return watchLibrary(ctx, libraryArg, func() error {
		return shuffleOnce(ctx, libraryArg, outArg, duration)
	})
}

// shuffleOnce 读取曲库、生成播放列表并写出
func shuffleOnce(ctx context.Context, libraryArg, outArg string, duration *int) error {
	tracks, err := loadLibrary(ctx, libraryArg)
	if err != nil {
		return err
	}
	if shuffleDedupe {
		tracks = library.Dedupe(tracks)
	}

	result := shuffle.CreatePlaylist(tracks, shuffle.Options{Duration: duration})
	for i, t := range result.Tracks {
		logger.Debug("playlist entry", logger.Int("position", i), logger.TrackField("track", t))
	}

	location, err := writePlaylist(ctx, outArg, result.Tracks)
	if err != nil {
		return err
	}

	logger.Info("playlist written",
		logger.String("source", shuffleSource),
		logger.String("sink", shuffleSink),
		logger.String("location", location),
		logger.Int("library", len(tracks)),
		logger.Int("tracks", len(result.Tracks)),
		logger.String("length", library.SecondsToLength(result.Stats.TotalSeconds)),
		logger.Int("buckets", result.Stats.Buckets),
		logger.Int("edges", result.Stats.Edges),
		logger.Int("drains", result.Stats.Drains),
		logger.Int("remaining", result.Stats.Remaining))
	return nil
}

func loadLibrary(ctx context.Context, libraryArg string) ([]model.Track, error) {
	switch shuffleSource {
	case sourceMinio:
		store, err := storage.NewObjectStore(cfg)
		if err != nil {
			return nil, err
		}
		return store.GetLibrary(ctx, libraryArg)
	case sourceMySQL:
		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return nil, err
		}
		defer db.CloseGormDB()
		return repository.NewGormTrackRepository(gdb).ListTracks(ctx)
	default:
		return library.ReadFile(libraryArg)
	}
}

// writePlaylist 写出播放列表，返回写入位置
func writePlaylist(ctx context.Context, outArg string, tracks []model.Track) (string, error) {
	switch shuffleSink {
	case sinkMinio:
		store, err := storage.NewObjectStore(cfg)
		if err != nil {
			return "", err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return "", err
		}
		if err := store.PutPlaylist(ctx, outArg, tracks); err != nil {
			return "", err
		}
		return store.Bucket() + "/" + outArg, nil
	case sinkRedis:
		client, err := cache.ConnectRedis(cfg)
		if err != nil {
			return "", err
		}
		defer cache.CloseRedis()

		id := outArg
		if id == "-" {
			id = uuid.NewString()
		}
		if err := cache.NewPlaylistCache(client, cfg.PlaylistTTL).SavePlaylist(ctx, id, tracks); err != nil {
			return "", err
		}
		fmt.Println(id)
		return cache.GetPlaylistKey(id), nil
	default:
		if outArg == "-" {
			return "stdout", library.WritePlaylist(os.Stdout, tracks)
		}
		return outArg, library.WriteFile(outArg, tracks)
	}
}

// watchLibrary 监听曲库文件，每次写入后从头重新生成播放列表。
// 监听的是所在目录，编辑器常以重命名的方式保存文件。
func watchLibrary(ctx context.Context, path string, rebuild func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}
	logger.Info("watching library", logger.String("path", target))

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopped watching library")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isLibraryChange(event, target) {
				continue
			}
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", logger.ErrorField(err))
		case <-timer.C:
			logger.Info("library changed, rebuilding playlist")
			if err := rebuild(); err != nil {
				logger.Error("playlist rebuild failed", logger.ErrorField(err))
			}
		}
	}
}

func isLibraryChange(event fsnotify.Event, target string) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
