package cmd

import (
	"context"
	"time"

	"bpmshuffle/cache"
	"bpmshuffle/logger"
	"bpmshuffle/server"
	"bpmshuffle/storage"

	"github.com/spf13/cobra"
)

var (
	serveAddr  string
	serveRedis bool
	serveMinio bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	Long:  `启动 HTTP API，提供 JSON/TSV 播放列表生成、WebSocket 逐首推送、Prometheus 指标。启用 --redis 或 --minio 后可以发布播放列表。`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.HTTPAddr = serveAddr
		}

		var playlists server.PlaylistStore
		if serveRedis {
			client, err := cache.ConnectRedis(cfg)
			if err != nil {
				return err
			}
			defer cache.CloseRedis()
			playlists = cache.NewPlaylistCache(client, cfg.PlaylistTTL)
			logger.Info("Successfully connected to Redis")
		}

		var objects server.PlaylistPublisher
		if serveMinio {
			store, err := storage.NewObjectStore(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			err = store.EnsureBucket(ctx)
			cancel()
			if err != nil {
				return err
			}
			objects = store
			logger.Info("MinIO 客户端初始化成功", logger.String("bucket", store.Bucket()))
		}

		return server.Start(cfg, server.NewAPIHandler(cfg, playlists, objects))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "监听地址，覆盖 HTTP_ADDR")
	serveCmd.Flags().BoolVar(&serveRedis, "redis", false, "把发布的播放列表写入 Redis")
	serveCmd.Flags().BoolVar(&serveMinio, "minio", false, "把发布的播放列表上传到 MinIO")
}
