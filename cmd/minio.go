package cmd

import (
	"fmt"
	"sort"
	"time"

	"bpmshuffle/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioStats  bool
	minioDelete bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶管理",
	Long:  `查看和管理MinIO存储桶中的曲库和播放列表，支持列出文件、查看统计信息、删除目录。`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		store, err := storage.NewObjectStore(cfg)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if minioDelete {
			n, err := store.DeletePrefix(ctx, minioPrefix)
			if err != nil {
				return err
			}
			fmt.Printf("成功删除目录 %s 及其下的 %d 个文件\n", minioPrefix, n)
			return nil
		}

		objects, stats, err := store.ListObjects(ctx, minioPrefix)
		if err != nil {
			return err
		}

		if minioStats {
			fmt.Printf("\n=== 存储桶统计信息 ===\n")
			fmt.Printf("存储桶名称: %s\n", store.Bucket())
			fmt.Printf("总大小: %s\n", storage.FormatSize(stats.TotalSize))
			fmt.Printf("对象总数: %d\n", stats.TotalObjects)
			fmt.Printf("最后修改时间: %s\n", stats.LastModified.Format(time.RFC3339))

			exts := make([]string, 0, len(stats.TypeStats))
			for ext := range stats.TypeStats {
				exts = append(exts, ext)
			}
			sort.Strings(exts)
			fmt.Printf("\n文件类型统计:\n")
			for _, ext := range exts {
				fmt.Printf("%s: %d 个文件\n", ext, stats.TypeStats[ext])
			}
			return nil
		}

		for _, obj := range objects {
			fmt.Printf("文件名: %s, 大小: %s, 最后修改时间: %s\n",
				obj.Key, storage.FormatSize(obj.Size), obj.LastModified.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件或指定要操作的目录")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "显示存储桶统计信息")
	minioCmd.Flags().BoolVarP(&minioDelete, "delete", "d", false, "删除指定目录及其下的所有文件")

	minioCmd.Example = `  # 列出所有文件
  bpmshuffle minio

  # 只看已发布的播放列表
  bpmshuffle minio -p "playlists/"

  # 显示存储桶统计信息
  bpmshuffle minio -s

  # 删除目录及其下的所有文件
  bpmshuffle minio -d -p "playlists/"`
}
