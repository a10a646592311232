package cmd

import (
	"fmt"

	"bpmshuffle/core/library"
	"bpmshuffle/logger"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan DIR OUT",
	Short: "从音频文件标签生成 TSV 曲库",
	Long:  `递归扫描 DIR 下的 mp3/flac/m4a/ogg 文件，读取标题、艺人、专辑、BPM 和时长，写出 TSV 曲库。缺少 BPM 或时长的文件会被跳过。`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := library.ScanDir(args[0])
		if err != nil {
			return err
		}

		for _, s := range report.Skipped {
			logger.Warn("skipped file", logger.String("path", s.Path), logger.String("reason", s.Reason))
		}

		if err := library.WriteFile(args[1], report.Tracks); err != nil {
			return err
		}

		logger.Info("library scanned",
			logger.String("dir", args[0]),
			logger.Int("tracks", len(report.Tracks)),
			logger.Int("skipped", len(report.Skipped)))
		fmt.Printf("扫描完成: %d 首歌曲, 跳过 %d 个文件\n", len(report.Tracks), len(report.Skipped))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
