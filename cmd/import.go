package cmd

import (
	"fmt"

	"bpmshuffle/core/library"
	"bpmshuffle/db"
	"bpmshuffle/repository"

	"github.com/spf13/cobra"
)

var importClear bool

var importCmd = &cobra.Command{
	Use:   "import LIBRARY",
	Short: "把 TSV 曲库导入 MySQL",
	Long:  `解析 TSV 曲库并批量写入 library_tracks 表，之后可以用 shuffle --source mysql 生成播放列表。`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracks, err := library.ReadFile(args[0])
		if err != nil {
			return err
		}

		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return err
		}
		defer db.CloseGormDB()

		if err := repository.AutoMigrate(gdb); err != nil {
			return err
		}

		repo := repository.NewGormTrackRepository(gdb)
		ctx := cmd.Context()
		if importClear {
			if err := repo.ClearTracks(ctx); err != nil {
				return err
			}
		}

		n, err := repo.ImportTracks(ctx, tracks)
		if err != nil {
			return err
		}
		total, err := repo.CountTracks(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("导入 %d 首歌曲，曲库共 %d 首\n", n, total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importClear, "clear", false, "导入前清空已有曲库")
}
