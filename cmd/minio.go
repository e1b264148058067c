package cmd

import (
	"context"
	"fmt"
	"log"

	"ThqRel/config"
	"ThqRel/storage"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioStats  bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶管理",
	Long:  `查看MinIO存储桶中的发行素材，支持按前缀列出文件和查看统计信息。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始连接MinIO服务器...")

		cfg := config.Load()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if _, err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("无法连接到MinIO: %v", err)
		}
		fmt.Println("MinIO连接成功！")

		client := storage.GetMinioClient()
		ctx := context.Background()

		var totalCount int
		var totalSize int64
		for object := range client.ListObjects(ctx, cfg.MinioBucket, minio.ListObjectsOptions{
			Prefix:    minioPrefix,
			Recursive: true,
		}) {
			if object.Err != nil {
				log.Fatalf("列出对象失败: %v", object.Err)
			}
			totalCount++
			totalSize += object.Size
			if !minioStats {
				fmt.Printf("%10d  %s\n", object.Size, object.Key)
			}
		}

		fmt.Printf("\n共 %d 个对象, 总大小 %.2f MB\n", totalCount, float64(totalSize)/(1024*1024))
	},
}

func init() {
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "对象前缀过滤，如 covers/ 或 audio/")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "只显示统计信息")
	rootCmd.AddCommand(minioCmd)
}
