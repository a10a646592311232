package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"bpmshuffle/config"
	"bpmshuffle/core/library"
	"bpmshuffle/logger"
	"bpmshuffle/model"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	playlistPrefix = "playlists/"
	tsvContentType = "text/tab-separated-values"
)

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore 封装了 MinIO 客户端和目标存储桶
type ObjectStore struct {
	client     *minio.Client
	bucketName string
	region     string
}

// NewObjectStore 根据配置创建 MinIO 客户端，不会发起网络请求
func NewObjectStore(cfg *config.Config) (*ObjectStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	return &ObjectStore{
		client:     client,
		bucketName: cfg.MinioBucket,
		region:     cfg.MinioRegion,
	}, nil
}

// Bucket 返回存储桶名称
func (s *ObjectStore) Bucket() string {
	return s.bucketName
}

// PlaylistObjectName 返回已发布播放列表的对象名
func PlaylistObjectName(id string) string {
	return path.Join(playlistPrefix, id+".tsv")
}

// EnsureBucket 检查存储桶是否存在，不存在则创建
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if exists {
		logger.Debug("存储桶已存在", logger.String("bucket", s.bucketName))
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	logger.Info("成功创建存储桶", logger.String("bucket", s.bucketName))
	return nil
}

// GetLibrary 读取并解析一个 TSV 曲库对象
func (s *ObjectStore) GetLibrary(ctx context.Context, object string) ([]model.Track, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrapErr(object, err)
	}
	defer obj.Close()

	// GetObject 是惰性的，对象不存在的错误在 Stat 或首次读取时才出现
	if _, err := obj.Stat(); err != nil {
		return nil, s.wrapErr(object, err)
	}

	tracks, err := library.ParseLibrary(obj)
	if err != nil {
		return nil, fmt.Errorf("解析曲库 %s 失败: %w", object, err)
	}
	logger.Info("从 MinIO 读取曲库",
		logger.String("object", object),
		logger.Int("tracks", len(tracks)))
	return tracks, nil
}

// PutPlaylist 以 TSV 格式上传播放列表
func (s *ObjectStore) PutPlaylist(ctx context.Context, object string, tracks []model.Track) error {
	var buf bytes.Buffer
	if err := library.WritePlaylist(&buf, tracks); err != nil {
		return err
	}

	info, err := s.client.PutObject(ctx, s.bucketName, object, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: tsvContentType,
	})
	if err != nil {
		return fmt.Errorf("上传播放列表 %s 失败: %w", object, err)
	}
	logger.Info("播放列表已上传",
		logger.String("object", object),
		logger.Any("size", info.Size))
	return nil
}

func (s *ObjectStore) wrapErr(object string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s/%s", ErrObjectNotFound, s.bucketName, object)
	}
	return fmt.Errorf("读取对象 %s 失败: %w", object, err)
}
