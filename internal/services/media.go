package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"wavely/internal/config"
	"wavely/internal/logging"
	"wavely/internal/models"
)

// MediaStore 释放帖子引用的媒体对象，上传不在本服务内
type MediaStore interface {
	Release(ctx context.Context, media models.PostMedia) error
}

// MinioMediaStore 基于 MinIO / S3 的媒体存储
type MinioMediaStore struct {
	client *minio.Client
	bucket string
	logger logging.Logger
}

func NewMinioMediaStore(cfg config.MinioConfig, logger logging.Logger) (*MinioMediaStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &MinioMediaStore{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// Release 删除媒体对应的对象；对象 key 缺失时从 URL 推断
func (s *MinioMediaStore) Release(ctx context.Context, media models.PostMedia) error {
	key := media.ObjectKey
	if key == "" {
		key = objectKeyFromURL(media.URL, s.bucket)
	}
	if key == "" {
		s.logger.WithField("media_id", media.ID).Warn("Media has no object key, nothing to release")
		return nil
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	s.logger.WithFields(logging.Fields{
		"media_id": media.ID,
		"key":      key,
	}).Debug("Released media object")
	return nil
}

// objectKeyFromURL 解析 path-style 地址 /<bucket>/<key>
func objectKeyFromURL(raw, bucket string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	path := strings.TrimPrefix(u.Path, "/")
	prefix := bucket + "/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	return strings.TrimPrefix(path, prefix)
}

// NoopMediaStore 未配置对象存储时使用
type NoopMediaStore struct {
	Logger logging.Logger
}

func (s NoopMediaStore) Release(ctx context.Context, media models.PostMedia) error {
	if s.Logger != nil {
		s.Logger.WithField("url", media.URL).Debug("Object storage disabled, skipping media release")
	}
	return nil
}
