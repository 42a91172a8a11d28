package minio

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"fertilizer-service/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioClient stores generated reports in a single bucket.
type MinioClient struct {
	client *minio.Client
	config config.MinioConfig
	logger *zap.Logger
}

// NewMinioClient connects, verifies the connection and makes sure the
// report bucket exists.
func NewMinioClient(cfg config.MinioConfig, logger *zap.Logger) (*MinioClient, error) {
	endpoint := strings.TrimPrefix(cfg.MinioURL, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := client.ListBuckets(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO server: %w", err)
	}

	mc := &MinioClient{client: client, config: cfg, logger: logger}
	if err := mc.ensureBucket(ctx, cfg.ReportBucket); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket %s: %w", cfg.ReportBucket, err)
	}

	logger.Info("connected to MinIO",
		zap.String("url", cfg.MinioURL),
		zap.String("bucket", cfg.ReportBucket))
	return mc, nil
}

func (mc *MinioClient) ensureBucket(ctx context.Context, bucketName string) error {
	exists, err := mc.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := mc.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: mc.config.MinioLocation}); err != nil {
		return fmt.Errorf("error creating bucket %s: %w", bucketName, err)
	}
	mc.logger.Info("created bucket", zap.String("bucket", bucketName))
	return nil
}

// ArchiveReport uploads content under objectName in the report bucket.
func (mc *MinioClient) ArchiveReport(ctx context.Context, objectName, contentType string, content []byte) error {
	_, err := mc.client.PutObject(ctx, mc.config.ReportBucket, objectName,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	return nil
}
