package minio

import (
	"AgentVendor/internal/api/config"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
)

// UploadFile 上传文件，返回对象名
func UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	if Client == nil {
		return "", fmt.Errorf("minio client is not initialized")
	}

	uploadInfo, err := Client.PutObject(ctx, AttachmentBucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return uploadInfo.Key, nil
}

// DeleteFile 删除文件
func DeleteFile(ctx context.Context, objectName string) error {
	if Client == nil {
		return fmt.Errorf("minio client is not initialized")
	}

	err := Client.RemoveObject(ctx, AttachmentBucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// ResolveURL 获取文件访问地址：公开桶走直链，否则签发临时链接
func ResolveURL(ctx context.Context, objectName string) (string, error) {
	cfg := config.Cfg.MinIO

	if cfg.UsePublicLink {
		return fmt.Sprintf("https://%s/%s/%s", cfg.ExternalEndpoint, AttachmentBucket, objectName), nil
	}

	presigned, err := Client.PresignedGetObject(ctx, AttachmentBucket, objectName, 24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign object: %w", err)
	}
	return presigned.String(), nil
}
