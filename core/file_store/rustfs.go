package file_store

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Malowking/sqlgate/core/errors"
)

// objectClient minio 客户端中用到的方法
type objectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// RustFSStore S3 兼容存储（RustFS / MinIO）
type RustFSStore struct {
	client     objectClient
	bucketName string
}

// NewRustFSStore 创建客户端，bucket 不存在时创建
func NewRustFSStore(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, ssl bool) (*RustFSStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: ssl,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrReportFailed, err, "failed to create MinIO client")
	}
	return newRustFSStore(ctx, client, bucketName)
}

func newRustFSStore(ctx context.Context, client objectClient, bucketName string) (*RustFSStore, error) {
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, errors.Wrap(errors.ErrReportFailed, err, "failed to check if bucket exists")
	}

	if exists {
		g.Log().Debugf(ctx, "Bucket '%s' already exists, skipping creation.", bucketName)
	} else {
		if err = client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: ""}); err != nil {
			return nil, errors.Wrap(errors.ErrReportFailed, err, "failed to create bucket")
		}
		g.Log().Infof(ctx, "Created bucket '%s'", bucketName)
	}

	return &RustFSStore{client: client, bucketName: bucketName}, nil
}

// Type 存储类型
func (s *RustFSStore) Type() StorageType { return StorageTypeRustFS }

// Upload 上传报告，返回 bucket/key
func (s *RustFSStore) Upload(ctx context.Context, localPath, key string) (string, error) {
	info, err := s.client.FPutObject(ctx, s.bucketName, key, localPath,
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		g.Log().Errorf(ctx, "Failed to upload report to RustFS: %v", err)
		return "", errors.Wrap(errors.ErrReportFailed, err, "failed to upload report")
	}

	g.Log().Infof(ctx, "Report uploaded to RustFS: bucket=%s, key=%s, size=%d", s.bucketName, key, info.Size)
	return s.bucketName + "/" + key, nil
}
