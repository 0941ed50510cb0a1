package file_store

import (
	"context"
	"path"
	"path/filepath"
	"time"
)

// StorageType 存储类型
type StorageType string

const (
	StorageTypeRustFS StorageType = "rustfs"
	StorageTypeLocal  StorageType = "local"
)

// ReportStore 报告归档
type ReportStore interface {
	Type() StorageType
	// Upload 上传本地报告文件，返回归档位置
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// ReportKey 报告的对象名：reports/<日期>/<运行ID>/<文件名>
func ReportKey(runID string, startedAt time.Time, localPath string) string {
	return path.Join("reports", startedAt.Format("20060102"), runID, filepath.Base(localPath))
}
