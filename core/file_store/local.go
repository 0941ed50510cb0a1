package file_store

import (
	"context"
	"path/filepath"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gfile"

	"github.com/Malowking/sqlgate/core/errors"
)

// LocalStore 复制报告到本地归档目录
type LocalStore struct {
	dir string
}

// NewLocalStore 创建本地归档，目录不存在时创建
func NewLocalStore(ctx context.Context, dir string) (*LocalStore, error) {
	if err := gfile.Mkdir(dir); err != nil {
		g.Log().Errorf(ctx, "Failed to create directory %s: %v", dir, err)
		return nil, errors.Wrap(errors.ErrReportFailed, err, "failed to create directory "+dir)
	}
	return &LocalStore{dir: dir}, nil
}

// Type 存储类型
func (s *LocalStore) Type() StorageType { return StorageTypeLocal }

// Upload 复制到 <dir>/<key>
func (s *LocalStore) Upload(ctx context.Context, localPath, key string) (string, error) {
	if !gfile.IsFile(localPath) {
		return "", errors.Newf(errors.ErrReportFailed, "report not found: %s", localPath)
	}
	finalPath := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := gfile.Mkdir(filepath.Dir(finalPath)); err != nil {
		return "", errors.Wrap(errors.ErrReportFailed, err, "failed to create directory "+filepath.Dir(finalPath))
	}
	if err := gfile.CopyFile(localPath, finalPath); err != nil {
		g.Log().Errorf(ctx, "Failed to copy report to %s: %v", finalPath, err)
		return "", errors.Wrap(errors.ErrReportFailed, err, "failed to archive report")
	}

	g.Log().Infof(ctx, "Report saved to local storage: %s", finalPath)
	return finalPath, nil
}
