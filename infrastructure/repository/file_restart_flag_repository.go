package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/entity"
	"github.com/ca-srg/saferestart/domain/repository"
)

const flagLockRetryDelay = 50 * time.Millisecond

// FileRestartFlagRepository はマーカーファイルの有無で再起動要求を表すリポジトリ実装
type FileRestartFlagRepository struct {
	path string
	now  func() time.Time
}

// NewFileRestartFlagRepository は新しい FileRestartFlagRepository を作成する
func NewFileRestartFlagRepository(path string) repository.RestartFlagRepository {
	return &FileRestartFlagRepository{
		path: path,
		now:  time.Now,
	}
}

// Location はマーカーファイルのパスを返す
func (r *FileRestartFlagRepository) Location() string {
	return r.path
}

// SetPending はマーカーファイルを作成する。既に存在する場合は何もしない
func (r *FileRestartFlagRepository) SetPending(ctx context.Context, reason string) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		return domain.ErrFlagStoreIO("set pending", r.path, err)
	}

	return r.withLock(ctx, "set pending", func() error {
		exists, err := r.exists()
		if err != nil {
			return domain.ErrFlagStoreIO("set pending", r.path, err)
		}
		if exists {
			return nil
		}

		data := entity.NewRestartRequest(r.now(), reason).Marshal()

		// 一時ファイルに書き込んでからアトミックに置き換え
		tmpFile := r.path + ".tmp"
		if err := os.WriteFile(tmpFile, data, 0600); err != nil {
			return domain.ErrFlagStoreIO("set pending", r.path, err)
		}
		if err := os.Rename(tmpFile, r.path); err != nil {
			_ = os.Remove(tmpFile) // クリーンアップ
			return domain.ErrFlagStoreIO("set pending", r.path, err)
		}
		return nil
	})
}

// IsPending はマーカーファイルが存在するかどうかを返す
func (r *FileRestartFlagRepository) IsPending(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	exists, err := r.exists()
	if err != nil {
		return false, domain.ErrFlagStoreIO("check pending", r.path, err)
	}
	return exists, nil
}

// Get はマーカーファイルの内容を読み込む。存在しない場合は Pending=false を返す
func (r *FileRestartFlagRepository) Get(ctx context.Context) (*entity.RestartRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &entity.RestartRequest{}, nil
	}
	if err != nil {
		return nil, domain.ErrFlagStoreIO("read", r.path, err)
	}

	// 内容が壊れていてもファイルが存在する限り要求は保留中として扱う
	req, _ := entity.ParseRestartRequest(data)
	return req, nil
}

// Clear はマーカーファイルを削除する。存在しない場合もエラーにしない
func (r *FileRestartFlagRepository) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// マーカーが無ければロックファイルも作らない
	exists, err := r.exists()
	if err != nil {
		return domain.ErrFlagStoreIO("clear", r.path, err)
	}
	if !exists {
		return nil
	}

	return r.withLock(ctx, "clear", func() error {
		err := os.Remove(r.path)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return domain.ErrFlagStoreIO("clear", r.path, err)
	})
}

func (r *FileRestartFlagRepository) exists() (bool, error) {
	info, err := os.Stat(r.path)
	if err == nil {
		if info.IsDir() {
			return false, fmt.Errorf("%s is a directory", r.path)
		}
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// withLock は <path>.lock のアドバイザリロックを保持したまま fn を実行する
func (r *FileRestartFlagRepository) withLock(ctx context.Context, operation string, fn func() error) error {
	lock := flock.New(r.path + ".lock")
	locked, err := lock.TryLockContext(ctx, flagLockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return domain.ErrFlagStoreIO(operation, r.path, fmt.Errorf("acquiring lock: %w", err))
	}
	if !locked {
		return domain.ErrFlagStoreIO(operation, r.path, fmt.Errorf("lock %s.lock not acquired", r.path))
	}
	defer func() { _ = lock.Unlock() }()

	return fn()
}
