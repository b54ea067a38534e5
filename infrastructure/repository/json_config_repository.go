package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/ca-srg/saferestart/domain/repository"
	"github.com/ca-srg/saferestart/infrastructure/config"
)

const configBackupsKept = 5

// JSONConfigRepository は JSON 形式の設定ファイルを管理するリポジトリ実装
type JSONConfigRepository struct {
	configDir  string
	configFile string
	now        func() time.Time
}

// NewJSONConfigRepository は ~/.config/saferestart/config.json を扱うリポジトリを作成する
func NewJSONConfigRepository() repository.ConfigRepository {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return NewJSONConfigRepositoryAt(filepath.Join(homeDir, ".config", "saferestart", "config.json"))
}

// NewJSONConfigRepositoryAt は任意のパスの設定ファイルを扱うリポジトリを作成する
func NewJSONConfigRepositoryAt(path string) *JSONConfigRepository {
	return &JSONConfigRepository{
		configDir:  filepath.Dir(path),
		configFile: path,
		now:        time.Now,
	}
}

// Exists は設定ファイルが存在するかどうかを確認する
func (r *JSONConfigRepository) Exists() (bool, error) {
	_, err := os.Stat(r.configFile)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check config file existence: %w", err)
}

// Load は設定ファイルを読み込む。ファイルが無い場合は nil を返す
func (r *JSONConfigRepository) Load() (*config.AppConfig, error) {
	exists, err := r.Exists()
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	// 管理者パスワードを含むため所有者と権限を確認
	if err := r.ensureSecurePermissions(r.configFile, false); err != nil {
		return nil, fmt.Errorf("config file security check failed: %w", err)
	}

	data, err := os.ReadFile(r.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg config.AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", r.configFile, err)
	}
	return &cfg, nil
}

// Save は設定を検証してからアトミックに保存する
func (r *JSONConfigRepository) Save(cfg *config.AppConfig) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if err := r.EnsureConfigDir(); err != nil {
		return err
	}

	exists, err := r.Exists()
	if err != nil {
		return err
	}
	if exists {
		if err := r.Backup(); err != nil {
			// バックアップ失敗でも保存は続行
			fmt.Fprintf(os.Stderr, "Warning: failed to create config backup: %v\n", err)
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpFile := r.configFile + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := os.Rename(tmpFile, r.configFile); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return r.ensureSecurePermissions(r.configFile, false)
}

// GetConfigPath は設定ファイルのパスを返す
func (r *JSONConfigRepository) GetConfigPath() string {
	return r.configFile
}

// EnsureConfigDir は設定ディレクトリを 0700 で作成する
func (r *JSONConfigRepository) EnsureConfigDir() error {
	if err := os.MkdirAll(r.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := r.ensureSecurePermissions(r.configDir, true); err != nil {
		return fmt.Errorf("failed to secure config directory: %w", err)
	}
	return nil
}

// Backup は現在の設定ファイルを config.json.backup.<timestamp> に複製する
func (r *JSONConfigRepository) Backup() error {
	data, err := os.ReadFile(r.configFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file for backup: %w", err)
	}

	backupFile := fmt.Sprintf("%s.backup.%s", r.configFile, r.now().Format("20060102-150405"))
	if err := os.WriteFile(backupFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}

	return r.cleanupOldBackups()
}

// cleanupOldBackups は最新 configBackupsKept 個を残して古いバックアップを削除する
func (r *JSONConfigRepository) cleanupOldBackups() error {
	matches, err := filepath.Glob(r.configFile + ".backup.*")
	if err != nil {
		return err
	}
	if len(matches) <= configBackupsKept {
		return nil
	}

	// タイムスタンプ形式なので名前順が作成順
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-configBackupsKept] {
		if err := os.Remove(old); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove old backup %s: %v\n", old, err)
		}
	}
	return nil
}

// ensureSecurePermissions は権限を 0600/0700 に揃え、所有者を確認する
func (r *JSONConfigRepository) ensureSecurePermissions(path string, isDir bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	expected := os.FileMode(0600)
	if isDir {
		expected = 0700
	}
	if info.Mode().Perm() != expected {
		if err := os.Chmod(path, expected); err != nil {
			return fmt.Errorf("failed to set permissions: %w", err)
		}
	}

	// Unix 系以外では所有者チェックをスキップ
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}
	if uid := uint32(os.Getuid()); stat.Uid != uid {
		return fmt.Errorf("%s is not owned by current user (uid: %d, expected: %d)", path, stat.Uid, uid)
	}
	return nil
}

var _ repository.ConfigRepository = (*JSONConfigRepository)(nil)
