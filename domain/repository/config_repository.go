package repository

import (
	"github.com/ca-srg/saferestart/infrastructure/config"
)

// ConfigRepository は JSON 設定ファイルを読み書きする
type ConfigRepository interface {
	// Exists は設定ファイルの有無を返す
	Exists() (bool, error)

	// Load はファイルの内容を返す。ファイルが無い場合は nil, nil
	Load() (*config.AppConfig, error)

	// Save は検証済みの設定を書き込む。既存ファイルはバックアップしてから置き換える
	Save(config *config.AppConfig) error

	// GetConfigPath は設定ファイルのパスを返す
	GetConfigPath() string
}
