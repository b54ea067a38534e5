package usecase

import (
	"github.com/ca-srg/saferestart/infrastructure/config"
)

// ConfigService は設定管理のサービスインターフェース
type ConfigService interface {
	// GetConfig は現在の設定を取得する
	GetConfig() *config.AppConfig

	// GetConfigWithSources は設定とそのソース情報を取得する
	GetConfigWithSources() (*config.AppConfig, config.ConfigSourceMap)

	// GetConfigPath は設定ファイルのパスを返す
	GetConfigPath() string

	// ExportConfig は現在の設定をエクスポート用に整形する（パスワードなどをマスク）
	ExportConfig() map[string]interface{}

	// CreateDefaultConfig はテンプレート設定ファイルを作成する。既に存在する場合はエラー
	CreateDefaultConfig() error

	// ReloadConfig は設定を再読み込みする
	ReloadConfig() error
}
