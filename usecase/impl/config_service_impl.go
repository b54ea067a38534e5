package impl

import (
	"context"
	"fmt"
	"sync"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/repository"
	"github.com/ca-srg/saferestart/infrastructure/config"
	usecase "github.com/ca-srg/saferestart/usecase/interface"
)

const maskedValue = "****"

// ConfigServiceImpl は ConfigService の実装
type ConfigServiceImpl struct {
	configRepo repository.ConfigRepository
	config     *config.AppConfig
	logger     domain.Logger
	mu         sync.RWMutex
}

// NewConfigService は設定を読み込んで新しい ConfigService を作成する。
// 読み込み・検証エラーは INVALID_INPUT のドメインエラーとして返す
func NewConfigService(configRepo repository.ConfigRepository, logger domain.Logger) (usecase.ConfigService, error) {
	cfg, err := loadConfig(configRepo, logger)
	if err != nil {
		return nil, err
	}

	return &ConfigServiceImpl{
		configRepo: configRepo,
		config:     cfg,
		logger:     logger,
	}, nil
}

// loadConfig はデフォルト → JSON ファイル → 環境変数の順に設定を重ねて検証する
func loadConfig(configRepo repository.ConfigRepository, logger domain.Logger) (*config.AppConfig, error) {
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.MarkDefaults()

	jsonConfig, err := configRepo.Load()
	if err != nil {
		return nil, invalidConfig(err)
	}
	if jsonConfig != nil {
		cfg.MergeJSONConfig(jsonConfig)
		logger.Debug(ctx, "Loaded JSON configuration", domain.NewField("config_path", configRepo.GetConfigPath()))
	} else {
		logger.Debug(ctx, "No JSON configuration file found, using defaults",
			domain.NewField("config_path", configRepo.GetConfigPath()))
	}

	// 環境変数は JSON の値より優先
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, invalidConfig(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, invalidConfig(err)
	}
	return cfg, nil
}

func invalidConfig(err error) error {
	return domain.NewDomainErrorWithCause(domain.ErrCodeInvalidInput, "invalid configuration", err)
}

// GetConfig は現在の設定を取得する
func (s *ConfigServiceImpl) GetConfig() *config.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// GetConfigWithSources は設定とそのソース情報を取得する
func (s *ConfigServiceImpl) GetConfigWithSources() (*config.AppConfig, config.ConfigSourceMap) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.config.ConfigSources
}

// GetConfigPath は設定ファイルのパスを返す
func (s *ConfigServiceImpl) GetConfigPath() string {
	return s.configRepo.GetConfigPath()
}

// ReloadConfig は設定を再読み込みする。失敗した場合は現在の設定を維持する
func (s *ConfigServiceImpl) ReloadConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := loadConfig(s.configRepo, s.logger)
	if err != nil {
		return err
	}
	s.config = cfg
	return nil
}

// CreateDefaultConfig はテンプレート設定ファイルを作成する
func (s *ConfigServiceImpl) CreateDefaultConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.configRepo.Exists()
	if err != nil {
		return fmt.Errorf("failed to check config existence: %w", err)
	}
	if exists {
		return fmt.Errorf("config file already exists at %s", s.configRepo.GetConfigPath())
	}

	if err := s.configRepo.Save(config.MinimalDefaultConfig()); err != nil {
		return fmt.Errorf("failed to save default config: %w", err)
	}

	s.logger.Info(context.Background(), "Template configuration created",
		domain.NewField("config_path", s.configRepo.GetConfigPath()))
	return nil
}

// ExportConfig は現在の設定をエクスポート用に整形する（パスワードなどをマスク）
func (s *ConfigServiceImpl) ExportConfig() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := s.config
	exportMap := map[string]interface{}{
		"version": cfg.Version,
	}

	if cfg.Admin != nil {
		exportMap["admin"] = map[string]interface{}{
			"executable_path":         cfg.Admin.ExecutablePath,
			"username":                cfg.Admin.Username,
			"password":                mask(cfg.Admin.Password),
			"closed_marker":           cfg.Admin.ClosedMarker,
			"skip_resource_tracking":  cfg.Admin.SkipResourceTracking,
			"admin_server_name":       cfg.Admin.AdminServerName,
			"main_server_name":        cfg.Admin.MainServerName,
			"command_timeout_seconds": cfg.Admin.CommandTimeoutSec,
		}
	}

	if cfg.Flag != nil {
		exportMap["flag"] = map[string]interface{}{
			"path": cfg.Flag.Path,
		}
	}

	if cfg.Confirm != nil {
		exportMap["confirm"] = map[string]interface{}{
			"poll_interval_seconds": cfg.Confirm.PollIntervalSec,
			"timeout_seconds":       cfg.Confirm.TimeoutSec,
			"expect_reopened":       cfg.Confirm.ExpectReopened,
		}
	}

	if cfg.History != nil {
		exportMap["history"] = map[string]interface{}{
			"disabled":      cfg.History.Disabled,
			"database_path": cfg.History.DatabasePath,
		}
	}

	if cfg.Prometheus != nil {
		exportMap["prometheus"] = map[string]interface{}{
			"remote_write_url":      cfg.Prometheus.RemoteWriteURL,
			"remote_write_username": cfg.Prometheus.RemoteWriteUsername,
			"remote_write_password": mask(cfg.Prometheus.RemoteWritePassword),
			"host_label":            cfg.Prometheus.HostLabel,
			"timeout_seconds":       cfg.Prometheus.TimeoutSec,
		}
	}

	if cfg.CloudWatch != nil {
		exportMap["cloudwatch"] = map[string]interface{}{
			"enabled":     cfg.CloudWatch.Enabled,
			"region":      cfg.CloudWatch.Region,
			"namespace":   cfg.CloudWatch.Namespace,
			"aws_profile": cfg.CloudWatch.AWSProfile,
		}
	}

	if cfg.Logging != nil {
		loggingMap := map[string]interface{}{
			"level": cfg.Logging.Level,
			"debug": cfg.Logging.Debug,
		}
		if cfg.Logging.Promtail != nil {
			loggingMap["promtail"] = map[string]interface{}{
				"url":                cfg.Logging.Promtail.URL,
				"username":           cfg.Logging.Promtail.Username,
				"password":           mask(cfg.Logging.Promtail.Password),
				"batch_wait_seconds": cfg.Logging.Promtail.BatchWaitSeconds,
			}
		}
		exportMap["logging"] = loggingMap
	}

	sourcesMap := make(map[string]string, len(cfg.ConfigSources))
	for key, source := range cfg.ConfigSources {
		sourcesMap[key] = string(source)
	}
	exportMap["_sources"] = sourcesMap

	return exportMap
}

// mask は空でない秘密情報を伏せ字にする
func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return maskedValue
}
