// internal/services/llm_config_service.go
package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/Corphon/storyteller/internal/errors"
	"github.com/Corphon/storyteller/internal/models"
	"gorm.io/gorm"
)

// ActiveSelection 当前激活的连接配置与选中模型
type ActiveSelection struct {
	ConfigID string `json:"config_id"`
	Model    string `json:"model"`
}

// LLMConfigService 管理 LLM 连接配置档案与激活选择
type LLMConfigService struct {
	db *gorm.DB
}

// NewLLMConfigService 创建 LLM 配置服务实例
func NewLLMConfigService(db *gorm.DB) *LLMConfigService {
	return &LLMConfigService{db: db}
}

// List 返回全部配置以及当前激活选择（无激活时返回 nil）
func (s *LLMConfigService) List() ([]models.LLMConfig, *ActiveSelection, error) {
	var rows []models.LLMConfig
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	var active *ActiveSelection
	for _, r := range rows {
		if r.IsActive {
			active = &ActiveSelection{ConfigID: r.ConfigID, Model: r.DefaultModel}
			break
		}
	}
	return rows, active, nil
}

// Get 读取单条配置
func (s *LLMConfigService) Get(configID string) (*models.LLMConfig, error) {
	var row models.LLMConfig
	if err := s.db.Where("id = ?", configID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("LLM配置不存在", err)
		}
		return nil, err
	}
	return &row, nil
}

// Create 新建配置；未提供 ID 时自动生成；库里唯一一条时自动激活
func (s *LLMConfigService) Create(cfg *models.LLMConfig) (*models.LLMConfig, error) {
	if cfg.ConfigID == "" {
		cfg.ConfigID = "llm_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	}
	if cfg.Name == "" {
		cfg.Name = "未命名配置"
	}
	cfg.IsActive = false

	if err := s.db.Create(cfg).Error; err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.LLMConfig{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 1 {
		cfg.IsActive = true
		if err := s.db.Save(cfg).Error; err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Update 更新配置内容（不改变激活状态）
func (s *LLMConfigService) Update(configID string, in *models.LLMConfig) (*models.LLMConfig, error) {
	row, err := s.Get(configID)
	if err != nil {
		return nil, err
	}

	row.Name = in.Name
	row.BaseURL = in.BaseURL
	row.APIKey = in.APIKey
	row.Stream = in.Stream
	row.DefaultModel = in.DefaultModel

	if err := s.db.Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Delete 删除配置。删除的是激活配置时回退激活剩余的第一条。
func (s *LLMConfigService) Delete(configID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var row models.LLMConfig
		if err := tx.Where("id = ?", configID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFoundError("LLM配置不存在", err)
			}
			return err
		}

		wasActive := row.IsActive
		if err := tx.Delete(&row).Error; err != nil {
			return err
		}

		if wasActive {
			var fallback models.LLMConfig
			err := tx.Order("id").First(&fallback).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			return tx.Model(&fallback).Update("is_active", true).Error
		}
		return nil
	})
}

// SetActive 激活指定配置并可选更新其默认模型。
// 先全部置否再置目标，两步在同一事务内完成。
func (s *LLMConfigService) SetActive(configID, model string) (*ActiveSelection, error) {
	var target models.LLMConfig
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", configID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFoundError("LLM配置不存在", err)
			}
			return err
		}

		if err := tx.Model(&models.LLMConfig{}).Where("1 = 1").
			Update("is_active", false).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"is_active": true}
		if model != "" {
			updates["default_model"] = model
			target.DefaultModel = model
		}
		return tx.Model(&target).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &ActiveSelection{ConfigID: target.ConfigID, Model: target.DefaultModel}, nil
}

// ClearActive 清除激活状态（所有配置都不再激活）
func (s *LLMConfigService) ClearActive() error {
	return s.db.Model(&models.LLMConfig{}).Where("1 = 1").
		Update("is_active", false).Error
}

// GetActive 返回当前激活的配置；没有激活记录时回退第一条；一条都没有返回 nil
func (s *LLMConfigService) GetActive() (*models.LLMConfig, error) {
	var row models.LLMConfig
	err := s.db.Where("is_active = ?", true).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.Order("id").First(&row).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
