// internal/services/settings_service.go
package services

import (
	"encoding/json"
	"errors"

	"github.com/Corphon/storyteller/internal/models"
	"gorm.io/gorm"
)

const globalSettingsKey = "global"

// SettingsService 管理全局设置。前端发来的配置 JSON 整体存为一条记录，
// 内部不拆字段。
type SettingsService struct {
	db *gorm.DB
}

// NewSettingsService 创建设置服务实例
func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// defaultGlobalSettings 初次启动时的默认配置
func defaultGlobalSettings() map[string]interface{} {
	return map[string]interface{}{
		"ui":               map[string]interface{}{},
		"text":             map[string]interface{}{},
		"summary":          map[string]interface{}{},
		"variables":        map[string]interface{}{},
		"text_opt":         map[string]interface{}{},
		"world_evolution":  map[string]interface{}{},
		"default_profiles": map[string]interface{}{},
	}
}

// GetGlobal 读取全局设置，没有记录时返回默认配置
func (s *SettingsService) GetGlobal() (map[string]interface{}, error) {
	var row models.GlobalSetting
	err := s.db.Where("key = ?", globalSettingsKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultGlobalSettings(), nil
	}
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := json.Unmarshal(row.Value, &data); err != nil {
		return defaultGlobalSettings(), nil
	}
	return data, nil
}

// PutGlobal 整体替换全局设置
func (s *SettingsService) PutGlobal(payload map[string]interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var row models.GlobalSetting
	err = s.db.Where("key = ?", globalSettingsKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.GlobalSetting{Key: globalSettingsKey, Value: raw}
		return s.db.Create(&row).Error
	}
	if err != nil {
		return err
	}

	row.Value = raw
	return s.db.Save(&row).Error
}
