// internal/services/preset_service.go
package services

import (
	"encoding/json"
	"errors"

	apperrors "github.com/Corphon/storyteller/internal/errors"
	"github.com/Corphon/storyteller/internal/models"
	"github.com/Corphon/storyteller/internal/prompt"
	"gorm.io/gorm"
)

// PresetService 管理提示词预设的存取与激活状态
type PresetService struct {
	db *gorm.DB
}

// NewPresetService 创建预设服务实例
func NewPresetService(db *gorm.DB) *PresetService {
	return &PresetService{db: db}
}

// presetConfig 是 config_json 列的载荷结构（整树替换，不局部修补）
type presetConfig struct {
	Root *prompt.Node           `json:"root"`
	Meta map[string]interface{} `json:"meta"`
}

// List 返回所有预设的元数据以及当前激活的预设 ID
func (s *PresetService) List() ([]models.PresetRecord, string, error) {
	var rows []models.PresetRecord
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	activeID := ""
	for _, r := range rows {
		if r.IsActive {
			activeID = r.PresetID
			break
		}
	}
	return rows, activeID, nil
}

// Get 读取单个预设（含完整树结构）
func (s *PresetService) Get(presetID string) (*prompt.Preset, error) {
	var row models.PresetRecord
	if err := s.db.Where("id = ?", presetID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("预设不存在", err)
		}
		return nil, err
	}
	return decodePreset(&row), nil
}

// CreateDefault 用出厂内容创建一个新预设；若是第一个预设则自动激活
func (s *PresetService) CreateDefault(name string) (*prompt.Preset, error) {
	preset := prompt.DefaultPreset(name)

	row, err := encodePreset(preset)
	if err != nil {
		return nil, err
	}
	if err := s.db.Create(row).Error; err != nil {
		return nil, err
	}

	if err := s.activateIfOnly(row.PresetID); err != nil {
		return nil, err
	}
	return preset, nil
}

// Update 整树替换指定预设的内容
func (s *PresetService) Update(presetID string, preset *prompt.Preset) error {
	var row models.PresetRecord
	if err := s.db.Where("id = ?", presetID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFoundError("预设不存在", err)
		}
		return err
	}

	preset.ID = presetID // 确保 ID 一致
	updated, err := encodePreset(preset)
	if err != nil {
		return err
	}

	row.Name = updated.Name
	row.Version = updated.Version
	row.Config = updated.Config
	return s.db.Save(&row).Error
}

// Delete 删除预设
func (s *PresetService) Delete(presetID string) error {
	result := s.db.Where("id = ?", presetID).Delete(&models.PresetRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("预设不存在", nil)
	}
	return nil
}

// SetActive 激活指定预设。先全部置否再置目标，两步在同一事务内完成，
// 保证任意时刻至多一个激活预设。
func (s *PresetService) SetActive(presetID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var target models.PresetRecord
		if err := tx.Where("id = ?", presetID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFoundError("预设不存在", err)
			}
			return err
		}

		if err := tx.Model(&models.PresetRecord{}).Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&target).Update("is_active", true).Error
	})
}

// Import 导入任意形态的预设载荷；warnings 携带清洗过程中的降级信息
func (s *PresetService) Import(payload interface{}, nameHint string) (*prompt.Preset, []string, error) {
	preset, warnings := prompt.ImportPreset(payload, nameHint)

	row, err := encodePreset(preset)
	if err != nil {
		return nil, nil, err
	}
	if err := s.db.Create(row).Error; err != nil {
		return nil, nil, err
	}

	if err := s.activateIfOnly(row.PresetID); err != nil {
		return nil, nil, err
	}
	return preset, warnings, nil
}

// GetActive 获取当前激活预设；没有激活记录时回退第一条；一条都没有返回 nil
func (s *PresetService) GetActive() (*prompt.Preset, error) {
	var row models.PresetRecord
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
	return decodePreset(&row), nil
}

// activateIfOnly 创建后检查：库里只有这一条时自动设为激活
func (s *PresetService) activateIfOnly(presetID string) error {
	var count int64
	if err := s.db.Model(&models.PresetRecord{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 1 {
		return s.db.Model(&models.PresetRecord{}).Where("id = ?", presetID).
			Update("is_active", true).Error
	}
	return nil
}

func encodePreset(p *prompt.Preset) (*models.PresetRecord, error) {
	config, err := json.Marshal(presetConfig{Root: p.Root, Meta: p.Meta})
	if err != nil {
		return nil, err
	}
	return &models.PresetRecord{
		PresetID: p.ID,
		Name:     p.Name,
		Version:  p.Version,
		Config:   config,
	}, nil
}

func decodePreset(row *models.PresetRecord) *prompt.Preset {
	var config presetConfig
	// 解析失败时返回空树而不是报错，编译器对 nil root 输出空串
	_ = json.Unmarshal(row.Config, &config)

	meta := config.Meta
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return &prompt.Preset{
		ID:      row.PresetID,
		Name:    row.Name,
		Version: row.Version,
		Root:    config.Root,
		Meta:    meta,
	}
}
