// internal/services/template_service.go
package services

import (
	"errors"

	apperrors "github.com/Corphon/storyteller/internal/errors"
	"github.com/Corphon/storyteller/internal/models"
	"gorm.io/gorm"
)

// 系统默认模板不允许删除
const systemDefaultTemplateID = "system_default"

// TemplateService 管理角色卡模板
type TemplateService struct {
	db *gorm.DB
}

// NewTemplateService 创建模板服务实例
func NewTemplateService(db *gorm.DB) *TemplateService {
	return &TemplateService{db: db}
}

// List 列出全部模板
func (s *TemplateService) List() ([]models.CharacterTemplate, error) {
	var rows []models.CharacterTemplate
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Create 新建模板，ID 重复时报冲突
func (s *TemplateService) Create(t *models.CharacterTemplate) error {
	var count int64
	if err := s.db.Model(&models.CharacterTemplate{}).
		Where("id = ?", t.TemplateID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflictError("模板 ID 已存在", nil)
	}
	if t.Name == "" {
		t.Name = "未命名"
	}
	return s.db.Create(t).Error
}

// Update 更新模板名称与结构定义
func (s *TemplateService) Update(templateID string, name string, config []byte) error {
	var row models.CharacterTemplate
	if err := s.db.Where("id = ?", templateID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFoundError("模板不存在", err)
		}
		return err
	}

	if name != "" {
		row.Name = name
	}
	if config != nil {
		row.Config = config
	}
	return s.db.Save(&row).Error
}

// Delete 删除模板，系统默认模板拒绝删除
func (s *TemplateService) Delete(templateID string) error {
	if templateID == systemDefaultTemplateID {
		return apperrors.NewValidationError("系统默认模板不允许删除", nil)
	}

	result := s.db.Where("id = ?", templateID).Delete(&models.CharacterTemplate{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("模板不存在", nil)
	}
	return nil
}
