// internal/models/character.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Character 角色档案。各分区内容都是开放结构，直接存 JSON 列。
type Character struct {
	ID          uint           `gorm:"primaryKey" json:"-"`
	CharacterID string         `gorm:"uniqueIndex;not null" json:"character_id"`
	TemplateID  string         `gorm:"default:system_default" json:"template_id"`
	Type        string         `gorm:"not null;default:npc" json:"type"`
	Basic       datatypes.JSON `gorm:"column:basic_json" json:"basic"`
	Knowledge   datatypes.JSON `gorm:"column:knowledge_json" json:"knowledge"`
	Secrets     datatypes.JSON `gorm:"column:secrets_json" json:"secrets"`
	Attributes  datatypes.JSON `gorm:"column:attributes_json" json:"attributes"`
	Relations   datatypes.JSON `gorm:"column:relations_json" json:"relations"`
	Equipment   datatypes.JSON `gorm:"column:equipment_json" json:"equipment"`
	Items       datatypes.JSON `gorm:"column:items_json" json:"items"`
	Skills      datatypes.JSON `gorm:"column:skills_json" json:"skills"`
	Fortune     datatypes.JSON `gorm:"column:fortune_json" json:"fortune"`
	Meta        datatypes.JSON `gorm:"column:meta_json" json:"meta"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Character) TableName() string { return "characters" }

// CharacterTemplate 角色模板：自定义 Tabs 与 Fields 结构
type CharacterTemplate struct {
	TemplateID  string         `gorm:"primaryKey;column:id" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Config      datatypes.JSON `gorm:"column:config_json" json:"config"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (CharacterTemplate) TableName() string { return "character_templates" }
