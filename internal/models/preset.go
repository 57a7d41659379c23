// internal/models/preset.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// PresetRecord 预设存储记录。完整的提示词树以 JSON 形式存在 config_json 里，
// 更新时整树替换，不做局部修补。
type PresetRecord struct {
	PresetID  string         `gorm:"primaryKey;column:id" json:"id"`
	Name      string         `gorm:"index;not null" json:"name"`
	Version   int            `gorm:"default:1" json:"version"`
	IsActive  bool           `gorm:"default:false" json:"is_active"`
	Config    datatypes.JSON `gorm:"column:config_json;not null" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (PresetRecord) TableName() string { return "presets" }
