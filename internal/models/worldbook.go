// internal/models/worldbook.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// WorldbookEntry 世界书条目：供上下文装配按重要度选取的世界观知识片段
type WorldbookEntry struct {
	ID         uint           `gorm:"primaryKey" json:"-"`
	EntryID    string         `gorm:"uniqueIndex;not null" json:"entry_id"`
	Category   string         `gorm:"index" json:"category"`
	Tags       string         `json:"tags"` // 逗号分隔存储
	Title      string         `gorm:"not null" json:"title"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	Importance float64        `gorm:"default:0.5" json:"importance"`
	Canonical  bool           `gorm:"default:false" json:"canonical"`
	Meta       datatypes.JSON `gorm:"column:meta_json" json:"meta"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (WorldbookEntry) TableName() string { return "worldbook_entries" }
