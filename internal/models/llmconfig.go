// internal/models/llmconfig.go
package models

import "time"

// LLMConfig LLM 连接档案。任意时刻至多一条处于激活状态，
// 激活切换在存储层以事务完成（先全部置否再置目标）。
type LLMConfig struct {
	ConfigID     string    `gorm:"primaryKey;column:id" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	BaseURL      string    `gorm:"not null" json:"base_url"`
	APIKey       string    `gorm:"not null" json:"api_key"`
	Stream       bool      `gorm:"default:true" json:"stream"`
	DefaultModel string    `json:"default_model"`
	IsActive     bool      `gorm:"default:false" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (LLMConfig) TableName() string { return "llm_configs" }
