// internal/models/setting.go
package models

import "gorm.io/datatypes"

// GlobalSetting 全局设置键值对，value 整体存 JSON 不拆字段
type GlobalSetting struct {
	ID    uint           `gorm:"primaryKey" json:"-"`
	Key   string         `gorm:"uniqueIndex;not null" json:"key"`
	Value datatypes.JSON `gorm:"column:value_json;not null" json:"value"`
}

func (GlobalSetting) TableName() string { return "global_settings" }
