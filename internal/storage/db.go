// internal/storage/db.go
package storage

import (
	"fmt"

	"github.com/Corphon/storyteller/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDB 打开 sqlite 数据库并完成建表迁移
func OpenDB(path string, debugMode bool) (*gorm.DB, error) {
	logLevel := gormlogger.Silent
	if debugMode {
		logLevel = gormlogger.Warn
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate 启动时自动创建所有表
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.WorldbookEntry{},
		&models.Dungeon{},
		&models.DungeonNode{},
		&models.CharacterTemplate{},
		&models.Character{},
		&models.GlobalSetting{},
		&models.StorySegment{},
		&models.SessionState{},
		&models.PresetRecord{},
		&models.LLMConfig{},
	)
	if err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	return nil
}
