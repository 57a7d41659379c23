// internal/services/dungeon_service.go
package services

import (
	"errors"

	apperrors "github.com/Corphon/storyteller/internal/errors"
	"github.com/Corphon/storyteller/internal/models"
	"gorm.io/gorm"
)

// DungeonService 管理副本及其剧情节点
type DungeonService struct {
	db *gorm.DB
}

// NewDungeonService 创建副本服务实例
func NewDungeonService(db *gorm.DB) *DungeonService {
	return &DungeonService{db: db}
}

// List 按副本编号排序列出所有副本（不带节点）
func (s *DungeonService) List() ([]models.Dungeon, error) {
	var rows []models.Dungeon
	if err := s.db.Order("dungeon_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Get 读取副本及其全部节点，节点按 index_in_dungeon 升序
func (s *DungeonService) Get(dungeonID string) (*models.Dungeon, error) {
	var row models.Dungeon
	err := s.db.Preload("Nodes", func(db *gorm.DB) *gorm.DB {
		return db.Order("index_in_dungeon")
	}).Where("dungeon_id = ?", dungeonID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("副本不存在。", err)
		}
		return nil, err
	}
	return &row, nil
}

// Upsert 整体写入副本：不存在则创建，存在则替换全部字段并重建节点列表
func (s *DungeonService) Upsert(in *models.Dungeon) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var row models.Dungeon
		err := tx.Where("dungeon_id = ?", in.DungeonID).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = models.Dungeon{DungeonID: in.DungeonID, Name: in.Name}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		row.Name = in.Name
		row.Description = in.Description
		row.LevelMin = in.LevelMin
		row.LevelMax = in.LevelMax
		row.GlobalRules = in.GlobalRules
		if err := tx.Omit("Nodes").Save(&row).Error; err != nil {
			return err
		}

		// 节点整表重建，不做增量比对
		if err := tx.Where("dungeon_id = ?", in.DungeonID).
			Delete(&models.DungeonNode{}).Error; err != nil {
			return err
		}
		for i := range in.Nodes {
			node := in.Nodes[i]
			node.ID = 0
			node.DungeonID = in.DungeonID
			if err := tx.Create(&node).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// First 取第一条副本（含节点），没有副本时返回 nil
func (s *DungeonService) First() (*models.Dungeon, error) {
	var row models.Dungeon
	err := s.db.Preload("Nodes", func(db *gorm.DB) *gorm.DB {
		return db.Order("index_in_dungeon")
	}).Order("id").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindNode 在指定副本内查找节点，找不到返回 nil
func (s *DungeonService) FindNode(dungeonID, nodeID string) (*models.DungeonNode, error) {
	var node models.DungeonNode
	err := s.db.Where("dungeon_id = ? AND node_id = ?", dungeonID, nodeID).
		First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &node, nil
}
