// internal/models/dungeon.go
package models

import "gorm.io/datatypes"

// Dungeon 副本定义：一条主线由若干节点串成
type Dungeon struct {
	ID          uint           `gorm:"primaryKey" json:"-"`
	DungeonID   string         `gorm:"uniqueIndex;not null" json:"dungeon_id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	LevelMin    int            `json:"level_min"`
	LevelMax    int            `json:"level_max"`
	GlobalRules datatypes.JSON `gorm:"column:global_rules_json" json:"global_rules"`

	// 节点按 index_in_dungeon 升序维护
	Nodes []DungeonNode `gorm:"foreignKey:DungeonID;references:DungeonID;constraint:OnDelete:CASCADE" json:"nodes"`
}

func (Dungeon) TableName() string { return "dungeons" }

// DungeonNode 副本内的单个剧情节点
type DungeonNode struct {
	ID                  uint           `gorm:"primaryKey" json:"-"`
	DungeonID           string         `gorm:"index;not null" json:"dungeon_id"`
	NodeID              string         `gorm:"not null" json:"node_id"`
	IndexInDungeon      int            `gorm:"default:0" json:"index"`
	Name                string         `gorm:"not null" json:"name"`
	ProgressPercent     int            `json:"progress_percent"`
	EntryConditions     datatypes.JSON `gorm:"column:entry_conditions_json" json:"entry_conditions"`
	ExitConditions      datatypes.JSON `gorm:"column:exit_conditions_json" json:"exit_conditions"`
	SummaryRequirements string         `gorm:"type:text" json:"summary_requirements"`
	StoryRequirements   datatypes.JSON `gorm:"column:story_requirements_json" json:"story_requirements"`
	Branching           datatypes.JSON `gorm:"column:branching_json" json:"branching"`
}

func (DungeonNode) TableName() string { return "dungeon_nodes" }
