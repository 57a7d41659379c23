// internal/models/story.go
package models

import "time"

// StorySegment 一段已生成的剧情文本，按会话内 order_index 递增排列。
// order_index 来自 SessionState 上持久化的序列计数器，删除历史段落后不回收，
// 读取方需要容忍空洞。
type StorySegment struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	SegmentID     string    `gorm:"uniqueIndex;not null" json:"segment_id"`
	SessionID     string    `gorm:"index;not null" json:"session_id"`
	OrderIndex    int       `gorm:"not null;default:0" json:"order_index"`
	Text          string    `gorm:"type:text;not null" json:"text"`
	DungeonID     string    `json:"dungeon_id,omitempty"`
	DungeonNodeID string    `json:"dungeon_node_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (StorySegment) TableName() string { return "story_segments" }

// SessionState 会话状态：当前副本/节点指针、累计字数与段落序列计数器。
// 同一会话假定单写者，计数器递增不加进程内锁。
type SessionState struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	SessionID        string    `gorm:"uniqueIndex;not null" json:"session_id"`
	CurrentDungeonID string    `json:"current_dungeon_id,omitempty"`
	CurrentNodeID    string    `json:"current_node_id,omitempty"`
	SegmentSeq       int       `gorm:"not null;default:0" json:"segment_seq"`
	TotalWordCount   int       `gorm:"not null;default:0" json:"total_word_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (SessionState) TableName() string { return "session_state" }
