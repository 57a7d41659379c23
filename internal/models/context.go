// internal/models/context.go
package models

// 本文件内的类型都是按次生成的临时结构，不落库。

// CharacterSnapshot 上下文装配挑出的主角快照
type CharacterSnapshot struct {
	CharacterID    string                 `json:"character_id"`
	Name           string                 `json:"name,omitempty"`
	AbilityTier    string                 `json:"ability_tier,omitempty"`
	EconomySummary string                 `json:"economy_summary,omitempty"`
	RawBasic       map[string]interface{} `json:"raw_basic,omitempty"`
}

// WorldbookSnippet 世界书节选：内容截断后进入上下文
type WorldbookSnippet struct {
	EntryID  string `json:"entry_id"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Content  string `json:"content"`
}

// DungeonSnapshot 当前副本/节点快照
type DungeonSnapshot struct {
	DungeonID    string `json:"id"`
	Name         string `json:"name"`
	NodeName     string `json:"node_name,omitempty"`
	ProgressHint string `json:"progress_hint,omitempty"`
}

// ContextBundle 一次生成调用所装配的全部运行时上下文
type ContextBundle struct {
	MainCharacter *CharacterSnapshot `json:"main_character,omitempty"`
	Worldbook     []WorldbookSnippet `json:"worldbook,omitempty"`
	Dungeon       *DungeonSnapshot   `json:"dungeon,omitempty"`
	History       []string           `json:"history,omitempty"` // 旧在前
}

// GenerateMeta 单次生成的元信息，每次调用重新计算
type GenerateMeta struct {
	SceneTitle          string             `json:"scene_title"`
	Tags                []string           `json:"tags"`
	Tone                string             `json:"tone,omitempty"`
	Pacing              string             `json:"pacing,omitempty"`
	DungeonProgressHint string             `json:"dungeon_progress_hint,omitempty"`
	DungeonName         string             `json:"dungeon_name,omitempty"`
	DungeonNodeName     string             `json:"dungeon_node_name,omitempty"`
	MainCharacter       *CharacterSnapshot `json:"main_character,omitempty"`
	WordCount           *int               `json:"word_count,omitempty"`
	DurationMS          int64              `json:"duration_ms"`
}

// 流式事件类型：meta 首发一次，delta 零到多次，done/error 二选一收尾
const (
	StreamEventMeta  = "meta"
	StreamEventDelta = "delta"
	StreamEventDone  = "done"
	StreamEventError = "error"
)

// StreamEvent 对外输出的类型化流式事件
type StreamEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}
