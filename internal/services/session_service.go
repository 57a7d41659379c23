// internal/services/session_service.go
package services

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/Corphon/storyteller/internal/models"
	"gorm.io/gorm"
)

// SessionService 管理会话状态与剧情段落
type SessionService struct {
	db *gorm.DB
}

// NewSessionService 创建会话服务实例
func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

// GetOrCreate 读取会话状态，不存在则初始化一条
func (s *SessionService) GetOrCreate(sessionID string) (*models.SessionState, error) {
	var st models.SessionState
	err := s.db.Where("session_id = ?", sessionID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		st = models.SessionState{SessionID: sessionID}
		if err := s.db.Create(&st).Error; err != nil {
			return nil, err
		}
		return &st, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// RecentTexts 返回会话最近 limit 段剧情文本，旧在前
func (s *SessionService) RecentTexts(sessionID string, limit int) ([]string, error) {
	var rows []models.StorySegment
	if err := s.db.Where("session_id = ?", sessionID).
		Order("order_index DESC").Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		texts = append(texts, rows[i].Text)
	}
	return texts, nil
}

// AppendSegment 追加一段剧情并返回其 order_index。
// 序号来自 SessionState.SegmentSeq 持久化计数器，段落被删除后序号不回收，
// 因此历史记录里允许出现空洞。段落写入、计数器与累计字数更新在同一事务内完成。
func (s *SessionService) AppendSegment(sessionID, text string) (int, error) {
	st, err := s.GetOrCreate(sessionID)
	if err != nil {
		return 0, err
	}

	orderIndex := 0
	err = s.db.Transaction(func(tx *gorm.DB) error {
		st.SegmentSeq++
		orderIndex = st.SegmentSeq
		st.TotalWordCount += utf8.RuneCountInString(text)

		seg := models.StorySegment{
			SegmentID:     fmt.Sprintf("%s_%d", sessionID, orderIndex),
			SessionID:     sessionID,
			OrderIndex:    orderIndex,
			Text:          text,
			DungeonID:     st.CurrentDungeonID,
			DungeonNodeID: st.CurrentNodeID,
		}
		if err := tx.Create(&seg).Error; err != nil {
			return err
		}
		return tx.Save(st).Error
	})
	if err != nil {
		return 0, err
	}
	return orderIndex, nil
}

// SessionSummary 会话摘要：侧边栏刷新用
type SessionSummary struct {
	Dungeon    *models.DungeonSnapshot    `json:"dungeon,omitempty"`
	Characters []models.CharacterSnapshot `json:"characters"`
	Variables  map[string]interface{}     `json:"variables"`
}

// Summarize 汇总当前会话的副本指针与角色概览
func (s *SessionService) Summarize(sessionID string, dungeons *DungeonService, characters *CharacterService) (*SessionSummary, error) {
	var st models.SessionState
	err := s.db.Where("session_id = ?", sessionID).First(&st).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	summary := &SessionSummary{
		Characters: []models.CharacterSnapshot{},
		Variables:  map[string]interface{}{},
	}

	if st.CurrentDungeonID != "" {
		dungeon, err := dungeons.Get(st.CurrentDungeonID)
		if err == nil && dungeon != nil {
			snap := &models.DungeonSnapshot{
				DungeonID:    dungeon.DungeonID,
				Name:         dungeon.Name,
				ProgressHint: "最小骨架：未实现真实进度计算",
			}
			if st.CurrentNodeID != "" {
				if node, err := dungeons.FindNode(st.CurrentDungeonID, st.CurrentNodeID); err == nil && node != nil {
					snap.NodeName = node.Name
				}
			}
			summary.Dungeon = snap
		}
	}

	rows, err := characters.List("")
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if i >= 5 {
			break
		}
		snap := Snapshot(&rows[i])
		summary.Characters = append(summary.Characters, *snap)
	}
	return summary, nil
}
