// internal/services/context_service.go
package services

import (
	"fmt"
	"strings"

	"github.com/Corphon/storyteller/internal/llm"
	"github.com/Corphon/storyteller/internal/models"
)

const (
	contextWorldbookLimit = 6
	contextHistoryLimit   = 4
	historyTailLen        = 1200
)

// ContextService 在每次生成前装配运行时上下文并压缩成消息序列
type ContextService struct {
	characters *CharacterService
	worldbook  *WorldbookService
	dungeons   *DungeonService
	sessions   *SessionService
}

// NewContextService 创建上下文装配服务
func NewContextService(
	characters *CharacterService,
	worldbook *WorldbookService,
	dungeons *DungeonService,
	sessions *SessionService,
) *ContextService {
	return &ContextService{
		characters: characters,
		worldbook:  worldbook,
		dungeons:   dungeons,
		sessions:   sessions,
	}
}

// Assemble 按会话状态装配一次生成所需的全部上下文。
// 上下文每次重新装配，不在会话间缓存。
func (s *ContextService) Assemble(st *models.SessionState) (*models.ContextBundle, error) {
	bundle := &models.ContextBundle{}

	mc, err := s.characters.Preferred()
	if err != nil {
		return nil, err
	}
	bundle.MainCharacter = Snapshot(mc)

	bundle.Worldbook, err = s.worldbook.Snippets(contextWorldbookLimit)
	if err != nil {
		return nil, err
	}

	dungeon, node, err := s.dungeonContext(st)
	if err != nil {
		return nil, err
	}
	if dungeon != nil {
		snap := &models.DungeonSnapshot{
			DungeonID:    dungeon.DungeonID,
			Name:         dungeon.Name,
			ProgressHint: "未知",
		}
		if node != nil {
			snap.NodeName = node.Name
			snap.ProgressHint = "最小实现：未计算"
		}
		bundle.Dungeon = snap
	}

	bundle.History, err = s.sessions.RecentTexts(st.SessionID, contextHistoryLimit)
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

// dungeonContext 解析当前副本与节点：会话指针优先，失效时回退第一条副本，
// 节点同理回退副本的第一个节点。
func (s *ContextService) dungeonContext(st *models.SessionState) (*models.Dungeon, *models.DungeonNode, error) {
	var dungeon *models.Dungeon
	if st.CurrentDungeonID != "" {
		d, err := s.dungeons.Get(st.CurrentDungeonID)
		if err == nil {
			dungeon = d
		}
	}
	if dungeon == nil {
		d, err := s.dungeons.First()
		if err != nil {
			return nil, nil, err
		}
		dungeon = d
	}
	if dungeon == nil {
		return nil, nil, nil
	}

	var node *models.DungeonNode
	if st.CurrentNodeID != "" {
		n, err := s.dungeons.FindNode(dungeon.DungeonID, st.CurrentNodeID)
		if err != nil {
			return nil, nil, err
		}
		node = n
	}
	if node == nil && len(dungeon.Nodes) > 0 {
		node = &dungeon.Nodes[0]
	}
	return dungeon, node, nil
}

// BuildMessages 把系统提示词、上下文和用户输入压缩成消息序列。
// 固定顺序：系统提示词（可缺省）、上下文块（可缺省）、用户输入。
func BuildMessages(systemPrompt string, bundle *models.ContextBundle, userInput string) []llm.Message {
	var lines []string

	if mc := bundle.MainCharacter; mc != nil {
		lines = append(lines, "【主角】")
		name := mc.Name
		if name == "" {
			name = "未知"
		}
		lines = append(lines, fmt.Sprintf("- id: %s  名称: %s", mc.CharacterID, name))
		if mc.AbilityTier != "" {
			lines = append(lines, "- 能力: "+mc.AbilityTier)
		}
		if mc.EconomySummary != "" {
			lines = append(lines, "- 资源: "+mc.EconomySummary)
		}
	}

	if len(bundle.Worldbook) > 0 {
		lines = append(lines, "\n【世界书（节选）】")
		for _, it := range bundle.Worldbook {
			cat := ""
			if it.Category != "" {
				cat = "[" + it.Category + "] "
			}
			lines = append(lines, fmt.Sprintf("- %s%s: %s", cat, it.Title, it.Content))
		}
	}

	if d := bundle.Dungeon; d != nil {
		lines = append(lines, "\n【副本】")
		name := d.Name
		if name == "" {
			name = "未命名"
		}
		lines = append(lines, "- 副本: "+name)
		if d.NodeName != "" {
			lines = append(lines, fmt.Sprintf("- 节点: %s 进度: %s", d.NodeName, d.ProgressHint))
		}
	}

	if len(bundle.History) > 0 {
		lines = append(lines, "\n【近期剧情（节选）】")
		for i, h := range bundle.History {
			lines = append(lines, fmt.Sprintf("(%d) %s", i+1, tailRunes(h, historyTailLen)))
		}
	}

	ctxText := strings.TrimSpace(strings.Join(lines, "\n"))

	var messages []llm.Message
	if systemPrompt != "" {
		messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	}
	if ctxText != "" {
		messages = append(messages, llm.Message{
			Role:    "system",
			Content: "以下是当前故事运行时上下文：\n" + ctxText,
		})
	}
	messages = append(messages, llm.Message{Role: "user", Content: userInput})
	return messages
}

// tailRunes 保留末尾 max 个字符，历史片段截断时丢头留尾
func tailRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[len(runes)-max:])
}
