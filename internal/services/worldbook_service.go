// internal/services/worldbook_service.go
package services

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/Corphon/storyteller/internal/errors"
	"github.com/Corphon/storyteller/internal/models"
	"gorm.io/gorm"
)

// 进入上下文的节选内容上限（按字符计）
const snippetMaxLen = 800

// WorldbookService 管理世界书条目的导入、检索与节选
type WorldbookService struct {
	db *gorm.DB
}

// NewWorldbookService 创建世界书服务实例
func NewWorldbookService(db *gorm.DB) *WorldbookService {
	return &WorldbookService{db: db}
}

// WorldbookPage 分页列表结果
type WorldbookPage struct {
	Items      []models.WorldbookEntry `json:"items"`
	Page       int                     `json:"page"`
	TotalPages int                     `json:"total_pages"`
}

// Import 批量导入世界书条目。支持纯列表或 {"entries": [...]} 两种形态；
// 缺 title 或 content 的记录跳过；entry_id 已存在时覆盖更新。
// 返回新建或更新的条数。
func (s *WorldbookService) Import(payload interface{}) (int, error) {
	var entries []interface{}
	switch v := payload.(type) {
	case []interface{}:
		entries = v
	case map[string]interface{}:
		inner, ok := v["entries"].([]interface{})
		if !ok {
			return 0, apperrors.NewValidationError("世界书导入格式错误：应为列表或包含 entries 的对象。", nil)
		}
		entries = inner
	default:
		return 0, apperrors.NewValidationError("世界书导入格式错误：应为列表或包含 entries 的对象。", nil)
	}

	count := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, raw := range entries {
			item, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			title, _ := item["title"].(string)
			content, _ := item["content"].(string)
			if title == "" || content == "" {
				continue
			}

			entryID, _ := item["entry_id"].(string)
			if entryID == "" {
				entryID = "WB_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
			}

			entry := models.WorldbookEntry{
				EntryID:    entryID,
				Title:      title,
				Content:    content,
				Importance: 0.5,
			}
			if c, ok := item["category"].(string); ok {
				entry.Category = c
			}
			entry.Tags = joinTags(item["tags"])
			if imp, ok := item["importance"].(float64); ok {
				entry.Importance = imp
			}
			if canon, ok := item["canonical"].(bool); ok {
				entry.Canonical = canon
			}
			if meta, ok := item["meta"].(map[string]interface{}); ok {
				if raw, err := json.Marshal(meta); err == nil {
					entry.Meta = raw
				}
			}

			var existing models.WorldbookEntry
			err := tx.Where("entry_id = ?", entryID).First(&existing).Error
			switch {
			case err == nil:
				entry.ID = existing.ID
				entry.CreatedAt = existing.CreatedAt
				if err := tx.Save(&entry).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&entry).Error; err != nil {
					return err
				}
			default:
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// List 分页检索；keyword 匹配标题/内容/标签，category 精确匹配
func (s *WorldbookService) List(page, pageSize int, keyword, category string) (*WorldbookPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := s.db.Model(&models.WorldbookEntry{})
	if keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("title LIKE ? OR content LIKE ? OR tags LIKE ?", like, like, like)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}

	var items []models.WorldbookEntry
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error; err != nil {
		return nil, err
	}

	return &WorldbookPage{Items: items, Page: page, TotalPages: totalPages}, nil
}

// Get 读取单条世界书条目
func (s *WorldbookService) Get(entryID string) (*models.WorldbookEntry, error) {
	var entry models.WorldbookEntry
	if err := s.db.Where("entry_id = ?", entryID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("世界书条目不存在。", err)
		}
		return nil, err
	}
	return &entry, nil
}

// Snippets 为上下文装配选取条目：按重要度降序、更新时间降序取前 limit 条，
// 内容超长时截断到 snippetMaxLen 个字符。
func (s *WorldbookService) Snippets(limit int) ([]models.WorldbookSnippet, error) {
	var rows []models.WorldbookEntry
	if err := s.db.Order("importance DESC, updated_at DESC").
		Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	snippets := make([]models.WorldbookSnippet, 0, len(rows))
	for _, e := range rows {
		snippets = append(snippets, models.WorldbookSnippet{
			EntryID:  e.EntryID,
			Title:    e.Title,
			Category: e.Category,
			Content:  truncateRunes(e.Content, snippetMaxLen),
		})
	}
	return snippets, nil
}

// truncateRunes 按字符截断，避免把多字节字符切到一半
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func joinTags(v interface{}) string {
	switch tags := v.(type) {
	case []interface{}:
		parts := make([]string, 0, len(tags))
		for _, t := range tags {
			if str, ok := t.(string); ok {
				parts = append(parts, str)
			}
		}
		return strings.Join(parts, ",")
	case string:
		return tags
	default:
		return ""
	}
}
