// internal/services/character_service.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Corphon/storyteller/internal/errors"
	"github.com/Corphon/storyteller/internal/models"
	"gorm.io/gorm"
)

// CharacterService 管理角色档案与主角选取
type CharacterService struct {
	db *gorm.DB
}

// NewCharacterService 创建角色服务实例
func NewCharacterService(db *gorm.DB) *CharacterService {
	return &CharacterService{db: db}
}

// List 列出角色，q 按编号或基础信息模糊匹配
func (s *CharacterService) List(q string) ([]models.Character, error) {
	query := s.db.Model(&models.Character{})
	if q != "" {
		like := "%" + q + "%"
		query = query.Where("character_id LIKE ? OR basic_json LIKE ?", like, like)
	}

	var rows []models.Character
	if err := query.Order("character_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Get 读取单个角色
func (s *CharacterService) Get(characterID string) (*models.Character, error) {
	var row models.Character
	if err := s.db.Where("character_id = ?", characterID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("角色不存在。", err)
		}
		return nil, err
	}
	return &row, nil
}

// Create 新建角色；编号重复时报冲突
func (s *CharacterService) Create(ch *models.Character) error {
	var count int64
	if err := s.db.Model(&models.Character{}).
		Where("character_id = ?", ch.CharacterID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflictError("角色编号已存在。", nil)
	}
	if ch.Type == "" {
		ch.Type = "npc"
	}
	return s.db.Create(ch).Error
}

// Update 整体替换角色各分区内容
func (s *CharacterService) Update(characterID string, in *models.Character) error {
	row, err := s.Get(characterID)
	if err != nil {
		return err
	}

	row.Type = in.Type
	row.Basic = in.Basic
	row.Knowledge = in.Knowledge
	row.Secrets = in.Secrets
	row.Attributes = in.Attributes
	row.Relations = in.Relations
	row.Equipment = in.Equipment
	row.Items = in.Items
	row.Skills = in.Skills
	row.Fortune = in.Fortune
	return s.db.Save(row).Error
}

// ImportBatch 批量导入角色。支持单个对象、对象列表或 {"entries": [...]}；
// 缺编号时自动生成，编号已存在时覆盖更新。返回导入条数。
func (s *CharacterService) ImportBatch(payload interface{}) (int, error) {
	var items []interface{}
	switch v := payload.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}:
		if inner, ok := v["entries"].([]interface{}); ok {
			items = inner
		} else {
			items = []interface{}{v}
		}
	default:
		return 0, apperrors.NewValidationError("角色导入格式错误：应为对象或列表。", nil)
	}

	count := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i, raw := range items {
			item, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}

			charID, _ := item["character_id"].(string)
			if charID == "" {
				// 毫秒时间戳加序号错开，避免同一批内撞号
				charID = fmt.Sprintf("NPC_%d", time.Now().UnixMilli()+int64(i))
			}

			// 旧导出把分页信息放在 data 下（data.tab_basic / data.basic），
			// 与 meta 同构，并入 meta 走同一套快照回退
			metaSection := item["meta"]
			if metaSection == nil {
				metaSection = item["data"]
			}

			ch := models.Character{
				CharacterID: charID,
				Type:        "npc",
				Basic:       sectionJSON(item["basic"], "{}"),
				Knowledge:   sectionJSON(item["knowledge"], "{}"),
				Secrets:     sectionJSON(item["secrets"], "{}"),
				Attributes:  sectionJSON(item["attributes"], "{}"),
				Relations:   sectionJSON(item["relations"], "{}"),
				Equipment:   sectionJSON(item["equipment"], "[]"),
				Items:       sectionJSON(item["items"], "[]"),
				Skills:      sectionJSON(item["skills"], "[]"),
				Fortune:     sectionJSON(item["fortune"], "{}"),
				Meta:        sectionJSON(metaSection, "{}"),
			}
			if t, ok := item["type"].(string); ok && t != "" {
				ch.Type = t
			}

			var existing models.Character
			err := tx.Where("character_id = ?", charID).First(&existing).Error
			switch {
			case err == nil:
				ch.ID = existing.ID
				ch.CreatedAt = existing.CreatedAt
				if err := tx.Save(&ch).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&ch).Error; err != nil {
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

// Preferred 选取主角：优先 type 为 pc/player 的角色，否则取第一条；
// 没有任何角色时返回 nil。
func (s *CharacterService) Preferred() (*models.Character, error) {
	var row models.Character
	err := s.db.Where("type IN ?", []string{"pc", "player"}).
		Order("id").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.Order("id").First(&row).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Snapshot 从角色基础信息里抽取快照字段，兼容中英文键名
func Snapshot(ch *models.Character) *models.CharacterSnapshot {
	if ch == nil {
		return nil
	}

	basic := map[string]interface{}{}
	_ = json.Unmarshal(ch.Basic, &basic)

	// 兼容旧导出：基础信息藏在 meta 的 tab_basic / basic 下
	var meta map[string]interface{}
	if err := json.Unmarshal(ch.Meta, &meta); err == nil {
		if tab, ok := meta["tab_basic"].(map[string]interface{}); ok {
			basic = tab
		} else if b, ok := meta["basic"].(map[string]interface{}); ok {
			basic = b
		}
	}

	return &models.CharacterSnapshot{
		CharacterID:    ch.CharacterID,
		Name:           firstString(basic, "name", "姓名", "角色名"),
		AbilityTier:    firstString(basic, "ability_tier", "能力评级", "境界"),
		EconomySummary: firstString(basic, "economy_summary", "经济", "资源"),
		RawBasic:       basic,
	}
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// sectionJSON 把导入载荷里的分区序列化为 JSON 列内容；缺省时用给定空值
func sectionJSON(v interface{}, empty string) []byte {
	if v == nil {
		return []byte(empty)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return []byte(empty)
	}
	return raw
}
