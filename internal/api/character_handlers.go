// internal/api/character_handlers.go
package api

import (
	"encoding/json"

	"github.com/Corphon/storyteller/internal/models"
	"github.com/gin-gonic/gin"
)

// ListCharacters 列出角色，q 按编号或基础信息模糊匹配
func (h *Handler) ListCharacters(c *gin.Context) {
	rows, err := h.CharacterService.List(c.Query("q"))
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}

	items := make([]gin.H, 0, len(rows))
	for _, ch := range rows {
		basic := map[string]interface{}{}
		if len(ch.Basic) > 0 {
			_ = json.Unmarshal(ch.Basic, &basic)
		}
		items = append(items, gin.H{
			"character_id": ch.CharacterID,
			"type":         ch.Type,
			"basic":        basic,
		})
	}
	h.helper.Success(c, gin.H{"items": items})
}

// GetCharacter 读取单个角色
func (h *Handler) GetCharacter(c *gin.Context) {
	ch, err := h.CharacterService.Get(c.Param("character_id"))
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, ch)
}

// CreateCharacter 新建角色
func (h *Handler) CreateCharacter(c *gin.Context) {
	var ch models.Character
	if err := c.ShouldBindJSON(&ch); err != nil {
		h.helper.BadRequest(c, "请求参数无效", err.Error())
		return
	}
	if ch.CharacterID == "" {
		h.helper.BadRequest(c, "缺少 character_id")
		return
	}

	if err := h.CharacterService.Create(&ch); err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Created(c, ch)
}

// UpdateCharacter 整体替换角色内容
func (h *Handler) UpdateCharacter(c *gin.Context) {
	var ch models.Character
	if err := c.ShouldBindJSON(&ch); err != nil {
		h.helper.BadRequest(c, "请求参数无效", err.Error())
		return
	}

	if err := h.CharacterService.Update(c.Param("character_id"), &ch); err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, ch)
}

// ImportCharacters 批量导入角色
func (h *Handler) ImportCharacters(c *gin.Context) {
	var payload interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.helper.BadRequest(c, "导入内容不是合法 JSON", err.Error())
		return
	}

	count, err := h.CharacterService.ImportBatch(payload)
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, gin.H{"imported": count})
}
