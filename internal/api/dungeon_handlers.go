// internal/api/dungeon_handlers.go
package api

import (
	"github.com/Corphon/storyteller/internal/models"
	"github.com/gin-gonic/gin"
)

// ListDungeons 列出全部副本
func (h *Handler) ListDungeons(c *gin.Context) {
	rows, err := h.DungeonService.List()
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}

	items := make([]gin.H, 0, len(rows))
	for _, d := range rows {
		items = append(items, gin.H{
			"dungeon_id": d.DungeonID,
			"name":       d.Name,
			"level_min":  d.LevelMin,
			"level_max":  d.LevelMax,
		})
	}
	h.helper.Success(c, gin.H{"items": items})
}

// GetDungeon 读取副本及其节点
func (h *Handler) GetDungeon(c *gin.Context) {
	dungeon, err := h.DungeonService.Get(c.Param("dungeon_id"))
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, dungeon)
}

// UpsertDungeon 整体写入副本：不存在则创建，存在则替换
func (h *Handler) UpsertDungeon(c *gin.Context) {
	var in models.Dungeon
	if err := c.ShouldBindJSON(&in); err != nil {
		h.helper.BadRequest(c, "请求参数无效", err.Error())
		return
	}
	in.DungeonID = c.Param("dungeon_id")

	if err := h.DungeonService.Upsert(&in); err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, in)
}
