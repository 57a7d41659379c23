// internal/api/preset_handlers.go
package api

import (
	"github.com/Corphon/storyteller/internal/prompt"
	"github.com/gin-gonic/gin"
)

// ListPresets 返回预设元数据列表及当前激活预设
func (h *Handler) ListPresets(c *gin.Context) {
	rows, activeID, err := h.PresetService.List()
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}

	items := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		items = append(items, gin.H{
			"id":        r.PresetID,
			"name":      r.Name,
			"version":   r.Version,
			"is_active": r.IsActive,
		})
	}
	h.helper.Success(c, gin.H{
		"items":     items,
		"active_id": activeID,
	})
}

// GetPreset 读取单个预设的完整树
func (h *Handler) GetPreset(c *gin.Context) {
	preset, err := h.PresetService.Get(c.Param("preset_id"))
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, preset)
}

// CreatePreset 用出厂内容新建预设
func (h *Handler) CreatePreset(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.helper.BadRequest(c, "请求参数无效", err.Error())
		return
	}
	if req.Name == "" {
		req.Name = "新预设"
	}

	preset, err := h.PresetService.CreateDefault(req.Name)
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Created(c, preset)
}

// UpdatePreset 整树替换预设内容
func (h *Handler) UpdatePreset(c *gin.Context) {
	var preset prompt.Preset
	if err := c.ShouldBindJSON(&preset); err != nil {
		h.helper.BadRequest(c, "请求参数无效", err.Error())
		return
	}

	if err := h.PresetService.Update(c.Param("preset_id"), &preset); err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, preset)
}

// DeletePreset 删除预设
func (h *Handler) DeletePreset(c *gin.Context) {
	if err := h.PresetService.Delete(c.Param("preset_id")); err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, gin.H{"ok": true})
}

// ActivatePreset 激活指定预设
func (h *Handler) ActivatePreset(c *gin.Context) {
	var req struct {
		PresetID string `json:"preset_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.helper.BadRequest(c, "请求参数无效", err.Error())
		return
	}

	if err := h.PresetService.SetActive(req.PresetID); err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, gin.H{"active_id": req.PresetID})
}

// ImportPreset 导入任意形态的预设 JSON。
// 清洗过程中被降级或丢弃的节点通过 warnings 返回给前端。
func (h *Handler) ImportPreset(c *gin.Context) {
	var payload interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.helper.BadRequest(c, "导入内容不是合法 JSON", err.Error())
		return
	}

	nameHint := c.Query("name")
	if nameHint == "" {
		nameHint = "导入预设"
	}

	preset, warnings, err := h.PresetService.Import(payload, nameHint)
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}

	if warnings == nil {
		warnings = []string{}
	}
	h.helper.Created(c, gin.H{
		"preset":   preset,
		"warnings": warnings,
	})
}
