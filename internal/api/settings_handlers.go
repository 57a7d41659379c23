// internal/api/settings_handlers.go
package api

import (
	"encoding/json"

	"github.com/Corphon/storyteller/internal/models"
	"github.com/gin-gonic/gin"
)

// GetGlobalSettings 读取全局设置
func (h *Handler) GetGlobalSettings(c *gin.Context) {
	data, err := h.SettingsService.GetGlobal()
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, data)
}

// PutGlobalSettings 整体替换全局设置
func (h *Handler) PutGlobalSettings(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.helper.BadRequest(c, "请求参数无效", err.Error())
		return
	}

	if err := h.SettingsService.PutGlobal(payload); err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, payload)
}

// ListTemplates 列出全部角色卡模板
func (h *Handler) ListTemplates(c *gin.Context) {
	rows, err := h.TemplateService.List()
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}

	items := make([]gin.H, 0, len(rows))
	for _, t := range rows {
		config := map[string]interface{}{}
		if len(t.Config) > 0 {
			_ = json.Unmarshal(t.Config, &config)
		}
		items = append(items, gin.H{
			"id":          t.TemplateID,
			"name":        t.Name,
			"description": t.Description,
			"config":      config,
		})
	}
	h.helper.Success(c, gin.H{"items": items})
}

// templateRequest 模板创建/更新请求体
type templateRequest struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Config      map[string]interface{} `json:"config"`
}

// CreateTemplate 新建角色卡模板
func (h *Handler) CreateTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.helper.BadRequest(c, "请求参数无效", err.Error())
		return
	}
	if req.ID == "" {
		h.helper.BadRequest(c, "缺少模板 ID")
		return
	}

	config, err := json.Marshal(req.Config)
	if err != nil {
		h.helper.BadRequest(c, "模板结构无法序列化", err.Error())
		return
	}

	t := &models.CharacterTemplate{
		TemplateID:  req.ID,
		Name:        req.Name,
		Description: req.Description,
		Config:      config,
	}
	if err := h.TemplateService.Create(t); err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Created(c, gin.H{"status": "ok"})
}

// UpdateTemplate 更新模板名称与结构
func (h *Handler) UpdateTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.helper.BadRequest(c, "请求参数无效", err.Error())
		return
	}

	var config []byte
	if req.Config != nil {
		raw, err := json.Marshal(req.Config)
		if err != nil {
			h.helper.BadRequest(c, "模板结构无法序列化", err.Error())
			return
		}
		config = raw
	}

	if err := h.TemplateService.Update(c.Param("template_id"), req.Name, config); err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, gin.H{"status": "updated"})
}

// DeleteTemplate 删除模板；系统默认模板拒绝删除
func (h *Handler) DeleteTemplate(c *gin.Context) {
	if err := h.TemplateService.Delete(c.Param("template_id")); err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, gin.H{"status": "deleted"})
}
