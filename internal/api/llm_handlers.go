// internal/api/llm_handlers.go
package api

import (
	"github.com/Corphon/storyteller/internal/models"
	"github.com/gin-gonic/gin"
)

// llmConfigRequest LLM 配置请求体
type llmConfigRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BaseURL      string `json:"base_url" binding:"required"`
	APIKey       string `json:"api_key" binding:"required"`
	Stream       *bool  `json:"stream"`
	DefaultModel string `json:"default_model"`
}

// ListLLMConfigs 返回全部配置及当前激活选择
func (h *Handler) ListLLMConfigs(c *gin.Context) {
	rows, active, err := h.LLMConfigService.List()
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}

	resp := gin.H{"configs": rows}
	if active != nil {
		resp["active"] = active
	} else {
		resp["active"] = gin.H{}
	}
	h.helper.Success(c, resp)
}

// CreateLLMConfig 新建 LLM 配置
func (h *Handler) CreateLLMConfig(c *gin.Context) {
	var req llmConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.helper.BadRequest(c, "请求参数无效", err.Error())
		return
	}

	cfg := &models.LLMConfig{
		ConfigID:     req.ID,
		Name:         req.Name,
		BaseURL:      req.BaseURL,
		APIKey:       req.APIKey,
		Stream:       true,
		DefaultModel: req.DefaultModel,
	}
	if req.Stream != nil {
		cfg.Stream = *req.Stream
	}

	created, err := h.LLMConfigService.Create(cfg)
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Created(c, created)
}

// UpdateLLMConfig 更新 LLM 配置
func (h *Handler) UpdateLLMConfig(c *gin.Context) {
	var req llmConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.helper.BadRequest(c, "请求参数无效", err.Error())
		return
	}

	in := &models.LLMConfig{
		Name:         req.Name,
		BaseURL:      req.BaseURL,
		APIKey:       req.APIKey,
		Stream:       true,
		DefaultModel: req.DefaultModel,
	}
	if req.Stream != nil {
		in.Stream = *req.Stream
	}

	updated, err := h.LLMConfigService.Update(c.Param("config_id"), in)
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, updated)
}

// DeleteLLMConfig 删除配置；删除激活配置时自动回退
func (h *Handler) DeleteLLMConfig(c *gin.Context) {
	if err := h.LLMConfigService.Delete(c.Param("config_id")); err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, gin.H{"ok": true})
}

// SetActiveLLM 设置激活配置及选中模型；config_id 为空视为清除激活
func (h *Handler) SetActiveLLM(c *gin.Context) {
	var req struct {
		ConfigID string `json:"config_id"`
		Model    string `json:"model"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.helper.BadRequest(c, "请求参数无效", err.Error())
		return
	}

	if req.ConfigID == "" {
		if err := h.LLMConfigService.ClearActive(); err != nil {
			h.helper.HandleError(c, err)
			return
		}
		h.helper.Success(c, gin.H{})
		return
	}

	selection, err := h.LLMConfigService.SetActive(req.ConfigID, req.Model)
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, selection)
}

// ListModelsForConfig 按配置 ID 请求上游获取可用模型列表
func (h *Handler) ListModelsForConfig(c *gin.Context) {
	cfg, err := h.LLMConfigService.Get(c.Param("config_id"))
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}

	modelList, err := h.LLMClient.ListModels(c.Request.Context(), cfg.BaseURL, cfg.APIKey)
	if err != nil {
		h.helper.BadRequest(c, "获取模型列表失败", err.Error())
		return
	}
	h.helper.Success(c, gin.H{"models": modelList})
}

// ListModelsByCredentials 不保存配置，直接测试连接获取模型列表
func (h *Handler) ListModelsByCredentials(c *gin.Context) {
	var req struct {
		BaseURL string `json:"base_url" binding:"required"`
		APIKey  string `json:"api_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.helper.BadRequest(c, "请求参数无效", err.Error())
		return
	}

	modelList, err := h.LLMClient.ListModels(c.Request.Context(), req.BaseURL, req.APIKey)
	if err != nil {
		h.helper.BadRequest(c, "获取模型列表失败", err.Error())
		return
	}
	h.helper.Success(c, gin.H{"models": modelList})
}
