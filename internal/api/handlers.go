// internal/api/handlers.go
package api

import (
	"strings"
	"unicode/utf8"

	"github.com/Corphon/storyteller/internal/llm"
	"github.com/Corphon/storyteller/internal/services"
	"github.com/Corphon/storyteller/internal/utils"
	"github.com/gin-gonic/gin"
)

// Handler API处理器：持有全部服务依赖
type Handler struct {
	PresetService    *services.PresetService
	LLMConfigService *services.LLMConfigService
	WorldbookService *services.WorldbookService
	CharacterService *services.CharacterService
	DungeonService   *services.DungeonService
	SettingsService  *services.SettingsService
	TemplateService  *services.TemplateService
	SessionService   *services.SessionService
	StoryService     *services.StoryService
	LLMClient        llm.ChatClient

	helper *ResponseHelper
	logger *utils.Logger
}

// NewHandler 创建API处理器 - 只接收已初始化的服务
func NewHandler(
	presetService *services.PresetService,
	llmConfigService *services.LLMConfigService,
	worldbookService *services.WorldbookService,
	characterService *services.CharacterService,
	dungeonService *services.DungeonService,
	settingsService *services.SettingsService,
	templateService *services.TemplateService,
	sessionService *services.SessionService,
	storyService *services.StoryService,
	llmClient llm.ChatClient,
) *Handler {
	return &Handler{
		PresetService:    presetService,
		LLMConfigService: llmConfigService,
		WorldbookService: worldbookService,
		CharacterService: characterService,
		DungeonService:   dungeonService,
		SettingsService:  settingsService,
		TemplateService:  templateService,
		SessionService:   sessionService,
		StoryService:     storyService,
		LLMClient:        llmClient,
		helper:           NewResponseHelper(),
		logger:           utils.GetLogger(),
	}
}

// StoryGenerateRequest 剧情生成请求体
type StoryGenerateRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	UserInput string `json:"user_input" binding:"required"`
}

// GenerateStory 非流式生成（兼容原前端）
func (h *Handler) GenerateStory(c *gin.Context) {
	var req StoryGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.helper.BadRequest(c, "请求参数无效", err.Error())
		return
	}

	forceStream := false
	result, err := h.StoryService.Generate(c.Request.Context(), req.SessionID, req.UserInput, &forceStream)
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}

	text := result.Text
	// force_stream=false 时通道必为空，这里只是兜底
	if result.Stream != nil {
		var sb strings.Builder
		for delta := range result.Stream {
			if delta.Err != nil {
				break
			}
			sb.WriteString(delta.Text)
		}
		text = sb.String()
	}

	if _, err := h.StoryService.PersistSegment(req.SessionID, text); err != nil {
		h.helper.HandleError(c, err)
		return
	}

	wc := utf8.RuneCountInString(text)
	result.Meta.WordCount = &wc

	h.helper.Success(c, gin.H{
		"story": text,
		"meta":  result.Meta,
	})
}

// GenerateStoryStream 流式生成：SSE(text/event-stream)。
// 事件：meta 首发一次，delta 零到多次，done/error 二选一收尾。
func (h *Handler) GenerateStoryStream(c *gin.Context) {
	var req StoryGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.helper.BadRequest(c, "请求参数无效", err.Error())
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	forceStream := true
	result, err := h.StoryService.Generate(c.Request.Context(), req.SessionID, req.UserInput, &forceStream)
	if err != nil {
		c.SSEvent("error", gin.H{"message": err.Error()})
		c.Writer.Flush()
		return
	}

	c.SSEvent("meta", result.Meta)
	c.Writer.Flush()

	var sb strings.Builder
	if result.Stream == nil {
		// 占位文本或上游失败：没有可流式的内容，直接一次性返回
		if result.Text != "" {
			sb.WriteString(result.Text)
			c.SSEvent("delta", gin.H{"text": result.Text})
			c.Writer.Flush()
		}
	} else {
		for delta := range result.Stream {
			if delta.Err != nil {
				c.SSEvent("error", gin.H{"message": delta.Err.Error()})
				c.Writer.Flush()
				return
			}
			sb.WriteString(delta.Text)
			c.SSEvent("delta", gin.H{"text": delta.Text})
			c.Writer.Flush()
		}
	}

	// 客户端中途断开的流不落库，半截文本直接丢弃
	if c.Request.Context().Err() != nil {
		return
	}

	if _, err := h.StoryService.PersistSegment(req.SessionID, sb.String()); err != nil {
		c.SSEvent("error", gin.H{"message": err.Error()})
		c.Writer.Flush()
		return
	}

	c.SSEvent("done", gin.H{})
	c.Writer.Flush()
}

// GetSessionSummary 会话摘要：供主剧情侧边栏刷新使用
func (h *Handler) GetSessionSummary(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		h.helper.BadRequest(c, "缺少 session_id 参数")
		return
	}

	summary, err := h.SessionService.Summarize(sessionID, h.DungeonService, h.CharacterService)
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, summary)
}
