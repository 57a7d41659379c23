// internal/api/router.go
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Corphon/storyteller/internal/config"
	"github.com/Corphon/storyteller/internal/di"
	"github.com/Corphon/storyteller/internal/llm"
	"github.com/Corphon/storyteller/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置HTTP路由
func SetupRouter(cfg *config.Config) (*gin.Engine, error) {
	// 获取依赖注入容器
	container := di.GetContainer()

	// ✅ 只从容器获取服务，不再创建新实例
	presetService, ok := container.Get("preset").(*services.PresetService)
	if !ok {
		return nil, fmt.Errorf("预设服务未正确初始化")
	}

	llmConfigService, ok := container.Get("llm_config").(*services.LLMConfigService)
	if !ok {
		return nil, fmt.Errorf("LLM配置服务未正确初始化")
	}

	worldbookService, ok := container.Get("worldbook").(*services.WorldbookService)
	if !ok {
		return nil, fmt.Errorf("世界书服务未正确初始化")
	}

	characterService, ok := container.Get("character").(*services.CharacterService)
	if !ok {
		return nil, fmt.Errorf("角色服务未正确初始化")
	}

	dungeonService, ok := container.Get("dungeon").(*services.DungeonService)
	if !ok {
		return nil, fmt.Errorf("副本服务未正确初始化")
	}

	settingsService, ok := container.Get("settings").(*services.SettingsService)
	if !ok {
		return nil, fmt.Errorf("设置服务未正确初始化")
	}

	templateService, ok := container.Get("template").(*services.TemplateService)
	if !ok {
		return nil, fmt.Errorf("模板服务未正确初始化")
	}

	sessionService, ok := container.Get("session").(*services.SessionService)
	if !ok {
		return nil, fmt.Errorf("会话服务未正确初始化")
	}

	storyService, ok := container.Get("story").(*services.StoryService)
	if !ok {
		return nil, fmt.Errorf("剧情服务未正确初始化")
	}

	llmClient, ok := container.Get("llm_client").(llm.ChatClient)
	if !ok {
		return nil, fmt.Errorf("LLM客户端未正确初始化")
	}

	// ✅ 创建API处理器 - 只传递从容器获取的服务
	handler := NewHandler(
		presetService,
		llmConfigService,
		worldbookService,
		characterService,
		dungeonService,
		settingsService,
		templateService,
		sessionService,
		storyService,
		llmClient,
	)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	r := gin.Default()

	// 启用CORS
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		MaxAge:          12 * time.Hour,
	}))

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// WebSocket 剧情通道
	r.GET("/ws/story", handler.StoryWebSocket)

	api := r.Group("/api")
	{
		// ==========================================
		// 剧情生成
		// ==========================================
		api.POST("/story/generate", handler.GenerateStory)
		api.POST("/story/generate_stream", handler.GenerateStoryStream)
		api.GET("/session/summary", handler.GetSessionSummary)

		// ==========================================
		// 提示词预设
		// ==========================================
		api.GET("/presets", handler.ListPresets)
		api.POST("/presets", handler.CreatePreset)
		api.PUT("/presets/active", handler.ActivatePreset)
		api.POST("/presets/import", handler.ImportPreset)
		api.GET("/presets/:preset_id", handler.GetPreset)
		api.PUT("/presets/:preset_id", handler.UpdatePreset)
		api.DELETE("/presets/:preset_id", handler.DeletePreset)

		// ==========================================
		// LLM 连接配置
		// ==========================================
		api.GET("/llm/configs", handler.ListLLMConfigs)
		api.POST("/llm/configs", handler.CreateLLMConfig)
		api.PUT("/llm/configs/:config_id", handler.UpdateLLMConfig)
		api.DELETE("/llm/configs/:config_id", handler.DeleteLLMConfig)
		api.GET("/llm/configs/:config_id/models", handler.ListModelsForConfig)
		api.PUT("/llm/active", handler.SetActiveLLM)
		api.POST("/llm/models/list", handler.ListModelsByCredentials)

		// ==========================================
		// 世界书
		// ==========================================
		api.POST("/worldbook/import", handler.ImportWorldbook)
		api.GET("/worldbook/list", handler.ListWorldbook)
		api.GET("/worldbook/:entry_id", handler.GetWorldbookEntry)

		// ==========================================
		// 角色与模板
		// ==========================================
		api.GET("/characters", handler.ListCharacters)
		api.POST("/characters", handler.CreateCharacter)
		api.POST("/characters/import", handler.ImportCharacters)
		api.GET("/characters/:character_id", handler.GetCharacter)
		api.PUT("/characters/:character_id", handler.UpdateCharacter)

		api.GET("/templates/list", handler.ListTemplates)
		api.POST("/templates", handler.CreateTemplate)
		api.PUT("/templates/:template_id", handler.UpdateTemplate)
		api.DELETE("/templates/:template_id", handler.DeleteTemplate)

		// ==========================================
		// 副本与设置
		// ==========================================
		api.GET("/dungeon/list", handler.ListDungeons)
		api.GET("/dungeon/:dungeon_id", handler.GetDungeon)
		api.PUT("/dungeon/:dungeon_id", handler.UpsertDungeon)

		api.GET("/settings/global", handler.GetGlobalSettings)
		api.PUT("/settings/global", handler.PutGlobalSettings)
	}

	return r, nil
}
