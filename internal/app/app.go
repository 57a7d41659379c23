// internal/app/app.go
package app

import (
	"github.com/Corphon/storyteller/internal/di"
	"github.com/Corphon/storyteller/internal/llm"
	"github.com/Corphon/storyteller/internal/services"
	"github.com/Corphon/storyteller/internal/utils"
	"gorm.io/gorm"
)

// InitServices 按依赖顺序初始化所有服务并注册到容器
func InitServices(db *gorm.DB) error {
	container := di.GetContainer()
	logger := utils.GetLogger()

	// LLM 客户端先注册，剧情服务与模型列表端点都依赖它
	llmClient := llm.NewClient(nil)
	container.Register("llm_client", llmClient)

	// 各实体存储服务，只依赖数据库连接
	presetService := services.NewPresetService(db)
	container.Register("preset", presetService)

	llmConfigService := services.NewLLMConfigService(db)
	container.Register("llm_config", llmConfigService)

	worldbookService := services.NewWorldbookService(db)
	container.Register("worldbook", worldbookService)

	characterService := services.NewCharacterService(db)
	container.Register("character", characterService)

	dungeonService := services.NewDungeonService(db)
	container.Register("dungeon", dungeonService)

	settingsService := services.NewSettingsService(db)
	container.Register("settings", settingsService)

	templateService := services.NewTemplateService(db)
	container.Register("template", templateService)

	sessionService := services.NewSessionService(db)
	container.Register("session", sessionService)

	// 上下文装配服务依赖各实体服务，必须在它们之后创建
	contextService := services.NewContextService(
		characterService,
		worldbookService,
		dungeonService,
		sessionService,
	)
	container.Register("context", contextService)

	// 剧情编排服务最后创建，汇聚全部依赖
	storyService := services.NewStoryService(
		presetService,
		llmConfigService,
		contextService,
		sessionService,
		llmClient,
	)
	container.Register("story", storyService)

	logger.Info("所有服务初始化完成", "count", len(container.GetNames()))
	return nil
}
