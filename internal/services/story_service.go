// internal/services/story_service.go
package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Corphon/storyteller/internal/llm"
	"github.com/Corphon/storyteller/internal/models"
	"github.com/Corphon/storyteller/internal/prompt"
	"github.com/Corphon/storyteller/internal/utils"
)

const generateTemperature = 0.8

// GenerateResult 一次生成的结果。
// Stream 非空时 Text 为空，由调用方边读边拼并负责落库。
type GenerateResult struct {
	Text   string
	Meta   *models.GenerateMeta
	Stream <-chan llm.StreamDelta
}

// StoryService 生成编排器：装配上下文、编译提示词、调用模型、落库剧情。
// 无论模型是否可用都产出一段文本（占位文本也算产出），调用方不需要区分
// 正常路径与降级路径。
type StoryService struct {
	presets    *PresetService
	llmConfigs *LLMConfigService
	contexts   *ContextService
	sessions   *SessionService
	client     llm.ChatClient
	logger     *utils.Logger
}

// NewStoryService 创建生成编排服务
func NewStoryService(
	presets *PresetService,
	llmConfigs *LLMConfigService,
	contexts *ContextService,
	sessions *SessionService,
	client llm.ChatClient,
) *StoryService {
	return &StoryService{
		presets:    presets,
		llmConfigs: llmConfigs,
		contexts:   contexts,
		sessions:   sessions,
		client:     client,
		logger:     utils.GetLogger(),
	}
}

// Generate 执行一次剧情生成。
// forceStream 非空时覆盖配置里的流式开关。
// 返回错误仅代表存储层故障；模型缺失或上游失败都会落到占位文本路径。
func (s *StoryService) Generate(ctx context.Context, sessionID, userInput string, forceStream *bool) (*GenerateResult, error) {
	t0 := time.Now()

	st, err := s.sessions.GetOrCreate(sessionID)
	if err != nil {
		return nil, err
	}

	preset, err := s.presets.GetActive()
	if err != nil {
		return nil, err
	}
	systemPrompt := prompt.CompileSystemPrompt(preset)

	cfg, err := s.llmConfigs.GetActive()
	if err != nil {
		return nil, err
	}

	bundle, err := s.contexts.Assemble(st)
	if err != nil {
		return nil, err
	}
	messages := BuildMessages(systemPrompt, bundle, userInput)

	// 未配置模型：不发起任何网络请求，直接返回占位文本
	if cfg == nil {
		text := "【未配置模型】\n" +
			"请先在【设置 → API 配置】里添加 base_url 与 api_key，并选择一个模型，然后再生成。\n\n" +
			"你的输入：" + userInput
		meta := s.placeholderMeta("占位输出", []string{"no_model"}, text, bundle, t0)
		meta.Tone = "中性"
		meta.Pacing = "-"
		return &GenerateResult{Text: text, Meta: meta}, nil
	}

	model := cfg.DefaultModel
	if model == "" {
		text := "【未选择模型】请在【设置 → API 配置】里选择一个可用模型。"
		meta := s.placeholderMeta("占位输出", []string{"no_model"}, text, nil, t0)
		return &GenerateResult{Text: text, Meta: meta}, nil
	}

	streamFlag := cfg.Stream
	if forceStream != nil {
		streamFlag = *forceStream
	}

	req := llm.ChatRequest{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       model,
		Messages:    messages,
		Temperature: generateTemperature,
	}

	presetName := "preset"
	if preset != nil && preset.Name != "" {
		presetName = preset.Name
	}

	if streamFlag {
		deltas, err := s.client.StreamChatCompletion(ctx, req)
		if err != nil {
			return s.failedResult(err, t0), nil
		}
		meta := s.successMeta(presetName, bundle, t0)
		return &GenerateResult{Meta: meta, Stream: deltas}, nil
	}

	text, err := s.client.ChatCompletion(ctx, req)
	if err != nil {
		return s.failedResult(err, t0), nil
	}

	meta := s.successMeta(presetName, bundle, t0)
	wc := utf8.RuneCountInString(text)
	meta.WordCount = &wc
	return &GenerateResult{Text: text, Meta: meta}, nil
}

// PersistSegment 把最终文本写入剧情历史，返回段落序号
func (s *StoryService) PersistSegment(sessionID, text string) (int, error) {
	orderIndex, err := s.sessions.AppendSegment(sessionID, text)
	if err != nil {
		return 0, err
	}
	s.logger.Info("剧情段落已保存",
		"session_id", sessionID,
		"order_index", orderIndex,
		"word_count", utf8.RuneCountInString(text))
	return orderIndex, nil
}

// failedResult 上游调用失败时的降级产出
func (s *StoryService) failedResult(err error, t0 time.Time) *GenerateResult {
	s.logger.Warn("模型请求失败", "error", err.Error())

	text := fmt.Sprintf("【模型请求失败】%s", err.Error())
	meta := s.placeholderMeta("错误", []string{"error"}, text, nil, t0)
	return &GenerateResult{Text: text, Meta: meta}
}

func (s *StoryService) placeholderMeta(sceneTitle string, tags []string, text string, bundle *models.ContextBundle, t0 time.Time) *models.GenerateMeta {
	wc := utf8.RuneCountInString(text)
	meta := &models.GenerateMeta{
		SceneTitle: sceneTitle,
		Tags:       tags,
		WordCount:  &wc,
		DurationMS: time.Since(t0).Milliseconds(),
	}
	if bundle != nil {
		fillContextMeta(meta, bundle)
	}
	return meta
}

func (s *StoryService) successMeta(presetName string, bundle *models.ContextBundle, t0 time.Time) *models.GenerateMeta {
	meta := &models.GenerateMeta{
		SceneTitle: "新剧情",
		Tags:       []string{"llm", presetName},
		Tone:       "由预设决定",
		Pacing:     "由预设决定",
		DurationMS: time.Since(t0).Milliseconds(),
	}
	fillContextMeta(meta, bundle)
	return meta
}

func fillContextMeta(meta *models.GenerateMeta, bundle *models.ContextBundle) {
	if d := bundle.Dungeon; d != nil {
		meta.DungeonProgressHint = d.ProgressHint
		meta.DungeonName = d.Name
		meta.DungeonNodeName = d.NodeName
	}
	meta.MainCharacter = bundle.MainCharacter
}
