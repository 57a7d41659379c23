// internal/api/handlers_test.go
package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Corphon/storyteller/internal/llm"
	"github.com/Corphon/storyteller/internal/models"
	"github.com/Corphon/storyteller/internal/services"
	"github.com/Corphon/storyteller/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// stubChatClient 按预先注入的增量序列回放的流式客户端
type stubChatClient struct {
	deltas []llm.StreamDelta
}

func (s *stubChatClient) ListModels(ctx context.Context, baseURL, apiKey string) ([]string, error) {
	return nil, nil
}

func (s *stubChatClient) ChatCompletion(ctx context.Context, req llm.ChatRequest) (string, error) {
	return "", nil
}

func (s *stubChatClient) StreamChatCompletion(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamDelta, error) {
	ch := make(chan llm.StreamDelta, len(s.deltas))
	for _, d := range s.deltas {
		ch <- d
	}
	close(ch)
	return ch, nil
}

func newStreamTestRouter(t *testing.T, client llm.ChatClient) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, storage.AutoMigrate(db))

	presets := services.NewPresetService(db)
	llmConfigs := services.NewLLMConfigService(db)
	worldbook := services.NewWorldbookService(db)
	characters := services.NewCharacterService(db)
	dungeons := services.NewDungeonService(db)
	settings := services.NewSettingsService(db)
	templates := services.NewTemplateService(db)
	sessions := services.NewSessionService(db)
	contexts := services.NewContextService(characters, worldbook, dungeons, sessions)
	story := services.NewStoryService(presets, llmConfigs, contexts, sessions, client)

	_, err = llmConfigs.Create(&models.LLMConfig{
		Name:         "test",
		BaseURL:      "https://api.example.com",
		APIKey:       "sk-test",
		Stream:       true,
		DefaultModel: "test-model",
	})
	require.NoError(t, err)

	h := NewHandler(presets, llmConfigs, worldbook, characters, dungeons, settings, templates, sessions, story, client)
	r := gin.New()
	r.POST("/api/story/generate_stream", h.GenerateStoryStream)
	return r, db
}

func segmentCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.StorySegment{}).Count(&n).Error)
	return n
}

func TestGenerateStoryStream_ErrorDeltaEndsWithoutPersist(t *testing.T) {
	client := &stubChatClient{deltas: []llm.StreamDelta{
		{Text: "部分"},
		{Err: &llm.UpstreamError{Detail: "读取流式响应超时", Timeout: true}},
	}}
	r, db := newStreamTestRouter(t, client)

	body := bytes.NewBufferString(`{"session_id":"s1","user_input":"出发"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/story/generate_stream", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// 错误收尾：只发 error 不发 done，半截文本不落库
	out := w.Body.String()
	assert.Contains(t, out, "event:error")
	assert.NotContains(t, out, "event:done")
	assert.Equal(t, int64(0), segmentCount(t, db))
}

func TestGenerateStoryStream_ClientGoneSkipsPersist(t *testing.T) {
	client := &stubChatClient{deltas: []llm.StreamDelta{{Text: "第一"}, {Text: "第二"}}}
	r, db := newStreamTestRouter(t, client)

	// 请求上下文已取消，等价于客户端中途断开
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body := bytes.NewBufferString(`{"session_id":"s1","user_input":"出发"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/story/generate_stream", body).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.NotContains(t, w.Body.String(), "event:done")
	assert.Equal(t, int64(0), segmentCount(t, db))
}
