// internal/llm/client_test.go
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBaseURL(t *testing.T) {
	cases := map[string]string{
		"https://api.openai.com":      "https://api.openai.com/v1",
		"https://api.openai.com/":     "https://api.openai.com/v1",
		"https://api.openai.com/v1":   "https://api.openai.com/v1",
		"https://api.openai.com/v1/":  "https://api.openai.com/v1",
		"http://localhost:8000":       "http://localhost:8000/v1",
		"https://host/openai/v1":      "https://host/openai/v1",
		"":                            "",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeBaseURL(input), "input=%q", input)
	}
}

func TestListModels_DedupeAndSort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{
				{"id": "gpt-b"},
				{"id": "gpt-a"},
				{"id": "gpt-b"},
				{"id": ""},
			},
		})
	}))
	defer srv.Close()

	models, err := NewClient(nil).ListModels(context.Background(), srv.URL, "sk-test")

	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-a", "gpt-b"}, models)
}

func TestListModels_UpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(nil).ListModels(context.Background(), srv.URL, "bad-key")

	require.Error(t, err)
	assert.True(t, IsUpstreamError(err))
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusUnauthorized, ue.Status)
}

func TestChatCompletion_FullText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["stream"])
		assert.Equal(t, "test-model", body["model"])
		assert.InDelta(t, 0.8, body["temperature"], 0.0001)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "从前有座山"}},
			},
		})
	}))
	defer srv.Close()

	text, err := NewClient(nil).ChatCompletion(context.Background(), ChatRequest{
		BaseURL:     srv.URL,
		APIKey:      "sk-test",
		Model:       "test-model",
		Messages:    []Message{{Role: "user", Content: "讲个故事"}},
		Temperature: 0.8,
	})

	require.NoError(t, err)
	assert.Equal(t, "从前有座山", text)
}

func TestChatCompletion_MissingContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	_, err := NewClient(nil).ChatCompletion(context.Background(), ChatRequest{
		BaseURL: srv.URL, Model: "m", Messages: []Message{{Role: "user", Content: "x"}},
	})

	assert.True(t, IsUpstreamError(err))
}

func TestStreamChatCompletion_DeltasAndDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		frames := []string{
			`: 注释行应被忽略`,
			`data: {"choices":[{"delta":{"content":"He"}}]}`,
			``,
			`data: {"choices":[{"delta":{"content":""}}]}`,
			`data: 不是JSON的帧直接跳过`,
			`data: {"choices":[{"delta":{"content":"llo"}}]}`,
			`data: [DONE]`,
			`data: {"choices":[{"delta":{"content":"DONE之后不该出现"}}]}`,
		}
		for _, f := range frames {
			fmt.Fprintf(w, "%s\n", f)
		}
	}))
	defer srv.Close()

	deltas, err := NewClient(nil).StreamChatCompletion(context.Background(), ChatRequest{
		BaseURL: srv.URL, Model: "m", Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)

	var got string
	for d := range deltas {
		require.NoError(t, d.Err)
		got += d.Text
	}
	assert.Equal(t, "Hello", got)
}

func TestStreamChatCompletion_OpenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	deltas, err := NewClient(nil).StreamChatCompletion(context.Background(), ChatRequest{
		BaseURL: srv.URL, Model: "m", Messages: []Message{{Role: "user", Content: "hi"}},
	})

	require.Error(t, err)
	assert.Nil(t, deltas)
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusTooManyRequests, ue.Status)
}

func TestStreamChatCompletion_ConsumerCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for i := 0; i < 1000; i++ {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n")
			flusher.Flush()
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	deltas, err := NewClient(nil).StreamChatCompletion(ctx, ChatRequest{
		BaseURL: srv.URL, Model: "m", Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)

	// 读一条就取消，通道必须随之关闭而不是永远阻塞
	<-deltas
	cancel()
	for range deltas {
	}
}

func TestStreamChatCompletion_DeadlineReportsTimeout(t *testing.T) {
	stall := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"部分\"}}]}\n")
		flusher.Flush()
		<-stall
	}))
	defer srv.Close()
	defer close(stall)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	deltas, err := NewClient(nil).StreamChatCompletion(ctx, ChatRequest{
		BaseURL: srv.URL, Model: "m", Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)

	var got string
	var streamErr error
	for d := range deltas {
		if d.Err != nil {
			streamErr = d.Err
			continue
		}
		got += d.Text
	}

	// 超时中断必须带错误增量收尾，不能与正常读完混淆
	assert.Equal(t, "部分", got)
	require.Error(t, streamErr)
	var ue *UpstreamError
	require.ErrorAs(t, streamErr, &ue)
	assert.True(t, ue.Timeout)
}
