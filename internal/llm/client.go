// internal/llm/client.go
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// OpenAI 兼容客户端。
// base_url 允许用户输入 https://api.openai.com、https://api.openai.com/v1、
// http://localhost:8000 等形式，统一补齐 /v1。

// 各类请求的超时上界（到点即按超时错误上报，内部不重试）
const (
	ListModelsTimeout = 20 * time.Second
	CompletionTimeout = 120 * time.Second
	StreamTimeout     = 120 * time.Second
)

// UpstreamError 上游 API 错误：HTTP 状态 >= 400、响应体不可解析或结构缺失
type UpstreamError struct {
	Status  int
	Detail  string
	Timeout bool
}

func (e *UpstreamError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("上游请求超时: %s", e.Detail)
	}
	if e.Status > 0 {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Detail)
	}
	return e.Detail
}

// IsUpstreamError 检查是否为上游错误
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// Message 一条对话消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest 一次生成调用的全部参数
type ChatRequest struct {
	BaseURL     string
	APIKey      string
	Model       string
	Messages    []Message
	Temperature float64
}

// StreamDelta 流式响应的单个增量。
// Err 非空表示流异常终止；通道关闭即为结束。
type StreamDelta struct {
	Text string
	Err  error
}

// ChatClient 生成编排器依赖的客户端接口
type ChatClient interface {
	ListModels(ctx context.Context, baseURL, apiKey string) ([]string, error)
	ChatCompletion(ctx context.Context, req ChatRequest) (string, error)
	StreamChatCompletion(ctx context.Context, req ChatRequest) (<-chan StreamDelta, error)
}

// Client 默认实现，直接访问 OpenAI 兼容端点
type Client struct {
	httpClient *http.Client
}

// NewClient 创建客户端；httpClient 传 nil 时使用默认实例
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient}
}

// NormalizeBaseURL 去掉尾部斜杠并补齐 /v1 后缀
func NormalizeBaseURL(baseURL string) string {
	s := strings.TrimRight(baseURL, "/")
	if s == "" {
		return s
	}
	if strings.HasSuffix(s, "/v1") {
		return s
	}
	return s + "/v1"
}

// ListModels 获取模型列表：GET {base}/v1/models，返回去重排序后的模型 ID
func (c *Client) ListModels(ctx context.Context, baseURL, apiKey string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, ListModelsTimeout)
	defer cancel()

	url := NormalizeBaseURL(baseURL) + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &UpstreamError{Detail: err.Error()}
	}
	setAuthHeaders(req, apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err, "模型列表请求失败")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamError{Status: resp.StatusCode, Detail: "模型列表请求失败: " + string(body)}
	}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &UpstreamError{Detail: "解析模型列表失败: " + err.Error()}
	}

	seen := make(map[string]bool, len(payload.Data))
	out := make([]string, 0, len(payload.Data))
	for _, item := range payload.Data {
		if item.ID == "" || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item.ID)
	}
	sort.Strings(out)
	return out, nil
}

// ChatCompletion 非流式生成：POST {base}/v1/chat/completions，stream=false
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, CompletionTimeout)
	defer cancel()

	httpResp, err := c.postCompletion(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()

	var payload struct {
		Choices []struct {
			Message struct {
				Content *string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&payload); err != nil {
		return "", &UpstreamError{Detail: "解析模型响应失败: " + err.Error()}
	}
	if len(payload.Choices) == 0 || payload.Choices[0].Message.Content == nil {
		return "", &UpstreamError{Detail: "模型响应缺少 choices[0].message.content"}
	}
	return *payload.Choices[0].Message.Content, nil
}

// StreamChatCompletion 流式生成：POST stream=true，返回单消费者增量通道。
// 打开流即失败时直接返回错误，不产出通道；
// 消费方取消 ctx 即可提前中止，底层连接随之关闭。
func (c *Client) StreamChatCompletion(ctx context.Context, req ChatRequest) (<-chan StreamDelta, error) {
	ctx, cancel := context.WithTimeout(ctx, StreamTimeout)

	httpResp, err := c.postCompletion(ctx, req, true)
	if err != nil {
		cancel()
		return nil, err
	}

	deltas := make(chan StreamDelta)

	go func() {
		defer cancel()
		defer httpResp.Body.Close()
		defer close(deltas)

		scanner := bufio.NewScanner(httpResp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	scan:
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			// 空行与注释行跳过
			if line == "" || strings.HasPrefix(line, ":") {
				continue
			}
			line = strings.TrimSpace(strings.TrimPrefix(line, "data:"))

			if line == "[DONE]" {
				return
			}

			// 解析失败或结构不符的帧静默跳过，不中断流
			var frame struct {
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
				} `json:"choices"`
			}
			if err := json.Unmarshal([]byte(line), &frame); err != nil {
				continue
			}
			if len(frame.Choices) == 0 {
				continue
			}
			content := frame.Choices[0].Delta.Content
			if content == "" {
				continue
			}

			select {
			case deltas <- StreamDelta{Text: content}:
			case <-ctx.Done():
				break scan
			}
		}

		// 非正常收尾的三种情况要区分开：
		// 消费方主动取消时静默关闭；超时（本地上限或调用方 deadline）按超时
		// 错误上报；其余读取失败按传输错误上报。超时与读完不能混淆，
		// 否则半截文本会被当成完整结果。
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		readErr := scanner.Err()
		if readErr == nil {
			if ctx.Err() == nil {
				return
			}
			readErr = ctx.Err()
		}
		streamErr := transportError(readErr, "读取流式响应失败")
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			streamErr.Timeout = true
		}
		deltas <- StreamDelta{Err: streamErr}
	}()

	return deltas, nil
}

// postCompletion 发起 chat/completions 请求并完成状态码检查
func (c *Client) postCompletion(ctx context.Context, req ChatRequest, stream bool) (*http.Response, error) {
	payload := map[string]interface{}{
		"model":       req.Model,
		"messages":    req.Messages,
		"temperature": req.Temperature,
		"stream":      stream,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &UpstreamError{Detail: err.Error()}
	}

	url := NormalizeBaseURL(req.BaseURL) + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &UpstreamError{Detail: err.Error()}
	}
	setAuthHeaders(httpReq, req.APIKey)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(err, "生成请求失败")
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamError{Status: resp.StatusCode, Detail: "生成请求失败: " + string(respBody)}
	}
	return resp, nil
}

func setAuthHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// transportError 把网络层错误归一成 UpstreamError，并识别超时变体
func transportError(err error, prefix string) *UpstreamError {
	ue := &UpstreamError{Detail: prefix + ": " + err.Error()}
	if errors.Is(err, context.DeadlineExceeded) {
		ue.Timeout = true
		return ue
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		ue.Timeout = true
	}
	return ue
}
