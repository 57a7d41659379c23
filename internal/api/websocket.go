// internal/api/websocket.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Corphon/storyteller/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 在生产环境中应该进行更严格的检查
		return true
	},
}

const wsWriteTimeout = 10 * time.Second

// StoryWebSocket 剧情生成的 WebSocket 通道。
// 客户端每发一条 {"session_id": "...", "user_input": "..."}，
// 服务端按 meta → delta* → done/error 的顺序推送类型化事件，
// 与 SSE 端点的事件语义一致。连接保持打开，可连续生成多轮。
func (h *Handler) StoryWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket 升级失败", "error", err.Error())
		return
	}
	defer conn.Close()

	for {
		var req StoryGenerateRequest
		if err := conn.ReadJSON(&req); err != nil {
			// 客户端断开或发来非法帧，结束本连接
			return
		}
		if req.SessionID == "" || req.UserInput == "" {
			h.wsSend(conn, models.StreamEventError, gin.H{"message": "缺少 session_id 或 user_input"})
			continue
		}

		h.runStoryOverWebSocket(c, conn, req)
	}
}

func (h *Handler) runStoryOverWebSocket(c *gin.Context, conn *websocket.Conn, req StoryGenerateRequest) {
	forceStream := true
	result, err := h.StoryService.Generate(c.Request.Context(), req.SessionID, req.UserInput, &forceStream)
	if err != nil {
		h.wsSend(conn, models.StreamEventError, gin.H{"message": err.Error()})
		return
	}

	if !h.wsSend(conn, models.StreamEventMeta, result.Meta) {
		return
	}

	var sb strings.Builder
	if result.Stream == nil {
		if result.Text != "" {
			sb.WriteString(result.Text)
			if !h.wsSend(conn, models.StreamEventDelta, gin.H{"text": result.Text}) {
				return
			}
		}
	} else {
		for delta := range result.Stream {
			if delta.Err != nil {
				h.wsSend(conn, models.StreamEventError, gin.H{"message": delta.Err.Error()})
				return
			}
			sb.WriteString(delta.Text)
			if !h.wsSend(conn, models.StreamEventDelta, gin.H{"text": delta.Text}) {
				return
			}
		}
	}

	// 连接中途失效的流不落库，半截文本直接丢弃
	if c.Request.Context().Err() != nil {
		return
	}

	if _, err := h.StoryService.PersistSegment(req.SessionID, sb.String()); err != nil {
		h.wsSend(conn, models.StreamEventError, gin.H{"message": err.Error()})
		return
	}
	h.wsSend(conn, models.StreamEventDone, gin.H{})
}

// wsSend 发送一条类型化事件，返回 false 表示连接已不可用
func (h *Handler) wsSend(conn *websocket.Conn, event string, data interface{}) bool {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(models.StreamEvent{Event: event, Data: data}); err != nil {
		h.logger.Debug("WebSocket 写入失败", "error", err.Error())
		return false
	}
	return true
}
