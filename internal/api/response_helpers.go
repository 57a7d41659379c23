// internal/api/response_helpers.go
package api

import (
	"errors"
	"net/http"
	"time"

	apperrors "github.com/Corphon/storyteller/internal/errors"
	"github.com/gin-gonic/gin"
)

// APIResponse 标准响应信封
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"` // 用于调试和追踪
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ResponseHelper 响应助手类
type ResponseHelper struct{}

// NewResponseHelper 创建响应助手
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{}
}

// Success 成功响应
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	if len(message) > 0 {
		response.Message = message[0]
	}

	c.JSON(http.StatusOK, response)
}

// Created 创建成功响应
func (rh *ResponseHelper) Created(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	if len(message) > 0 {
		response.Message = message[0]
	} else {
		response.Message = "资源创建成功"
	}

	c.JSON(http.StatusCreated, response)
}

// Error 错误响应
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string, details ...string) {
	apiError := &APIError{
		Code:    errorCode,
		Message: message,
	}
	if len(details) > 0 {
		apiError.Details = details[0]
	}

	response := &APIResponse{
		Success:   false,
		Error:     apiError,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	c.JSON(statusCode, response)
}

// BadRequest 400错误响应
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusBadRequest, "BAD_REQUEST", message, details...)
}

// NotFound 404错误响应
func (rh *ResponseHelper) NotFound(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusNotFound, "NOT_FOUND", message, details...)
}

// Conflict 409错误响应
func (rh *ResponseHelper) Conflict(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusConflict, "CONFLICT", message, details...)
}

// InternalError 500错误响应
func (rh *ResponseHelper) InternalError(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, details...)
}

// HandleError 按应用错误类型映射到对应的 HTTP 状态码
func (rh *ResponseHelper) HandleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			rh.Error(c, http.StatusBadRequest, appErr.Code, appErr.Message)
		case apperrors.ErrorTypeNotFound:
			rh.Error(c, http.StatusNotFound, appErr.Code, appErr.Message)
		case apperrors.ErrorTypeConflict:
			rh.Error(c, http.StatusConflict, appErr.Code, appErr.Message)
		case apperrors.ErrorTypeUpstream:
			rh.Error(c, http.StatusBadGateway, appErr.Code, appErr.Message)
		case apperrors.ErrorTypeTimeout:
			rh.Error(c, http.StatusGatewayTimeout, appErr.Code, appErr.Message)
		default:
			rh.Error(c, http.StatusInternalServerError, appErr.Code, appErr.Message)
		}
		return
	}
	rh.InternalError(c, "服务器内部错误", err.Error())
}

// getRequestID 获取请求ID（用于追踪）
func (rh *ResponseHelper) getRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return ""
}
