// internal/api/worldbook_handlers.go
package api

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ImportWorldbook 批量导入世界书条目
func (h *Handler) ImportWorldbook(c *gin.Context) {
	var payload interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.helper.BadRequest(c, "导入内容不是合法 JSON", err.Error())
		return
	}

	count, err := h.WorldbookService.Import(payload)
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}
	h.helper.Success(c, gin.H{"created_or_updated": count})
}

// ListWorldbook 分页检索世界书条目
func (h *Handler) ListWorldbook(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.WorldbookService.List(page, pageSize, c.Query("keyword"), c.Query("category"))
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}

	items := make([]gin.H, 0, len(result.Items))
	for _, e := range result.Items {
		items = append(items, gin.H{
			"entry_id":   e.EntryID,
			"category":   e.Category,
			"title":      e.Title,
			"importance": e.Importance,
		})
	}
	h.helper.Success(c, gin.H{
		"items":       items,
		"page":        result.Page,
		"total_pages": result.TotalPages,
	})
}

// GetWorldbookEntry 读取单条世界书条目
func (h *Handler) GetWorldbookEntry(c *gin.Context) {
	entry, err := h.WorldbookService.Get(c.Param("entry_id"))
	if err != nil {
		h.helper.HandleError(c, err)
		return
	}

	tags := []string{}
	if entry.Tags != "" {
		tags = strings.Split(entry.Tags, ",")
	}
	meta := map[string]interface{}{}
	if len(entry.Meta) > 0 {
		_ = json.Unmarshal(entry.Meta, &meta)
	}

	h.helper.Success(c, gin.H{
		"entry_id":   entry.EntryID,
		"category":   entry.Category,
		"tags":       tags,
		"title":      entry.Title,
		"content":    entry.Content,
		"importance": entry.Importance,
		"canonical":  entry.Canonical,
		"meta":       meta,
	})
}
