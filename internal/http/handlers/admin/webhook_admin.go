package admin

import (
	"strings"

	"github.com/benefit-ledger/internal/http/response"
	"github.com/benefit-ledger/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListWebhookEvents 回调事件审计列表
func (h *Handler) ListWebhookEvents(c *gin.Context) {
	page, pageSize := parsePagination(c)

	createdAfter, err := parseTimeNullable(c.Query("created_after"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_after invalid", err)
		return
	}
	createdBefore, err := parseTimeNullable(c.Query("created_before"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_before invalid", err)
		return
	}

	events, total, err := h.WebhookService.ListEvents(repository.WebhookEventListFilter{
		Page:          page,
		PageSize:      pageSize,
		Provider:      strings.TrimSpace(c.Query("provider")),
		EventType:     strings.TrimSpace(c.Query("event_type")),
		CreatedAfter:  createdAfter,
		CreatedBefore: createdBefore,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "webhook event list failed", err)
		return
	}
	response.SuccessWithPage(c, events, buildPagination(page, pageSize, total))
}

// ListUnprocessedWebhookEvents 分发失败待排查的回调事件
func (h *Handler) ListUnprocessedWebhookEvents(c *gin.Context) {
	page, pageSize := parsePagination(c)

	events, total, err := h.WebhookService.ListEvents(repository.WebhookEventListFilter{
		Page:       page,
		PageSize:   pageSize,
		Provider:   strings.TrimSpace(c.Query("provider")),
		OnlyFailed: true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "webhook event list failed", err)
		return
	}
	response.SuccessWithPage(c, events, buildPagination(page, pageSize, total))
}
