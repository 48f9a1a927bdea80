package admin

import (
	"errors"

	"github.com/benefit-ledger/internal/http/response"
	"github.com/benefit-ledger/internal/queue"
	"github.com/benefit-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// RunReconcileRequest 触发对账请求
type RunReconcileRequest struct {
	Scope string `json:"scope"`
	Async bool   `json:"async"`
}

// RunReconcile 触发一次对账：默认同步执行并返回报告，async=true 时入队
func (h *Handler) RunReconcile(c *gin.Context) {
	var req RunReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	if req.Async {
		if h.QueueClient == nil || !h.QueueClient.Enabled() {
			respondError(c, response.CodeInternal, "queue unavailable", nil)
			return
		}
		if err := h.QueueClient.EnqueueLedgerReconcile(queue.LedgerReconcilePayload{Scope: req.Scope}); err != nil {
			respondError(c, response.CodeInternal, "reconcile enqueue failed", err)
			return
		}
		response.Success(c, gin.H{"enqueued": true})
		return
	}

	report, err := h.ReconcileService.Run(req.Scope)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidationFailed):
			respondError(c, response.CodeBadRequest, "reconcile scope invalid", nil)
		default:
			respondError(c, response.CodeInternal, "reconcile run failed", err)
		}
		return
	}
	response.Success(c, report)
}
