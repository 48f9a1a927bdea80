package admin

import (
	"strings"

	"github.com/benefit-ledger/internal/http/response"
	"github.com/benefit-ledger/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListPaymentIntents 分页查询支付意向
func (h *Handler) ListPaymentIntents(c *gin.Context) {
	page, pageSize := parsePagination(c)

	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_from invalid", err)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_to invalid", err)
		return
	}

	intents, total, err := h.PaymentService.ListIntents(repository.PaymentIntentListFilter{
		Page:        page,
		PageSize:    pageSize,
		OrderID:     strings.TrimSpace(c.Query("order_id")),
		Status:      strings.TrimSpace(strings.ToLower(c.Query("status"))),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "payment intent list failed", err)
		return
	}
	response.SuccessWithPage(c, intents, buildPagination(page, pageSize, total))
}

// GetPaymentIntent 支付意向详情与结算流水
func (h *Handler) GetPaymentIntent(c *gin.Context) {
	intentNo := strings.TrimSpace(c.Param("intent_no"))
	if intentNo == "" {
		respondError(c, response.CodeBadRequest, "intent_no required", nil)
		return
	}

	intent, err := h.PaymentService.GetIntent(intentNo, "")
	if err != nil {
		respondError(c, response.CodeInternal, "payment intent fetch failed", err)
		return
	}
	if intent == nil {
		respondError(c, response.CodeNotFound, "payment intent not found", nil)
		return
	}

	txns, err := h.PaymentService.ListTransactions(intent.IntentNo)
	if err != nil {
		respondError(c, response.CodeInternal, "payment transactions fetch failed", err)
		return
	}
	response.Success(c, gin.H{
		"intent":       intent,
		"transactions": txns,
	})
}
