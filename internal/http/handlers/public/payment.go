package public

import (
	"strings"

	"github.com/benefit-ledger/internal/http/response"
	"github.com/benefit-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// CreatePaymentIntentRequest 创建支付意向请求
type CreatePaymentIntentRequest struct {
	OrderID string       `json:"order_id" binding:"required"`
	Amount  MoneyPayload `json:"amount" binding:"required"`
}

// CreatePaymentIntent 为订单创建支付意向，一单一意向
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	var req CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}
	amount, currency, err := req.Amount.toMoney()
	if err != nil {
		respondError(c, response.CodeBadRequest, "amount invalid", nil)
		return
	}

	intent, err := h.PaymentService.CreateIntent(service.CreateIntentInput{
		OrderID:  req.OrderID,
		Amount:   amount,
		Currency: currency,
	})
	if err != nil {
		respondPaymentIntentError(c, err)
		return
	}
	response.Success(c, intent)
}

// CancelPaymentIntent 主动取消支付意向
func (h *Handler) CancelPaymentIntent(c *gin.Context) {
	intentNo := strings.TrimSpace(c.Param("intent_no"))
	if intentNo == "" {
		respondError(c, response.CodeBadRequest, "intent_no required", nil)
		return
	}

	intent, err := h.PaymentService.CancelIntent(intentNo)
	if err != nil {
		respondPaymentIntentError(c, err)
		return
	}
	response.Success(c, intent)
}

// GetPaymentIntent 查询支付意向，路径为 intent_no，或 ?order_id= 查询
func (h *Handler) GetPaymentIntent(c *gin.Context) {
	intentNo := strings.TrimSpace(c.Param("intent_no"))
	orderID := strings.TrimSpace(c.Query("order_id"))
	if intentNo == "" && orderID == "" {
		respondError(c, response.CodeBadRequest, "intent_no or order_id required", nil)
		return
	}

	intent, err := h.PaymentService.GetIntent(intentNo, orderID)
	if err != nil {
		respondError(c, response.CodeInternal, "payment intent fetch failed", err)
		return
	}
	if intent == nil {
		respondError(c, response.CodeNotFound, "payment intent not found", nil)
		return
	}
	response.Success(c, intent)
}
