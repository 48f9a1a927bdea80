package public

import (
	"strconv"
	"strings"

	"github.com/benefit-ledger/internal/http/response"
	"github.com/benefit-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// RedeemGiftCardRequest 礼品卡消费请求
type RedeemGiftCardRequest struct {
	Code       string       `json:"code"`
	GiftCardID uint         `json:"gift_card_id"`
	OrderID    string       `json:"order_id" binding:"required"`
	Amount     MoneyPayload `json:"amount" binding:"required"`
}

// RedeemGiftCard 结算时消费礼品卡余额
func (h *Handler) RedeemGiftCard(c *gin.Context) {
	var req RedeemGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}
	amount, currency, err := req.Amount.toMoney()
	if err != nil {
		respondError(c, response.CodeBadRequest, "amount invalid", nil)
		return
	}
	cardID, ok := h.resolveGiftCardID(c, req.Code, req.GiftCardID)
	if !ok {
		return
	}

	card, err := h.GiftCardService.RedeemGiftCard(service.GiftCardRedeemInput{
		GiftCardID: cardID,
		Amount:     amount,
		Currency:   currency,
		OrderID:    req.OrderID,
	})
	if err != nil {
		respondGiftCardRedeemError(c, err)
		return
	}
	response.Success(c, card)
}

// RefundGiftCardRequest 礼品卡退款请求
type RefundGiftCardRequest struct {
	Code       string       `json:"code"`
	GiftCardID uint         `json:"gift_card_id"`
	OrderID    string       `json:"order_id" binding:"required"`
	Amount     MoneyPayload `json:"amount" binding:"required"`
}

// RefundGiftCard 订单退款时回冲礼品卡余额
func (h *Handler) RefundGiftCard(c *gin.Context) {
	var req RefundGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}
	amount, currency, err := req.Amount.toMoney()
	if err != nil {
		respondError(c, response.CodeBadRequest, "amount invalid", nil)
		return
	}
	cardID, ok := h.resolveGiftCardID(c, req.Code, req.GiftCardID)
	if !ok {
		return
	}

	card, err := h.GiftCardService.RefundGiftCard(service.GiftCardRefundInput{
		GiftCardID: cardID,
		Amount:     amount,
		Currency:   currency,
		OrderID:    req.OrderID,
	})
	if err != nil {
		respondGiftCardRefundError(c, err)
		return
	}
	response.Success(c, card)
}

// GetGiftCardBalance 查询礼品卡余额，支持 code 或 id
func (h *Handler) GetGiftCardBalance(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	var id uint
	if raw := strings.TrimSpace(c.Query("id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "gift card id invalid", nil)
			return
		}
		id = uint(parsed)
	}
	if code == "" && id == 0 {
		respondError(c, response.CodeBadRequest, "code or id required", nil)
		return
	}

	balance, status, err := h.GiftCardService.GetBalance(code, id)
	if err != nil {
		respondError(c, response.CodeInternal, "gift card balance fetch failed", err)
		return
	}
	if balance == nil {
		respondError(c, response.CodeNotFound, "gift card not found", nil)
		return
	}
	response.Success(c, gin.H{
		"balance": balance,
		"status":  status,
	})
}

// resolveGiftCardID code 优先，查不到按 not found 处理
func (h *Handler) resolveGiftCardID(c *gin.Context, code string, id uint) (uint, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		if id == 0 {
			respondError(c, response.CodeBadRequest, "code or gift_card_id required", nil)
			return 0, false
		}
		return id, true
	}
	card, err := h.GiftCardService.GetGiftCard(code, 0)
	if err != nil {
		respondError(c, response.CodeInternal, "gift card fetch failed", err)
		return 0, false
	}
	if card == nil {
		respondError(c, response.CodeNotFound, "gift card not found", nil)
		return 0, false
	}
	return card.ID, true
}
