package public

import (
	"errors"
	"time"

	"github.com/benefit-ledger/internal/cache"
	"github.com/benefit-ledger/internal/http/response"
	"github.com/benefit-ledger/internal/models"
	"github.com/benefit-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

const activePromotionsCacheTTL = 60 * time.Second

// ApplyPromotionRequest 优惠试算请求
type ApplyPromotionRequest struct {
	Code        string       `json:"code" binding:"required"`
	OrderAmount MoneyPayload `json:"order_amount" binding:"required"`
	ProductIDs  []string     `json:"product_ids"`
	CategoryIDs []string     `json:"category_ids"`
}

// ApplyPromotion 试算优惠；业务不通过时返回 valid=false 与原因，不走错误响应
func (h *Handler) ApplyPromotion(c *gin.Context) {
	var req ApplyPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}
	orderAmount, currency, err := req.OrderAmount.toMoney()
	if err != nil {
		respondError(c, response.CodeBadRequest, "order amount invalid", nil)
		return
	}

	result, err := h.PromotionService.ApplyPromotion(service.ApplyPromotionInput{
		Code:        req.Code,
		OrderAmount: orderAmount,
		Currency:    currency,
		ProductIDs:  req.ProductIDs,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			respondError(c, response.CodeBadRequest, "promotion request invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "promotion apply failed", err)
		return
	}

	response.Success(c, gin.H{
		"valid":           result.Valid,
		"promotion":       result.Promotion,
		"discount_amount": result.DiscountAmount,
		"reason":          promotionRejectReason(result.Err),
	})
}

// RecordPromotionUsageRequest 使用记录请求
type RecordPromotionUsageRequest struct {
	PromotionID    uint         `json:"promotion_id" binding:"required"`
	OrderID        string       `json:"order_id" binding:"required"`
	DiscountAmount MoneyPayload `json:"discount_amount" binding:"required"`
}

// RecordPromotionUsage 订单确认后记录优惠使用
func (h *Handler) RecordPromotionUsage(c *gin.Context) {
	var req RecordPromotionUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}
	discount, _, err := req.DiscountAmount.toMoney()
	if err != nil {
		respondError(c, response.CodeBadRequest, "discount amount invalid", nil)
		return
	}

	usage, err := h.PromotionService.RecordUsage(service.RecordUsageInput{
		PromotionID:    req.PromotionID,
		OrderID:        req.OrderID,
		DiscountAmount: discount,
	})
	if err != nil {
		respondWithMappedError(c, err, promotionUsageErrorRules, response.CodeInternal, "promotion usage record failed")
		return
	}
	response.Success(c, usage)
}

// ListActivePromotions 当前生效的优惠列表，短 TTL 缓存
func (h *Handler) ListActivePromotions(c *gin.Context) {
	var cached []models.Promotion
	if hit, err := cache.GetJSON(c.Request.Context(), cache.KeyActivePromotions, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	promotions, err := h.PromotionService.ListActivePromotions()
	if err != nil {
		respondError(c, response.CodeInternal, "promotion list failed", err)
		return
	}

	_ = cache.SetJSON(c.Request.Context(), cache.KeyActivePromotions, promotions, activePromotionsCacheTTL)
	response.Success(c, promotions)
}

func promotionRejectReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, service.ErrPromotionNotFound):
		return "not_found"
	case errors.Is(err, service.ErrPromotionNotCurrentlyValid):
		return "not_currently_valid"
	case errors.Is(err, service.ErrPromotionUsageLimitReached):
		return "usage_limit_reached"
	case errors.Is(err, service.ErrPromotionNotApplicable):
		return "not_applicable"
	case errors.Is(err, service.ErrCurrencyMismatch):
		return "currency_not_supported"
	default:
		return "not_applicable"
	}
}
