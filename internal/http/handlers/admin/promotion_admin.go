package admin

import (
	"errors"
	"strings"

	"github.com/benefit-ledger/internal/cache"
	"github.com/benefit-ledger/internal/http/response"
	"github.com/benefit-ledger/internal/models"
	"github.com/benefit-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// CreatePromotionRequest 创建优惠活动请求
type CreatePromotionRequest struct {
	Code                 string        `json:"code"`
	Name                 string        `json:"name" binding:"required"`
	RuleType             string        `json:"rule_type" binding:"required"`
	Value                MoneyPayload  `json:"value" binding:"required"`
	MaxDiscount          *MoneyPayload `json:"max_discount"`
	MinPurchase          *MoneyPayload `json:"min_purchase"`
	ApplicableProducts   []string      `json:"applicable_products"`
	ApplicableCategories []string      `json:"applicable_categories"`
	StartsAt             string        `json:"starts_at"`
	EndsAt               string        `json:"ends_at"`
	UsageLimit           int           `json:"usage_limit"`
	Status               string        `json:"status"`
}

// UpdatePromotionRequest 更新优惠活动请求
type UpdatePromotionRequest struct {
	Name        *string       `json:"name"`
	Value       *MoneyPayload `json:"value"`
	MaxDiscount *MoneyPayload `json:"max_discount"`
	MinPurchase *MoneyPayload `json:"min_purchase"`
	StartsAt    *string       `json:"starts_at"`
	EndsAt      *string       `json:"ends_at"`
	ClearWindow bool          `json:"clear_window"`
	UsageLimit  *int          `json:"usage_limit"`
	Status      *string       `json:"status"`
}

// CreatePromotion 创建优惠活动
func (h *Handler) CreatePromotion(c *gin.Context) {
	var req CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}
	value, _, err := req.Value.toMoney()
	if err != nil {
		respondError(c, response.CodeBadRequest, "value invalid", nil)
		return
	}
	maxDiscount, ok := optionalMoney(c, req.MaxDiscount, "max_discount")
	if !ok {
		return
	}
	minPurchase, ok := optionalMoney(c, req.MinPurchase, "min_purchase")
	if !ok {
		return
	}
	startsAt, err := parseTimeNullable(req.StartsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "starts_at invalid", err)
		return
	}
	endsAt, err := parseTimeNullable(req.EndsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "ends_at invalid", err)
		return
	}

	promotion, err := h.PromotionAdminService.CreatePromotion(service.CreatePromotionInput{
		Code:                 req.Code,
		Name:                 req.Name,
		RuleType:             req.RuleType,
		Value:                value,
		MaxDiscount:          maxDiscount,
		MinPurchase:          minPurchase,
		ApplicableProducts:   req.ApplicableProducts,
		ApplicableCategories: req.ApplicableCategories,
		StartsAt:             startsAt,
		EndsAt:               endsAt,
		UsageLimit:           req.UsageLimit,
		Status:               req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidationFailed):
			respondError(c, response.CodeBadRequest, "promotion request invalid", nil)
		case errors.Is(err, service.ErrPromotionInvalid):
			respondError(c, response.CodeConflict, "promotion code already exists", nil)
		default:
			respondError(c, response.CodeInternal, "promotion create failed", err)
		}
		return
	}
	invalidateActivePromotions(c)
	response.Success(c, promotion)
}

// UpdatePromotion 更新优惠活动
func (h *Handler) UpdatePromotion(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "promotion id invalid", nil)
		return
	}
	var req UpdatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	input := service.UpdatePromotionInput{
		Name:        req.Name,
		ClearWindow: req.ClearWindow,
		UsageLimit:  req.UsageLimit,
		Status:      req.Status,
	}
	if req.Value != nil {
		value, _, err := req.Value.toMoney()
		if err != nil {
			respondError(c, response.CodeBadRequest, "value invalid", nil)
			return
		}
		input.Value = &value
	}
	if req.MaxDiscount != nil {
		maxDiscount, _, err := req.MaxDiscount.toMoney()
		if err != nil {
			respondError(c, response.CodeBadRequest, "max_discount invalid", nil)
			return
		}
		input.MaxDiscount = &maxDiscount
	}
	if req.MinPurchase != nil {
		minPurchase, _, err := req.MinPurchase.toMoney()
		if err != nil {
			respondError(c, response.CodeBadRequest, "min_purchase invalid", nil)
			return
		}
		input.MinPurchase = &minPurchase
	}
	if req.StartsAt != nil {
		startsAt, err := parseTimeNullable(*req.StartsAt)
		if err != nil {
			respondError(c, response.CodeBadRequest, "starts_at invalid", err)
			return
		}
		input.StartsAt = startsAt
	}
	if req.EndsAt != nil {
		endsAt, err := parseTimeNullable(*req.EndsAt)
		if err != nil {
			respondError(c, response.CodeBadRequest, "ends_at invalid", err)
			return
		}
		input.EndsAt = endsAt
	}

	promotion, err := h.PromotionAdminService.UpdatePromotion(id, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionNotFound):
			respondError(c, response.CodeNotFound, "promotion not found", nil)
		case errors.Is(err, service.ErrValidationFailed):
			respondError(c, response.CodeBadRequest, "promotion request invalid", nil)
		default:
			respondError(c, response.CodeInternal, "promotion update failed", err)
		}
		return
	}
	invalidateActivePromotions(c)
	response.Success(c, promotion)
}

// DeletePromotion 删除优惠活动（有使用记录时转为下线）
func (h *Handler) DeletePromotion(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "promotion id invalid", nil)
		return
	}
	if err := h.PromotionAdminService.DeletePromotion(id); err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionNotFound):
			respondError(c, response.CodeNotFound, "promotion not found", nil)
		case errors.Is(err, service.ErrValidationFailed):
			respondError(c, response.CodeBadRequest, "promotion id invalid", nil)
		default:
			respondError(c, response.CodeInternal, "promotion delete failed", err)
		}
		return
	}
	invalidateActivePromotions(c)
	response.Success(c, gin.H{"deleted": true})
}

// invalidateActivePromotions 清除公开侧的生效优惠缓存
// 删除失败不影响写入结果，旧缓存最长再活一个 TTL，记日志即可
func invalidateActivePromotions(c *gin.Context) {
	if err := cache.Del(c.Request.Context(), cache.KeyActivePromotions); err != nil {
		requestLog(c).Warnw("promotion_cache_invalidate_failed", "error", err)
	}
}

// ListPromotions 分页查询优惠活动
func (h *Handler) ListPromotions(c *gin.Context) {
	page, pageSize := parsePagination(c)

	promotions, total, err := h.PromotionAdminService.ListPromotions(service.PromotionListInput{
		Code:       strings.TrimSpace(c.Query("code")),
		RuleType:   strings.TrimSpace(c.Query("rule_type")),
		Status:     strings.TrimSpace(c.Query("status")),
		OnlyActive: c.Query("only_active") == "true",
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "promotion list failed", err)
		return
	}
	response.SuccessWithPage(c, promotions, buildPagination(page, pageSize, total))
}

// GetPromotion 优惠活动详情与使用次数
func (h *Handler) GetPromotion(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "promotion id invalid", nil)
		return
	}
	promotion, usageCount, err := h.PromotionAdminService.GetPromotion(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionNotFound):
			respondError(c, response.CodeNotFound, "promotion not found", nil)
		default:
			respondError(c, response.CodeInternal, "promotion fetch failed", err)
		}
		return
	}
	response.Success(c, gin.H{
		"promotion":   promotion,
		"usage_count": usageCount,
	})
}

func optionalMoney(c *gin.Context, payload *MoneyPayload, field string) (models.Money, bool) {
	if payload == nil {
		return models.Money{}, true
	}
	money, _, err := payload.toMoney()
	if err != nil {
		respondError(c, response.CodeBadRequest, field+" invalid", nil)
		return models.Money{}, false
	}
	return money, true
}
