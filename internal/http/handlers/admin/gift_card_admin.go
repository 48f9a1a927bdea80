package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benefit-ledger/internal/http/response"
	"github.com/benefit-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// IssueGiftCardRequest 发放礼品卡请求
type IssueGiftCardRequest struct {
	Code           string       `json:"code" binding:"required"`
	InitialAmount  MoneyPayload `json:"initial_amount" binding:"required"`
	ExpiresAt      string       `json:"expires_at"`
	RecipientEmail string       `json:"recipient_email"`
	RecipientName  string       `json:"recipient_name"`
	Message        string       `json:"message"`
}

// BatchIssueGiftCardsRequest 批量发卡请求
type BatchIssueGiftCardsRequest struct {
	Quantity      int          `json:"quantity" binding:"required"`
	InitialAmount MoneyPayload `json:"initial_amount" binding:"required"`
	ExpiresAt     string       `json:"expires_at"`
}

// ExportGiftCardsRequest 导出礼品卡请求
type ExportGiftCardsRequest struct {
	IDs    []uint `json:"ids" binding:"required"`
	Format string `json:"format" binding:"required"`
}

// IssueGiftCard 发放单张礼品卡
func (h *Handler) IssueGiftCard(c *gin.Context) {
	var req IssueGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}
	amount, currency, err := req.InitialAmount.toMoney()
	if err != nil {
		respondError(c, response.CodeBadRequest, "initial amount invalid", nil)
		return
	}
	expiresAt, err := parseTimeNullable(req.ExpiresAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "expires_at invalid", err)
		return
	}

	card, err := h.GiftCardService.IssueGiftCard(service.IssueGiftCardInput{
		Code:           req.Code,
		InitialAmount:  amount,
		Currency:       currency,
		ExpiresAt:      expiresAt,
		RecipientEmail: req.RecipientEmail,
		RecipientName:  req.RecipientName,
		Message:        req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidationFailed):
			respondError(c, response.CodeBadRequest, "gift card request invalid", nil)
		case errors.Is(err, service.ErrGiftCardDuplicateCode):
			respondError(c, response.CodeConflict, "gift card code already exists", nil)
		default:
			respondError(c, response.CodeInternal, "gift card create failed", err)
		}
		return
	}
	response.Success(c, card)
}

// BatchIssueGiftCards 批量发放礼品卡，卡码自动生成
func (h *Handler) BatchIssueGiftCards(c *gin.Context) {
	var req BatchIssueGiftCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}
	amount, currency, err := req.InitialAmount.toMoney()
	if err != nil {
		respondError(c, response.CodeBadRequest, "initial amount invalid", nil)
		return
	}
	expiresAt, err := parseTimeNullable(req.ExpiresAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "expires_at invalid", err)
		return
	}

	cards, err := h.GiftCardService.BatchIssueGiftCards(service.BatchIssueGiftCardsInput{
		Quantity:      req.Quantity,
		InitialAmount: amount,
		Currency:      currency,
		ExpiresAt:     expiresAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidationFailed):
			respondError(c, response.CodeBadRequest, "gift card request invalid", nil)
		default:
			respondError(c, response.CodeInternal, "gift card create failed", err)
		}
		return
	}
	response.Success(c, gin.H{
		"created": len(cards),
		"cards":   cards,
	})
}

// ListGiftCards 礼品卡列表
func (h *Handler) ListGiftCards(c *gin.Context) {
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
	expiresFrom, err := parseTimeNullable(c.Query("expires_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "expires_from invalid", err)
		return
	}
	expiresTo, err := parseTimeNullable(c.Query("expires_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "expires_to invalid", err)
		return
	}

	cards, total, err := h.GiftCardService.ListGiftCards(service.GiftCardListInput{
		Code:        strings.TrimSpace(c.Query("code")),
		Status:      strings.TrimSpace(strings.ToLower(c.Query("status"))),
		Currency:    strings.TrimSpace(c.Query("currency")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		ExpiresFrom: expiresFrom,
		ExpiresTo:   expiresTo,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "gift card list failed", err)
		return
	}
	response.SuccessWithPage(c, cards, buildPagination(page, pageSize, total))
}

// GetGiftCard 礼品卡详情与流水
func (h *Handler) GetGiftCard(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "gift card id invalid", nil)
		return
	}

	card, err := h.GiftCardService.GetGiftCard("", id)
	if err != nil {
		respondError(c, response.CodeInternal, "gift card fetch failed", err)
		return
	}
	if card == nil {
		respondError(c, response.CodeNotFound, "gift card not found", nil)
		return
	}

	page, pageSize := parsePagination(c)
	txns, total, err := h.GiftCardService.ListTransactions(card.ID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "gift card transactions fetch failed", err)
		return
	}
	response.Success(c, gin.H{
		"gift_card":               card,
		"transactions":            txns,
		"transactions_pagination": buildPagination(page, pageSize, total),
	})
}

// CancelGiftCard 作废礼品卡
func (h *Handler) CancelGiftCard(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "gift card id invalid", nil)
		return
	}

	card, err := h.GiftCardService.CancelGiftCard(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGiftCardNotFound):
			respondError(c, response.CodeNotFound, "gift card not found", nil)
		case errors.Is(err, service.ErrGiftCardInactive):
			respondError(c, response.CodeConflict, "gift card is not cancellable", nil)
		default:
			respondError(c, response.CodeInternal, "gift card cancel failed", err)
		}
		return
	}
	response.Success(c, card)
}

// ExportGiftCards 导出礼品卡
func (h *Handler) ExportGiftCards(c *gin.Context) {
	var req ExportGiftCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}
	content, contentType, err := h.GiftCardService.ExportGiftCards(req.IDs, req.Format)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGiftCardNotFound):
			respondError(c, response.CodeNotFound, "gift card not found", nil)
		case errors.Is(err, service.ErrValidationFailed):
			respondError(c, response.CodeBadRequest, "export request invalid", nil)
		default:
			respondError(c, response.CodeInternal, "gift card export failed", err)
		}
		return
	}
	filename := fmt.Sprintf("gift_cards_%s.%s", time.Now().Format("20060102_150405"), strings.ToLower(strings.TrimSpace(req.Format)))
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, contentType, content)
}
