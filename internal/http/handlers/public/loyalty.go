package public

import (
	"strings"

	"github.com/benefit-ledger/internal/http/response"
	"github.com/benefit-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// AccrueLoyaltyRequest 积分累积请求
type AccrueLoyaltyRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	ProgramID string `json:"program_id" binding:"required"`
	Points    int64  `json:"points" binding:"required"`
	OrderID   string `json:"order_id"`
	Reason    string `json:"reason"`
}

// AccrueLoyalty 累积积分，账户按需创建
func (h *Handler) AccrueLoyalty(c *gin.Context) {
	var req AccrueLoyaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	account, txn, err := h.LoyaltyService.AccrueLoyalty(service.LoyaltyAccrueInput{
		UserID:    req.UserID,
		ProgramID: req.ProgramID,
		Points:    req.Points,
		OrderID:   req.OrderID,
		Reason:    req.Reason,
	})
	if err != nil {
		respondLoyaltyError(c, err)
		return
	}
	response.Success(c, gin.H{
		"account":     account,
		"transaction": txn,
	})
}

// RedeemLoyaltyRequest 积分核销请求
type RedeemLoyaltyRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	ProgramID string `json:"program_id" binding:"required"`
	Points    int64  `json:"points" binding:"required"`
	OrderID   string `json:"order_id"`
}

// RedeemLoyalty 核销积分，余额不足即拒绝
func (h *Handler) RedeemLoyalty(c *gin.Context) {
	var req RedeemLoyaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	account, txn, err := h.LoyaltyService.RedeemLoyalty(service.LoyaltyRedeemInput{
		UserID:    req.UserID,
		ProgramID: req.ProgramID,
		Points:    req.Points,
		OrderID:   req.OrderID,
	})
	if err != nil {
		respondLoyaltyError(c, err)
		return
	}
	response.Success(c, gin.H{
		"account":     account,
		"transaction": txn,
	})
}

// GetLoyaltyAccount 查询积分账户
func (h *Handler) GetLoyaltyAccount(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("user_id"))
	programID := strings.TrimSpace(c.Query("program_id"))
	if userID == "" || programID == "" {
		respondError(c, response.CodeBadRequest, "user_id and program_id required", nil)
		return
	}

	account, err := h.LoyaltyService.GetAccount(userID, programID)
	if err != nil {
		respondError(c, response.CodeInternal, "loyalty account fetch failed", err)
		return
	}
	if account == nil {
		respondError(c, response.CodeNotFound, "loyalty account not found", nil)
		return
	}
	response.Success(c, account)
}
