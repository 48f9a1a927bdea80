package admin

import (
	"strings"

	"github.com/benefit-ledger/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetLoyaltyAccount 积分账户详情与流水
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

	page, pageSize := parsePagination(c)
	txns, total, err := h.LoyaltyService.ListTransactions(account.ID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "loyalty transactions fetch failed", err)
		return
	}
	response.Success(c, gin.H{
		"account":                 account,
		"transactions":            txns,
		"transactions_pagination": buildPagination(page, pageSize, total),
	})
}
