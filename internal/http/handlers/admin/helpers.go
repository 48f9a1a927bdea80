package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/benefit-ledger/internal/http/handlers/shared"
	"github.com/benefit-ledger/internal/http/response"
	"github.com/benefit-ledger/internal/models"
	"github.com/benefit-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}

func parsePagination(c *gin.Context) (int, int) {
	return handlershared.ParsePagination(c)
}

func buildPagination(page, pageSize int, total int64) response.Pagination {
	return response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}

func parsePathUint(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, false
	}
	return uint(parsed), true
}

// parseTimeNullable 接受 RFC3339 或 2006-01-02，空串返回 nil
func parseTimeNullable(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// MoneyPayload 金额入参，amount 为十进制字符串
type MoneyPayload struct {
	Amount   string `json:"amount" binding:"required"`
	Currency string `json:"currency"`
}

func (p MoneyPayload) toMoney() (models.Money, string, error) {
	money, err := models.NewMoneyFromString(strings.TrimSpace(p.Amount))
	if err != nil {
		return models.Money{}, "", service.ErrValidationFailed
	}
	return money, models.NormalizeCurrency(p.Currency), nil
}
