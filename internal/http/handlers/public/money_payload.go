package public

import (
	"strings"

	"github.com/benefit-ledger/internal/models"
	"github.com/benefit-ledger/internal/service"
)

// MoneyPayload 金额入参，amount 为十进制字符串，禁止浮点
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
