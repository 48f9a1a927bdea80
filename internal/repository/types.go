package repository

import (
	"time"

	"gorm.io/gorm"
)

// applyPagination 应用分页参数，统一处理非法页码与偏移量。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	return query.Limit(pageSize).Offset(offset)
}

// GiftCardListFilter 查询礼品卡列表的过滤条件
type GiftCardListFilter struct {
	Page        int
	PageSize    int
	Code        string
	Status      string
	Currency    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	ExpiresFrom *time.Time
	ExpiresTo   *time.Time
}

// GiftCardTxnListFilter 查询礼品卡流水的过滤条件
type GiftCardTxnListFilter struct {
	Page       int
	PageSize   int
	GiftCardID uint
	OrderID    string
	Type       string
}

// PromotionListFilter 查询优惠活动列表的过滤条件
type PromotionListFilter struct {
	Page       int
	PageSize   int
	Code       string
	RuleType   string
	Status     string
	OnlyActive bool
}

// LoyaltyTxnListFilter 查询积分流水的过滤条件
type LoyaltyTxnListFilter struct {
	Page      int
	PageSize  int
	AccountID uint
	OrderID   string
	Reason    string
}

// PaymentIntentListFilter 查询支付意向列表的过滤条件
type PaymentIntentListFilter struct {
	Page        int
	PageSize    int
	OrderID     string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// WebhookEventListFilter 查询回调事件的过滤条件
type WebhookEventListFilter struct {
	Page          int
	PageSize      int
	Provider      string
	EventType     string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	OnlyFailed    bool
}
