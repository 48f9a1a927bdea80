package service

import (
	"errors"

	"gorm.io/gorm"
)

// 礼品卡错误
var (
	ErrGiftCardNotFound            = errors.New("gift card not found")
	ErrGiftCardDuplicateCode       = errors.New("gift card code already exists")
	ErrGiftCardInactive            = errors.New("gift card is not active")
	ErrGiftCardExpired             = errors.New("gift card has expired")
	ErrGiftCardInsufficientBalance = errors.New("gift card balance is insufficient")
	ErrGiftCardInvalid             = errors.New("gift card request is invalid")
	ErrGiftCardFetchFailed         = errors.New("failed to fetch gift card")
	ErrGiftCardCreateFailed        = errors.New("failed to create gift card")
	ErrGiftCardUpdateFailed        = errors.New("failed to update gift card")
)

// 优惠活动错误
var (
	ErrPromotionNotFound          = errors.New("promotion not found")
	ErrPromotionNotCurrentlyValid = errors.New("promotion is not currently valid")
	ErrPromotionUsageLimitReached = errors.New("promotion usage limit reached")
	ErrPromotionNotApplicable     = errors.New("promotion does not apply to this order")
	ErrPromotionInvalid           = errors.New("promotion request is invalid")
	ErrPromotionFetchFailed       = errors.New("failed to fetch promotion")
	ErrPromotionCreateFailed      = errors.New("failed to create promotion")
	ErrPromotionUpdateFailed      = errors.New("failed to update promotion")
	ErrPromotionDeleteFailed      = errors.New("failed to delete promotion")
)

// 积分账户错误
var (
	ErrLoyaltyAccountNotFound    = errors.New("loyalty account not found")
	ErrLoyaltyInsufficientPoints = errors.New("loyalty points balance is insufficient")
	ErrLoyaltyInvalid            = errors.New("loyalty request is invalid")
	ErrLoyaltyAccountFetchFailed = errors.New("failed to fetch loyalty account")
	ErrLoyaltyTransactionFailed  = errors.New("failed to write loyalty transaction")
)

// 支付意向错误
var (
	ErrPaymentIntentNotFound     = errors.New("payment intent not found")
	ErrPaymentIntentExists       = errors.New("payment intent already exists for order")
	ErrInvalidStateTransition    = errors.New("invalid payment state transition")
	ErrPaymentIntentInvalid      = errors.New("payment intent request is invalid")
	ErrPaymentIntentFetchFailed  = errors.New("failed to fetch payment intent")
	ErrPaymentIntentCreateFailed = errors.New("failed to create payment intent")
	ErrPaymentIntentUpdateFailed = errors.New("failed to update payment intent")
)

// 回调事件错误
var (
	ErrWebhookEventInvalid     = errors.New("webhook event request is invalid")
	ErrWebhookEventFetchFailed = errors.New("failed to fetch webhook events")
	ErrWebhookIngestFailed     = errors.New("failed to ingest webhook event")
)

// 通用错误
var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrValidationFailed = errors.New("validation failed")
	ErrReconcileFailed  = errors.New("failed to run ledger reconciliation")
)

// isDuplicateKeyError 判断唯一索引冲突（依赖 gorm TranslateError）
func isDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
