package public

import (
	"errors"

	"github.com/benefit-ledger/internal/http/response"
	"github.com/benefit-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var giftCardCommonErrorRules = []mappedHandlerError{
	{target: service.ErrValidationFailed, code: response.CodeBadRequest, msg: "gift card request invalid"},
	{target: service.ErrGiftCardNotFound, code: response.CodeNotFound, msg: "gift card not found"},
	{target: service.ErrGiftCardInactive, code: response.CodeUnprocessable, msg: "gift card is not active"},
	{target: service.ErrGiftCardExpired, code: response.CodeUnprocessable, msg: "gift card has expired"},
	{target: service.ErrCurrencyMismatch, code: response.CodeUnprocessable, msg: "currency does not match gift card"},
}

var giftCardRedeemExtraErrorRules = []mappedHandlerError{
	{target: service.ErrGiftCardInsufficientBalance, code: response.CodeUnprocessable, msg: "gift card balance insufficient"},
}

var loyaltyErrorRules = []mappedHandlerError{
	{target: service.ErrValidationFailed, code: response.CodeBadRequest, msg: "loyalty request invalid"},
	{target: service.ErrLoyaltyAccountNotFound, code: response.CodeNotFound, msg: "loyalty account not found"},
	{target: service.ErrLoyaltyInsufficientPoints, code: response.CodeUnprocessable, msg: "loyalty points insufficient"},
}

var promotionUsageErrorRules = []mappedHandlerError{
	{target: service.ErrValidationFailed, code: response.CodeBadRequest, msg: "promotion usage request invalid"},
	{target: service.ErrPromotionNotFound, code: response.CodeNotFound, msg: "promotion not found"},
}

var paymentIntentErrorRules = []mappedHandlerError{
	{target: service.ErrValidationFailed, code: response.CodeBadRequest, msg: "payment intent request invalid"},
	{target: service.ErrPaymentIntentNotFound, code: response.CodeNotFound, msg: "payment intent not found"},
	{target: service.ErrPaymentIntentExists, code: response.CodeConflict, msg: "order already has a payment intent"},
	{target: service.ErrCurrencyMismatch, code: response.CodeUnprocessable, msg: "currency does not match payment intent"},
	{target: service.ErrInvalidStateTransition, code: response.CodeConflict, msg: "transition not allowed from current status"},
}

var webhookIngestErrorRules = []mappedHandlerError{
	{target: service.ErrWebhookEventInvalid, code: response.CodeBadRequest, msg: "webhook event invalid"},
	{target: service.ErrPaymentIntentNotFound, code: response.CodeNotFound, msg: "payment intent not found"},
	{target: service.ErrInvalidStateTransition, code: response.CodeConflict, msg: "transition not allowed from current status"},
	{target: service.ErrCurrencyMismatch, code: response.CodeUnprocessable, msg: "currency does not match payment intent"},
}

func respondGiftCardRedeemError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(giftCardCommonErrorRules, giftCardRedeemExtraErrorRules), response.CodeInternal, "gift card redeem failed")
}

func respondGiftCardRefundError(c *gin.Context, err error) {
	respondWithMappedError(c, err, giftCardCommonErrorRules, response.CodeInternal, "gift card refund failed")
}

func respondLoyaltyError(c *gin.Context, err error) {
	respondWithMappedError(c, err, loyaltyErrorRules, response.CodeInternal, "loyalty operation failed")
}

func respondPaymentIntentError(c *gin.Context, err error) {
	respondWithMappedError(c, err, paymentIntentErrorRules, response.CodeInternal, "payment intent operation failed")
}

func respondWebhookIngestError(c *gin.Context, err error) {
	respondWithMappedError(c, err, webhookIngestErrorRules, response.CodeInternal, "webhook ingestion failed")
}
