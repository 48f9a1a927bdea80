package constants

// 礼品卡流水类型常量
const (
	GiftCardTxnTypeIssue  = "issue"
	GiftCardTxnTypeRedeem = "redeem"
	GiftCardTxnTypeRefund = "refund"
)

// 优惠活动规则类型常量
const (
	PromotionRulePercentage   = "percentage"
	PromotionRuleFixedAmount  = "fixed_amount"
	PromotionRuleFreeShipping = "free_shipping"
)

// 积分流水事由常量
const (
	LoyaltyReasonOrderAccrual = "order_accrual"
	LoyaltyReasonRedemption   = "redemption"
	LoyaltyReasonAdjustment   = "adjustment"
)

// 支付结算流水类型常量
const (
	PaymentTxnTypeAuthorize = "authorize"
	PaymentTxnTypeCapture   = "capture"
	PaymentTxnTypeRefund    = "refund"
	PaymentTxnTypeVoid      = "void"
)

// 支付回调事件类型常量
const (
	WebhookEventAuthorizeSucceeded = "authorize.succeeded"
	WebhookEventAuthorizeFailed    = "authorize.failed"
	WebhookEventRequiresAction     = "authorize.requires_action"
	WebhookEventCaptureSucceeded   = "capture.succeeded"
	WebhookEventCaptureFailed      = "capture.failed"
	WebhookEventRefundSucceeded    = "refund.succeeded"
	WebhookEventVoidSucceeded      = "void.succeeded"
)

// 队列常量
const (
	QueueDefault        = "default"
	TaskLedgerReconcile = "ledger:reconcile"
)

// 对账范围常量
const (
	ReconcileScopeGiftCard = "gift_card"
	ReconcileScopeLoyalty  = "loyalty"
	ReconcileScopeAll      = "all"
)

// 默认币种
const (
	DefaultCurrency = "USD"
)
