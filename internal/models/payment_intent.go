package models

import (
	"time"
)

const (
	PaymentIntentStatusCreated           = "created"
	PaymentIntentStatusRequiresAction    = "requires_action"
	PaymentIntentStatusAuthorized        = "authorized"
	PaymentIntentStatusCaptured          = "captured"
	PaymentIntentStatusPartiallyRefunded = "partially_refunded"
	PaymentIntentStatusRefunded          = "refunded"
	PaymentIntentStatusFailed            = "failed"
	PaymentIntentStatusCancelled         = "cancelled"
)

// PaymentIntent 支付意向（单笔结账的支付生命周期）
type PaymentIntent struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                            // 主键
	IntentNo       string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"intent_no"`          // 意向编号
	OrderID        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_id"`           // 订单ID（1:1）
	Amount         Money     `gorm:"type:decimal(20,2);not null" json:"amount"`                       // 支付金额
	RefundedAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"refunded_amount"`    // 已退款累计金额
	Currency       string    `gorm:"type:varchar(16);not null" json:"currency"`                       // 币种
	Status         string    `gorm:"type:varchar(32);index;not null;default:'created'" json:"status"` // 状态
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt      time.Time `gorm:"index" json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (PaymentIntent) TableName() string {
	return "payment_intents"
}
