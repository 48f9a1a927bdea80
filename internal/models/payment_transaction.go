package models

import (
	"time"
)

// PaymentTransaction 支付结算流水（每次与提供方交互追加一条）
type PaymentTransaction struct {
	ID          uint      `gorm:"primarykey" json:"id"`                        // 主键
	IntentID    uint      `gorm:"index;not null" json:"intent_id"`             // 支付意向ID
	Amount      Money     `gorm:"type:decimal(20,2);not null" json:"amount"`   // 发生金额
	Type        string    `gorm:"type:varchar(24);index;not null" json:"type"` // 类型（authorize/capture/refund/void）
	ProviderRef string    `gorm:"type:varchar(128);index" json:"provider_ref"` // 第三方流水号
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                     // 创建时间
}

// TableName 指定表名
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
