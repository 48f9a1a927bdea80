package models

import (
	"time"
)

// GiftCardTransaction 礼品卡流水（只追加，不可变更）
type GiftCardTransaction struct {
	ID         uint      `gorm:"primarykey" json:"id"`                             // 主键
	GiftCardID uint      `gorm:"index;not null" json:"gift_card_id"`               // 所属礼品卡ID
	OrderID    string    `gorm:"type:varchar(64);index" json:"order_id,omitempty"` // 订单ID（发卡流水为空）
	Amount     Money     `gorm:"type:decimal(20,2);not null" json:"amount"`        // 发生金额
	Type       string    `gorm:"type:varchar(24);index;not null" json:"type"`      // 类型（issue/redeem/refund）
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                          // 创建时间
}

// TableName 指定表名
func (GiftCardTransaction) TableName() string {
	return "gift_card_transactions"
}
