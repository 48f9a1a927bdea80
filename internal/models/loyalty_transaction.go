package models

import (
	"time"
)

// LoyaltyTransaction 积分流水（只追加，带符号增减）
type LoyaltyTransaction struct {
	ID          uint      `gorm:"primarykey" json:"id"`                             // 主键
	AccountID   uint      `gorm:"index;not null" json:"account_id"`                 // 积分账户ID
	OrderID     string    `gorm:"type:varchar(64);index" json:"order_id,omitempty"` // 订单ID
	PointsDelta int64     `gorm:"not null" json:"points_delta"`                     // 积分变动（正为累积，负为核销）
	Reason      string    `gorm:"type:varchar(64);not null" json:"reason"`          // 事由
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                          // 创建时间
}

// TableName 指定表名
func (LoyaltyTransaction) TableName() string {
	return "loyalty_transactions"
}
