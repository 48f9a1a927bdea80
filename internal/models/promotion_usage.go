package models

import (
	"time"
)

// PromotionUsage 优惠活动使用记录（只追加；行数即权威使用次数）
type PromotionUsage struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	PromotionID    uint      `gorm:"index;not null" json:"promotion_id"`                           // 优惠活动ID
	OrderID        string    `gorm:"type:varchar(64);index;not null" json:"order_id"`              // 订单ID
	DiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
}

// TableName 指定表名
func (PromotionUsage) TableName() string {
	return "promotion_usages"
}
