package models

import (
	"time"
)

const (
	PromotionStatusActive   = "active"
	PromotionStatusInactive = "inactive"
)

// Promotion 优惠活动及其折扣规则
type Promotion struct {
	ID                   uint        `gorm:"primarykey" json:"id"`                                           // 主键
	Code                 *string     `gorm:"type:varchar(80);uniqueIndex" json:"code,omitempty"`             // 优惠码（自动活动为空）
	Name                 string      `gorm:"type:varchar(120);not null" json:"name"`                         // 名称
	RuleType             string      `gorm:"type:varchar(32);not null" json:"rule_type"`                     // 规则类型（percentage/fixed_amount/free_shipping）
	Value                Money       `gorm:"type:decimal(20,2);not null" json:"value"`                       // 数值（百分比或固定金额）
	MaxDiscount          Money       `gorm:"type:decimal(20,2);not null;default:0" json:"max_discount"`      // 最大优惠金额（0 表示不限制）
	MinPurchase          Money       `gorm:"type:decimal(20,2);not null;default:0" json:"min_purchase"`      // 使用门槛（0 表示不限制）
	ApplicableProducts   StringArray `gorm:"type:text" json:"applicable_products,omitempty"`                 // 适用商品ID集合（空表示不限制）
	ApplicableCategories StringArray `gorm:"type:text" json:"applicable_categories,omitempty"`               // 适用分类ID集合（空表示不限制）
	StartsAt             *time.Time  `gorm:"index" json:"starts_at"`                                         // 生效时间
	EndsAt               *time.Time  `gorm:"index" json:"ends_at"`                                           // 失效时间
	UsageLimit           int         `gorm:"not null;default:0" json:"usage_limit"`                          // 总使用上限（0 表示不限制）
	Status               string      `gorm:"type:varchar(24);index;not null;default:'active'" json:"status"` // 状态
	CreatedAt            time.Time   `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt            time.Time   `gorm:"index" json:"updated_at"`                                        // 更新时间
}

// TableName 指定表名
func (Promotion) TableName() string {
	return "promotions"
}
