package models

import (
	"time"
)

const (
	GiftCardStatusActive    = "active"
	GiftCardStatusDepleted  = "depleted"
	GiftCardStatusExpired   = "expired"
	GiftCardStatusCancelled = "cancelled"
)

// GiftCard 礼品卡（带余额的储值凭证）
type GiftCard struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                           // 主键
	Code           string     `gorm:"type:varchar(80);uniqueIndex;not null" json:"code"`              // 卡密
	InitialAmount  Money      `gorm:"type:decimal(20,2);not null" json:"initial_amount"`              // 初始面额
	CurrentBalance Money      `gorm:"type:decimal(20,2);not null" json:"current_balance"`             // 当前余额
	Currency       string     `gorm:"type:varchar(16);not null;default:'USD'" json:"currency"`        // 币种
	Status         string     `gorm:"type:varchar(24);index;not null;default:'active'" json:"status"` // 状态
	ExpiresAt      *time.Time `gorm:"index" json:"expires_at"`                                        // 过期时间
	RecipientEmail string     `gorm:"type:varchar(190)" json:"recipient_email,omitempty"`             // 收卡人邮箱
	RecipientName  string     `gorm:"type:varchar(120)" json:"recipient_name,omitempty"`              // 收卡人姓名
	Message        string     `gorm:"type:text" json:"message,omitempty"`                             // 赠言
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt      time.Time  `gorm:"index" json:"updated_at"`                                        // 更新时间
}

// TableName 指定表名
func (GiftCard) TableName() string {
	return "gift_cards"
}
