package models

import (
	"time"
)

// LoyaltyAccount 积分账户（按用户与计划唯一）
type LoyaltyAccount struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                                             // 主键
	UserID        string    `gorm:"type:varchar(64);uniqueIndex:idx_loyalty_user_program;not null" json:"user_id"`    // 用户ID
	ProgramID     string    `gorm:"type:varchar(64);uniqueIndex:idx_loyalty_user_program;not null" json:"program_id"` // 积分计划ID
	PointsBalance int64     `gorm:"not null;default:0" json:"points_balance"`                                         // 积分余额
	Tier          string    `gorm:"type:varchar(32)" json:"tier,omitempty"`                                           // 会员等级
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                                          // 创建时间
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`                                                          // 更新时间
}

// TableName 指定表名
func (LoyaltyAccount) TableName() string {
	return "loyalty_accounts"
}
