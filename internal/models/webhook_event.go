package models

import (
	"time"
)

// PaymentWebhookEvent 支付回调事件（(provider, provider_event_id) 唯一，约束即幂等边界）
type PaymentWebhookEvent struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                                                       // 主键
	Provider        string     `gorm:"type:varchar(64);uniqueIndex:idx_webhook_provider_event;not null" json:"provider"`           // 提供方标识
	ProviderEventID string     `gorm:"type:varchar(128);uniqueIndex:idx_webhook_provider_event;not null" json:"provider_event_id"` // 提供方事件ID
	EventType       string     `gorm:"type:varchar(64);index;not null" json:"event_type"`                                          // 事件类型
	Payload         JSON       `gorm:"type:text" json:"payload"`                                                                   // 原始事件报文
	ProcessedAt     *time.Time `gorm:"index" json:"processed_at"`                                                                  // 处理完成时间（失败保持为空）
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                                                    // 创建时间
}

// TableName 指定表名
func (PaymentWebhookEvent) TableName() string {
	return "payment_webhook_events"
}
