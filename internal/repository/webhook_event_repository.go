package repository

import (
	"errors"
	"time"

	"github.com/benefit-ledger/internal/models"

	"gorm.io/gorm"
)

// WebhookEventRepository 回调事件数据访问接口
type WebhookEventRepository interface {
	Create(event *models.PaymentWebhookEvent) error
	GetByID(id uint) (*models.PaymentWebhookEvent, error)
	GetByProviderEvent(provider, providerEventID string) (*models.PaymentWebhookEvent, error)
	MarkProcessed(id uint, processedAt time.Time) error
	List(filter WebhookEventListFilter) ([]models.PaymentWebhookEvent, int64, error)
	WithTx(tx *gorm.DB) *GormWebhookEventRepository
}

// GormWebhookEventRepository GORM 回调事件仓储实现
type GormWebhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository 创建回调事件仓储
func NewWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWebhookEventRepository) WithTx(tx *gorm.DB) *GormWebhookEventRepository {
	if tx == nil {
		return r
	}
	return &GormWebhookEventRepository{db: tx}
}

// Create 插入回调事件
// 唯一索引冲突会被翻译成 gorm.ErrDuplicatedKey，调用方据此去重
func (r *GormWebhookEventRepository) Create(event *models.PaymentWebhookEvent) error {
	return r.db.Create(event).Error
}

// GetByID 按ID获取回调事件
func (r *GormWebhookEventRepository) GetByID(id uint) (*models.PaymentWebhookEvent, error) {
	if id == 0 {
		return nil, nil
	}
	var event models.PaymentWebhookEvent
	if err := r.db.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// GetByProviderEvent 按渠道与渠道事件ID获取回调事件
func (r *GormWebhookEventRepository) GetByProviderEvent(provider, providerEventID string) (*models.PaymentWebhookEvent, error) {
	if provider == "" || providerEventID == "" {
		return nil, nil
	}
	var event models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", provider, providerEventID).
		First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// MarkProcessed 记录回调事件处理完成时间
func (r *GormWebhookEventRepository) MarkProcessed(id uint, processedAt time.Time) error {
	return r.db.Model(&models.PaymentWebhookEvent{}).
		Where("id = ?", id).
		Update("processed_at", processedAt).Error
}

// List 分页查询回调事件
func (r *GormWebhookEventRepository) List(filter WebhookEventListFilter) ([]models.PaymentWebhookEvent, int64, error) {
	query := r.db.Model(&models.PaymentWebhookEvent{})
	if filter.Provider != "" {
		query = query.Where("provider = ?", filter.Provider)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	if filter.OnlyFailed {
		query = query.Where("processed_at IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var events []models.PaymentWebhookEvent
	if err := query.Order("id desc").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
