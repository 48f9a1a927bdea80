package repository

import (
	"github.com/benefit-ledger/internal/models"

	"gorm.io/gorm"
)

// PromotionUsageRepository 优惠活动使用记录数据访问接口
type PromotionUsageRepository interface {
	Create(usage *models.PromotionUsage) error
	CountByPromotion(promotionID uint) (int64, error)
	ListByOrderID(orderID string) ([]models.PromotionUsage, error)
	ListByPromotion(promotionID uint, page, pageSize int) ([]models.PromotionUsage, int64, error)
	WithTx(tx *gorm.DB) *GormPromotionUsageRepository
}

// GormPromotionUsageRepository GORM 实现
type GormPromotionUsageRepository struct {
	db *gorm.DB
}

// NewPromotionUsageRepository 创建优惠活动使用记录仓库
func NewPromotionUsageRepository(db *gorm.DB) *GormPromotionUsageRepository {
	return &GormPromotionUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromotionUsageRepository) WithTx(tx *gorm.DB) *GormPromotionUsageRepository {
	if tx == nil {
		return r
	}
	return &GormPromotionUsageRepository{db: tx}
}

// Create 创建使用记录
func (r *GormPromotionUsageRepository) Create(usage *models.PromotionUsage) error {
	return r.db.Create(usage).Error
}

// CountByPromotion 统计活动使用次数（按行计数，不读缓存字段）
func (r *GormPromotionUsageRepository) CountByPromotion(promotionID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.PromotionUsage{}).
		Where("promotion_id = ?", promotionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListByOrderID 获取订单使用记录
func (r *GormPromotionUsageRepository) ListByOrderID(orderID string) ([]models.PromotionUsage, error) {
	if orderID == "" {
		return []models.PromotionUsage{}, nil
	}
	var usages []models.PromotionUsage
	if err := r.db.Where("order_id = ?", orderID).Find(&usages).Error; err != nil {
		return nil, err
	}
	return usages, nil
}

// ListByPromotion 分页查询活动使用记录
func (r *GormPromotionUsageRepository) ListByPromotion(promotionID uint, page, pageSize int) ([]models.PromotionUsage, int64, error) {
	query := r.db.Model(&models.PromotionUsage{}).Where("promotion_id = ?", promotionID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, page, pageSize)

	var usages []models.PromotionUsage
	if err := query.Order("id desc").Find(&usages).Error; err != nil {
		return nil, 0, err
	}
	return usages, total, nil
}
