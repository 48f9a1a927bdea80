package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/benefit-ledger/internal/models"

	"gorm.io/gorm"
)

// PromotionRepository 优惠活动数据访问接口
type PromotionRepository interface {
	Create(promotion *models.Promotion) error
	Update(promotion *models.Promotion) error
	Delete(id uint) error
	GetByID(id uint) (*models.Promotion, error)
	GetByCode(code string) (*models.Promotion, error)
	List(filter PromotionListFilter) ([]models.Promotion, int64, error)
	ListActive(now time.Time) ([]models.Promotion, error)
	WithTx(tx *gorm.DB) *GormPromotionRepository
}

// GormPromotionRepository GORM 优惠活动仓储实现
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewPromotionRepository 创建优惠活动仓储
func NewPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromotionRepository) WithTx(tx *gorm.DB) *GormPromotionRepository {
	if tx == nil {
		return r
	}
	return &GormPromotionRepository{db: tx}
}

// Create 创建优惠活动
func (r *GormPromotionRepository) Create(promotion *models.Promotion) error {
	return r.db.Create(promotion).Error
}

// Update 更新优惠活动
func (r *GormPromotionRepository) Update(promotion *models.Promotion) error {
	return r.db.Save(promotion).Error
}

// Delete 删除优惠活动
func (r *GormPromotionRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Promotion{}, id).Error
}

// GetByID 按ID获取优惠活动
func (r *GormPromotionRepository) GetByID(id uint) (*models.Promotion, error) {
	if id == 0 {
		return nil, nil
	}
	var promotion models.Promotion
	if err := r.db.First(&promotion, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promotion, nil
}

// GetByCode 按优惠码获取优惠活动
func (r *GormPromotionRepository) GetByCode(code string) (*models.Promotion, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var promotion models.Promotion
	if err := r.db.Where("code = ?", code).First(&promotion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promotion, nil
}

// List 分页查询优惠活动
func (r *GormPromotionRepository) List(filter PromotionListFilter) ([]models.Promotion, int64, error) {
	query := r.db.Model(&models.Promotion{})
	if filter.Code != "" {
		query = query.Where("code LIKE ?", "%"+filter.Code+"%")
	}
	if filter.RuleType != "" {
		query = query.Where("rule_type = ?", filter.RuleType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OnlyActive {
		query = query.Where("status = ?", models.PromotionStatusActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var promotions []models.Promotion
	if err := query.Order("id desc").Find(&promotions).Error; err != nil {
		return nil, 0, err
	}
	return promotions, total, nil
}

// ListActive 查询当前生效的优惠活动
func (r *GormPromotionRepository) ListActive(now time.Time) ([]models.Promotion, error) {
	var promotions []models.Promotion
	if err := r.db.Where("status = ?", models.PromotionStatusActive).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at >= ?", now).
		Order("id desc").
		Find(&promotions).Error; err != nil {
		return nil, err
	}
	return promotions, nil
}
