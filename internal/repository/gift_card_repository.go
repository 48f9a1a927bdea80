package repository

import (
	"errors"
	"strings"

	"github.com/benefit-ledger/internal/constants"
	"github.com/benefit-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GiftCardRepository 礼品卡数据访问接口
type GiftCardRepository interface {
	Create(card *models.GiftCard) error
	Update(card *models.GiftCard) error
	GetByID(id uint) (*models.GiftCard, error)
	GetByIDForUpdate(id uint) (*models.GiftCard, error)
	GetByCode(code string) (*models.GiftCard, error)
	List(filter GiftCardListFilter) ([]models.GiftCard, int64, error)
	ListByIDs(ids []uint) ([]models.GiftCard, error)
	CreateTransaction(txn *models.GiftCardTransaction) error
	ListTransactions(filter GiftCardTxnListFilter) ([]models.GiftCardTransaction, int64, error)
	SumTransactions(giftCardID uint) (issued, redeemed, refunded models.Money, err error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormGiftCardRepository
}

// GormGiftCardRepository GORM 礼品卡仓储实现
type GormGiftCardRepository struct {
	db *gorm.DB
}

// NewGiftCardRepository 创建礼品卡仓储
func NewGiftCardRepository(db *gorm.DB) *GormGiftCardRepository {
	return &GormGiftCardRepository{db: db}
}

// WithTx 绑定事务
func (r *GormGiftCardRepository) WithTx(tx *gorm.DB) *GormGiftCardRepository {
	if tx == nil {
		return r
	}
	return &GormGiftCardRepository{db: tx}
}

// Transaction 在数据库事务内执行回调
func (r *GormGiftCardRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建礼品卡
func (r *GormGiftCardRepository) Create(card *models.GiftCard) error {
	return r.db.Create(card).Error
}

// Update 更新礼品卡
func (r *GormGiftCardRepository) Update(card *models.GiftCard) error {
	return r.db.Save(card).Error
}

// GetByID 按ID获取礼品卡
func (r *GormGiftCardRepository) GetByID(id uint) (*models.GiftCard, error) {
	if id == 0 {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetByIDForUpdate 按ID加锁获取礼品卡
func (r *GormGiftCardRepository) GetByIDForUpdate(id uint) (*models.GiftCard, error) {
	if id == 0 {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetByCode 按卡密获取礼品卡
func (r *GormGiftCardRepository) GetByCode(code string) (*models.GiftCard, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.Where("code = ?", code).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// List 分页查询礼品卡
func (r *GormGiftCardRepository) List(filter GiftCardListFilter) ([]models.GiftCard, int64, error) {
	query := r.db.Model(&models.GiftCard{})
	if filter.Code != "" {
		query = query.Where("code LIKE ?", "%"+filter.Code+"%")
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Currency != "" {
		query = query.Where("currency = ?", filter.Currency)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	if filter.ExpiresFrom != nil {
		query = query.Where("expires_at >= ?", *filter.ExpiresFrom)
	}
	if filter.ExpiresTo != nil {
		query = query.Where("expires_at <= ?", *filter.ExpiresTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var cards []models.GiftCard
	if err := query.Order("id desc").Find(&cards).Error; err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// ListByIDs 按ID批量查询礼品卡
func (r *GormGiftCardRepository) ListByIDs(ids []uint) ([]models.GiftCard, error) {
	if len(ids) == 0 {
		return []models.GiftCard{}, nil
	}
	var cards []models.GiftCard
	if err := r.db.Where("id IN ?", ids).Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// CreateTransaction 追加礼品卡流水
func (r *GormGiftCardRepository) CreateTransaction(txn *models.GiftCardTransaction) error {
	return r.db.Create(txn).Error
}

// ListTransactions 分页查询礼品卡流水
func (r *GormGiftCardRepository) ListTransactions(filter GiftCardTxnListFilter) ([]models.GiftCardTransaction, int64, error) {
	query := r.db.Model(&models.GiftCardTransaction{})
	if filter.GiftCardID != 0 {
		query = query.Where("gift_card_id = ?", filter.GiftCardID)
	}
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.GiftCardTransaction
	if err := query.Order("id asc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// SumTransactions 按类型汇总礼品卡流水金额
func (r *GormGiftCardRepository) SumTransactions(giftCardID uint) (models.Money, models.Money, models.Money, error) {
	type row struct {
		Type  string
		Total models.Money
	}
	var rows []row
	if err := r.db.Model(&models.GiftCardTransaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("gift_card_id = ?", giftCardID).
		Group("type").
		Scan(&rows).Error; err != nil {
		return models.Money{}, models.Money{}, models.Money{}, err
	}
	var issued, redeemed, refunded models.Money
	for _, item := range rows {
		switch item.Type {
		case constants.GiftCardTxnTypeIssue:
			issued = item.Total
		case constants.GiftCardTxnTypeRedeem:
			redeemed = item.Total
		case constants.GiftCardTxnTypeRefund:
			refunded = item.Total
		}
	}
	return issued, redeemed, refunded, nil
}
