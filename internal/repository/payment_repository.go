package repository

import (
	"errors"
	"strings"

	"github.com/benefit-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository 支付意向数据访问接口
type PaymentRepository interface {
	CreateIntent(intent *models.PaymentIntent) error
	UpdateIntent(intent *models.PaymentIntent) error
	GetIntentByID(id uint) (*models.PaymentIntent, error)
	GetIntentByIntentNo(intentNo string) (*models.PaymentIntent, error)
	GetIntentByIntentNoForUpdate(intentNo string) (*models.PaymentIntent, error)
	GetIntentByOrderID(orderID string) (*models.PaymentIntent, error)
	ListIntents(filter PaymentIntentListFilter) ([]models.PaymentIntent, int64, error)
	CreateTransaction(txn *models.PaymentTransaction) error
	ListTransactionsByIntent(intentID uint) ([]models.PaymentTransaction, error)
	CountTransactions(intentID uint, txnType string) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository GORM 支付仓储实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓储
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Transaction 在数据库事务内执行回调
func (r *GormPaymentRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// CreateIntent 创建支付意向
func (r *GormPaymentRepository) CreateIntent(intent *models.PaymentIntent) error {
	return r.db.Create(intent).Error
}

// UpdateIntent 更新支付意向
func (r *GormPaymentRepository) UpdateIntent(intent *models.PaymentIntent) error {
	return r.db.Save(intent).Error
}

// GetIntentByID 按ID获取支付意向
func (r *GormPaymentRepository) GetIntentByID(id uint) (*models.PaymentIntent, error) {
	if id == 0 {
		return nil, nil
	}
	var intent models.PaymentIntent
	if err := r.db.First(&intent, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

// GetIntentByIntentNo 按意向编号获取支付意向
func (r *GormPaymentRepository) GetIntentByIntentNo(intentNo string) (*models.PaymentIntent, error) {
	intentNo = strings.TrimSpace(intentNo)
	if intentNo == "" {
		return nil, nil
	}
	var intent models.PaymentIntent
	if err := r.db.Where("intent_no = ?", intentNo).First(&intent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

// GetIntentByIntentNoForUpdate 按意向编号加锁获取支付意向
func (r *GormPaymentRepository) GetIntentByIntentNoForUpdate(intentNo string) (*models.PaymentIntent, error) {
	intentNo = strings.TrimSpace(intentNo)
	if intentNo == "" {
		return nil, nil
	}
	var intent models.PaymentIntent
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("intent_no = ?", intentNo).
		First(&intent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

// GetIntentByOrderID 按订单ID获取支付意向
func (r *GormPaymentRepository) GetIntentByOrderID(orderID string) (*models.PaymentIntent, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, nil
	}
	var intent models.PaymentIntent
	if err := r.db.Where("order_id = ?", orderID).First(&intent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

// ListIntents 分页查询支付意向
func (r *GormPaymentRepository) ListIntents(filter PaymentIntentListFilter) ([]models.PaymentIntent, int64, error) {
	query := r.db.Model(&models.PaymentIntent{})
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var intents []models.PaymentIntent
	if err := query.Order("id desc").Find(&intents).Error; err != nil {
		return nil, 0, err
	}
	return intents, total, nil
}

// CreateTransaction 追加支付结算流水
func (r *GormPaymentRepository) CreateTransaction(txn *models.PaymentTransaction) error {
	return r.db.Create(txn).Error
}

// ListTransactionsByIntent 查询支付意向的结算流水
func (r *GormPaymentRepository) ListTransactionsByIntent(intentID uint) ([]models.PaymentTransaction, error) {
	if intentID == 0 {
		return []models.PaymentTransaction{}, nil
	}
	var txns []models.PaymentTransaction
	if err := r.db.Where("intent_id = ?", intentID).Order("id asc").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// CountTransactions 统计支付意向的结算流水条数
func (r *GormPaymentRepository) CountTransactions(intentID uint, txnType string) (int64, error) {
	query := r.db.Model(&models.PaymentTransaction{}).Where("intent_id = ?", intentID)
	if txnType != "" {
		query = query.Where("type = ?", txnType)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
