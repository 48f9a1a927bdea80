package repository

import (
	"errors"
	"strings"

	"github.com/benefit-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoyaltyRepository 积分账户数据访问接口
type LoyaltyRepository interface {
	GetAccount(userID, programID string) (*models.LoyaltyAccount, error)
	GetAccountForUpdate(userID, programID string) (*models.LoyaltyAccount, error)
	GetAccountByID(id uint) (*models.LoyaltyAccount, error)
	CreateAccount(account *models.LoyaltyAccount) error
	UpdateAccount(account *models.LoyaltyAccount) error
	ListAccounts(page, pageSize int) ([]models.LoyaltyAccount, int64, error)
	CreateTransaction(txn *models.LoyaltyTransaction) error
	ListTransactions(filter LoyaltyTxnListFilter) ([]models.LoyaltyTransaction, int64, error)
	SumTransactionDeltas(accountID uint) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormLoyaltyRepository
}

// GormLoyaltyRepository GORM 积分仓储实现
type GormLoyaltyRepository struct {
	db *gorm.DB
}

// NewLoyaltyRepository 创建积分仓储
func NewLoyaltyRepository(db *gorm.DB) *GormLoyaltyRepository {
	return &GormLoyaltyRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLoyaltyRepository) WithTx(tx *gorm.DB) *GormLoyaltyRepository {
	if tx == nil {
		return r
	}
	return &GormLoyaltyRepository{db: tx}
}

// Transaction 在数据库事务内执行回调
func (r *GormLoyaltyRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetAccount 按用户与计划获取积分账户
func (r *GormLoyaltyRepository) GetAccount(userID, programID string) (*models.LoyaltyAccount, error) {
	userID = strings.TrimSpace(userID)
	programID = strings.TrimSpace(programID)
	if userID == "" || programID == "" {
		return nil, nil
	}
	var account models.LoyaltyAccount
	if err := r.db.Where("user_id = ? AND program_id = ?", userID, programID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountForUpdate 按用户与计划加锁获取积分账户
func (r *GormLoyaltyRepository) GetAccountForUpdate(userID, programID string) (*models.LoyaltyAccount, error) {
	userID = strings.TrimSpace(userID)
	programID = strings.TrimSpace(programID)
	if userID == "" || programID == "" {
		return nil, nil
	}
	var account models.LoyaltyAccount
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND program_id = ?", userID, programID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountByID 按ID获取积分账户
func (r *GormLoyaltyRepository) GetAccountByID(id uint) (*models.LoyaltyAccount, error) {
	if id == 0 {
		return nil, nil
	}
	var account models.LoyaltyAccount
	if err := r.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// CreateAccount 创建积分账户
func (r *GormLoyaltyRepository) CreateAccount(account *models.LoyaltyAccount) error {
	return r.db.Create(account).Error
}

// UpdateAccount 更新积分账户
func (r *GormLoyaltyRepository) UpdateAccount(account *models.LoyaltyAccount) error {
	return r.db.Save(account).Error
}

// ListAccounts 分页查询积分账户
func (r *GormLoyaltyRepository) ListAccounts(page, pageSize int) ([]models.LoyaltyAccount, int64, error) {
	query := r.db.Model(&models.LoyaltyAccount{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, page, pageSize)

	var accounts []models.LoyaltyAccount
	if err := query.Order("id desc").Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// CreateTransaction 追加积分流水
func (r *GormLoyaltyRepository) CreateTransaction(txn *models.LoyaltyTransaction) error {
	return r.db.Create(txn).Error
}

// ListTransactions 分页查询积分流水
func (r *GormLoyaltyRepository) ListTransactions(filter LoyaltyTxnListFilter) ([]models.LoyaltyTransaction, int64, error) {
	query := r.db.Model(&models.LoyaltyTransaction{})
	if filter.AccountID != 0 {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Reason != "" {
		query = query.Where("reason = ?", filter.Reason)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.LoyaltyTransaction
	if err := query.Order("id asc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// SumTransactionDeltas 汇总账户积分流水净变动
func (r *GormLoyaltyRepository) SumTransactionDeltas(accountID uint) (int64, error) {
	var sum int64
	if err := r.db.Model(&models.LoyaltyTransaction{}).
		Select("COALESCE(SUM(points_delta), 0)").
		Where("account_id = ?", accountID).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}
