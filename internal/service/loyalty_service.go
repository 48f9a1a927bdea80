package service

import (
	"strings"
	"time"

	"github.com/benefit-ledger/internal/constants"
	"github.com/benefit-ledger/internal/models"
	"github.com/benefit-ledger/internal/repository"

	"gorm.io/gorm"
)

// LoyaltyService 积分台账服务
type LoyaltyService struct {
	repo repository.LoyaltyRepository
}

// NewLoyaltyService 创建积分服务
func NewLoyaltyService(repo repository.LoyaltyRepository) *LoyaltyService {
	return &LoyaltyService{repo: repo}
}

// LoyaltyAccrueInput 积分累积输入
type LoyaltyAccrueInput struct {
	UserID    string
	ProgramID string
	Points    int64
	OrderID   string
	Reason    string
}

// LoyaltyRedeemInput 积分核销输入
type LoyaltyRedeemInput struct {
	UserID    string
	ProgramID string
	Points    int64
	OrderID   string
}

// AccrueLoyalty 累积积分，账户首次使用时自动创建
func (s *LoyaltyService) AccrueLoyalty(input LoyaltyAccrueInput) (*models.LoyaltyAccount, *models.LoyaltyTransaction, error) {
	if s == nil || s.repo == nil {
		return nil, nil, ErrLoyaltyAccountFetchFailed
	}
	userID := strings.TrimSpace(input.UserID)
	programID := strings.TrimSpace(input.ProgramID)
	if userID == "" || programID == "" || input.Points <= 0 {
		return nil, nil, ErrValidationFailed
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = constants.LoyaltyReasonOrderAccrual
	}

	var (
		resultAccount *models.LoyaltyAccount
		resultTxn     *models.LoyaltyTransaction
	)
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		account, err := s.ensureAccountForUpdate(repo, userID, programID)
		if err != nil {
			return err
		}

		now := time.Now()
		account.PointsBalance += input.Points
		account.UpdatedAt = now
		if err := repo.UpdateAccount(account); err != nil {
			return ErrLoyaltyTransactionFailed
		}
		txn := &models.LoyaltyTransaction{
			AccountID:   account.ID,
			OrderID:     strings.TrimSpace(input.OrderID),
			PointsDelta: input.Points,
			Reason:      reason,
			CreatedAt:   now,
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return ErrLoyaltyTransactionFailed
		}
		resultAccount = account
		resultTxn = txn
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return resultAccount, resultTxn, nil
}

// RedeemLoyalty 核销积分，余额不足返回 InsufficientPoints
func (s *LoyaltyService) RedeemLoyalty(input LoyaltyRedeemInput) (*models.LoyaltyAccount, *models.LoyaltyTransaction, error) {
	if s == nil || s.repo == nil {
		return nil, nil, ErrLoyaltyAccountFetchFailed
	}
	userID := strings.TrimSpace(input.UserID)
	programID := strings.TrimSpace(input.ProgramID)
	if userID == "" || programID == "" || input.Points <= 0 {
		return nil, nil, ErrValidationFailed
	}

	var (
		resultAccount *models.LoyaltyAccount
		resultTxn     *models.LoyaltyTransaction
	)
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		account, err := repo.GetAccountForUpdate(userID, programID)
		if err != nil {
			return ErrLoyaltyAccountFetchFailed
		}
		if account == nil {
			return ErrLoyaltyAccountNotFound
		}
		if input.Points > account.PointsBalance {
			return ErrLoyaltyInsufficientPoints
		}

		now := time.Now()
		account.PointsBalance -= input.Points
		account.UpdatedAt = now
		if err := repo.UpdateAccount(account); err != nil {
			return ErrLoyaltyTransactionFailed
		}
		txn := &models.LoyaltyTransaction{
			AccountID:   account.ID,
			OrderID:     strings.TrimSpace(input.OrderID),
			PointsDelta: -input.Points,
			Reason:      constants.LoyaltyReasonRedemption,
			CreatedAt:   now,
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return ErrLoyaltyTransactionFailed
		}
		resultAccount = account
		resultTxn = txn
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return resultAccount, resultTxn, nil
}

// GetAccount 查询积分账户，未找到返回 nil
func (s *LoyaltyService) GetAccount(userID, programID string) (*models.LoyaltyAccount, error) {
	if s == nil || s.repo == nil {
		return nil, ErrLoyaltyAccountFetchFailed
	}
	userID = strings.TrimSpace(userID)
	programID = strings.TrimSpace(programID)
	if userID == "" || programID == "" {
		return nil, ErrValidationFailed
	}
	account, err := s.repo.GetAccount(userID, programID)
	if err != nil {
		return nil, ErrLoyaltyAccountFetchFailed
	}
	return account, nil
}

// ListTransactions 查询积分流水
func (s *LoyaltyService) ListTransactions(accountID uint, page, pageSize int) ([]models.LoyaltyTransaction, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrLoyaltyAccountFetchFailed
	}
	if accountID == 0 {
		return nil, 0, ErrValidationFailed
	}
	txns, total, err := s.repo.ListTransactions(repository.LoyaltyTxnListFilter{
		AccountID: accountID,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return nil, 0, ErrLoyaltyAccountFetchFailed
	}
	return txns, total, nil
}

// ensureAccountForUpdate 加锁获取账户，不存在则创建；并发创建撞唯一索引后重读
func (s *LoyaltyService) ensureAccountForUpdate(repo *repository.GormLoyaltyRepository, userID, programID string) (*models.LoyaltyAccount, error) {
	account, err := repo.GetAccountForUpdate(userID, programID)
	if err != nil {
		return nil, ErrLoyaltyAccountFetchFailed
	}
	if account != nil {
		return account, nil
	}

	now := time.Now()
	created := &models.LoyaltyAccount{
		UserID:        userID,
		ProgramID:     programID,
		PointsBalance: 0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.CreateAccount(created); err != nil {
		if isDuplicateKeyError(err) {
			account, err = repo.GetAccountForUpdate(userID, programID)
			if err != nil || account == nil {
				return nil, ErrLoyaltyAccountFetchFailed
			}
			return account, nil
		}
		return nil, ErrLoyaltyTransactionFailed
	}
	return created, nil
}
