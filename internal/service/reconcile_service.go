package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/benefit-ledger/internal/constants"
	"github.com/benefit-ledger/internal/logger"
	"github.com/benefit-ledger/internal/repository"
)

const reconcilePageSize = 200

// ReconcileService 台账对账服务：用流水重算余额并与缓存字段比对
type ReconcileService struct {
	giftCardRepo repository.GiftCardRepository
	loyaltyRepo  repository.LoyaltyRepository
}

// NewReconcileService 创建对账服务
func NewReconcileService(giftCardRepo repository.GiftCardRepository, loyaltyRepo repository.LoyaltyRepository) *ReconcileService {
	return &ReconcileService{
		giftCardRepo: giftCardRepo,
		loyaltyRepo:  loyaltyRepo,
	}
}

// DriftRecord 一条对账差异
type DriftRecord struct {
	Kind     string `json:"kind"`
	EntityID uint   `json:"entity_id"`
	Ref      string `json:"ref"`
	Stored   string `json:"stored"`
	Expected string `json:"expected"`
}

// ReconcileReport 对账结果
type ReconcileReport struct {
	Scope     string        `json:"scope"`
	Checked   int           `json:"checked"`
	Drifts    []DriftRecord `json:"drifts"`
	StartedAt time.Time     `json:"started_at"`
	Duration  string        `json:"duration"`
}

// Run 执行对账；scope 取 gift_card / loyalty / all
func (s *ReconcileService) Run(scope string) (*ReconcileReport, error) {
	if s == nil || s.giftCardRepo == nil || s.loyaltyRepo == nil {
		return nil, ErrReconcileFailed
	}
	scope = strings.TrimSpace(strings.ToLower(scope))
	if scope == "" {
		scope = constants.ReconcileScopeAll
	}
	switch scope {
	case constants.ReconcileScopeGiftCard, constants.ReconcileScopeLoyalty, constants.ReconcileScopeAll:
	default:
		return nil, ErrValidationFailed
	}

	started := time.Now()
	report := &ReconcileReport{
		Scope:     scope,
		Drifts:    []DriftRecord{},
		StartedAt: started,
	}

	if scope == constants.ReconcileScopeGiftCard || scope == constants.ReconcileScopeAll {
		if err := s.reconcileGiftCards(report); err != nil {
			return nil, err
		}
	}
	if scope == constants.ReconcileScopeLoyalty || scope == constants.ReconcileScopeAll {
		if err := s.reconcileLoyalty(report); err != nil {
			return nil, err
		}
	}

	report.Duration = time.Since(started).String()
	if len(report.Drifts) > 0 {
		logger.Warnw("ledger_reconcile_finished_with_drift",
			"scope", scope,
			"checked", report.Checked,
			"drifts", len(report.Drifts),
		)
	} else {
		logger.Infow("ledger_reconcile_finished",
			"scope", scope,
			"checked", report.Checked,
		)
	}
	return report, nil
}

// reconcileGiftCards 逐卡校验 initial + Σrefund − Σredeem == current_balance
func (s *ReconcileService) reconcileGiftCards(report *ReconcileReport) error {
	page := 1
	for {
		cards, _, err := s.giftCardRepo.List(repository.GiftCardListFilter{
			Page:     page,
			PageSize: reconcilePageSize,
		})
		if err != nil {
			return ErrReconcileFailed
		}
		if len(cards) == 0 {
			return nil
		}
		for _, card := range cards {
			_, redeemed, refunded, err := s.giftCardRepo.SumTransactions(card.ID)
			if err != nil {
				return ErrReconcileFailed
			}
			expected := card.InitialAmount.Decimal.Round(2).
				Add(refunded.Decimal.Round(2)).
				Sub(redeemed.Decimal.Round(2))
			stored := card.CurrentBalance.Decimal.Round(2)
			report.Checked++
			if !expected.Equal(stored) {
				logger.Errorw("ledger_drift_detected",
					"kind", constants.ReconcileScopeGiftCard,
					"gift_card_id", card.ID,
					"code", card.Code,
					"stored", stored.StringFixed(2),
					"expected", expected.StringFixed(2),
				)
				report.Drifts = append(report.Drifts, DriftRecord{
					Kind:     constants.ReconcileScopeGiftCard,
					EntityID: card.ID,
					Ref:      card.Code,
					Stored:   stored.StringFixed(2),
					Expected: expected.StringFixed(2),
				})
			}
		}
		if len(cards) < reconcilePageSize {
			return nil
		}
		page++
	}
}

// reconcileLoyalty 逐账户校验 Σdeltas == points_balance
func (s *ReconcileService) reconcileLoyalty(report *ReconcileReport) error {
	page := 1
	for {
		accounts, _, err := s.loyaltyRepo.ListAccounts(page, reconcilePageSize)
		if err != nil {
			return ErrReconcileFailed
		}
		if len(accounts) == 0 {
			return nil
		}
		for _, account := range accounts {
			expected, err := s.loyaltyRepo.SumTransactionDeltas(account.ID)
			if err != nil {
				return ErrReconcileFailed
			}
			report.Checked++
			if expected != account.PointsBalance {
				logger.Errorw("ledger_drift_detected",
					"kind", constants.ReconcileScopeLoyalty,
					"account_id", account.ID,
					"user_id", account.UserID,
					"program_id", account.ProgramID,
					"stored", account.PointsBalance,
					"expected", expected,
				)
				report.Drifts = append(report.Drifts, DriftRecord{
					Kind:     constants.ReconcileScopeLoyalty,
					EntityID: account.ID,
					Ref:      account.UserID + "/" + account.ProgramID,
					Stored:   formatInt64(account.PointsBalance),
					Expected: formatInt64(expected),
				})
			}
		}
		if len(accounts) < reconcilePageSize {
			return nil
		}
		page++
	}
}

func formatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}
