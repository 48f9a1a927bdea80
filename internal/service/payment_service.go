package service

import (
	"strings"
	"time"

	"github.com/benefit-ledger/internal/constants"
	"github.com/benefit-ledger/internal/models"
	"github.com/benefit-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentService 支付意向状态机服务
type PaymentService struct {
	repo repository.PaymentRepository
}

// NewPaymentService 创建支付服务
func NewPaymentService(repo repository.PaymentRepository) *PaymentService {
	return &PaymentService{repo: repo}
}

// CreateIntentInput 创建支付意向输入
type CreateIntentInput struct {
	OrderID  string
	Amount   models.Money
	Currency string
}

// TransitionInput 状态迁移输入（来自回调或管理操作）
type TransitionInput struct {
	IntentNo    string
	Event       string
	Amount      models.Money
	Currency    string
	ProviderRef string
}

// 事件到状态机迁移的映射：当前状态允许的事件及目标状态
// 刷新退款目标由累计退款金额决定，见 applyRefund
var paymentTransitions = map[string]map[string]string{
	models.PaymentIntentStatusCreated: {
		constants.WebhookEventAuthorizeSucceeded: models.PaymentIntentStatusAuthorized,
		constants.WebhookEventRequiresAction:     models.PaymentIntentStatusRequiresAction,
		constants.WebhookEventAuthorizeFailed:    models.PaymentIntentStatusFailed,
	},
	models.PaymentIntentStatusRequiresAction: {
		constants.WebhookEventAuthorizeSucceeded: models.PaymentIntentStatusAuthorized,
		constants.WebhookEventAuthorizeFailed:    models.PaymentIntentStatusFailed,
	},
	models.PaymentIntentStatusAuthorized: {
		constants.WebhookEventCaptureSucceeded: models.PaymentIntentStatusCaptured,
		constants.WebhookEventCaptureFailed:    models.PaymentIntentStatusFailed,
		constants.WebhookEventVoidSucceeded:    models.PaymentIntentStatusCancelled,
	},
	models.PaymentIntentStatusCaptured: {
		constants.WebhookEventRefundSucceeded: models.PaymentIntentStatusRefunded,
		constants.WebhookEventVoidSucceeded:   models.PaymentIntentStatusCancelled,
	},
	models.PaymentIntentStatusPartiallyRefunded: {
		constants.WebhookEventRefundSucceeded: models.PaymentIntentStatusRefunded,
	},
}

// 事件对应的结算流水类型
var paymentEventTxnTypes = map[string]string{
	constants.WebhookEventAuthorizeSucceeded: constants.PaymentTxnTypeAuthorize,
	constants.WebhookEventAuthorizeFailed:    constants.PaymentTxnTypeAuthorize,
	constants.WebhookEventRequiresAction:     constants.PaymentTxnTypeAuthorize,
	constants.WebhookEventCaptureSucceeded:   constants.PaymentTxnTypeCapture,
	constants.WebhookEventCaptureFailed:      constants.PaymentTxnTypeCapture,
	constants.WebhookEventRefundSucceeded:    constants.PaymentTxnTypeRefund,
	constants.WebhookEventVoidSucceeded:      constants.PaymentTxnTypeVoid,
}

// CreateIntent 创建支付意向，订单与意向 1:1
func (s *PaymentService) CreateIntent(input CreateIntentInput) (*models.PaymentIntent, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPaymentIntentCreateFailed
	}
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		return nil, ErrValidationFailed
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrValidationFailed
	}
	currency := models.NormalizeCurrency(input.Currency)
	if currency == "" {
		currency = constants.DefaultCurrency
	}

	existing, err := s.repo.GetIntentByOrderID(orderID)
	if err != nil {
		return nil, ErrPaymentIntentFetchFailed
	}
	if existing != nil {
		return nil, ErrPaymentIntentExists
	}

	now := time.Now()
	intent := &models.PaymentIntent{
		IntentNo:       generateIntentNo(),
		OrderID:        orderID,
		Amount:         models.NewMoneyFromDecimal(amount),
		RefundedAmount: models.NewMoneyFromDecimal(decimal.Zero),
		Currency:       currency,
		Status:         models.PaymentIntentStatusCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateIntent(intent); err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrPaymentIntentExists
		}
		return nil, ErrPaymentIntentCreateFailed
	}
	return intent, nil
}

// CancelIntent 取消支付意向（仅 authorized/captured 可取消）
func (s *PaymentService) CancelIntent(intentNo string) (*models.PaymentIntent, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPaymentIntentFetchFailed
	}
	intentNo = strings.TrimSpace(intentNo)
	if intentNo == "" {
		return nil, ErrValidationFailed
	}
	return s.ApplyTransition(TransitionInput{
		IntentNo: intentNo,
		Event:    constants.WebhookEventVoidSucceeded,
	})
}

// ApplyTransition 施加一次状态迁移：锁意向行、校验币种与迁移表、更新状态并
// 在同一事务追加一条结算流水；币种不符或非法迁移不落任何写入
func (s *PaymentService) ApplyTransition(input TransitionInput) (*models.PaymentIntent, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPaymentIntentFetchFailed
	}
	intentNo := strings.TrimSpace(input.IntentNo)
	event := strings.TrimSpace(strings.ToLower(input.Event))
	if intentNo == "" || event == "" {
		return nil, ErrValidationFailed
	}
	txnType, known := paymentEventTxnTypes[event]
	if !known {
		return nil, ErrInvalidStateTransition
	}

	var result *models.PaymentIntent
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		intent, err := repo.GetIntentByIntentNoForUpdate(intentNo)
		if err != nil {
			return ErrPaymentIntentFetchFailed
		}
		if intent == nil {
			return ErrPaymentIntentNotFound
		}
		if currency := models.NormalizeCurrency(input.Currency); currency != "" && !models.SameCurrency(currency, intent.Currency) {
			return ErrCurrencyMismatch
		}

		allowed, ok := paymentTransitions[intent.Status]
		if !ok {
			return ErrInvalidStateTransition
		}
		target, ok := allowed[event]
		if !ok {
			return ErrInvalidStateTransition
		}

		amount := input.Amount.Decimal.Round(2)
		if amount.LessThanOrEqual(decimal.Zero) {
			amount = intent.Amount.Decimal.Round(2)
		}

		now := time.Now()
		if event == constants.WebhookEventRefundSucceeded {
			target, err = s.applyRefund(intent, amount)
			if err != nil {
				return err
			}
		}
		intent.Status = target
		intent.UpdatedAt = now
		if err := repo.UpdateIntent(intent); err != nil {
			return ErrPaymentIntentUpdateFailed
		}
		txn := &models.PaymentTransaction{
			IntentID:    intent.ID,
			Amount:      models.NewMoneyFromDecimal(amount),
			Type:        txnType,
			ProviderRef: strings.TrimSpace(input.ProviderRef),
			CreatedAt:   now,
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return ErrPaymentIntentUpdateFailed
		}
		result = intent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyRefund 累计退款并决定目标状态：退满为 refunded，否则 partially_refunded
func (s *PaymentService) applyRefund(intent *models.PaymentIntent, amount decimal.Decimal) (string, error) {
	total := intent.RefundedAmount.Decimal.Round(2).Add(amount)
	if total.GreaterThan(intent.Amount.Decimal.Round(2)) {
		return "", ErrInvalidStateTransition
	}
	intent.RefundedAmount = models.NewMoneyFromDecimal(total)
	if total.Equal(intent.Amount.Decimal.Round(2)) {
		return models.PaymentIntentStatusRefunded, nil
	}
	return models.PaymentIntentStatusPartiallyRefunded, nil
}

// GetIntent 按意向编号或订单ID查询支付意向
func (s *PaymentService) GetIntent(intentNo, orderID string) (*models.PaymentIntent, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPaymentIntentFetchFailed
	}
	intentNo = strings.TrimSpace(intentNo)
	orderID = strings.TrimSpace(orderID)
	var (
		intent *models.PaymentIntent
		err    error
	)
	switch {
	case intentNo != "":
		intent, err = s.repo.GetIntentByIntentNo(intentNo)
	case orderID != "":
		intent, err = s.repo.GetIntentByOrderID(orderID)
	default:
		return nil, ErrValidationFailed
	}
	if err != nil {
		return nil, ErrPaymentIntentFetchFailed
	}
	return intent, nil
}

// ListIntents 分页查询支付意向
func (s *PaymentService) ListIntents(filter repository.PaymentIntentListFilter) ([]models.PaymentIntent, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrPaymentIntentFetchFailed
	}
	intents, total, err := s.repo.ListIntents(filter)
	if err != nil {
		return nil, 0, ErrPaymentIntentFetchFailed
	}
	return intents, total, nil
}

// ListTransactions 查询支付意向的结算流水
func (s *PaymentService) ListTransactions(intentNo string) ([]models.PaymentTransaction, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPaymentIntentFetchFailed
	}
	intent, err := s.GetIntent(intentNo, "")
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, ErrPaymentIntentNotFound
	}
	txns, err := s.repo.ListTransactionsByIntent(intent.ID)
	if err != nil {
		return nil, ErrPaymentIntentFetchFailed
	}
	return txns, nil
}

func generateIntentNo() string {
	return "PI" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
