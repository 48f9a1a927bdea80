package service

import (
	crand "crypto/rand"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/benefit-ledger/internal/constants"
	"github.com/benefit-ledger/internal/models"
	"github.com/benefit-ledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const giftCardCodePrefix = "GC"

// GiftCardService 礼品卡台账服务
type GiftCardService struct {
	repo repository.GiftCardRepository
}

// NewGiftCardService 创建礼品卡服务
func NewGiftCardService(repo repository.GiftCardRepository) *GiftCardService {
	return &GiftCardService{repo: repo}
}

// IssueGiftCardInput 发卡输入
type IssueGiftCardInput struct {
	Code           string
	InitialAmount  models.Money
	Currency       string
	ExpiresAt      *time.Time
	RecipientEmail string
	RecipientName  string
	Message        string
}

// BatchIssueGiftCardsInput 批量发卡输入
type BatchIssueGiftCardsInput struct {
	Quantity      int
	InitialAmount models.Money
	Currency      string
	ExpiresAt     *time.Time
}

// GiftCardRedeemInput 消费礼品卡余额输入
type GiftCardRedeemInput struct {
	GiftCardID uint
	Amount     models.Money
	Currency   string
	OrderID    string
}

// GiftCardRefundInput 礼品卡退款输入
type GiftCardRefundInput struct {
	GiftCardID uint
	Amount     models.Money
	Currency   string
	OrderID    string
}

// GiftCardListInput 礼品卡列表输入
type GiftCardListInput struct {
	Code        string
	Status      string
	Currency    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	ExpiresFrom *time.Time
	ExpiresTo   *time.Time
	Page        int
	PageSize    int
}

// IssueGiftCard 发放礼品卡：卡记录与 issue 流水在同一事务写入
func (s *GiftCardService) IssueGiftCard(input IssueGiftCardInput) (*models.GiftCard, error) {
	if s == nil || s.repo == nil {
		return nil, ErrGiftCardCreateFailed
	}
	code := strings.TrimSpace(strings.ToUpper(input.Code))
	if code == "" {
		return nil, ErrValidationFailed
	}
	amount := input.InitialAmount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrValidationFailed
	}
	currency := models.NormalizeCurrency(input.Currency)
	if currency == "" {
		currency = constants.DefaultCurrency
	}
	expiresAt := normalizeExpireAt(input.ExpiresAt)
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return nil, ErrValidationFailed
	}

	existing, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, ErrGiftCardFetchFailed
	}
	if existing != nil {
		return nil, ErrGiftCardDuplicateCode
	}

	now := time.Now()
	card := &models.GiftCard{
		Code:           code,
		InitialAmount:  models.NewMoneyFromDecimal(amount),
		CurrentBalance: models.NewMoneyFromDecimal(amount),
		Currency:       currency,
		Status:         models.GiftCardStatusActive,
		ExpiresAt:      expiresAt,
		RecipientEmail: strings.TrimSpace(input.RecipientEmail),
		RecipientName:  strings.TrimSpace(input.RecipientName),
		Message:        strings.TrimSpace(input.Message),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(card); err != nil {
			// 并发创建同码卡时由唯一索引兜底
			if isDuplicateKeyError(err) {
				return ErrGiftCardDuplicateCode
			}
			return ErrGiftCardCreateFailed
		}
		txn := &models.GiftCardTransaction{
			GiftCardID: card.ID,
			Amount:     card.InitialAmount,
			Type:       constants.GiftCardTxnTypeIssue,
			CreatedAt:  now,
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return ErrGiftCardCreateFailed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// BatchIssueGiftCards 批量发放礼品卡，每张卡生成唯一卡密
func (s *GiftCardService) BatchIssueGiftCards(input BatchIssueGiftCardsInput) ([]models.GiftCard, error) {
	if s == nil || s.repo == nil {
		return nil, ErrGiftCardCreateFailed
	}
	if input.Quantity <= 0 || input.Quantity > 10000 {
		return nil, ErrValidationFailed
	}
	amount := input.InitialAmount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrValidationFailed
	}
	currency := models.NormalizeCurrency(input.Currency)
	if currency == "" {
		currency = constants.DefaultCurrency
	}
	expiresAt := normalizeExpireAt(input.ExpiresAt)

	now := time.Now()
	cards := make([]models.GiftCard, 0, input.Quantity)
	for i := 0; i < input.Quantity; i++ {
		cards = append(cards, models.GiftCard{
			Code:           generateGiftCardCode(now, i),
			InitialAmount:  models.NewMoneyFromDecimal(amount),
			CurrentBalance: models.NewMoneyFromDecimal(amount),
			Currency:       currency,
			Status:         models.GiftCardStatusActive,
			ExpiresAt:      expiresAt,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for i := range cards {
			if err := repo.Create(&cards[i]); err != nil {
				return ErrGiftCardCreateFailed
			}
			txn := &models.GiftCardTransaction{
				GiftCardID: cards[i].ID,
				Amount:     cards[i].InitialAmount,
				Type:       constants.GiftCardTxnTypeIssue,
				CreatedAt:  now,
			}
			if err := repo.CreateTransaction(txn); err != nil {
				return ErrGiftCardCreateFailed
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// RedeemGiftCard 消费礼品卡余额：锁卡、扣减、追加流水，单事务提交
func (s *GiftCardService) RedeemGiftCard(input GiftCardRedeemInput) (*models.GiftCard, error) {
	if s == nil || s.repo == nil {
		return nil, ErrGiftCardFetchFailed
	}
	if input.GiftCardID == 0 || strings.TrimSpace(input.OrderID) == "" {
		return nil, ErrValidationFailed
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrValidationFailed
	}

	var result *models.GiftCard
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		card, err := repo.GetByIDForUpdate(input.GiftCardID)
		if err != nil {
			return ErrGiftCardFetchFailed
		}
		if card == nil {
			return ErrGiftCardNotFound
		}
		if card.Status != models.GiftCardStatusActive {
			return ErrGiftCardInactive
		}
		if isExpired(card.ExpiresAt, time.Now()) {
			return ErrGiftCardExpired
		}
		if !models.SameCurrency(card.Currency, input.Currency) {
			return ErrCurrencyMismatch
		}
		balance := card.CurrentBalance.Decimal.Round(2)
		if amount.GreaterThan(balance) {
			return ErrGiftCardInsufficientBalance
		}

		now := time.Now()
		newBalance := balance.Sub(amount)
		card.CurrentBalance = models.NewMoneyFromDecimal(newBalance)
		if newBalance.IsZero() {
			card.Status = models.GiftCardStatusDepleted
		}
		card.UpdatedAt = now
		if err := repo.Update(card); err != nil {
			return ErrGiftCardUpdateFailed
		}
		txn := &models.GiftCardTransaction{
			GiftCardID: card.ID,
			OrderID:    strings.TrimSpace(input.OrderID),
			Amount:     models.NewMoneyFromDecimal(amount),
			Type:       constants.GiftCardTxnTypeRedeem,
			CreatedAt:  now,
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return ErrGiftCardUpdateFailed
		}
		result = card
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RefundGiftCard 礼品卡退款：加回余额，depleted 卡恢复 active
// 不校验退款累计是否超过初始面额，上限由调用方把控
func (s *GiftCardService) RefundGiftCard(input GiftCardRefundInput) (*models.GiftCard, error) {
	if s == nil || s.repo == nil {
		return nil, ErrGiftCardFetchFailed
	}
	if input.GiftCardID == 0 || strings.TrimSpace(input.OrderID) == "" {
		return nil, ErrValidationFailed
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrValidationFailed
	}

	var result *models.GiftCard
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		card, err := repo.GetByIDForUpdate(input.GiftCardID)
		if err != nil {
			return ErrGiftCardFetchFailed
		}
		if card == nil {
			return ErrGiftCardNotFound
		}
		if !models.SameCurrency(card.Currency, input.Currency) {
			return ErrCurrencyMismatch
		}

		now := time.Now()
		card.CurrentBalance = models.NewMoneyFromDecimal(card.CurrentBalance.Decimal.Round(2).Add(amount))
		if card.Status == models.GiftCardStatusDepleted {
			card.Status = models.GiftCardStatusActive
		}
		card.UpdatedAt = now
		if err := repo.Update(card); err != nil {
			return ErrGiftCardUpdateFailed
		}
		txn := &models.GiftCardTransaction{
			GiftCardID: card.ID,
			OrderID:    strings.TrimSpace(input.OrderID),
			Amount:     models.NewMoneyFromDecimal(amount),
			Type:       constants.GiftCardTxnTypeRefund,
			CreatedAt:  now,
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return ErrGiftCardUpdateFailed
		}
		result = card
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelGiftCard 作废礼品卡，后续消费返回 Inactive
func (s *GiftCardService) CancelGiftCard(id uint) (*models.GiftCard, error) {
	if s == nil || s.repo == nil {
		return nil, ErrGiftCardFetchFailed
	}
	if id == 0 {
		return nil, ErrValidationFailed
	}
	var result *models.GiftCard
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		card, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return ErrGiftCardFetchFailed
		}
		if card == nil {
			return ErrGiftCardNotFound
		}
		card.Status = models.GiftCardStatusCancelled
		card.UpdatedAt = time.Now()
		if err := repo.Update(card); err != nil {
			return ErrGiftCardUpdateFailed
		}
		result = card
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetBalance 按卡密或ID查询余额，未找到返回 nil
func (s *GiftCardService) GetBalance(code string, id uint) (*models.Money, string, error) {
	card, err := s.GetGiftCard(code, id)
	if err != nil {
		return nil, "", err
	}
	if card == nil {
		return nil, "", nil
	}
	balance := card.CurrentBalance
	return &balance, card.Currency, nil
}

// GetGiftCard 按卡密或ID查询礼品卡，未找到返回 nil
func (s *GiftCardService) GetGiftCard(code string, id uint) (*models.GiftCard, error) {
	if s == nil || s.repo == nil {
		return nil, ErrGiftCardFetchFailed
	}
	code = strings.TrimSpace(strings.ToUpper(code))
	var (
		card *models.GiftCard
		err  error
	)
	switch {
	case code != "":
		card, err = s.repo.GetByCode(code)
	case id != 0:
		card, err = s.repo.GetByID(id)
	default:
		return nil, ErrValidationFailed
	}
	if err != nil {
		return nil, ErrGiftCardFetchFailed
	}
	return card, nil
}

// ListGiftCards 分页查询礼品卡
func (s *GiftCardService) ListGiftCards(input GiftCardListInput) ([]models.GiftCard, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrGiftCardFetchFailed
	}
	filter := repository.GiftCardListFilter{
		Code:        strings.TrimSpace(strings.ToUpper(input.Code)),
		Status:      strings.TrimSpace(strings.ToLower(input.Status)),
		Currency:    models.NormalizeCurrency(input.Currency),
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		ExpiresFrom: input.ExpiresFrom,
		ExpiresTo:   input.ExpiresTo,
		Page:        input.Page,
		PageSize:    input.PageSize,
	}
	cards, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, ErrGiftCardFetchFailed
	}
	return cards, total, nil
}

// ListTransactions 查询礼品卡流水
func (s *GiftCardService) ListTransactions(giftCardID uint, page, pageSize int) ([]models.GiftCardTransaction, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrGiftCardFetchFailed
	}
	if giftCardID == 0 {
		return nil, 0, ErrValidationFailed
	}
	txns, total, err := s.repo.ListTransactions(repository.GiftCardTxnListFilter{
		GiftCardID: giftCardID,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return nil, 0, ErrGiftCardFetchFailed
	}
	return txns, total, nil
}

// ExportGiftCards 导出礼品卡（csv 或 txt 卡密清单）
func (s *GiftCardService) ExportGiftCards(ids []uint, format string) ([]byte, string, error) {
	if s == nil || s.repo == nil {
		return nil, "", ErrGiftCardFetchFailed
	}
	normalizedIDs := normalizeIDs(ids)
	if len(normalizedIDs) == 0 {
		return nil, "", ErrValidationFailed
	}
	normalizedFormat := strings.TrimSpace(strings.ToLower(format))
	if normalizedFormat != "csv" && normalizedFormat != "txt" {
		return nil, "", ErrValidationFailed
	}

	cards, err := s.repo.ListByIDs(normalizedIDs)
	if err != nil {
		return nil, "", ErrGiftCardFetchFailed
	}
	if len(cards) == 0 {
		return nil, "", ErrGiftCardNotFound
	}

	if normalizedFormat == "txt" {
		lines := make([]string, 0, len(cards))
		for _, card := range cards {
			lines = append(lines, strings.TrimSpace(card.Code))
		}
		return []byte(strings.Join(lines, "\n")), "text/plain; charset=utf-8", nil
	}

	builder := &strings.Builder{}
	writer := csv.NewWriter(builder)
	if err := writer.Write([]string{
		"id",
		"code",
		"initial_amount",
		"current_balance",
		"currency",
		"status",
		"expires_at",
		"created_at",
	}); err != nil {
		return nil, "", ErrGiftCardFetchFailed
	}
	for _, card := range cards {
		record := []string{
			strconv.FormatUint(uint64(card.ID), 10),
			card.Code,
			card.InitialAmount.String(),
			card.CurrentBalance.String(),
			card.Currency,
			card.Status,
			formatNullableTime(card.ExpiresAt),
			card.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, "", ErrGiftCardFetchFailed
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", ErrGiftCardFetchFailed
	}
	return []byte(builder.String()), "text/csv; charset=utf-8", nil
}

func normalizeIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return []uint{}
	}
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func normalizeExpireAt(raw *time.Time) *time.Time {
	if raw == nil || raw.IsZero() {
		return nil
	}
	value := raw.UTC()
	return &value
}

func formatNullableTime(raw *time.Time) string {
	if raw == nil || raw.IsZero() {
		return ""
	}
	return raw.Format(time.RFC3339)
}

func isExpired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil || expiresAt.IsZero() {
		return false
	}
	return expiresAt.Before(now)
}

func generateGiftCardCode(now time.Time, index int) string {
	return strings.ToUpper(fmt.Sprintf("%s%s%04d%s", giftCardCodePrefix, now.Format("060102150405"), index%10000, randomHex(5)))
}

func randomHex(n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	if _, err := crand.Read(buf); err != nil {
		fallback := make([]byte, n)
		for i := range fallback {
			fallback[i] = byte('A' + (i % 26))
		}
		return hex.EncodeToString(fallback)
	}
	return hex.EncodeToString(buf)
}
