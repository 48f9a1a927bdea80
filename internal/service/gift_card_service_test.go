package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benefit-ledger/internal/constants"
	"github.com/benefit-ledger/internal/models"
	"github.com/benefit-ledger/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupGiftCardServiceTest(t *testing.T) (*GiftCardService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:gift_card_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.GiftCard{},
		&models.GiftCardTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewGiftCardService(repository.NewGiftCardRepository(db)), db
}

func mustMoney(t *testing.T, raw string) models.Money {
	t.Helper()
	m, err := models.NewMoneyFromString(raw)
	if err != nil {
		t.Fatalf("parse money %q failed: %v", raw, err)
	}
	return m
}

func TestGiftCardIssueAndDuplicateCode(t *testing.T) {
	svc, db := setupGiftCardServiceTest(t)

	card, err := svc.IssueGiftCard(IssueGiftCardInput{
		Code:          "gc-abc",
		InitialAmount: mustMoney(t, "50.00"),
		Currency:      "usd",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if card.Code != "GC-ABC" {
		t.Fatalf("expected upper-cased code, got %s", card.Code)
	}
	if card.Currency != "USD" {
		t.Fatalf("expected normalized currency, got %s", card.Currency)
	}
	if card.Status != models.GiftCardStatusActive {
		t.Fatalf("expected active status, got %s", card.Status)
	}

	var txnCount int64
	if err := db.Model(&models.GiftCardTransaction{}).Where("gift_card_id = ? AND type = ?", card.ID, constants.GiftCardTxnTypeIssue).Count(&txnCount).Error; err != nil {
		t.Fatalf("count txns failed: %v", err)
	}
	if txnCount != 1 {
		t.Fatalf("expected 1 issue transaction, got %d", txnCount)
	}

	if _, err := svc.IssueGiftCard(IssueGiftCardInput{
		Code:          "GC-ABC",
		InitialAmount: mustMoney(t, "10.00"),
		Currency:      "USD",
	}); !errors.Is(err, ErrGiftCardDuplicateCode) {
		t.Fatalf("expected duplicate code error, got %v", err)
	}
}

func TestGiftCardRedeemLifecycle(t *testing.T) {
	svc, _ := setupGiftCardServiceTest(t)

	card, err := svc.IssueGiftCard(IssueGiftCardInput{
		Code:          "GC-100",
		InitialAmount: mustMoney(t, "100.00"),
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	card, err = svc.RedeemGiftCard(GiftCardRedeemInput{
		GiftCardID: card.ID,
		Amount:     mustMoney(t, "40.00"),
		Currency:   "USD",
		OrderID:    "O1",
	})
	if err != nil {
		t.Fatalf("redeem 40 failed: %v", err)
	}
	if !card.CurrentBalance.Decimal.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("expected balance 60.00, got %s", card.CurrentBalance.String())
	}
	if card.Status != models.GiftCardStatusActive {
		t.Fatalf("expected active status, got %s", card.Status)
	}

	card, err = svc.RedeemGiftCard(GiftCardRedeemInput{
		GiftCardID: card.ID,
		Amount:     mustMoney(t, "60.00"),
		Currency:   "USD",
		OrderID:    "O2",
	})
	if err != nil {
		t.Fatalf("redeem 60 failed: %v", err)
	}
	if !card.CurrentBalance.Decimal.IsZero() {
		t.Fatalf("expected zero balance, got %s", card.CurrentBalance.String())
	}
	if card.Status != models.GiftCardStatusDepleted {
		t.Fatalf("expected depleted status, got %s", card.Status)
	}

	if _, err := svc.RedeemGiftCard(GiftCardRedeemInput{
		GiftCardID: card.ID,
		Amount:     mustMoney(t, "1.00"),
		Currency:   "USD",
		OrderID:    "O3",
	}); !errors.Is(err, ErrGiftCardInactive) {
		t.Fatalf("expected inactive on depleted card, got %v", err)
	}

	after, err := svc.GetGiftCard("", card.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !after.CurrentBalance.Decimal.IsZero() {
		t.Fatalf("balance changed on failed redeem: %s", after.CurrentBalance.String())
	}
}

func TestGiftCardRedeemInsufficientBalance(t *testing.T) {
	svc, _ := setupGiftCardServiceTest(t)

	card, err := svc.IssueGiftCard(IssueGiftCardInput{
		Code:          "GC-SMALL",
		InitialAmount: mustMoney(t, "5.00"),
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := svc.RedeemGiftCard(GiftCardRedeemInput{
		GiftCardID: card.ID,
		Amount:     mustMoney(t, "6.00"),
		Currency:   "USD",
		OrderID:    "O1",
	}); !errors.Is(err, ErrGiftCardInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	after, err := svc.GetGiftCard("", card.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !after.CurrentBalance.Decimal.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("balance changed on failed redeem: %s", after.CurrentBalance.String())
	}
}

func TestGiftCardRedeemCurrencyMismatch(t *testing.T) {
	svc, _ := setupGiftCardServiceTest(t)

	card, err := svc.IssueGiftCard(IssueGiftCardInput{
		Code:          "GC-LKR",
		InitialAmount: mustMoney(t, "1000.00"),
		Currency:      "LKR",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := svc.RedeemGiftCard(GiftCardRedeemInput{
		GiftCardID: card.ID,
		Amount:     mustMoney(t, "10.00"),
		Currency:   "USD",
		OrderID:    "O1",
	}); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
	after, err := svc.GetGiftCard("", card.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !after.CurrentBalance.Decimal.Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("balance changed on failed redeem: %s", after.CurrentBalance.String())
	}
}

func TestGiftCardRefundReactivatesDepleted(t *testing.T) {
	svc, _ := setupGiftCardServiceTest(t)

	card, err := svc.IssueGiftCard(IssueGiftCardInput{
		Code:          "GC-REFUND",
		InitialAmount: mustMoney(t, "20.00"),
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := svc.RedeemGiftCard(GiftCardRedeemInput{
		GiftCardID: card.ID,
		Amount:     mustMoney(t, "20.00"),
		Currency:   "USD",
		OrderID:    "O1",
	}); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}

	card, err = svc.RefundGiftCard(GiftCardRefundInput{
		GiftCardID: card.ID,
		Amount:     mustMoney(t, "8.50"),
		Currency:   "USD",
		OrderID:    "O1",
	})
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if card.Status != models.GiftCardStatusActive {
		t.Fatalf("expected reactivated card, got %s", card.Status)
	}
	if !card.CurrentBalance.Decimal.Equal(decimal.RequireFromString("8.50")) {
		t.Fatalf("expected balance 8.50, got %s", card.CurrentBalance.String())
	}
}

func TestGiftCardCancelBlocksRedeem(t *testing.T) {
	svc, _ := setupGiftCardServiceTest(t)

	card, err := svc.IssueGiftCard(IssueGiftCardInput{
		Code:          "GC-CANCEL",
		InitialAmount: mustMoney(t, "30.00"),
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	card, err = svc.CancelGiftCard(card.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if card.Status != models.GiftCardStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", card.Status)
	}
	if _, err := svc.RedeemGiftCard(GiftCardRedeemInput{
		GiftCardID: card.ID,
		Amount:     mustMoney(t, "1.00"),
		Currency:   "USD",
		OrderID:    "O1",
	}); !errors.Is(err, ErrGiftCardInactive) {
		t.Fatalf("expected inactive on cancelled card, got %v", err)
	}
}

func TestGiftCardRedeemExpired(t *testing.T) {
	svc, db := setupGiftCardServiceTest(t)

	card, err := svc.IssueGiftCard(IssueGiftCardInput{
		Code:          "GC-EXPIRED",
		InitialAmount: mustMoney(t, "30.00"),
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	past := time.Now().Add(-time.Hour)
	if err := db.Model(&models.GiftCard{}).Where("id = ?", card.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("backdate expiry failed: %v", err)
	}
	if _, err := svc.RedeemGiftCard(GiftCardRedeemInput{
		GiftCardID: card.ID,
		Amount:     mustMoney(t, "1.00"),
		Currency:   "USD",
		OrderID:    "O1",
	}); !errors.Is(err, ErrGiftCardExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestGiftCardBalanceConservation(t *testing.T) {
	svc, _ := setupGiftCardServiceTest(t)

	card, err := svc.IssueGiftCard(IssueGiftCardInput{
		Code:          "GC-CONSERVE",
		InitialAmount: mustMoney(t, "100.00"),
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	ops := []struct {
		redeem bool
		amount string
	}{
		{true, "12.34"},
		{true, "7.66"},
		{false, "3.00"},
		{true, "50.00"},
		{false, "10.00"},
	}
	for i, op := range ops {
		orderID := fmt.Sprintf("O%d", i+1)
		if op.redeem {
			if _, err := svc.RedeemGiftCard(GiftCardRedeemInput{
				GiftCardID: card.ID,
				Amount:     mustMoney(t, op.amount),
				Currency:   "USD",
				OrderID:    orderID,
			}); err != nil {
				t.Fatalf("redeem %s failed: %v", op.amount, err)
			}
		} else {
			if _, err := svc.RefundGiftCard(GiftCardRefundInput{
				GiftCardID: card.ID,
				Amount:     mustMoney(t, op.amount),
				Currency:   "USD",
				OrderID:    orderID,
			}); err != nil {
				t.Fatalf("refund %s failed: %v", op.amount, err)
			}
		}
	}

	after, err := svc.GetGiftCard("", card.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	txns, _, err := svc.ListTransactions(card.ID, 1, 100)
	if err != nil {
		t.Fatalf("list txns failed: %v", err)
	}
	expected := decimal.Zero
	for _, txn := range txns {
		switch txn.Type {
		case constants.GiftCardTxnTypeIssue, constants.GiftCardTxnTypeRefund:
			expected = expected.Add(txn.Amount.Decimal)
		case constants.GiftCardTxnTypeRedeem:
			expected = expected.Sub(txn.Amount.Decimal)
		}
	}
	if !after.CurrentBalance.Decimal.Equal(expected) {
		t.Fatalf("balance %s does not match ledger sum %s", after.CurrentBalance.String(), expected.StringFixed(2))
	}
}

func TestGiftCardBatchIssueAndExport(t *testing.T) {
	svc, _ := setupGiftCardServiceTest(t)

	cards, err := svc.BatchIssueGiftCards(BatchIssueGiftCardsInput{
		Quantity:      5,
		InitialAmount: mustMoney(t, "25.00"),
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("batch issue failed: %v", err)
	}
	if len(cards) != 5 {
		t.Fatalf("expected 5 cards, got %d", len(cards))
	}
	seen := make(map[string]struct{})
	ids := make([]uint, 0, len(cards))
	for _, card := range cards {
		if _, ok := seen[card.Code]; ok {
			t.Fatalf("duplicate generated code %s", card.Code)
		}
		seen[card.Code] = struct{}{}
		ids = append(ids, card.ID)
	}

	data, contentType, err := svc.ExportGiftCards(ids, "txt")
	if err != nil {
		t.Fatalf("export txt failed: %v", err)
	}
	if contentType != "text/plain; charset=utf-8" {
		t.Fatalf("unexpected content type %s", contentType)
	}
	if len(data) == 0 {
		t.Fatal("expected txt payload")
	}

	if _, _, err := svc.ExportGiftCards(ids, "pdf"); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected validation error for pdf format, got %v", err)
	}
}

func TestGiftCardGetBalanceByCode(t *testing.T) {
	svc, _ := setupGiftCardServiceTest(t)

	if _, err := svc.IssueGiftCard(IssueGiftCardInput{
		Code:          "GC-LOOKUP",
		InitialAmount: mustMoney(t, "42.00"),
		Currency:      "USD",
	}); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	balance, currency, err := svc.GetBalance("gc-lookup", 0)
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	if balance == nil || !balance.Decimal.Equal(decimal.RequireFromString("42.00")) {
		t.Fatalf("unexpected balance %v", balance)
	}
	if currency != "USD" {
		t.Fatalf("unexpected currency %s", currency)
	}

	balance, _, err = svc.GetBalance("GC-MISSING", 0)
	if err != nil {
		t.Fatalf("missing lookup failed: %v", err)
	}
	if balance != nil {
		t.Fatalf("expected nil balance for missing card, got %v", balance)
	}
}

func TestGiftCardConcurrentFullRedemption(t *testing.T) {
	svc, db := setupGiftCardServiceTest(t)

	card, err := svc.IssueGiftCard(IssueGiftCardInput{
		Code:          "GC-RACE",
		InitialAmount: mustMoney(t, "100.00"),
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// 两个并发请求同时兑付整卡面额，行锁下最多一个成功
	errCh := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		orderID := fmt.Sprintf("O-race-%d", i)
		go func() {
			defer wg.Done()
			_, err := svc.RedeemGiftCard(GiftCardRedeemInput{
				GiftCardID: card.ID,
				Amount:     mustMoney(t, "100.00"),
				Currency:   "USD",
				OrderID:    orderID,
			})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	succeeded := 0
	for err := range errCh {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one redemption to succeed, got %d", succeeded)
	}

	var after models.GiftCard
	if err := db.First(&after, card.ID).Error; err != nil {
		t.Fatalf("reload card failed: %v", err)
	}
	if after.CurrentBalance.String() != "0.00" {
		t.Fatalf("expected zero balance, got %s", after.CurrentBalance.String())
	}
	if after.Status != models.GiftCardStatusDepleted {
		t.Fatalf("expected depleted status, got %s", after.Status)
	}
	var redeemCount int64
	if err := db.Model(&models.GiftCardTransaction{}).
		Where("gift_card_id = ? AND type = ?", card.ID, constants.GiftCardTxnTypeRedeem).
		Count(&redeemCount).Error; err != nil {
		t.Fatalf("count redeem txns failed: %v", err)
	}
	if redeemCount != 1 {
		t.Fatalf("expected exactly one redeem transaction, got %d", redeemCount)
	}
}
