package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/benefit-ledger/internal/constants"
	"github.com/benefit-ledger/internal/models"
	"github.com/benefit-ledger/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupReconcileServiceTest(t *testing.T) (*ReconcileService, *GiftCardService, *LoyaltyService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:reconcile_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.GiftCard{},
		&models.GiftCardTransaction{},
		&models.LoyaltyAccount{},
		&models.LoyaltyTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	giftCardRepo := repository.NewGiftCardRepository(db)
	loyaltyRepo := repository.NewLoyaltyRepository(db)
	return NewReconcileService(giftCardRepo, loyaltyRepo),
		NewGiftCardService(giftCardRepo),
		NewLoyaltyService(loyaltyRepo),
		db
}

func TestReconcileCleanLedgersReportNoDrift(t *testing.T) {
	svc, giftCardSvc, loyaltySvc, _ := setupReconcileServiceTest(t)

	card, err := giftCardSvc.IssueGiftCard(IssueGiftCardInput{
		Code:          "GC-OK",
		InitialAmount: mustMoney(t, "100.00"),
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := giftCardSvc.RedeemGiftCard(GiftCardRedeemInput{
		GiftCardID: card.ID,
		Amount:     mustMoney(t, "33.00"),
		Currency:   "USD",
		OrderID:    "O1",
	}); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if _, _, err := loyaltySvc.AccrueLoyalty(LoyaltyAccrueInput{
		UserID:    "u1",
		ProgramID: "default",
		Points:    80,
	}); err != nil {
		t.Fatalf("accrue failed: %v", err)
	}

	report, err := svc.Run(constants.ReconcileScopeAll)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if report.Checked != 2 {
		t.Fatalf("expected 2 entities checked, got %d", report.Checked)
	}
	if len(report.Drifts) != 0 {
		t.Fatalf("expected no drift, got %+v", report.Drifts)
	}
}

func TestReconcileDetectsGiftCardDrift(t *testing.T) {
	svc, giftCardSvc, _, db := setupReconcileServiceTest(t)

	card, err := giftCardSvc.IssueGiftCard(IssueGiftCardInput{
		Code:          "GC-DRIFT",
		InitialAmount: mustMoney(t, "50.00"),
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	// 绕过服务直接改余额，制造缓存字段与流水脱节
	if err := db.Model(&models.GiftCard{}).Where("id = ?", card.ID).Update("current_balance", "37.50").Error; err != nil {
		t.Fatalf("corrupt balance failed: %v", err)
	}

	report, err := svc.Run(constants.ReconcileScopeGiftCard)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if len(report.Drifts) != 1 {
		t.Fatalf("expected 1 drift, got %d", len(report.Drifts))
	}
	drift := report.Drifts[0]
	if drift.Kind != constants.ReconcileScopeGiftCard || drift.EntityID != card.ID {
		t.Fatalf("unexpected drift record %+v", drift)
	}
	if drift.Stored != "37.50" || drift.Expected != "50.00" {
		t.Fatalf("unexpected drift amounts %+v", drift)
	}
}

func TestReconcileDetectsLoyaltyDrift(t *testing.T) {
	svc, _, loyaltySvc, db := setupReconcileServiceTest(t)

	account, _, err := loyaltySvc.AccrueLoyalty(LoyaltyAccrueInput{
		UserID:    "u1",
		ProgramID: "default",
		Points:    100,
	})
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if err := db.Model(&models.LoyaltyAccount{}).Where("id = ?", account.ID).Update("points_balance", 90).Error; err != nil {
		t.Fatalf("corrupt balance failed: %v", err)
	}

	report, err := svc.Run(constants.ReconcileScopeLoyalty)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if len(report.Drifts) != 1 {
		t.Fatalf("expected 1 drift, got %d", len(report.Drifts))
	}
	drift := report.Drifts[0]
	if drift.Stored != "90" || drift.Expected != "100" {
		t.Fatalf("unexpected drift amounts %+v", drift)
	}
}

func TestReconcileRejectsUnknownScope(t *testing.T) {
	svc, _, _, _ := setupReconcileServiceTest(t)

	if _, err := svc.Run("wallet"); err == nil {
		t.Fatal("expected error for unknown scope")
	}
}
