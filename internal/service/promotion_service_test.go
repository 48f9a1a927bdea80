package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benefit-ledger/internal/constants"
	"github.com/benefit-ledger/internal/models"
	"github.com/benefit-ledger/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupPromotionServiceTest(t *testing.T) (*PromotionService, *PromotionAdminService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:promotion_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Promotion{},
		&models.PromotionUsage{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	repo := repository.NewPromotionRepository(db)
	usageRepo := repository.NewPromotionUsageRepository(db)
	return NewPromotionService(repo, usageRepo), NewPromotionAdminService(repo, usageRepo), db
}

func createTestPromotion(t *testing.T, admin *PromotionAdminService, input CreatePromotionInput) *models.Promotion {
	t.Helper()
	promotion, err := admin.CreatePromotion(input)
	if err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}
	return promotion
}

func TestPromotionApplyPercentageClamp(t *testing.T) {
	svc, admin, db := setupPromotionServiceTest(t)

	// 管理入口拒绝超过 100 的百分比
	if _, err := admin.CreatePromotion(CreatePromotionInput{
		Code:     "OVER",
		Name:     "over percent",
		RuleType: constants.PromotionRulePercentage,
		Value:    mustMoney(t, "200"),
	}); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected validation error for >100 percent, got %v", err)
	}

	// 引擎层对历史数据同样夹取：200% 配 max_discount 50，百元订单折 50
	code := "HALFCAP"
	now := time.Now()
	seeded := models.Promotion{
		Code:        &code,
		Name:        "legacy over percent",
		RuleType:    constants.PromotionRulePercentage,
		Value:       mustMoney(t, "200"),
		MaxDiscount: mustMoney(t, "50.00"),
		Status:      models.PromotionStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Create(&seeded).Error; err != nil {
		t.Fatalf("seed promotion failed: %v", err)
	}

	result, err := svc.ApplyPromotion(ApplyPromotionInput{
		Code:        "HALFCAP",
		OrderAmount: mustMoney(t, "100.00"),
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid result, got %v", result.Err)
	}
	if !result.DiscountAmount.Decimal.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected discount clamped to 50.00, got %s", result.DiscountAmount.String())
	}
}

func TestPromotionApplyFixedAmountClampedToOrder(t *testing.T) {
	svc, admin, _ := setupPromotionServiceTest(t)

	createTestPromotion(t, admin, CreatePromotionInput{
		Code:     "FIXED30",
		Name:     "fixed 30",
		RuleType: constants.PromotionRuleFixedAmount,
		Value:    mustMoney(t, "30.00"),
	})

	result, err := svc.ApplyPromotion(ApplyPromotionInput{
		Code:        "FIXED30",
		OrderAmount: mustMoney(t, "12.00"),
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid result, got %v", result.Err)
	}
	if !result.DiscountAmount.Decimal.Equal(decimal.RequireFromString("12.00")) {
		t.Fatalf("expected discount clamped to order amount, got %s", result.DiscountAmount.String())
	}
}

func TestPromotionApplyNotFound(t *testing.T) {
	svc, _, _ := setupPromotionServiceTest(t)

	result, err := svc.ApplyPromotion(ApplyPromotionInput{
		Code:        "MISSING",
		OrderAmount: mustMoney(t, "10.00"),
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if !errors.Is(result.Err, ErrPromotionNotFound) {
		t.Fatalf("expected not found, got %v", result.Err)
	}
}

func TestPromotionApplyDateWindow(t *testing.T) {
	svc, admin, _ := setupPromotionServiceTest(t)

	future := time.Now().Add(24 * time.Hour)
	createTestPromotion(t, admin, CreatePromotionInput{
		Code:     "SOON",
		Name:     "not started",
		RuleType: constants.PromotionRuleFixedAmount,
		Value:    mustMoney(t, "5.00"),
		StartsAt: &future,
	})

	result, err := svc.ApplyPromotion(ApplyPromotionInput{
		Code:        "SOON",
		OrderAmount: mustMoney(t, "10.00"),
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.Valid || !errors.Is(result.Err, ErrPromotionNotCurrentlyValid) {
		t.Fatalf("expected not currently valid, got %v", result.Err)
	}
}

func TestPromotionApplyMinPurchase(t *testing.T) {
	svc, admin, _ := setupPromotionServiceTest(t)

	createTestPromotion(t, admin, CreatePromotionInput{
		Code:        "MIN50",
		Name:        "minimum 50",
		RuleType:    constants.PromotionRuleFixedAmount,
		Value:       mustMoney(t, "5.00"),
		MinPurchase: mustMoney(t, "50.00"),
	})

	result, err := svc.ApplyPromotion(ApplyPromotionInput{
		Code:        "MIN50",
		OrderAmount: mustMoney(t, "49.99"),
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.Valid || !errors.Is(result.Err, ErrPromotionNotApplicable) {
		t.Fatalf("expected not applicable below min purchase, got %v", result.Err)
	}
}

func TestPromotionApplyProductEligibility(t *testing.T) {
	svc, admin, _ := setupPromotionServiceTest(t)

	createTestPromotion(t, admin, CreatePromotionInput{
		Code:               "PROD",
		Name:               "product scoped",
		RuleType:           constants.PromotionRulePercentage,
		Value:              mustMoney(t, "10"),
		ApplicableProducts: []string{"p1", "p2"},
	})

	result, err := svc.ApplyPromotion(ApplyPromotionInput{
		Code:        "PROD",
		OrderAmount: mustMoney(t, "100.00"),
		Currency:    "USD",
		ProductIDs:  []string{"p9"},
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.Valid || !errors.Is(result.Err, ErrPromotionNotApplicable) {
		t.Fatalf("expected not applicable without intersection, got %v", result.Err)
	}

	result, err = svc.ApplyPromotion(ApplyPromotionInput{
		Code:        "PROD",
		OrderAmount: mustMoney(t, "100.00"),
		Currency:    "USD",
		ProductIDs:  []string{"p2", "p9"},
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid with intersection, got %v", result.Err)
	}
	if !result.DiscountAmount.Decimal.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected discount 10.00, got %s", result.DiscountAmount.String())
	}
}

func TestPromotionUsageLimitSerial(t *testing.T) {
	svc, admin, _ := setupPromotionServiceTest(t)

	promotion := createTestPromotion(t, admin, CreatePromotionInput{
		Code:       "LIMIT2",
		Name:       "limited",
		RuleType:   constants.PromotionRuleFixedAmount,
		Value:      mustMoney(t, "5.00"),
		UsageLimit: 2,
	})

	for i := 0; i < 2; i++ {
		result, err := svc.ApplyPromotion(ApplyPromotionInput{
			Code:        "LIMIT2",
			OrderAmount: mustMoney(t, "20.00"),
			Currency:    "USD",
		})
		if err != nil || !result.Valid {
			t.Fatalf("apply %d failed: %v %v", i, err, result.Err)
		}
		if _, err := svc.RecordUsage(RecordUsageInput{
			PromotionID:    promotion.ID,
			OrderID:        fmt.Sprintf("O%d", i+1),
			DiscountAmount: result.DiscountAmount,
		}); err != nil {
			t.Fatalf("record usage %d failed: %v", i, err)
		}
	}

	result, err := svc.ApplyPromotion(ApplyPromotionInput{
		Code:        "LIMIT2",
		OrderAmount: mustMoney(t, "20.00"),
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.Valid || !errors.Is(result.Err, ErrPromotionUsageLimitReached) {
		t.Fatalf("expected usage limit reached, got %v", result.Err)
	}
}

func TestPromotionApplyHasNoSideEffects(t *testing.T) {
	svc, admin, db := setupPromotionServiceTest(t)

	createTestPromotion(t, admin, CreatePromotionInput{
		Code:     "PURE",
		Name:     "pure apply",
		RuleType: constants.PromotionRuleFixedAmount,
		Value:    mustMoney(t, "5.00"),
	})
	for i := 0; i < 3; i++ {
		if _, err := svc.ApplyPromotion(ApplyPromotionInput{
			Code:        "PURE",
			OrderAmount: mustMoney(t, "20.00"),
			Currency:    "USD",
		}); err != nil {
			t.Fatalf("apply failed: %v", err)
		}
	}
	var usageCount int64
	if err := db.Model(&models.PromotionUsage{}).Count(&usageCount).Error; err != nil {
		t.Fatalf("count usages failed: %v", err)
	}
	if usageCount != 0 {
		t.Fatalf("apply must not write usage rows, found %d", usageCount)
	}
}

func TestPromotionAdminDeleteWithUsageDeactivates(t *testing.T) {
	svc, admin, _ := setupPromotionServiceTest(t)

	promotion := createTestPromotion(t, admin, CreatePromotionInput{
		Code:     "USED",
		Name:     "used promo",
		RuleType: constants.PromotionRuleFixedAmount,
		Value:    mustMoney(t, "5.00"),
	})
	if _, err := svc.RecordUsage(RecordUsageInput{
		PromotionID:    promotion.ID,
		OrderID:        "O1",
		DiscountAmount: mustMoney(t, "5.00"),
	}); err != nil {
		t.Fatalf("record usage failed: %v", err)
	}

	if err := admin.DeletePromotion(promotion.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	after, _, err := admin.GetPromotion(promotion.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if after.Status != models.PromotionStatusInactive {
		t.Fatalf("expected deactivated promotion, got %s", after.Status)
	}
}

func TestPromotionApplyForeignCurrencyRejected(t *testing.T) {
	svc, admin, _ := setupPromotionServiceTest(t)
	createTestPromotion(t, admin, CreatePromotionInput{
		Code:     "TEN-OFF",
		Name:     "ten off",
		RuleType: constants.PromotionRuleFixedAmount,
		Value:    mustMoney(t, "10.00"),
	})

	// 固定减免按结算币种计价，欧元订单不参与
	result, err := svc.ApplyPromotion(ApplyPromotionInput{
		Code:        "TEN-OFF",
		OrderAmount: mustMoney(t, "100.00"),
		Currency:    "EUR",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.Valid {
		t.Fatal("expected rejection for foreign currency order")
	}
	if !errors.Is(result.Err, ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", result.Err)
	}

	// 结算币种大小写不敏感
	result, err = svc.ApplyPromotion(ApplyPromotionInput{
		Code:        "TEN-OFF",
		OrderAmount: mustMoney(t, "100.00"),
		Currency:    "usd",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid result for settlement currency, got %v", result.Err)
	}
	if !result.DiscountAmount.Decimal.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected discount 10.00, got %s", result.DiscountAmount.String())
	}
}
