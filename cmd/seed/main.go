package main

import (
	"time"

	"github.com/benefit-ledger/internal/config"
	"github.com/benefit-ledger/internal/constants"
	"github.com/benefit-ledger/internal/logger"
	"github.com/benefit-ledger/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加演示礼品卡
	nextYear := time.Now().AddDate(1, 0, 0)
	giftCards := []models.GiftCard{
		{
			Code:           "GC-DEMO-0001",
			InitialAmount:  models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
			CurrentBalance: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
			Currency:       constants.DefaultCurrency,
			Status:         models.GiftCardStatusActive,
			ExpiresAt:      &nextYear,
			RecipientEmail: "alice@example.com",
			RecipientName:  "Alice",
			Message:        "Happy birthday!",
		},
		{
			Code:           "GC-DEMO-0002",
			InitialAmount:  models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
			CurrentBalance: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
			Currency:       constants.DefaultCurrency,
			Status:         models.GiftCardStatusActive,
		},
		{
			Code:           "GC-DEMO-0003",
			InitialAmount:  models.NewMoneyFromDecimal(decimal.NewFromFloat(25.50)),
			CurrentBalance: models.NewMoneyFromDecimal(decimal.NewFromFloat(25.50)),
			Currency:       "EUR",
			Status:         models.GiftCardStatusActive,
		},
	}

	for _, card := range giftCards {
		var existing models.GiftCard
		if err := models.DB.Where("code = ?", card.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&card).Error; err != nil {
				stdLog.Printf("Failed to create gift card %s: %v", card.Code, err)
				continue
			}
			issueTxn := models.GiftCardTransaction{
				GiftCardID: card.ID,
				Type:       constants.GiftCardTxnTypeIssue,
				Amount:     card.InitialAmount,
			}
			if err := models.DB.Create(&issueTxn).Error; err != nil {
				stdLog.Printf("Failed to create issue transaction for %s: %v", card.Code, err)
			}
			stdLog.Printf("Created gift card: %s", card.Code)
		} else {
			stdLog.Printf("Gift card already exists: %s", card.Code)
		}
	}

	// 添加演示优惠活动
	welcomeCode := "WELCOME10"
	summerCode := "SUMMER5"
	summerStart := time.Now().AddDate(0, 0, -7)
	summerEnd := time.Now().AddDate(0, 1, 0)
	promotions := []models.Promotion{
		{
			Code:        &welcomeCode,
			Name:        "新客九折",
			RuleType:    constants.PromotionRulePercentage,
			Value:       models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			MaxDiscount: models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
			Status:      models.PromotionStatusActive,
		},
		{
			Code:        &summerCode,
			Name:        "夏季立减",
			RuleType:    constants.PromotionRuleFixedAmount,
			Value:       models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
			MinPurchase: models.NewMoneyFromDecimal(decimal.NewFromInt(30)),
			StartsAt:    &summerStart,
			EndsAt:      &summerEnd,
			UsageLimit:  100,
			Status:      models.PromotionStatusActive,
		},
		{
			Name:     "全场免邮",
			RuleType: constants.PromotionRuleFreeShipping,
			Value:    models.NewMoneyFromDecimal(decimal.Zero),
			Status:   models.PromotionStatusActive,
		},
	}

	for _, promo := range promotions {
		query := models.DB.Where("name = ?", promo.Name)
		if promo.Code != nil {
			query = models.DB.Where("code = ?", *promo.Code)
		}
		var existing models.Promotion
		if err := query.First(&existing).Error; err != nil {
			if err := models.DB.Create(&promo).Error; err != nil {
				stdLog.Printf("Failed to create promotion %s: %v", promo.Name, err)
			} else {
				stdLog.Printf("Created promotion: %s", promo.Name)
			}
		} else {
			stdLog.Printf("Promotion already exists: %s", promo.Name)
		}
	}

	// 添加演示积分账户
	account := models.LoyaltyAccount{
		UserID:        "demo-user-1",
		ProgramID:     "default",
		PointsBalance: 500,
		Tier:          "silver",
	}
	var existingAccount models.LoyaltyAccount
	if err := models.DB.Where("user_id = ? AND program_id = ?", account.UserID, account.ProgramID).First(&existingAccount).Error; err != nil {
		if err := models.DB.Create(&account).Error; err != nil {
			stdLog.Printf("Failed to create loyalty account %s: %v", account.UserID, err)
		} else {
			accrual := models.LoyaltyTransaction{
				AccountID:   account.ID,
				PointsDelta: account.PointsBalance,
				Reason:      constants.LoyaltyReasonAdjustment,
			}
			if err := models.DB.Create(&accrual).Error; err != nil {
				stdLog.Printf("Failed to create loyalty transaction: %v", err)
			}
			stdLog.Printf("Created loyalty account: %s/%s", account.UserID, account.ProgramID)
		}
	} else {
		stdLog.Printf("Loyalty account already exists: %s/%s", account.UserID, account.ProgramID)
	}

	stdLog.Printf("Seed completed")
}
