package service

import (
	"strings"
	"time"

	"github.com/benefit-ledger/internal/constants"
	"github.com/benefit-ledger/internal/models"
	"github.com/benefit-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

// PromotionService 优惠规则引擎
type PromotionService struct {
	repo      repository.PromotionRepository
	usageRepo repository.PromotionUsageRepository
}

// NewPromotionService 创建优惠服务
func NewPromotionService(repo repository.PromotionRepository, usageRepo repository.PromotionUsageRepository) *PromotionService {
	return &PromotionService{repo: repo, usageRepo: usageRepo}
}

// ApplyPromotionInput 优惠试算输入
type ApplyPromotionInput struct {
	Code        string
	OrderAmount models.Money
	Currency    string
	ProductIDs  []string
	CategoryIDs []string
}

// ApplyPromotionResult 优惠试算结果
type ApplyPromotionResult struct {
	Valid          bool              `json:"valid"`
	Promotion      *models.Promotion `json:"promotion,omitempty"`
	DiscountAmount models.Money      `json:"discount_amount"`
	Err            error             `json:"-"`
}

// RecordUsageInput 使用记录输入
type RecordUsageInput struct {
	PromotionID    uint
	OrderID        string
	DiscountAmount models.Money
}

// ApplyPromotion 试算优惠，纯读取无副作用
// 校验顺序固定：币种 → 存在性 → 有效性 → 用量 → 适用范围 → 折扣计算，首个失败即返回
func (s *PromotionService) ApplyPromotion(input ApplyPromotionInput) (*ApplyPromotionResult, error) {
	if s == nil || s.repo == nil || s.usageRepo == nil {
		return nil, ErrPromotionFetchFailed
	}
	code := strings.TrimSpace(strings.ToUpper(input.Code))
	if code == "" {
		return nil, ErrValidationFailed
	}
	orderAmount := input.OrderAmount.Decimal.Round(2)
	if orderAmount.LessThan(decimal.Zero) {
		return nil, ErrValidationFailed
	}
	// 固定减免与门槛金额均按结算币种计价，其他币种订单不参与优惠
	if currency := models.NormalizeCurrency(input.Currency); currency != "" && !models.SameCurrency(currency, constants.DefaultCurrency) {
		return invalidResult(ErrCurrencyMismatch), nil
	}

	promotion, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, ErrPromotionFetchFailed
	}
	if promotion == nil {
		return invalidResult(ErrPromotionNotFound), nil
	}

	now := time.Now()
	if !isPromotionCurrentlyValid(promotion, now) {
		return invalidResult(ErrPromotionNotCurrentlyValid), nil
	}

	// 用量每次重数行，不读缓存计数；不加锁，超量是业务接受的软上限
	if promotion.UsageLimit > 0 {
		count, err := s.usageRepo.CountByPromotion(promotion.ID)
		if err != nil {
			return nil, ErrPromotionFetchFailed
		}
		if count >= int64(promotion.UsageLimit) {
			return invalidResult(ErrPromotionUsageLimitReached), nil
		}
	}

	if !isPromotionEligible(promotion, orderAmount, input.ProductIDs, input.CategoryIDs) {
		return invalidResult(ErrPromotionNotApplicable), nil
	}

	discount := computeDiscount(promotion, orderAmount)
	if discount.LessThanOrEqual(decimal.Zero) {
		return invalidResult(ErrPromotionNotApplicable), nil
	}

	return &ApplyPromotionResult{
		Valid:          true,
		Promotion:      promotion,
		DiscountAmount: models.NewMoneyFromDecimal(discount),
	}, nil
}

// RecordUsage 订单确认后追加使用记录
// apply 阶段不落记录，弃单不占用量
func (s *PromotionService) RecordUsage(input RecordUsageInput) (*models.PromotionUsage, error) {
	if s == nil || s.repo == nil || s.usageRepo == nil {
		return nil, ErrPromotionFetchFailed
	}
	orderID := strings.TrimSpace(input.OrderID)
	if input.PromotionID == 0 || orderID == "" {
		return nil, ErrValidationFailed
	}
	discount := input.DiscountAmount.Decimal.Round(2)
	if discount.LessThan(decimal.Zero) {
		return nil, ErrValidationFailed
	}

	promotion, err := s.repo.GetByID(input.PromotionID)
	if err != nil {
		return nil, ErrPromotionFetchFailed
	}
	if promotion == nil {
		return nil, ErrPromotionNotFound
	}

	usage := &models.PromotionUsage{
		PromotionID:    promotion.ID,
		OrderID:        orderID,
		DiscountAmount: models.NewMoneyFromDecimal(discount),
		CreatedAt:      time.Now(),
	}
	if err := s.usageRepo.Create(usage); err != nil {
		return nil, ErrPromotionUpdateFailed
	}
	return usage, nil
}

// ListActivePromotions 查询当前生效的优惠
func (s *PromotionService) ListActivePromotions() ([]models.Promotion, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPromotionFetchFailed
	}
	promotions, err := s.repo.ListActive(time.Now())
	if err != nil {
		return nil, ErrPromotionFetchFailed
	}
	return promotions, nil
}

func invalidResult(reason error) *ApplyPromotionResult {
	return &ApplyPromotionResult{Valid: false, Err: reason}
}

func isPromotionCurrentlyValid(promotion *models.Promotion, now time.Time) bool {
	if promotion.Status != models.PromotionStatusActive {
		return false
	}
	if promotion.StartsAt != nil && now.Before(*promotion.StartsAt) {
		return false
	}
	if promotion.EndsAt != nil && now.After(*promotion.EndsAt) {
		return false
	}
	return true
}

func isPromotionEligible(promotion *models.Promotion, orderAmount decimal.Decimal, productIDs, categoryIDs []string) bool {
	minPurchase := promotion.MinPurchase.Decimal.Round(2)
	if minPurchase.GreaterThan(decimal.Zero) && orderAmount.LessThan(minPurchase) {
		return false
	}
	if len(promotion.ApplicableProducts) > 0 || len(promotion.ApplicableCategories) > 0 {
		if intersects(promotion.ApplicableProducts, productIDs) {
			return true
		}
		if intersects(promotion.ApplicableCategories, categoryIDs) {
			return true
		}
		return false
	}
	return true
}

func intersects(allowed models.StringArray, supplied []string) bool {
	if len(allowed) == 0 || len(supplied) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		set[strings.TrimSpace(id)] = struct{}{}
	}
	for _, id := range supplied {
		if _, ok := set[strings.TrimSpace(id)]; ok {
			return true
		}
	}
	return false
}

// computeDiscount 按规则类型计算折扣，最终与订单金额取小
func computeDiscount(promotion *models.Promotion, orderAmount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch promotion.RuleType {
	case constants.PromotionRulePercentage:
		discount = orderAmount.Mul(promotion.Value.Decimal).Div(decimal.NewFromInt(100)).Round(2)
		maxDiscount := promotion.MaxDiscount.Decimal.Round(2)
		if maxDiscount.GreaterThan(decimal.Zero) && discount.GreaterThan(maxDiscount) {
			discount = maxDiscount
		}
	case constants.PromotionRuleFixedAmount:
		discount = promotion.Value.Decimal.Round(2)
	case constants.PromotionRuleFreeShipping:
		discount = promotion.Value.Decimal.Round(2)
	default:
		return decimal.Zero
	}
	if discount.GreaterThan(orderAmount) {
		discount = orderAmount
	}
	return discount
}
