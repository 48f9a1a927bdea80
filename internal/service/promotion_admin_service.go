package service

import (
	"strings"
	"time"

	"github.com/benefit-ledger/internal/constants"
	"github.com/benefit-ledger/internal/models"
	"github.com/benefit-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

// PromotionAdminService 优惠活动管理服务
type PromotionAdminService struct {
	repo      repository.PromotionRepository
	usageRepo repository.PromotionUsageRepository
}

// NewPromotionAdminService 创建优惠管理服务
func NewPromotionAdminService(repo repository.PromotionRepository, usageRepo repository.PromotionUsageRepository) *PromotionAdminService {
	return &PromotionAdminService{repo: repo, usageRepo: usageRepo}
}

// CreatePromotionInput 创建优惠活动输入
type CreatePromotionInput struct {
	Code                 string
	Name                 string
	RuleType             string
	Value                models.Money
	MaxDiscount          models.Money
	MinPurchase          models.Money
	ApplicableProducts   []string
	ApplicableCategories []string
	StartsAt             *time.Time
	EndsAt               *time.Time
	UsageLimit           int
	Status               string
}

// UpdatePromotionInput 更新优惠活动输入
type UpdatePromotionInput struct {
	Name        *string
	Value       *models.Money
	MaxDiscount *models.Money
	MinPurchase *models.Money
	StartsAt    *time.Time
	EndsAt      *time.Time
	ClearWindow bool
	UsageLimit  *int
	Status      *string
}

// PromotionListInput 优惠活动列表输入
type PromotionListInput struct {
	Code       string
	RuleType   string
	Status     string
	OnlyActive bool
	Page       int
	PageSize   int
}

// CreatePromotion 创建优惠活动
func (s *PromotionAdminService) CreatePromotion(input CreatePromotionInput) (*models.Promotion, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPromotionCreateFailed
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrValidationFailed
	}
	ruleType := strings.TrimSpace(strings.ToLower(input.RuleType))
	switch ruleType {
	case constants.PromotionRulePercentage, constants.PromotionRuleFixedAmount, constants.PromotionRuleFreeShipping:
	default:
		return nil, ErrValidationFailed
	}
	value := input.Value.Decimal.Round(2)
	if value.LessThanOrEqual(decimal.Zero) {
		return nil, ErrValidationFailed
	}
	if ruleType == constants.PromotionRulePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrValidationFailed
	}
	maxDiscount := input.MaxDiscount.Decimal.Round(2)
	minPurchase := input.MinPurchase.Decimal.Round(2)
	if maxDiscount.LessThan(decimal.Zero) || minPurchase.LessThan(decimal.Zero) {
		return nil, ErrValidationFailed
	}
	if input.UsageLimit < 0 {
		return nil, ErrValidationFailed
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, ErrValidationFailed
	}
	status := strings.TrimSpace(strings.ToLower(input.Status))
	if status == "" {
		status = models.PromotionStatusActive
	}
	switch status {
	case models.PromotionStatusActive, models.PromotionStatusInactive:
	default:
		return nil, ErrValidationFailed
	}

	var codePtr *string
	code := strings.TrimSpace(strings.ToUpper(input.Code))
	if code != "" {
		existing, err := s.repo.GetByCode(code)
		if err != nil {
			return nil, ErrPromotionFetchFailed
		}
		if existing != nil {
			return nil, ErrPromotionInvalid
		}
		codePtr = &code
	}

	now := time.Now()
	promotion := &models.Promotion{
		Code:                 codePtr,
		Name:                 name,
		RuleType:             ruleType,
		Value:                models.NewMoneyFromDecimal(value),
		MaxDiscount:          models.NewMoneyFromDecimal(maxDiscount),
		MinPurchase:          models.NewMoneyFromDecimal(minPurchase),
		ApplicableProducts:   normalizeIDList(input.ApplicableProducts),
		ApplicableCategories: normalizeIDList(input.ApplicableCategories),
		StartsAt:             input.StartsAt,
		EndsAt:               input.EndsAt,
		UsageLimit:           input.UsageLimit,
		Status:               status,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.repo.Create(promotion); err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrPromotionInvalid
		}
		return nil, ErrPromotionCreateFailed
	}
	return promotion, nil
}

// UpdatePromotion 更新优惠活动
func (s *PromotionAdminService) UpdatePromotion(id uint, input UpdatePromotionInput) (*models.Promotion, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPromotionFetchFailed
	}
	if id == 0 {
		return nil, ErrValidationFailed
	}
	promotion, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrPromotionFetchFailed
	}
	if promotion == nil {
		return nil, ErrPromotionNotFound
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrValidationFailed
		}
		promotion.Name = name
	}
	if input.Value != nil {
		value := input.Value.Decimal.Round(2)
		if value.LessThanOrEqual(decimal.Zero) {
			return nil, ErrValidationFailed
		}
		if promotion.RuleType == constants.PromotionRulePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
			return nil, ErrValidationFailed
		}
		promotion.Value = models.NewMoneyFromDecimal(value)
	}
	if input.MaxDiscount != nil {
		maxDiscount := input.MaxDiscount.Decimal.Round(2)
		if maxDiscount.LessThan(decimal.Zero) {
			return nil, ErrValidationFailed
		}
		promotion.MaxDiscount = models.NewMoneyFromDecimal(maxDiscount)
	}
	if input.MinPurchase != nil {
		minPurchase := input.MinPurchase.Decimal.Round(2)
		if minPurchase.LessThan(decimal.Zero) {
			return nil, ErrValidationFailed
		}
		promotion.MinPurchase = models.NewMoneyFromDecimal(minPurchase)
	}
	if input.ClearWindow {
		promotion.StartsAt = nil
		promotion.EndsAt = nil
	} else {
		if input.StartsAt != nil {
			promotion.StartsAt = input.StartsAt
		}
		if input.EndsAt != nil {
			promotion.EndsAt = input.EndsAt
		}
		if promotion.StartsAt != nil && promotion.EndsAt != nil && promotion.EndsAt.Before(*promotion.StartsAt) {
			return nil, ErrValidationFailed
		}
	}
	if input.UsageLimit != nil {
		if *input.UsageLimit < 0 {
			return nil, ErrValidationFailed
		}
		promotion.UsageLimit = *input.UsageLimit
	}
	if input.Status != nil {
		status := strings.TrimSpace(strings.ToLower(*input.Status))
		switch status {
		case models.PromotionStatusActive, models.PromotionStatusInactive:
			promotion.Status = status
		default:
			return nil, ErrValidationFailed
		}
	}
	promotion.UpdatedAt = time.Now()
	if err := s.repo.Update(promotion); err != nil {
		return nil, ErrPromotionUpdateFailed
	}
	return promotion, nil
}

// DeletePromotion 删除优惠活动（已有使用记录的转为下线）
func (s *PromotionAdminService) DeletePromotion(id uint) error {
	if s == nil || s.repo == nil || s.usageRepo == nil {
		return ErrPromotionFetchFailed
	}
	if id == 0 {
		return ErrValidationFailed
	}
	promotion, err := s.repo.GetByID(id)
	if err != nil {
		return ErrPromotionFetchFailed
	}
	if promotion == nil {
		return ErrPromotionNotFound
	}
	count, err := s.usageRepo.CountByPromotion(id)
	if err != nil {
		return ErrPromotionFetchFailed
	}
	if count > 0 {
		promotion.Status = models.PromotionStatusInactive
		promotion.UpdatedAt = time.Now()
		if err := s.repo.Update(promotion); err != nil {
			return ErrPromotionUpdateFailed
		}
		return nil
	}
	if err := s.repo.Delete(id); err != nil {
		return ErrPromotionDeleteFailed
	}
	return nil
}

// ListPromotions 分页查询优惠活动
func (s *PromotionAdminService) ListPromotions(input PromotionListInput) ([]models.Promotion, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrPromotionFetchFailed
	}
	filter := repository.PromotionListFilter{
		Code:       strings.TrimSpace(strings.ToUpper(input.Code)),
		RuleType:   strings.TrimSpace(strings.ToLower(input.RuleType)),
		Status:     strings.TrimSpace(strings.ToLower(input.Status)),
		OnlyActive: input.OnlyActive,
		Page:       input.Page,
		PageSize:   input.PageSize,
	}
	promotions, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, ErrPromotionFetchFailed
	}
	return promotions, total, nil
}

// GetPromotion 按ID获取优惠活动及使用次数
func (s *PromotionAdminService) GetPromotion(id uint) (*models.Promotion, int64, error) {
	if s == nil || s.repo == nil || s.usageRepo == nil {
		return nil, 0, ErrPromotionFetchFailed
	}
	if id == 0 {
		return nil, 0, ErrValidationFailed
	}
	promotion, err := s.repo.GetByID(id)
	if err != nil {
		return nil, 0, ErrPromotionFetchFailed
	}
	if promotion == nil {
		return nil, 0, ErrPromotionNotFound
	}
	count, err := s.usageRepo.CountByPromotion(id)
	if err != nil {
		return nil, 0, ErrPromotionFetchFailed
	}
	return promotion, count, nil
}

func normalizeIDList(ids []string) models.StringArray {
	if len(ids) == 0 {
		return models.StringArray{}
	}
	seen := make(map[string]struct{}, len(ids))
	result := make(models.StringArray, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
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
