package service

import (
	"errors"
	"strings"
	"time"

	"github.com/benefit-ledger/internal/logger"
	"github.com/benefit-ledger/internal/models"
	"github.com/benefit-ledger/internal/repository"
)

// WebhookService 支付回调摄取服务
type WebhookService struct {
	eventRepo  repository.WebhookEventRepository
	paymentSvc *PaymentService
}

// NewWebhookService 创建回调服务
func NewWebhookService(eventRepo repository.WebhookEventRepository, paymentSvc *PaymentService) *WebhookService {
	return &WebhookService{
		eventRepo:  eventRepo,
		paymentSvc: paymentSvc,
	}
}

// IngestInput 回调摄取输入
type IngestInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	IntentNo        string
	Amount          models.Money
	Currency        string
	ProviderRef     string
	Payload         models.JSON
}

// IngestResult 回调摄取结果
type IngestResult struct {
	Processed bool                  `json:"processed"`
	Duplicate bool                  `json:"duplicate"`
	Intent    *models.PaymentIntent `json:"intent,omitempty"`
}

// Ingest 摄取一条回调事件
// 先落事件行，(provider, provider_event_id) 唯一索引冲突即重复投递，直接
// 返回 processed=false；插入成功后分发状态迁移，迁移成功才盖 processed_at。
// 迁移失败的事件行保留（阻止重复处理），记错误日志供运营排查，不自动重试。
func (s *WebhookService) Ingest(input IngestInput) (*IngestResult, error) {
	if s == nil || s.eventRepo == nil || s.paymentSvc == nil {
		return nil, ErrWebhookIngestFailed
	}
	provider := strings.TrimSpace(strings.ToLower(input.Provider))
	providerEventID := strings.TrimSpace(input.ProviderEventID)
	eventType := strings.TrimSpace(strings.ToLower(input.EventType))
	if provider == "" || providerEventID == "" || eventType == "" {
		return nil, ErrValidationFailed
	}

	event := &models.PaymentWebhookEvent{
		Provider:        provider,
		ProviderEventID: providerEventID,
		EventType:       eventType,
		Payload:         input.Payload,
		CreatedAt:       time.Now(),
	}
	if err := s.eventRepo.Create(event); err != nil {
		if isDuplicateKeyError(err) {
			logger.Infow("webhook_duplicate_delivery",
				"provider", provider,
				"provider_event_id", providerEventID,
				"event_type", eventType,
			)
			return &IngestResult{Processed: false, Duplicate: true}, nil
		}
		return nil, ErrWebhookIngestFailed
	}

	intent, err := s.paymentSvc.ApplyTransition(TransitionInput{
		IntentNo:    strings.TrimSpace(input.IntentNo),
		Event:       eventType,
		Amount:      input.Amount,
		Currency:    input.Currency,
		ProviderRef: strings.TrimSpace(input.ProviderRef),
	})
	if err != nil {
		logger.Errorw("webhook_dispatch_failed",
			"provider", provider,
			"provider_event_id", providerEventID,
			"event_type", eventType,
			"intent_no", input.IntentNo,
			"error", err,
		)
		if errors.Is(err, ErrInvalidStateTransition) || errors.Is(err, ErrCurrencyMismatch) || errors.Is(err, ErrPaymentIntentNotFound) || errors.Is(err, ErrValidationFailed) {
			return &IngestResult{Processed: false}, err
		}
		return &IngestResult{Processed: false}, ErrWebhookIngestFailed
	}

	if err := s.eventRepo.MarkProcessed(event.ID, time.Now()); err != nil {
		logger.Errorw("webhook_mark_processed_failed",
			"provider", provider,
			"provider_event_id", providerEventID,
			"error", err,
		)
		return &IngestResult{Processed: false, Intent: intent}, ErrWebhookIngestFailed
	}

	return &IngestResult{Processed: true, Intent: intent}, nil
}

// ListEvents 审计查询回调事件
func (s *WebhookService) ListEvents(filter repository.WebhookEventListFilter) ([]models.PaymentWebhookEvent, int64, error) {
	if s == nil || s.eventRepo == nil {
		return nil, 0, ErrWebhookEventFetchFailed
	}
	filter.Provider = strings.TrimSpace(strings.ToLower(filter.Provider))
	filter.EventType = strings.TrimSpace(strings.ToLower(filter.EventType))
	events, total, err := s.eventRepo.List(filter)
	if err != nil {
		return nil, 0, ErrWebhookEventFetchFailed
	}
	return events, total, nil
}
