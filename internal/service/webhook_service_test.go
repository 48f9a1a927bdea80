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
	"gorm.io/gorm"
)

func setupWebhookServiceTest(t *testing.T) (*WebhookService, *PaymentService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:webhook_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.PaymentIntent{},
		&models.PaymentTransaction{},
		&models.PaymentWebhookEvent{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	paymentSvc := NewPaymentService(repository.NewPaymentRepository(db))
	webhookSvc := NewWebhookService(repository.NewWebhookEventRepository(db), paymentSvc)
	return webhookSvc, paymentSvc, db
}

func TestWebhookIngestIsIdempotent(t *testing.T) {
	webhookSvc, paymentSvc, db := setupWebhookServiceTest(t)

	intent, err := paymentSvc.CreateIntent(CreateIntentInput{
		OrderID:  "O1",
		Amount:   mustMoney(t, "100.00"),
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}

	first, err := webhookSvc.Ingest(IngestInput{
		Provider:        "stripe",
		ProviderEventID: "e1",
		EventType:       constants.WebhookEventAuthorizeSucceeded,
		IntentNo:        intent.IntentNo,
	})
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	if !first.Processed {
		t.Fatal("expected first ingest to process")
	}

	second, err := webhookSvc.Ingest(IngestInput{
		Provider:        "stripe",
		ProviderEventID: "e1",
		EventType:       constants.WebhookEventAuthorizeSucceeded,
		IntentNo:        intent.IntentNo,
	})
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if second.Processed || !second.Duplicate {
		t.Fatalf("expected duplicate no-op, got %+v", second)
	}

	after, err := paymentSvc.GetIntent(intent.IntentNo, "")
	if err != nil {
		t.Fatalf("get intent failed: %v", err)
	}
	if after.Status != models.PaymentIntentStatusAuthorized {
		t.Fatalf("expected authorized, got %s", after.Status)
	}
	var txnCount int64
	if err := db.Model(&models.PaymentTransaction{}).Where("intent_id = ?", intent.ID).Count(&txnCount).Error; err != nil {
		t.Fatalf("count txns failed: %v", err)
	}
	if txnCount != 1 {
		t.Fatalf("expected exactly one settlement row, got %d", txnCount)
	}
	var eventCount int64
	if err := db.Model(&models.PaymentWebhookEvent{}).Count(&eventCount).Error; err != nil {
		t.Fatalf("count events failed: %v", err)
	}
	if eventCount != 1 {
		t.Fatalf("expected exactly one event row, got %d", eventCount)
	}
}

func TestWebhookFullLifecycleWithReplayedCapture(t *testing.T) {
	webhookSvc, paymentSvc, db := setupWebhookServiceTest(t)

	intent, err := paymentSvc.CreateIntent(CreateIntentInput{
		OrderID:  "O1",
		Amount:   mustMoney(t, "100.00"),
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}

	steps := []struct {
		eventID   string
		eventType string
		amount    string
	}{
		{"e1", constants.WebhookEventAuthorizeSucceeded, ""},
		{"e2", constants.WebhookEventCaptureSucceeded, ""},
		{"e3", constants.WebhookEventRefundSucceeded, "100.00"},
	}
	for _, step := range steps {
		input := IngestInput{
			Provider:        "stripe",
			ProviderEventID: step.eventID,
			EventType:       step.eventType,
			IntentNo:        intent.IntentNo,
		}
		if step.amount != "" {
			input.Amount = mustMoney(t, step.amount)
		}
		result, err := webhookSvc.Ingest(input)
		if err != nil {
			t.Fatalf("ingest %s failed: %v", step.eventType, err)
		}
		if !result.Processed {
			t.Fatalf("expected %s processed", step.eventType)
		}
	}

	after, err := paymentSvc.GetIntent(intent.IntentNo, "")
	if err != nil {
		t.Fatalf("get intent failed: %v", err)
	}
	if after.Status != models.PaymentIntentStatusRefunded {
		t.Fatalf("expected refunded, got %s", after.Status)
	}

	// 重放 capture 事件：同一事件ID是重复投递的无操作
	replay, err := webhookSvc.Ingest(IngestInput{
		Provider:        "stripe",
		ProviderEventID: "e2",
		EventType:       constants.WebhookEventCaptureSucceeded,
		IntentNo:        intent.IntentNo,
	})
	if err != nil {
		t.Fatalf("replay ingest failed: %v", err)
	}
	if replay.Processed || !replay.Duplicate {
		t.Fatalf("expected replay no-op, got %+v", replay)
	}

	after, err = paymentSvc.GetIntent(intent.IntentNo, "")
	if err != nil {
		t.Fatalf("get intent failed: %v", err)
	}
	if after.Status != models.PaymentIntentStatusRefunded {
		t.Fatalf("replay mutated state to %s", after.Status)
	}
	var txnCount int64
	if err := db.Model(&models.PaymentTransaction{}).Where("intent_id = ?", intent.ID).Count(&txnCount).Error; err != nil {
		t.Fatalf("count txns failed: %v", err)
	}
	if txnCount != 3 {
		t.Fatalf("expected 3 settlement rows after replay, got %d", txnCount)
	}
}

func TestWebhookFailedDispatchLeavesEventUnprocessed(t *testing.T) {
	webhookSvc, paymentSvc, db := setupWebhookServiceTest(t)

	intent, err := paymentSvc.CreateIntent(CreateIntentInput{
		OrderID:  "O1",
		Amount:   mustMoney(t, "100.00"),
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}

	// created 状态不接受 capture
	result, err := webhookSvc.Ingest(IngestInput{
		Provider:        "stripe",
		ProviderEventID: "bad-1",
		EventType:       constants.WebhookEventCaptureSucceeded,
		IntentNo:        intent.IntentNo,
	})
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if result == nil || result.Processed {
		t.Fatalf("expected unprocessed result, got %+v", result)
	}

	// 事件行保留且未盖处理时间，失败事件可被审计列表捞出
	var event models.PaymentWebhookEvent
	if err := db.Where("provider = ? AND provider_event_id = ?", "stripe", "bad-1").First(&event).Error; err != nil {
		t.Fatalf("event row missing: %v", err)
	}
	if event.ProcessedAt != nil {
		t.Fatal("failed event must not be marked processed")
	}

	failed, _, err := webhookSvc.ListEvents(repository.WebhookEventListFilter{OnlyFailed: true})
	if err != nil {
		t.Fatalf("list failed events failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ProviderEventID != "bad-1" {
		t.Fatalf("expected failed event in audit list, got %+v", failed)
	}

	// 同一事件ID重投仍然是去重的无操作，不会重复处理畸形事件
	replay, err := webhookSvc.Ingest(IngestInput{
		Provider:        "stripe",
		ProviderEventID: "bad-1",
		EventType:       constants.WebhookEventCaptureSucceeded,
		IntentNo:        intent.IntentNo,
	})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if replay.Processed || !replay.Duplicate {
		t.Fatalf("expected duplicate no-op, got %+v", replay)
	}
}

func TestWebhookUnknownEventTypeRecordedAndRejected(t *testing.T) {
	webhookSvc, paymentSvc, db := setupWebhookServiceTest(t)

	intent, err := paymentSvc.CreateIntent(CreateIntentInput{
		OrderID:  "O1",
		Amount:   mustMoney(t, "10.00"),
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}

	result, err := webhookSvc.Ingest(IngestInput{
		Provider:        "stripe",
		ProviderEventID: "weird-1",
		EventType:       "dispute.opened",
		IntentNo:        intent.IntentNo,
	})
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition for unknown type, got %v", err)
	}
	if result == nil || result.Processed {
		t.Fatalf("expected unprocessed result, got %+v", result)
	}
	var eventCount int64
	if err := db.Model(&models.PaymentWebhookEvent{}).Where("event_type = ?", "dispute.opened").Count(&eventCount).Error; err != nil {
		t.Fatalf("count events failed: %v", err)
	}
	if eventCount != 1 {
		t.Fatalf("unknown event must still be recorded, got %d rows", eventCount)
	}
}

func TestWebhookListEventsFilters(t *testing.T) {
	webhookSvc, paymentSvc, _ := setupWebhookServiceTest(t)

	intent, err := paymentSvc.CreateIntent(CreateIntentInput{
		OrderID:  "O1",
		Amount:   mustMoney(t, "10.00"),
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	for i, eventType := range []string{
		constants.WebhookEventAuthorizeSucceeded,
		constants.WebhookEventCaptureSucceeded,
	} {
		if _, err := webhookSvc.Ingest(IngestInput{
			Provider:        "paypal",
			ProviderEventID: fmt.Sprintf("pp-%d", i+1),
			EventType:       eventType,
			IntentNo:        intent.IntentNo,
		}); err != nil {
			t.Fatalf("ingest %s failed: %v", eventType, err)
		}
	}

	events, total, err := webhookSvc.ListEvents(repository.WebhookEventListFilter{Provider: "PAYPAL"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(events) != 2 {
		t.Fatalf("expected 2 paypal events, got total=%d len=%d", total, len(events))
	}

	events, total, err = webhookSvc.ListEvents(repository.WebhookEventListFilter{
		Provider:  "paypal",
		EventType: constants.WebhookEventCaptureSucceeded,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || events[0].EventType != constants.WebhookEventCaptureSucceeded {
		t.Fatalf("expected one capture event, got total=%d", total)
	}
}

func TestWebhookRefundRejectsForeignCurrency(t *testing.T) {
	webhookSvc, paymentSvc, db := setupWebhookServiceTest(t)

	intent, err := paymentSvc.CreateIntent(CreateIntentInput{
		OrderID:  "O1",
		Amount:   mustMoney(t, "100.00"),
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	for i, eventType := range []string{constants.WebhookEventAuthorizeSucceeded, constants.WebhookEventCaptureSucceeded} {
		if _, err := webhookSvc.Ingest(IngestInput{
			Provider:        "stripe",
			ProviderEventID: fmt.Sprintf("e%d", i+1),
			EventType:       eventType,
			IntentNo:        intent.IntentNo,
		}); err != nil {
			t.Fatalf("ingest %s failed: %v", eventType, err)
		}
	}

	// 渠道上报的退款币种与意向币种不一致，任何写入前拒绝
	result, err := webhookSvc.Ingest(IngestInput{
		Provider:        "stripe",
		ProviderEventID: "e3",
		EventType:       constants.WebhookEventRefundSucceeded,
		IntentNo:        intent.IntentNo,
		Amount:          mustMoney(t, "50.00"),
		Currency:        "EUR",
	})
	if !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
	if result == nil || result.Processed {
		t.Fatalf("expected unprocessed result, got %+v", result)
	}

	after, err := paymentSvc.GetIntent(intent.IntentNo, "")
	if err != nil {
		t.Fatalf("get intent failed: %v", err)
	}
	if after.Status != models.PaymentIntentStatusCaptured {
		t.Fatalf("rejected refund mutated status to %s", after.Status)
	}
	if after.RefundedAmount.String() != "0.00" {
		t.Fatalf("rejected refund mutated refunded amount to %s", after.RefundedAmount.String())
	}
	var refundCount int64
	if err := db.Model(&models.PaymentTransaction{}).
		Where("intent_id = ? AND type = ?", intent.ID, constants.PaymentTxnTypeRefund).
		Count(&refundCount).Error; err != nil {
		t.Fatalf("count refund txns failed: %v", err)
	}
	if refundCount != 0 {
		t.Fatalf("expected no refund settlement rows, got %d", refundCount)
	}

	// 同币种（含小写）退款照常通过
	ok, err := webhookSvc.Ingest(IngestInput{
		Provider:        "stripe",
		ProviderEventID: "e4",
		EventType:       constants.WebhookEventRefundSucceeded,
		IntentNo:        intent.IntentNo,
		Amount:          mustMoney(t, "50.00"),
		Currency:        "usd",
	})
	if err != nil {
		t.Fatalf("same-currency refund failed: %v", err)
	}
	if !ok.Processed {
		t.Fatalf("expected refund processed, got %+v", ok)
	}
	after, err = paymentSvc.GetIntent(intent.IntentNo, "")
	if err != nil {
		t.Fatalf("get intent failed: %v", err)
	}
	if after.Status != models.PaymentIntentStatusPartiallyRefunded {
		t.Fatalf("expected partially_refunded, got %s", after.Status)
	}
	if after.RefundedAmount.String() != "50.00" {
		t.Fatalf("expected refunded 50.00, got %s", after.RefundedAmount.String())
	}
}
