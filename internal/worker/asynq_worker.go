package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/benefit-ledger/internal/constants"
	"github.com/benefit-ledger/internal/logger"
	"github.com/benefit-ledger/internal/provider"
	"github.com/benefit-ledger/internal/queue"
	"github.com/benefit-ledger/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskLedgerReconcile, c.handleLedgerReconcile)
}

func (c *Consumer) handleLedgerReconcile(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_ledger_reconcile_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.LedgerReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_ledger_reconcile_unmarshal_failed", "error", err)
		return err
	}
	if c.ReconcileService == nil {
		logger.Warnw("worker_ledger_reconcile_skip_service_nil", "scope", payload.Scope)
		return nil
	}
	scope := resolveReconcileScope(payload.Scope)
	report, err := c.ReconcileService.Run(scope)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidationFailed):
			logger.Warnw("worker_ledger_reconcile_skip_invalid_scope", "scope", payload.Scope)
			return nil
		default:
			logger.Warnw("worker_ledger_reconcile_failed", "scope", scope, "error", err)
			return err
		}
	}
	logger.Infow("worker_ledger_reconcile_done",
		"scope", report.Scope,
		"checked", report.Checked,
		"drifts", len(report.Drifts),
		"duration", report.Duration,
	)
	return nil
}

// resolveReconcileScope 空 scope 回落到 all
func resolveReconcileScope(scope string) string {
	normalized := strings.TrimSpace(strings.ToLower(scope))
	if normalized == "" {
		return constants.ReconcileScopeAll
	}
	return normalized
}
