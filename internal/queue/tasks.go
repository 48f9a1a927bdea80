package queue

import (
	"encoding/json"

	"github.com/benefit-ledger/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskLedgerReconcile 台账对账任务
	TaskLedgerReconcile = constants.TaskLedgerReconcile
)

// LedgerReconcilePayload 对账任务载荷
type LedgerReconcilePayload struct {
	Scope string `json:"scope"`
}

// NewLedgerReconcileTask 创建对账任务
func NewLedgerReconcileTask(payload LedgerReconcilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerReconcile, body), nil
}
