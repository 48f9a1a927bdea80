package worker

import (
	"context"
	"errors"
	"time"

	"github.com/benefit-ledger/internal/config"
	"github.com/benefit-ledger/internal/logger"
	"github.com/benefit-ledger/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultReconcileInterval = time.Hour

// Service 异步队列服务
type Service struct {
	name      string
	server    *asynq.Server
	mux       *asynq.ServeMux
	consumer  *Consumer
	reconcile config.ReconcileConfig
}

// NewService 创建异步队列服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:      "worker",
		server:    server,
		mux:       mux,
		consumer:  consumer,
		reconcile: cfg.Reconcile,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.reconcile.Enabled && s.consumer != nil && s.consumer.QueueClient != nil {
		go s.runReconcileLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runReconcileLoop 定时推送对账任务，立即跑一轮后按配置间隔循环
func (s *Service) runReconcileLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.QueueClient == nil {
		return
	}
	interval := defaultReconcileInterval
	if s.reconcile.IntervalMinutes > 0 {
		interval = time.Duration(s.reconcile.IntervalMinutes) * time.Minute
	}
	scope := resolveReconcileScope(s.reconcile.Scope)
	enqueueOnce := func() {
		payload := queue.LedgerReconcilePayload{Scope: scope}
		if err := s.consumer.QueueClient.EnqueueLedgerReconcile(payload); err != nil {
			logger.Warnw("worker_enqueue_ledger_reconcile_failed", "scope", scope, "error", err)
		}
	}
	enqueueOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enqueueOnce()
		}
	}
}
