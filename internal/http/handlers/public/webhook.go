package public

import (
	"strings"

	"github.com/benefit-ledger/internal/http/response"
	"github.com/benefit-ledger/internal/models"
	"github.com/benefit-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// WebhookEventRequest 渠道回调请求，渠道适配层已归一化为统一事件结构
type WebhookEventRequest struct {
	EventID     string       `json:"event_id" binding:"required"`
	EventType   string       `json:"event_type" binding:"required"`
	IntentNo    string       `json:"intent_no"`
	Amount      MoneyPayload `json:"amount"`
	ProviderRef string       `json:"provider_ref"`
	Payload     models.JSON  `json:"payload"`
}

// IngestWebhook 摄取渠道回调；重复投递返回 duplicate=true，不报错
func (h *Handler) IngestWebhook(c *gin.Context) {
	log := requestLog(c)
	provider := strings.TrimSpace(c.Param("provider"))
	if provider == "" {
		respondError(c, response.CodeBadRequest, "provider required", nil)
		return
	}
	var req WebhookEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnw("webhook_body_invalid", "provider", provider, "error", err)
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	var amount models.Money
	var currency string
	if strings.TrimSpace(req.Amount.Amount) != "" {
		parsed, parsedCurrency, err := req.Amount.toMoney()
		if err != nil {
			respondError(c, response.CodeBadRequest, "amount invalid", nil)
			return
		}
		amount = parsed
		currency = parsedCurrency
	}

	log.Infow("webhook_received",
		"provider", provider,
		"event_id", req.EventID,
		"event_type", req.EventType,
		"intent_no", req.IntentNo,
		"client_ip", c.ClientIP(),
	)

	result, err := h.WebhookService.Ingest(service.IngestInput{
		Provider:        provider,
		ProviderEventID: req.EventID,
		EventType:       req.EventType,
		IntentNo:        req.IntentNo,
		Amount:          amount,
		Currency:        currency,
		ProviderRef:     req.ProviderRef,
		Payload:         req.Payload,
	})
	if err != nil {
		respondWebhookIngestError(c, err)
		return
	}

	if result.Duplicate {
		response.Success(c, gin.H{
			"processed": false,
			"duplicate": true,
		})
		return
	}

	resp := gin.H{
		"processed": result.Processed,
		"duplicate": false,
	}
	if result.Intent != nil {
		resp["intent_no"] = result.Intent.IntentNo
		resp["status"] = result.Intent.Status
	}
	response.Success(c, resp)
}
