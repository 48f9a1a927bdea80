package public

import "github.com/benefit-ledger/internal/provider"

// Handler 结算/渠道侧接口处理器入口
// 说明：该处理器仅用于结算域与支付渠道回调 API。
type Handler struct {
	*provider.Container
}

// New 创建公开处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
