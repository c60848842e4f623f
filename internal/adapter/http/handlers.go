package http

import (
	"github.com/saintvisionai/platform/internal/adapter/ws"
	"github.com/saintvisionai/platform/internal/domain/brand"
	"github.com/saintvisionai/platform/internal/service"
)

// maxBodySize limits JSON request bodies.
const maxBodySize = 1 << 20 // 1 MiB

// Handlers bundles the services the HTTP layer dispatches to.
type Handlers struct {
	agents      *service.AgentService
	chats       *service.ChatService
	escalations *service.EscalationService
	billing     *service.BillingService
	crm         *service.CRMService
	brands      *brand.Registry
	hub         *ws.Hub
}

// NewHandlers creates the handler set.
func NewHandlers(
	agents *service.AgentService,
	chats *service.ChatService,
	escalations *service.EscalationService,
	billing *service.BillingService,
	crm *service.CRMService,
	brands *brand.Registry,
	hub *ws.Hub,
) *Handlers {
	return &Handlers{
		agents:      agents,
		chats:       chats,
		escalations: escalations,
		billing:     billing,
		crm:         crm,
		brands:      brands,
		hub:         hub,
	}
}
