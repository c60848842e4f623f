package service

import (
	"context"
	"log/slog"

	"github.com/saintvisionai/platform/internal/domain/crm"
)

// CRMService routes inbound GoHighLevel webhook events. Handlers are
// best-effort: the webhook endpoint always acks parseable payloads.
type CRMService struct {
	crm CRMRegistrar
}

// NewCRMService creates a new CRMService. registrar may be nil when outbound
// CRM sync is not configured.
func NewCRMService(registrar CRMRegistrar) *CRMService {
	return &CRMService{crm: registrar}
}

// HandleEvent dispatches a CRM event by type. Unknown types are logged and
// acked.
func (s *CRMService) HandleEvent(ctx context.Context, evt *crm.Event) error {
	switch evt.EventType {
	case crm.EventContactCreated, crm.EventContactUpdated:
		return s.syncContact(ctx, evt.Contact)
	case crm.EventOpportunityCreated, crm.EventOpportunityUpdated:
		slog.Info("crm opportunity event", "type", evt.EventType, "location_id", evt.LocationID)
		return nil
	case crm.EventAppointmentBooked:
		slog.Info("crm appointment booked", "location_id", evt.LocationID)
		return nil
	default:
		slog.Debug("ignoring crm event", "type", evt.EventType, "location_id", evt.LocationID)
		return nil
	}
}

// syncContact mirrors inbound contact changes back through the CRM client so
// platform tags stay attached.
func (s *CRMService) syncContact(ctx context.Context, contact *crm.Contact) error {
	if s.crm == nil || contact == nil || contact.Email == "" {
		return nil
	}
	_, err := s.crm.UpsertContact(ctx, Contact{
		Name:  contact.Name,
		Email: contact.Email,
		Tags:  contact.Tags,
	})
	if err != nil {
		slog.Warn("crm contact sync failed", "contact_id", contact.ID, "error", err)
	}
	return nil
}
