// Package crm defines the GoHighLevel webhook event model.
package crm

// Event types routed by the CRM webhook handler.
const (
	EventContactCreated     = "contact.created"
	EventContactUpdated     = "contact.updated"
	EventOpportunityCreated = "opportunity.created"
	EventOpportunityUpdated = "opportunity.updated"
	EventAppointmentBooked  = "appointment.booked"
)

// Event is the decoded envelope of an inbound GoHighLevel webhook.
type Event struct {
	EventType  string         `json:"event_type"`
	LocationID string         `json:"location_id,omitempty"`
	Contact    *Contact       `json:"contact,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Contact is the CRM contact projection carried on contact events.
type Contact struct {
	ID    string   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Phone string   `json:"phone,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}
