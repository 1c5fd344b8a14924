// internal/models/event.go
package models

import "time"

// DealEventType names a lifecycle change announced to downstream systems.
type DealEventType string

const (
	DealEventConverted   DealEventType = "deal.converted"
	DealEventCancelled   DealEventType = "deal.cancelled"
	DealEventReactivated DealEventType = "deal.reactivated"
)

// DealEvent is published after the change it describes is durably stored.
type DealEvent struct {
	EventID       string        `json:"eventId"`
	Type          DealEventType `json:"type"`
	DealID        string        `json:"dealId"`
	OwnerID       string        `json:"ownerId"`
	DealNumber    int           `json:"dealNumber,omitempty"`
	Status        ProjectStatus `json:"status,omitempty"`
	PaymentAmount float64       `json:"paymentAmount,omitempty"`
	UpfrontPay    float64       `json:"upfrontPay,omitempty"`
	OccurredAt    time.Time     `json:"occurredAt"`
}
