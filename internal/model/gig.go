package model

import "time"

// Gender preference values accepted on a gig. A provider's gender uses the
// same constants minus GenderNone.
const (
	GenderNone   = "none"
	GenderMale   = "male"
	GenderFemale = "female"
)

// Gig represents a client-posted service request. Its lifecycle phase is
// never stored; it is derived from the nullable winner/timestamp columns,
// see Phase.
type Gig struct {
	ID              string   `gorm:"primaryKey;size:36" json:"id"`
	ClientID        string   `gorm:"index;size:36;not null" json:"clientId"`
	Category        string   `gorm:"size:64;not null" json:"category"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	PreferredGender string   `gorm:"size:8;not null;default:none" json:"preferredGender"`
	PaymentOffer    int      `gorm:"not null" json:"paymentOffer"`
	DurationDays    int      `gorm:"not null" json:"durationDays"`
	DurationHours   int      `gorm:"not null" json:"durationHours"`
	Address         string   `gorm:"size:30;not null" json:"address"`
	Description     string   `gorm:"size:160" json:"description"`

	SelectedProviderID *string    `gorm:"size:36;index" json:"selectedProviderId"`
	AcceptedProviderID *string    `gorm:"size:36;index" json:"acceptedProviderId"`
	SelectionExpiresAt time.Time  `gorm:"not null" json:"selectionExpiresAt"`
	DirectOfferSentAt  *time.Time `json:"directOfferSentAt"`
	BroadcastAt        *time.Time `json:"broadcastAt"`
	CreatedAt          time.Time  `gorm:"not null;index" json:"createdAt"`
}

// GigPhase is the derived lifecycle phase of a gig.
type GigPhase string

const (
	PhaseOpen               GigPhase = "open"
	PhasePendingDirectOffer GigPhase = "pending_direct_offer"
	PhaseBroadcast          GigPhase = "broadcast"
	PhaseAccepted           GigPhase = "accepted"
)

// Phase computes the gig's lifecycle phase from its nullable columns. An
// accepted winner dominates everything else; a set broadcastAt dominates a
// lingering selection (the decline cascade clears the selection, but the two
// can coexist transiently).
func (g *Gig) Phase() GigPhase {
	switch {
	case g.AcceptedProviderID != nil:
		return PhaseAccepted
	case g.BroadcastAt != nil:
		return PhaseBroadcast
	case g.SelectedProviderID != nil:
		return PhasePendingDirectOffer
	default:
		return PhaseOpen
	}
}

// HasLocation reports whether both coordinates are present.
func (g *Gig) HasLocation() bool {
	return g.Latitude != nil && g.Longitude != nil
}
