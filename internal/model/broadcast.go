package model

import "time"

// Broadcast record states.
const (
	BroadcastPending  = "pending"
	BroadcastAccepted = "accepted"
	BroadcastDeclined = "declined"
)

// BroadcastRecord is one provider's standing offer for a broadcast gig. Rows
// are created in bulk at the moment the gig enters the broadcast phase, one
// per eligible provider.
type BroadcastRecord struct {
	ID         int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	GigID      string    `gorm:"size:36;not null;uniqueIndex:idx_broadcast_gig_provider" json:"gigId"`
	ProviderID string    `gorm:"size:36;not null;uniqueIndex:idx_broadcast_gig_provider" json:"providerId"`
	Status     string    `gorm:"size:16;not null;default:pending" json:"status"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
}
