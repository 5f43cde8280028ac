package model

import "time"

// Subscription states supplied by the billing collaborator.
const (
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
)

// Provider represents a service professional. Profile fields (location,
// commute range, gender, categories) are supplied by the identity
// collaborator and read-only to the allocation engine.
type Provider struct {
	ID                 string   `gorm:"primaryKey;size:36" json:"id"`
	Name               string   `gorm:"size:128;not null" json:"name"`
	Gender             string   `gorm:"size:8;not null" json:"gender"`
	PhotoURL           string   `gorm:"size:256" json:"photoUrl"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	CommuteDistanceKm  int      `gorm:"not null;default:10" json:"commuteDistanceKm"`
	SubscriptionStatus string   `gorm:"size:16;not null;default:expired" json:"subscriptionStatus"`
	ServiceCategories  []string `gorm:"serializer:json" json:"serviceCategories"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// HasLocation reports whether both coordinates are present.
func (p *Provider) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Client represents a gig poster. Contact details are revealed to a provider
// only once an offer is accepted.
type Client struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Phone     string    `gorm:"size:32" json:"phone"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}
