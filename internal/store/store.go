package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/RichardAwuor/Nyota-KE-sub000/internal/model"
)

// Store defines the persistence contract consumed by the allocation engine.
// Every winner-selection write is a compare-and-set: the boolean result
// reports whether the conditional update actually happened, and a false
// result is how the engine learns it lost a race.
type Store interface {
	DB() *gorm.DB

	CreateGig(ctx context.Context, gig *model.Gig) error
	GetGig(ctx context.Context, gigID string) (*model.Gig, error)
	GigsByClient(ctx context.Context, clientID string) ([]model.Gig, error)
	OpenGigs(ctx context.Context) ([]model.Gig, error)

	GetClient(ctx context.Context, clientID string) (*model.Client, error)
	GetProvider(ctx context.Context, providerID string) (*model.Provider, error)
	ListProviders(ctx context.Context) ([]model.Provider, error)
	UpsertClient(ctx context.Context, client *model.Client) error
	UpsertProvider(ctx context.Context, provider *model.Provider) error

	SelectProvider(ctx context.Context, gigID, providerID string, at time.Time) (bool, error)
	AcceptDirect(ctx context.Context, gigID, providerID string) (bool, error)
	AcceptOpen(ctx context.Context, gigID, providerID string) (bool, error)
	AcceptBroadcast(ctx context.Context, gigID, providerID string) (bool, error)
	MarkBroadcast(ctx context.Context, gigID string, at time.Time, records []model.BroadcastRecord) (bool, error)

	HasPendingBroadcast(ctx context.Context, gigID, providerID string) (bool, error)
	BroadcastRecords(ctx context.Context, gigID string) ([]model.BroadcastRecord, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) CreateGig(ctx context.Context, gig *model.Gig) error {
	if err := s.db.WithContext(ctx).Create(gig).Error; err != nil {
		return fmt.Errorf("failed to create gig: %w", err)
	}
	return nil
}

func (s *gormStore) GetGig(ctx context.Context, gigID string) (*model.Gig, error) {
	var gig model.Gig
	if err := s.db.WithContext(ctx).First(&gig, "id = ?", gigID).Error; err != nil {
		return nil, err
	}
	return &gig, nil
}

func (s *gormStore) GigsByClient(ctx context.Context, clientID string) ([]model.Gig, error) {
	var gigs []model.Gig
	err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&gigs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list gigs for client %s: %w", clientID, err)
	}
	return gigs, nil
}

// OpenGigs returns every gig still in the open phase: no winner, no
// selection, no broadcast.
func (s *gormStore) OpenGigs(ctx context.Context) ([]model.Gig, error) {
	var gigs []model.Gig
	err := s.db.WithContext(ctx).
		Where("accepted_provider_id IS NULL AND selected_provider_id IS NULL AND broadcast_at IS NULL").
		Order("created_at DESC").
		Find(&gigs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list open gigs: %w", err)
	}
	return gigs, nil
}

func (s *gormStore) GetClient(ctx context.Context, clientID string) (*model.Client, error) {
	var client model.Client
	if err := s.db.WithContext(ctx).First(&client, "id = ?", clientID).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *gormStore) GetProvider(ctx context.Context, providerID string) (*model.Provider, error) {
	var provider model.Provider
	if err := s.db.WithContext(ctx).First(&provider, "id = ?", providerID).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

func (s *gormStore) ListProviders(ctx context.Context) ([]model.Provider, error) {
	var providers []model.Provider
	if err := s.db.WithContext(ctx).Find(&providers).Error; err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return providers, nil
}

// UpsertClient inserts or refreshes a client row. Client records are
// provisioned by the registration collaborator, not by the engine.
func (s *gormStore) UpsertClient(ctx context.Context, client *model.Client) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "updated_at"}),
	}).Create(client).Error
	if err != nil {
		return fmt.Errorf("failed to upsert client %s: %w", client.ID, err)
	}
	return nil
}

// UpsertProvider inserts or refreshes a provider profile row.
func (s *gormStore) UpsertProvider(ctx context.Context, provider *model.Provider) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "gender", "photo_url", "latitude", "longitude",
			"commute_distance_km", "subscription_status", "service_categories", "updated_at",
		}),
	}).Create(provider).Error
	if err != nil {
		return fmt.Errorf("failed to upsert provider %s: %w", provider.ID, err)
	}
	return nil
}

// SelectProvider places a direct offer. The write only happens while the gig
// is still open: no prior selection, no winner, no broadcast.
func (s *gormStore) SelectProvider(ctx context.Context, gigID, providerID string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Gig{}).
		Where("id = ? AND selected_provider_id IS NULL AND accepted_provider_id IS NULL AND broadcast_at IS NULL", gigID).
		Updates(map[string]any{
			"selected_provider_id": providerID,
			"direct_offer_sent_at": at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to select provider for gig %s: %w", gigID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// AcceptDirect resolves a direct offer in the selected provider's favour.
// The guard on selected_provider_id makes the offer non-transferable and the
// guard on accepted_provider_id makes the win exactly-once.
func (s *gormStore) AcceptDirect(ctx context.Context, gigID, providerID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Gig{}).
		Where("id = ? AND selected_provider_id = ? AND accepted_provider_id IS NULL", gigID, providerID).
		Updates(map[string]any{
			"accepted_provider_id": providerID,
			"selected_provider_id": nil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to accept direct offer for gig %s: %w", gigID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// AcceptOpen is the legacy open-pool claim: any provider may take a gig that
// is still fully open.
func (s *gormStore) AcceptOpen(ctx context.Context, gigID, providerID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Gig{}).
		Where("id = ? AND accepted_provider_id IS NULL AND selected_provider_id IS NULL AND broadcast_at IS NULL", gigID).
		Update("accepted_provider_id", providerID)
	if res.Error != nil {
		return false, fmt.Errorf("failed to accept open gig %s: %w", gigID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// AcceptBroadcast is the first-acceptance-wins race. The conditional update
// on the gig row decides the winner; the provider's broadcast record is
// flipped in the same transaction so the two never disagree.
func (s *gormStore) AcceptBroadcast(ctx context.Context, gigID, providerID string) (bool, error) {
	won := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Gig{}).
			Where("id = ? AND accepted_provider_id IS NULL", gigID).
			Update("accepted_provider_id", providerID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		won = true
		return tx.Model(&model.BroadcastRecord{}).
			Where("gig_id = ? AND provider_id = ?", gigID, providerID).
			Update("status", model.BroadcastAccepted).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to accept broadcast offer for gig %s: %w", gigID, err)
	}
	return won, nil
}

// MarkBroadcast moves a gig into the broadcast phase and fans out one
// pending record per eligible provider. The conditional update on
// broadcast_at is the idempotence guard: concurrent observers of the same
// deadline race through here and only one of them inserts the rows.
func (s *gormStore) MarkBroadcast(ctx context.Context, gigID string, at time.Time, records []model.BroadcastRecord) (bool, error) {
	marked := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Gig{}).
			Where("id = ? AND broadcast_at IS NULL AND accepted_provider_id IS NULL", gigID).
			Updates(map[string]any{
				"broadcast_at":         at,
				"selected_provider_id": nil,
				"direct_offer_sent_at": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		marked = true
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to broadcast gig %s: %w", gigID, err)
	}
	return marked, nil
}

func (s *gormStore) HasPendingBroadcast(ctx context.Context, gigID, providerID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.BroadcastRecord{}).
		Where("gig_id = ? AND provider_id = ? AND status = ?", gigID, providerID, model.BroadcastPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up broadcast record for gig %s: %w", gigID, err)
	}
	return count > 0, nil
}

func (s *gormStore) BroadcastRecords(ctx context.Context, gigID string) ([]model.BroadcastRecord, error) {
	var records []model.BroadcastRecord
	err := s.db.WithContext(ctx).
		Where("gig_id = ?", gigID).
		Order("provider_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcast records for gig %s: %w", gigID, err)
	}
	return records, nil
}
