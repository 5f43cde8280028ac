// Package engine implements the gig allocation state machine: candidate
// ranking on creation, the time-boxed direct-offer protocol and the
// first-acceptance-wins broadcast fallback. Deadlines are enforced lazily:
// there is no background sweeper, every command and status read evaluates
// the active deadline itself before doing anything else.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RichardAwuor/Nyota-KE-sub000/internal/geo"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/model"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/notification"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/store"
)

// Field bounds for gig creation.
const (
	MaxAddressLen     = 30
	MaxDescriptionLen = 160
)

// minCandidatesWarn is the soft threshold below which a thin match list is
// logged. The gig proceeds regardless.
const minCandidatesWarn = 3

// Options tunes the engine's windows and match list size. Zero values fall
// back to the defaults from the allocation protocol (180s windows, 5
// matches).
type Options struct {
	SelectionWindow time.Duration
	OfferWindow     time.Duration
	MaxMatches      int
}

// Engine validates commands, scores candidates and mutates gig state through
// the store's compare-and-set primitives.
type Engine struct {
	store           store.Store
	notifier        *notification.Pool
	selectionWindow time.Duration
	offerWindow     time.Duration
	maxMatches      int
	now             func() time.Time
}

// New creates an allocation engine. The notifier may be nil; events are then
// silently skipped.
func New(s store.Store, notifier *notification.Pool, opts Options) *Engine {
	if opts.SelectionWindow <= 0 {
		opts.SelectionWindow = 180 * time.Second
	}
	if opts.OfferWindow <= 0 {
		opts.OfferWindow = 180 * time.Second
	}
	if opts.MaxMatches <= 0 {
		opts.MaxMatches = geo.MaxMatches
	}
	return &Engine{
		store:           s,
		notifier:        notifier,
		selectionWindow: opts.SelectionWindow,
		offerWindow:     opts.OfferWindow,
		maxMatches:      opts.MaxMatches,
		now:             time.Now,
	}
}

// CreateGigInput carries the client-supplied fields of a new gig.
type CreateGigInput struct {
	ClientID        string
	Category        string
	Latitude        *float64
	Longitude       *float64
	PreferredGender string
	PaymentOffer    int
	DurationDays    int
	DurationHours   int
	Address         string
	Description     string
}

func (in *CreateGigInput) validate() error {
	if in.ClientID == "" {
		return errValidation("clientId is required")
	}
	if in.Category == "" {
		return errValidation("category is required")
	}
	if len(in.Address) > MaxAddressLen {
		return errValidation("address must be at most %d characters", MaxAddressLen)
	}
	if len(in.Description) > MaxDescriptionLen {
		return errValidation("description must be at most %d characters", MaxDescriptionLen)
	}
	if in.PaymentOffer < 1 {
		return errValidation("paymentOffer must be at least 1")
	}
	if in.DurationDays < 0 || in.DurationHours < 0 {
		return errValidation("duration must not be negative")
	}
	if in.DurationDays == 0 && in.DurationHours == 0 {
		return errValidation("duration must be positive in at least one unit")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return errValidation("latitude and longitude must be provided together")
	}
	switch in.PreferredGender {
	case "", model.GenderNone, model.GenderMale, model.GenderFemale:
	default:
		return errValidation("preferredGender must be none, male or female")
	}
	return nil
}

// CreateGig validates the input, persists the gig with its selection
// deadline and returns it together with up to MaxMatches ranked candidates.
func (e *Engine) CreateGig(ctx context.Context, in CreateGigInput) (*model.Gig, []geo.Match, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	if _, err := e.store.GetClient(ctx, in.ClientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errNotFound("client %s not found", in.ClientID)
		}
		return nil, nil, fmt.Errorf("failed to look up client %s: %w", in.ClientID, err)
	}

	now := e.now()
	preferred := in.PreferredGender
	if preferred == "" {
		preferred = model.GenderNone
	}
	gig := &model.Gig{
		ID:                 uuid.NewString(),
		ClientID:           in.ClientID,
		Category:           in.Category,
		Latitude:           in.Latitude,
		Longitude:          in.Longitude,
		PreferredGender:    preferred,
		PaymentOffer:       in.PaymentOffer,
		DurationDays:       in.DurationDays,
		DurationHours:      in.DurationHours,
		Address:            in.Address,
		Description:        in.Description,
		SelectionExpiresAt: now.Add(e.selectionWindow),
		CreatedAt:          now,
	}

	if err := e.store.CreateGig(ctx, gig); err != nil {
		return nil, nil, err
	}

	matches, err := e.rankCandidates(ctx, gig)
	if err != nil {
		return nil, nil, err
	}
	return gig, matches, nil
}

func (e *Engine) rankCandidates(ctx context.Context, gig *model.Gig) ([]geo.Match, error) {
	providers, err := e.store.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	matches := geo.Rank(gig, providers, e.maxMatches)
	if len(matches) < minCandidatesWarn {
		log.Printf("gig %s: only %d eligible candidate(s) found", gig.ID, len(matches))
	}
	return matches, nil
}

// MatchedProviders recomputes the ranked candidate list for an existing gig.
func (e *Engine) MatchedProviders(ctx context.Context, gigID string) ([]geo.Match, error) {
	gig, err := e.getGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	return e.rankCandidates(ctx, gig)
}

// GigsByClient lists a client's gigs, newest first.
func (e *Engine) GigsByClient(ctx context.Context, clientID string) ([]model.Gig, error) {
	if _, err := e.store.GetClient(ctx, clientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("client %s not found", clientID)
		}
		return nil, fmt.Errorf("failed to look up client %s: %w", clientID, err)
	}
	return e.store.GigsByClient(ctx, clientID)
}

// MatchesForProvider lists open gigs the given provider is eligible for.
func (e *Engine) MatchesForProvider(ctx context.Context, providerID string) ([]model.Gig, error) {
	provider, err := e.getProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	gigs, err := e.store.OpenGigs(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]model.Gig, 0, len(gigs))
	for i := range gigs {
		if _, ok := geo.Eligible(&gigs[i], provider); ok {
			matched = append(matched, gigs[i])
		}
	}
	return matched, nil
}

// SelectProvider places a direct offer on an open gig before the selection
// window closes.
func (e *Engine) SelectProvider(ctx context.Context, gigID, providerID string) (*model.Gig, error) {
	gig, err := e.observe(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if _, err := e.getProvider(ctx, providerID); err != nil {
		return nil, err
	}

	now := e.now()
	if !now.Before(gig.SelectionExpiresAt) {
		return nil, errConflict(CodeSelectionWindowClosed, "selection window for gig %s has closed", gigID)
	}
	if gig.Phase() != model.PhaseOpen {
		return nil, errConflict(CodeAlreadySelected, "gig %s already has a pending or resolved offer", gigID)
	}

	ok, err := e.store.SelectProvider(ctx, gigID, providerID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errRaceLost("gig %s was selected or resolved concurrently", gigID)
	}

	e.notify(notification.Event{
		Type:        notification.EventOfferSent,
		GigID:       gigID,
		ProviderIDs: []string{providerID},
	})
	return e.getGig(ctx, gigID)
}

// AcceptDirectOffer resolves a pending direct offer in the selected
// provider's favour and returns the gig together with the client whose
// contact may now be revealed.
func (e *Engine) AcceptDirectOffer(ctx context.Context, gigID, providerID string) (*model.Gig, *model.Client, error) {
	gig, err := e.observe(ctx, gigID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := e.getProvider(ctx, providerID); err != nil {
		return nil, nil, err
	}

	switch gig.Phase() {
	case model.PhasePendingDirectOffer:
		if *gig.SelectedProviderID != providerID {
			return nil, nil, errConflict(CodeNotSelectedProvider, "provider %s is not the selected provider for gig %s", providerID, gigID)
		}
	case model.PhaseBroadcast:
		return nil, nil, errConflict(CodeOfferExpired, "direct offer for gig %s has expired", gigID)
	case model.PhaseAccepted:
		return nil, nil, errRaceLost("gig %s has already been accepted", gigID)
	default:
		return nil, nil, errConflict(CodeNotSelectedProvider, "gig %s has no outstanding direct offer", gigID)
	}

	ok, err := e.store.AcceptDirect(ctx, gigID, providerID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, errRaceLost("direct offer for gig %s was resolved concurrently", gigID)
	}

	client, err := e.store.GetClient(ctx, gig.ClientID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load client %s: %w", gig.ClientID, err)
	}

	e.notify(notification.Event{
		Type:        notification.EventGigAccepted,
		GigID:       gigID,
		ProviderIDs: []string{providerID},
	})
	gig, err = e.getGig(ctx, gigID)
	if err != nil {
		return nil, nil, err
	}
	return gig, client, nil
}

// DeclineDirectOffer lets the selected provider refuse the offer. The gig
// immediately cascades into the broadcast phase.
func (e *Engine) DeclineDirectOffer(ctx context.Context, gigID, providerID string) (*model.Gig, error) {
	gig, err := e.observe(ctx, gigID)
	if err != nil {
		return nil, err
	}

	if gig.Phase() != model.PhasePendingDirectOffer || *gig.SelectedProviderID != providerID {
		return nil, errConflict(CodeNotSelectedProvider, "provider %s is not the selected provider for gig %s", providerID, gigID)
	}

	if _, err := e.broadcast(ctx, gig); err != nil {
		return nil, err
	}
	return e.getGig(ctx, gigID)
}

// Broadcast fans the gig out to every eligible provider and returns how many
// were reached. Idempotent: a second call fails with AlreadyBroadcast.
func (e *Engine) Broadcast(ctx context.Context, gigID string) (int, error) {
	gig, err := e.getGig(ctx, gigID)
	if err != nil {
		return 0, err
	}
	switch gig.Phase() {
	case model.PhaseBroadcast:
		return 0, errConflict(CodeAlreadyBroadcast, "gig %s has already been broadcast", gigID)
	case model.PhaseAccepted:
		return 0, errConflict(CodeNotOpen, "gig %s has already been accepted", gigID)
	}
	return e.broadcast(ctx, gig)
}

// broadcast performs the fan-out. The eligible set is recomputed in full
// (eligibility only, no ranking or truncation) and the conditional
// broadcast mark makes concurrent cascades collapse into one.
func (e *Engine) broadcast(ctx context.Context, gig *model.Gig) (int, error) {
	providers, err := e.store.ListProviders(ctx)
	if err != nil {
		return 0, err
	}
	now := e.now()
	eligible := geo.EligibleProviders(gig, providers)
	records := make([]model.BroadcastRecord, 0, len(eligible))
	for _, p := range eligible {
		records = append(records, model.BroadcastRecord{
			GigID:      gig.ID,
			ProviderID: p.ID,
			Status:     model.BroadcastPending,
			CreatedAt:  now,
		})
	}

	marked, err := e.store.MarkBroadcast(ctx, gig.ID, now, records)
	if err != nil {
		return 0, err
	}
	if !marked {
		return 0, errConflict(CodeAlreadyBroadcast, "gig %s has already been broadcast", gig.ID)
	}

	ids := make([]string, len(eligible))
	for i, p := range eligible {
		ids[i] = p.ID
	}
	e.notify(notification.Event{
		Type:        notification.EventGigBroadcast,
		GigID:       gig.ID,
		ProviderIDs: ids,
	})
	return len(records), nil
}

// AcceptBroadcastOffer lets a provider holding a pending broadcast record
// race for the gig. Exactly one such call can ever win.
func (e *Engine) AcceptBroadcastOffer(ctx context.Context, gigID, providerID string) (*model.Gig, error) {
	gig, err := e.observe(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if _, err := e.getProvider(ctx, providerID); err != nil {
		return nil, err
	}

	if gig.Phase() == model.PhaseAccepted {
		return nil, errRaceLost("gig %s has already been accepted", gigID)
	}
	pending, err := e.store.HasPendingBroadcast(ctx, gigID, providerID)
	if err != nil {
		return nil, err
	}
	if !pending {
		return nil, errConflict(CodeNotOpen, "provider %s has no pending broadcast offer for gig %s", providerID, gigID)
	}

	ok, err := e.store.AcceptBroadcast(ctx, gigID, providerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errRaceLost("another provider already accepted gig %s", gigID)
	}

	e.notify(notification.Event{
		Type:        notification.EventGigAccepted,
		GigID:       gigID,
		ProviderIDs: []string{providerID},
	})
	return e.getGig(ctx, gigID)
}

// Accept is the legacy open-pool claim: any provider may take a fully open
// gig, no selection or broadcast involved.
func (e *Engine) Accept(ctx context.Context, gigID, providerID string) (*model.Gig, error) {
	gig, err := e.observe(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if _, err := e.getProvider(ctx, providerID); err != nil {
		return nil, err
	}

	if gig.Phase() != model.PhaseOpen {
		return nil, errConflict(CodeNotOpen, "gig %s is not open", gigID)
	}

	ok, err := e.store.AcceptOpen(ctx, gigID, providerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errRaceLost("gig %s was claimed concurrently", gigID)
	}

	e.notify(notification.Event{
		Type:        notification.EventGigAccepted,
		GigID:       gigID,
		ProviderIDs: []string{providerID},
	})
	return e.getGig(ctx, gigID)
}

func (e *Engine) getGig(ctx context.Context, gigID string) (*model.Gig, error) {
	gig, err := e.store.GetGig(ctx, gigID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("gig %s not found", gigID)
		}
		return nil, fmt.Errorf("failed to load gig %s: %w", gigID, err)
	}
	return gig, nil
}

func (e *Engine) getProvider(ctx context.Context, providerID string) (*model.Provider, error) {
	provider, err := e.store.GetProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("provider %s not found", providerID)
		}
		return nil, fmt.Errorf("failed to load provider %s: %w", providerID, err)
	}
	return provider, nil
}

func (e *Engine) notify(ev notification.Event) {
	if e.notifier != nil {
		e.notifier.Dispatch(ev)
	}
}
