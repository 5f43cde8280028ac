package engine

import (
	"context"
	"errors"

	"github.com/RichardAwuor/Nyota-KE-sub000/internal/model"
)

// Status is the derived, caller-facing view of a gig's allocation state.
type Status struct {
	Phase                           model.GigPhase `json:"phase"`
	SelectionTimeRemainingSeconds   int64          `json:"selectionTimeRemainingSeconds"`
	AcceptOfferTimeRemainingSeconds int64          `json:"acceptOfferTimeRemainingSeconds"`
	IsBroadcast                     bool           `json:"isBroadcast"`
}

// GetStatus reports the gig's derived phase and timer state. Like every
// other observing call it first resolves any crossed deadline, so a stale
// open or pending gig cascades into broadcast here before being reported.
func (e *Engine) GetStatus(ctx context.Context, gigID string) (*Status, error) {
	gig, err := e.observe(ctx, gigID)
	if err != nil {
		return nil, err
	}
	return e.statusOf(gig), nil
}

func (e *Engine) statusOf(gig *model.Gig) *Status {
	now := e.now()
	st := &Status{
		Phase:       gig.Phase(),
		IsBroadcast: gig.BroadcastAt != nil,
	}
	if remaining := gig.SelectionExpiresAt.Sub(now); remaining > 0 {
		st.SelectionTimeRemainingSeconds = int64(remaining.Seconds())
	}
	if gig.Phase() == model.PhasePendingDirectOffer && gig.DirectOfferSentAt != nil {
		if remaining := gig.DirectOfferSentAt.Add(e.offerWindow).Sub(now); remaining > 0 {
			st.AcceptOfferTimeRemainingSeconds = int64(remaining.Seconds())
		}
	}
	return st
}

// observe loads a gig and lazily enforces its active deadline. There is no
// background sweeper: if the selection window elapsed with no selection, or
// the direct offer went unanswered past the offer window, the observing call
// itself performs the broadcast cascade. The conditional broadcast mark in
// the store keeps concurrent observers from cascading twice.
func (e *Engine) observe(ctx context.Context, gigID string) (*model.Gig, error) {
	gig, err := e.getGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if !e.deadlineCrossed(gig) {
		return gig, nil
	}

	if _, err := e.broadcast(ctx, gig); err != nil {
		// A concurrent observer may have cascaded first; that is the
		// outcome we wanted.
		var engErr *Error
		if !errors.As(err, &engErr) || engErr.Code != CodeAlreadyBroadcast {
			return nil, err
		}
	}
	return e.getGig(ctx, gigID)
}

func (e *Engine) deadlineCrossed(gig *model.Gig) bool {
	now := e.now()
	switch gig.Phase() {
	case model.PhaseOpen:
		return !now.Before(gig.SelectionExpiresAt)
	case model.PhasePendingDirectOffer:
		return gig.DirectOfferSentAt != nil && !now.Before(gig.DirectOfferSentAt.Add(e.offerWindow))
	default:
		return false
	}
}
