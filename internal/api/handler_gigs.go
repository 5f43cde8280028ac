package api

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RichardAwuor/Nyota-KE-sub000/internal/engine"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/geo"
)

type createGigRequest struct {
	ClientID        string   `json:"clientId" binding:"required"`
	Category        string   `json:"category" binding:"required"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	PreferredGender string   `json:"preferredGender"`
	PaymentOffer    int      `json:"paymentOffer"`
	DurationDays    int      `json:"durationDays"`
	DurationHours   int      `json:"durationHours"`
	Address         string   `json:"address"`
	Description     string   `json:"description"`
}

type providerIDRequest struct {
	ProviderID string `json:"providerId" binding:"required"`
}

// matchedProviderResponse is the public projection of a ranked candidate.
type matchedProviderResponse struct {
	ID         string  `json:"id"`
	Gender     string  `json:"gender"`
	PhotoURL   string  `json:"photoUrl"`
	DistanceKm float64 `json:"distanceKm"`
	Score      float64 `json:"score"`
}

func toMatchedProviders(matches []geo.Match) []matchedProviderResponse {
	out := make([]matchedProviderResponse, len(matches))
	for i, m := range matches {
		out[i] = matchedProviderResponse{
			ID:         m.Provider.ID,
			Gender:     m.Provider.Gender,
			PhotoURL:   m.Provider.PhotoURL,
			DistanceKm: math.Round(m.DistanceKm*100) / 100,
			Score:      m.Score,
		}
	}
	return out
}

// CreateGig handles POST /gigs.
func (h *Handler) CreateGig(c *gin.Context) {
	var req createGigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "ValidationError", "message": err.Error()})
		return
	}

	gig, matches, err := h.engine.CreateGig(c.Request.Context(), engine.CreateGigInput{
		ClientID:        req.ClientID,
		Category:        req.Category,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		PreferredGender: req.PreferredGender,
		PaymentOffer:    req.PaymentOffer,
		DurationDays:    req.DurationDays,
		DurationHours:   req.DurationHours,
		Address:         req.Address,
		Description:     req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"gig":              gig,
		"matchedProviders": toMatchedProviders(matches),
	})
}

// GigsByClient handles GET /gigs/client/{clientId}.
func (h *Handler) GigsByClient(c *gin.Context) {
	gigs, err := h.engine.GigsByClient(c.Request.Context(), c.Param("clientId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gigs)
}

// MatchesForProvider handles GET /gigs/matches/{providerId}.
func (h *Handler) MatchesForProvider(c *gin.Context) {
	gigs, err := h.engine.MatchesForProvider(c.Request.Context(), c.Param("providerId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gigs)
}

// MatchedProviders handles GET /gigs/{gigId}/matched-providers.
func (h *Handler) MatchedProviders(c *gin.Context) {
	matches, err := h.engine.MatchedProviders(c.Request.Context(), c.Param("gigId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMatchedProviders(matches))
}

// SelectProvider handles POST /gigs/{gigId}/select-provider.
func (h *Handler) SelectProvider(c *gin.Context) {
	var req providerIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "ValidationError", "message": err.Error()})
		return
	}

	gig, err := h.engine.SelectProvider(c.Request.Context(), c.Param("gigId"), req.ProviderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gig": gig})
}

// AcceptDirectOffer handles POST /gigs/{gigId}/accept-direct-offer.
func (h *Handler) AcceptDirectOffer(c *gin.Context) {
	var req providerIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "ValidationError", "message": err.Error()})
		return
	}

	gig, client, err := h.engine.AcceptDirectOffer(c.Request.Context(), c.Param("gigId"), req.ProviderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"gig": gig,
		"clientContact": gin.H{
			"name":  client.Name,
			"phone": client.Phone,
		},
	})
}

// DeclineDirectOffer handles POST /gigs/{gigId}/decline-direct-offer.
func (h *Handler) DeclineDirectOffer(c *gin.Context) {
	var req providerIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "ValidationError", "message": err.Error()})
		return
	}

	gig, err := h.engine.DeclineDirectOffer(c.Request.Context(), c.Param("gigId"), req.ProviderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gig": gig})
}

// Broadcast handles POST /gigs/{gigId}/broadcast.
func (h *Handler) Broadcast(c *gin.Context) {
	count, err := h.engine.Broadcast(c.Request.Context(), c.Param("gigId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"broadcastCount": count})
}

// AcceptBroadcastOffer handles POST /gigs/{gigId}/accept-broadcast-offer.
func (h *Handler) AcceptBroadcastOffer(c *gin.Context) {
	var req providerIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "ValidationError", "message": err.Error()})
		return
	}

	gig, err := h.engine.AcceptBroadcastOffer(c.Request.Context(), c.Param("gigId"), req.ProviderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gig": gig})
}

// GetStatus handles GET /gigs/{gigId}/status.
func (h *Handler) GetStatus(c *gin.Context) {
	status, err := h.engine.GetStatus(c.Request.Context(), c.Param("gigId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Accept handles PUT /gigs/{gigId}/accept, the legacy open-pool claim.
func (h *Handler) Accept(c *gin.Context) {
	var req providerIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "ValidationError", "message": err.Error()})
		return
	}

	gig, err := h.engine.Accept(c.Request.Context(), c.Param("gigId"), req.ProviderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gig": gig})
}
